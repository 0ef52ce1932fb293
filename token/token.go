// Package token issues and verifies the signed identity assertions an
// SSO backend hands to downstream relying parties. An assertion carries
// the authenticated user's identity, status, and commissions; relying
// parties verify it offline with the configured public key.
package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the assertion signature scheme.
type SigningMethod string

const (
	// MethodEd25519 signs with an Ed25519 key pair (default).
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 signs with a shared HMAC secret.
	MethodHS256 SigningMethod = "hs256"
)

// ErrTokenInvalid is returned for assertions that fail signature or
// claims validation.
var ErrTokenInvalid = errors.New("invalid identity token")

// Config holds the assertion signing parameters.
type Config struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

// IdentityClaims is the assertion payload. Status and commissions use
// their abbreviations; relying parties treat them as opaque labels.
type IdentityClaims struct {
	Email       string   `json:"email"`
	Name        string   `json:"name,omitempty"`
	Status      string   `json:"status"`
	Commissions []string `json:"commissions,omitempty"`
	Admin       bool     `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies identity assertions. Immutable after
// construction, safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates the configuration and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("token: TTL must be positive")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("token: leeway must be within [0, 2m]")
	}

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("token: hs256 requires a shared secret")
		}
	case MethodEd25519:
		if len(cfg.PrivateKey) != ed25519.PrivateKeySize {
			return nil, errors.New("token: ed25519 requires a 64-byte private key")
		}
		if len(cfg.PublicKey) != 0 && len(cfg.PublicKey) != ed25519.PublicKeySize {
			return nil, errors.New("token: ed25519 public key must be 32 bytes")
		}
	default:
		return nil, fmt.Errorf("token: unsupported signing method %q", cfg.SigningMethod)
	}

	return &Manager{config: cfg}, nil
}

// Issue signs an assertion for the given subject. sessionID becomes the
// token ID so relying parties can correlate assertions with sessions.
func (m *Manager) Issue(subject, sessionID string, claims IdentityClaims) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		ID:        sessionID,
		Issuer:    m.config.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	switch m.config.SigningMethod {
	case MethodHS256:
		return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
			SignedString(m.config.PrivateKey)
	case MethodEd25519:
		return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).
			SignedString(ed25519.PrivateKey(m.config.PrivateKey))
	}
	return "", fmt.Errorf("token: unsupported signing method %q", m.config.SigningMethod)
}

// Verify parses and validates an assertion, returning its claims.
func (m *Manager) Verify(tokenString string) (*IdentityClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.config.Leeway),
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}
	switch m.config.SigningMethod {
	case MethodHS256:
		options = append(options, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	case MethodEd25519:
		options = append(options, jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}))
	}

	claims := &IdentityClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, m.verifyKey, options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (m *Manager) verifyKey(*jwt.Token) (interface{}, error) {
	switch m.config.SigningMethod {
	case MethodHS256:
		return m.config.PrivateKey, nil
	case MethodEd25519:
		if len(m.config.PublicKey) == ed25519.PublicKeySize {
			return ed25519.PublicKey(m.config.PublicKey), nil
		}
		return ed25519.PrivateKey(m.config.PrivateKey).Public(), nil
	}
	return nil, fmt.Errorf("token: unsupported signing method %q", m.config.SigningMethod)
}
