package corsso

import (
	"errors"
	"time"

	"github.com/holsatia/corsso/password"
	"github.com/holsatia/corsso/token"
)

// Config groups all engine settings. Construct it from
// [DefaultConfig] and override what you need; Build validates it.
type Config struct {
	Auth     AuthConfig
	Session  SessionConfig
	Reset    ResetConfig
	Password password.Params
	Token    TokenConfig
	Metrics  MetricsConfig
}

/*
====================================
AUTH CONFIG
====================================
*/

// AuthConfig controls the failed-login policy.
type AuthConfig struct {
	// MaxFailedLogins disables the account once the durable counter
	// reaches it. Default 3.
	MaxFailedLogins int
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session storage and lifetime.
type SessionConfig struct {
	// RedisPrefix namespaces all session keys. Default "css".
	RedisPrefix string
	// Validity is the sliding expiration window. Every successful
	// resolve pushes the expiry to now + Validity. Default one week.
	Validity time.Duration
}

/*
====================================
PASSWORD RESET CONFIG
====================================
*/

// ResetConfig controls password-reset tokens.
type ResetConfig struct {
	// RedisPrefix namespaces reset keys. Default "cpr".
	RedisPrefix string
	// Validity is the token lifetime; a second request within it is
	// rejected. Default 24h.
	Validity time.Duration
}

/*
====================================
IDENTITY TOKEN CONFIG
====================================
*/

// TokenConfig controls identity assertions for downstream relying
// parties. Issuance is disabled unless Enabled is set.
type TokenConfig struct {
	Enabled       bool
	TTL           time.Duration
	SigningMethod token.SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles in-process operation counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the documented fallbacks: failed-login threshold
// 3, session validity one week, reset validity one day, interactive
// Argon2id parameters, identity tokens off, metrics on.
func DefaultConfig() Config {
	return Config{
		Auth: AuthConfig{
			MaxFailedLogins: 3,
		},
		Session: SessionConfig{
			RedisPrefix: "css",
			Validity:    7 * 24 * time.Hour,
		},
		Reset: ResetConfig{
			RedisPrefix: "cpr",
			Validity:    24 * time.Hour,
		},
		Password: password.DefaultParams(),
		Token: TokenConfig{
			Enabled:       false,
			TTL:           5 * time.Minute,
			SigningMethod: token.MethodEd25519,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration for internal consistency. Password
// and token parameters are validated by their own constructors during
// Build.
func (c Config) Validate() error {
	if c.Auth.MaxFailedLogins < 1 {
		return errors.New("config: MaxFailedLogins must be >= 1")
	}
	if c.Session.RedisPrefix == "" {
		return errors.New("config: session RedisPrefix required")
	}
	if c.Session.Validity < time.Minute {
		return errors.New("config: session Validity must be >= 1m")
	}
	if c.Reset.RedisPrefix == "" {
		return errors.New("config: reset RedisPrefix required")
	}
	if c.Reset.RedisPrefix == c.Session.RedisPrefix {
		return errors.New("config: reset and session prefixes must differ")
	}
	if c.Reset.Validity < time.Minute {
		return errors.New("config: reset Validity must be >= 1m")
	}
	if c.Token.Enabled && c.Token.TTL <= 0 {
		return errors.New("config: token TTL must be positive when issuance is enabled")
	}
	return nil
}
