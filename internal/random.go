// Package internal holds credential-material helpers shared by the
// engine and its stores: random identifiers, session secrets, and the
// fast hash applied to high-entropy secrets before storage.
package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

const (
	sessionIDSize     = 16
	sessionSecretSize = 32
)

// NewSessionID returns a 128-bit random session identifier encoded as
// unpadded base64url.
func NewSessionID() (string, error) {
	var raw [sessionIDSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// ValidSessionID reports whether id decodes to a session identifier of
// the expected size.
func ValidSessionID(id string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(id)
	return err == nil && len(raw) == sessionIDSize
}

// NewSessionSecret returns a 256-bit random session secret encoded as
// unpadded base64url. The clear secret is handed to the client exactly
// once; only its hash is ever stored.
func NewSessionSecret() (string, error) {
	var raw [sessionSecretSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// HashSecret reduces a high-entropy secret to its storage form. Session
// secrets and reset tokens are random, so a single SHA-256 pass is
// sufficient; low-entropy login passwords go through package password
// instead.
func HashSecret(secret string) [32]byte {
	return sha256.Sum256([]byte(secret))
}
