// Package session persists login sessions in Redis. A session references
// exactly one user and stores only the SHA-256 hash of its secret; the
// clear secret exists client-side only. Expiration is sliding: every
// successful renewal rotates the secret and pushes the expiry forward by
// the full validity window.
//
// Records are stored as versioned binary blobs so the renewal Lua script
// can parse and splice them in place without a round trip.
package session

import (
	"encoding/binary"
	"errors"
	"time"
)

const recordVersionV1 = 1

// ErrCorruptRecord is returned when a stored session blob cannot be
// decoded.
var ErrCorruptRecord = errors.New("corrupt session record")

// Session is one stored login session.
type Session struct {
	ID         string
	UserID     string
	SecretHash [32]byte
	CreatedAt  int64 // unix seconds
	ExpiresAt  int64 // unix seconds
}

// Expired reports whether the session's expiry has passed at the given
// instant. An expired session must never be treated as valid, even if
// its secret would verify.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt <= now.Unix()
}

// Binary record layout, version 1:
//
//	[0]    version
//	[1]    user ID length
//	[2:]   user ID
//	+32    secret hash
//	+8     created-at, unix seconds, big endian
//	+8     expires-at, unix seconds, big endian
func encodeSession(s *Session) ([]byte, error) {
	if len(s.UserID) == 0 || len(s.UserID) > 255 {
		return nil, errors.New("session user ID must be 1-255 bytes")
	}

	buf := make([]byte, 0, 2+len(s.UserID)+48)
	buf = append(buf, recordVersionV1, byte(len(s.UserID)))
	buf = append(buf, s.UserID...)
	buf = append(buf, s.SecretHash[:]...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(s.CreatedAt))
	buf = binary.BigEndian.AppendUint64(buf, uint64(s.ExpiresAt))
	return buf, nil
}

func decodeSession(id string, data []byte) (*Session, error) {
	if len(data) < 2 || data[0] != recordVersionV1 {
		return nil, ErrCorruptRecord
	}

	userIDLen := int(data[1])
	if userIDLen == 0 || len(data) != 2+userIDLen+48 {
		return nil, ErrCorruptRecord
	}

	s := &Session{ID: id, UserID: string(data[2 : 2+userIDLen])}
	offset := 2 + userIDLen
	copy(s.SecretHash[:], data[offset:offset+32])
	offset += 32
	s.CreatedAt = int64(binary.BigEndian.Uint64(data[offset : offset+8]))
	s.ExpiresAt = int64(binary.BigEndian.Uint64(data[offset+8 : offset+16]))
	return s, nil
}
