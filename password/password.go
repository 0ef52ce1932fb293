// Package password hashes and verifies login passwords with Argon2id.
// Hashes are stored in PHC string format, so parameter upgrades can be
// detected at verification time and the caller can transparently rehash.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	algorithmID = "argon2id"

	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	minPassBytes          = 8
)

// ErrMalformedHash is returned when a stored hash cannot be parsed as a
// PHC argon2id string.
var ErrMalformedHash = errors.New("malformed password hash")

// Params are the Argon2id cost parameters. The zero value is invalid;
// use [DefaultParams] as a starting point.
type Params struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams returns interactive-login cost parameters.
func DefaultParams() Params {
	return Params{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher hashes and verifies passwords under a fixed parameter set.
// A Hasher is immutable after construction and safe for concurrent use.
type Hasher struct {
	params Params
}

// NewHasher validates the parameters and returns a Hasher.
func NewHasher(params Params) (*Hasher, error) {
	switch {
	case params.Memory < minMemoryKB:
		return nil, errors.New("password: memory must be >= 8192 KB")
	case params.Time < minTimeCost:
		return nil, errors.New("password: time cost must be >= 1")
	case params.Parallelism < minParallelism:
		return nil, errors.New("password: parallelism must be >= 1")
	case params.SaltLength < minSaltLength:
		return nil, errors.New("password: salt length must be >= 16")
	case params.KeyLength < minKeyLength:
		return nil, errors.New("password: key length must be >= 16")
	}
	return &Hasher{params: params}, nil
}

// Hash derives an Argon2id hash of the password and encodes it in PHC
// format. Password bytes are used exactly as provided.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) < minPassBytes {
		return "", fmt.Errorf("password: must be at least %d bytes", minPassBytes)
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		h.params.Time,
		h.params.Memory,
		h.params.Parallelism,
		h.params.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks candidate against the stored hash in constant time.
// needsRehash reports whether the stored hash was produced with weaker
// parameters than the hasher's current ones; it is only meaningful when
// match is true, and the caller is expected to rehash and persist the
// candidate in that case.
func (h *Hasher) Verify(storedHash, candidate string) (match, needsRehash bool, err error) {
	parsed, err := parseHash(storedHash)
	if err != nil {
		return false, false, err
	}

	computed := argon2.IDKey(
		[]byte(candidate),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		uint32(len(parsed.key)),
	)

	if subtle.ConstantTimeCompare(computed, parsed.key) != 1 {
		return false, false, nil
	}

	needsRehash = parsed.memory < h.params.Memory ||
		parsed.time < h.params.Time ||
		parsed.parallelism < h.params.Parallelism ||
		uint32(len(parsed.key)) != h.params.KeyLength
	return true, needsRehash, nil
}

type parsedHash struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parseHash(encoded string) (*parsedHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, ErrMalformedHash
	}
	if parts[1] != algorithmID {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrMalformedHash, parts[1])
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if !strings.HasPrefix(parts[2], "v=") || err != nil {
		return nil, fmt.Errorf("%w: bad version", ErrMalformedHash)
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("%w: unsupported argon2 version %d", ErrMalformedHash, version)
	}

	parsed := &parsedHash{}
	if err := parseCostParams(parts[3], parsed); err != nil {
		return nil, err
	}

	if parsed.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("%w: bad salt encoding", ErrMalformedHash)
	}
	if len(parsed.salt) < int(minSaltLength) {
		return nil, fmt.Errorf("%w: salt too short", ErrMalformedHash)
	}
	if parsed.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("%w: bad key encoding", ErrMalformedHash)
	}
	if len(parsed.key) == 0 {
		return nil, fmt.Errorf("%w: empty key", ErrMalformedHash)
	}

	return parsed, nil
}

func parseCostParams(part string, parsed *parsedHash) error {
	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return fmt.Errorf("%w: bad cost parameters", ErrMalformedHash)
	}

	var haveMemory, haveTime, haveParallelism bool
	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return fmt.Errorf("%w: bad cost parameter %q", ErrMalformedHash, pair)
		}
		switch kv[0] {
		case "m":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v == 0 {
				return fmt.Errorf("%w: bad memory parameter", ErrMalformedHash)
			}
			parsed.memory = uint32(v)
			haveMemory = true
		case "t":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v == 0 {
				return fmt.Errorf("%w: bad time parameter", ErrMalformedHash)
			}
			parsed.time = uint32(v)
			haveTime = true
		case "p":
			v, err := strconv.ParseUint(kv[1], 10, 8)
			if err != nil || v == 0 {
				return fmt.Errorf("%w: bad parallelism parameter", ErrMalformedHash)
			}
			parsed.parallelism = uint8(v)
			haveParallelism = true
		default:
			return fmt.Errorf("%w: unknown cost parameter %q", ErrMalformedHash, kv[0])
		}
	}
	if !haveMemory || !haveTime || !haveParallelism {
		return fmt.Errorf("%w: missing cost parameters", ErrMalformedHash)
	}
	return nil
}
