package corsso

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/holsatia/corsso/internal"
	"github.com/redis/go-redis/v9"
)

var (
	errResetNotFound         = errors.New("reset token not found")
	errResetAlreadyPending   = errors.New("reset already pending")
	errResetRedisUnavailable = errors.New("reset redis unavailable")
)

// resetStore keeps password-reset tokens in Redis. Tokens are random
// UUIDs handed to the user in clear; only the SHA-256 of the token is
// keyed. A per-user pending marker enforces at most one live token per
// user; both keys expire with the validity window, which is the lazy
// pruning the reset flow relies on.
type resetStore struct {
	redis  redis.UniversalClient
	prefix string
}

// issueScript writes the pending marker and the token key in one step,
// so a pending marker can never exist without a redeemable token behind
// it.
//
// KEYS[1] pending key, KEYS[2] token key; ARGV: user ID, TTL ms.
const issueScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", tonumber(ARGV[2]))
redis.call("SET", KEYS[2], ARGV[1], "PX", tonumber(ARGV[2]))
return 1
`

var issueLua = redis.NewScript(issueScript)

func newResetStore(client redis.UniversalClient, prefix string) *resetStore {
	return &resetStore{redis: client, prefix: prefix}
}

func (s *resetStore) tokenKey(tokenHash [32]byte) string {
	return s.prefix + ":t:" + hex.EncodeToString(tokenHash[:])
}

func (s *resetStore) pendingKey(userID string) string {
	return s.prefix + ":p:" + userID
}

// Issue creates a token for the user unless one is already pending.
// The returned clear token is never stored.
func (s *resetStore) Issue(ctx context.Context, userID string, validity time.Duration) (string, error) {
	clear := uuid.NewString()
	tokenHash := internal.HashSecret(clear)

	created, err := issueLua.Run(ctx, s.redis,
		[]string{s.pendingKey(userID), s.tokenKey(tokenHash)},
		userID,
		validity.Milliseconds(),
	).Int64()
	if err != nil {
		return "", fmt.Errorf("%w: %v", errResetRedisUnavailable, err)
	}
	if created == 0 {
		return "", errResetAlreadyPending
	}
	return clear, nil
}

// Consume atomically claims the token and returns the user it belongs
// to. Unknown and expired tokens are indistinguishable by design.
func (s *resetStore) Consume(ctx context.Context, clearToken string) (string, error) {
	tokenHash := internal.HashSecret(clearToken)

	userID, err := s.redis.GetDel(ctx, s.tokenKey(tokenHash)).Result()
	if errors.Is(err, redis.Nil) {
		return "", errResetNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", errResetRedisUnavailable, err)
	}

	if err := s.redis.Del(ctx, s.pendingKey(userID)).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", errResetRedisUnavailable, err)
	}
	return userID, nil
}
