package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport failures talking to Redis.
var ErrRedisUnavailable = errors.New("session redis unavailable")

// RenewStatus is the outcome of an atomic renewal attempt.
type RenewStatus int

const (
	RenewNotFound RenewStatus = iota
	RenewExpired
	RenewMismatch
	RenewOK
	RenewCorrupt
)

// renewScript validates and renews a session in one atomic step: it
// checks the stored expiry against the caller's clock (deleting the
// record and its index entry when past), compares the stored secret
// hash, and on success splices the next hash and expiry into the blob
// and refreshes the TTL.
//
// KEYS[1] session key; ARGV: user index prefix, provided hash, next
// hash, now (unix), new expiry (8-byte big endian), session ID, TTL ms.
const renewScript = `
local function read_be64(s, i)
  local v = 0
  for o = 0, 7 do
    local b = string.byte(s, i + o)
    if not b then
      return nil
    end
    v = v * 256 + b
  end
  return v
end

local data = redis.call("GET", KEYS[1])
if not data then
  return {0}
end

if string.byte(data, 1) ~= 1 then
  return {4}
end
local uid_len = string.byte(data, 2)
if not uid_len or uid_len == 0 or #data ~= 2 + uid_len + 48 then
  return {4}
end

local uid = string.sub(data, 3, 2 + uid_len)
local hash = string.sub(data, 3 + uid_len, 2 + uid_len + 32)
local expires_at = read_be64(data, 3 + uid_len + 40)
local user_key = ARGV[1] .. uid

if not expires_at or expires_at <= tonumber(ARGV[4]) then
  redis.call("DEL", KEYS[1])
  redis.call("SREM", user_key, ARGV[6])
  return {1}
end

if hash ~= ARGV[2] then
  return {2}
end

local updated = string.sub(data, 1, 2 + uid_len)
  .. ARGV[3]
  .. string.sub(data, 3 + uid_len + 32, 2 + uid_len + 40)
  .. ARGV[5]

redis.call("SET", KEYS[1], updated, "PX", tonumber(ARGV[7]))
redis.call("SADD", user_key, ARGV[6])
return {3, uid}
`

var renewLua = redis.NewScript(renewScript)

// deleteScript removes a session and its user-index entry. The user ID
// is recovered from the stored blob so callers only need the session ID.
//
// KEYS[1] session key; ARGV: user index prefix, session ID.
const deleteScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end

local uid_len = string.byte(data, 2)
if uid_len and #data >= 2 + uid_len then
  local uid = string.sub(data, 3, 2 + uid_len)
  redis.call("SREM", ARGV[1] .. uid, ARGV[2])
end

redis.call("DEL", KEYS[1])
return 1
`

var deleteLua = redis.NewScript(deleteScript)

// Store is a Redis-backed session store. Sessions live under
// <prefix>:s:<sessionID> with a TTL backstop; <prefix>:u:<userID> is a
// set indexing each user's live sessions for terminate-all.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a Store on the given client and key prefix.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":s:" + sessionID
}

func (s *Store) userPrefix() string {
	return s.prefix + ":u:"
}

func (s *Store) userKey(userID string) string {
	return s.userPrefix() + userID
}

// Save persists the session with a TTL covering its validity window and
// records it in the owner's session index.
func (s *Store) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	encoded, err := encodeSession(sess)
	if err != nil {
		return err
	}

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, s.key(sess.ID), encoded, ttl)
	pipe.SAdd(ctx, s.userKey(sess.UserID), sess.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get loads a session without validating or renewing it.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return decodeSession(sessionID, data)
}

// Renew atomically validates the presented secret hash and slides the
// session forward: new secret hash, expiry = now + validity. An expired
// session is deleted as a side effect of the attempt. On RenewOK the
// owning user's ID is returned.
func (s *Store) Renew(
	ctx context.Context,
	sessionID string,
	providedHash, nextHash [32]byte,
	validity time.Duration,
	now time.Time,
) (string, RenewStatus, error) {
	expiresAt := now.Add(validity).Unix()
	var expiryBE [8]byte
	for i := 0; i < 8; i++ {
		expiryBE[7-i] = byte(uint64(expiresAt) >> (8 * i))
	}

	result, err := renewLua.Run(ctx, s.redis,
		[]string{s.key(sessionID)},
		s.userPrefix(),
		providedHash[:],
		nextHash[:],
		now.Unix(),
		expiryBE[:],
		sessionID,
		validity.Milliseconds(),
	).Result()
	if err != nil {
		return "", RenewNotFound, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	reply, ok := result.([]interface{})
	if !ok || len(reply) == 0 {
		return "", RenewCorrupt, ErrCorruptRecord
	}
	code, ok := reply[0].(int64)
	if !ok {
		return "", RenewCorrupt, ErrCorruptRecord
	}

	switch code {
	case 0:
		return "", RenewNotFound, nil
	case 1:
		return "", RenewExpired, nil
	case 2:
		return "", RenewMismatch, nil
	case 3:
		userID, ok := reply[1].(string)
		if !ok || userID == "" {
			return "", RenewCorrupt, ErrCorruptRecord
		}
		return userID, RenewOK, nil
	}
	return "", RenewCorrupt, ErrCorruptRecord
}

// Delete removes a single session. It reports whether the session
// existed.
func (s *Store) Delete(ctx context.Context, sessionID string) (bool, error) {
	result, err := deleteLua.Run(ctx, s.redis,
		[]string{s.key(sessionID)},
		s.userPrefix(),
		sessionID,
	).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return result == 1, nil
}

// DeleteAllForUser removes every session belonging to the user and the
// index itself, returning the number of sessions dropped.
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	ids, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	pipe := s.redis.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, s.key(id))
	}
	pipe.Del(ctx, s.userKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return len(ids), nil
}
