package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/bearer-auth-api/internal/domain"
)

// KEYS[1] token hash, ARGV[1] key prefix, ARGV[2] token id
var redisDeleteTokenScript = redis.NewScript(`
local uid = redis.call("HGET", KEYS[1], "user_id")
if not uid then
  return 0
end
redis.call("DEL", KEYS[1])
redis.call("SREM", ARGV[1] .. ":user:" .. uid .. ":tokens", ARGV[2])
return 1
`)

// KEYS[1] user token set, ARGV[1] key prefix
var redisDeleteUserTokensScript = redis.NewScript(`
local ids = redis.call("SMEMBERS", KEYS[1])
local removed = 0
for _, id in ipairs(ids) do
  removed = removed + redis.call("DEL", ARGV[1] .. ":token:" .. id)
end
redis.call("DEL", KEYS[1])
return removed
`)

// KEYS[1] user token set, KEYS[2] new token hash
// ARGV[1] key prefix, ARGV[2] new token id, ARGV[3] expiry in ms (0 = none), ARGV[4..] field/value pairs
var redisReplaceUserTokensScript = redis.NewScript(`
local ids = redis.call("SMEMBERS", KEYS[1])
local removed = 0
for _, id in ipairs(ids) do
  removed = removed + redis.call("DEL", ARGV[1] .. ":token:" .. id)
end
redis.call("DEL", KEYS[1])
redis.call("HSET", KEYS[2], unpack(ARGV, 4))
local ttl = tonumber(ARGV[3])
if ttl > 0 then
  redis.call("PEXPIRE", KEYS[2], ttl)
end
redis.call("SADD", KEYS[1], ARGV[2])
return removed
`)

// KEYS[1] token hash, ARGV[1] timestamp
var redisTouchTokenScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[1], "last_used_at", ARGV[1], "updated_at", ARGV[1])
return 1
`)

const redisTimeLayout = time.RFC3339Nano

// RedisAccessTokenStore keeps each token in a hash at <prefix>:token:<id> and an
// index of live ids per user at <prefix>:user:<uid>:tokens.
//
// The scripts derive token keys from the per-user index at run time, so the
// store needs a single-node client; Redis Cluster would reject those keys.
type RedisAccessTokenStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisAccessTokenStore(client *redis.Client, prefix string, ttl time.Duration) *RedisAccessTokenStore {
	if prefix == "" {
		prefix = "bearer_auth"
	}
	return &RedisAccessTokenStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisAccessTokenStore) tokenKey(id string) string {
	return fmt.Sprintf("%s:token:%s", s.prefix, id)
}

func (s *RedisAccessTokenStore) userKey(userID uint) string {
	return fmt.Sprintf("%s:user:%d:tokens", s.prefix, userID)
}

func (s *RedisAccessTokenStore) Create(ctx context.Context, token *domain.AccessToken) error {
	if s.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	stampToken(token)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.tokenKey(token.ID), tokenFields(token)...)
		if s.ttl > 0 {
			pipe.PExpire(ctx, s.tokenKey(token.ID), s.ttl)
		}
		pipe.SAdd(ctx, s.userKey(token.UserID), token.ID)
		return nil
	})
	recordTokenOp(ctx, "create", err)
	return err
}

func (s *RedisAccessTokenStore) FindByID(ctx context.Context, id string) (*domain.AccessToken, error) {
	if s.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	fields, err := s.client.HGetAll(ctx, s.tokenKey(id)).Result()
	if err != nil {
		recordTokenOp(ctx, "find_by_id", err)
		return nil, err
	}
	if len(fields) == 0 {
		recordTokenOp(ctx, "find_by_id", ErrAccessTokenNotFound)
		return nil, ErrAccessTokenNotFound
	}
	token, err := parseTokenFields(id, fields)
	recordTokenOp(ctx, "find_by_id", err)
	return token, err
}

func (s *RedisAccessTokenStore) DeleteByID(ctx context.Context, id string) (int64, error) {
	if s.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}
	n, err := redisDeleteTokenScript.Run(ctx, s.client, []string{s.tokenKey(id)}, s.prefix, id).Int64()
	recordTokenOp(ctx, "delete_by_id", err)
	return n, err
}

func (s *RedisAccessTokenStore) DeleteByUserID(ctx context.Context, userID uint) (int64, error) {
	if s.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}
	n, err := redisDeleteUserTokensScript.Run(ctx, s.client, []string{s.userKey(userID)}, s.prefix).Int64()
	recordTokenOp(ctx, "delete_by_user_id", err)
	return n, err
}

func (s *RedisAccessTokenStore) ReplaceForUser(ctx context.Context, token *domain.AccessToken) (int64, error) {
	if s.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}
	stampToken(token)
	args := []any{s.prefix, token.ID, s.ttl.Milliseconds()}
	args = append(args, tokenFields(token)...)
	n, err := redisReplaceUserTokensScript.Run(ctx, s.client,
		[]string{s.userKey(token.UserID), s.tokenKey(token.ID)}, args...).Int64()
	recordTokenOp(ctx, "replace_for_user", err)
	return n, err
}

func (s *RedisAccessTokenStore) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	if s.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	err := redisTouchTokenScript.Run(ctx, s.client, []string{s.tokenKey(id)}, at.UTC().Format(redisTimeLayout)).Err()
	recordTokenOp(ctx, "touch_last_used", err)
	return err
}

// DeleteCreatedBefore scans token hashes and removes those issued before cutoff.
// Keys expire on their own when a TTL is configured; this covers the rest.
func (s *RedisAccessTokenStore) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}
	var deleted int64
	iter := s.client.Scan(ctx, 0, s.prefix+":token:*", 200).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.client.HGet(ctx, key, "created_at").Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			recordTokenOp(ctx, "delete_created_before", err)
			return deleted, err
		}
		created, err := time.Parse(redisTimeLayout, raw)
		if err != nil || !created.Before(cutoff) {
			continue
		}
		id := key[len(s.prefix+":token:"):]
		n, err := s.DeleteByID(ctx, id)
		if err != nil {
			recordTokenOp(ctx, "delete_created_before", err)
			return deleted, err
		}
		deleted += n
	}
	err := iter.Err()
	recordTokenOp(ctx, "delete_created_before", err)
	return deleted, err
}

func stampToken(token *domain.AccessToken) {
	now := time.Now().UTC()
	if token.CreatedAt.IsZero() {
		token.CreatedAt = now
	}
	if token.UpdatedAt.IsZero() {
		token.UpdatedAt = token.CreatedAt
	}
}

func tokenFields(token *domain.AccessToken) []any {
	fields := []any{
		"user_id", strconv.FormatUint(uint64(token.UserID), 10),
		"name", token.Name,
		"token_hash", token.TokenHash,
		"created_at", token.CreatedAt.UTC().Format(redisTimeLayout),
		"updated_at", token.UpdatedAt.UTC().Format(redisTimeLayout),
	}
	if token.LastUsedAt != nil {
		fields = append(fields, "last_used_at", token.LastUsedAt.UTC().Format(redisTimeLayout))
	}
	return fields
}

func parseTokenFields(id string, fields map[string]string) (*domain.AccessToken, error) {
	uid, err := strconv.ParseUint(fields["user_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse token user_id: %w", err)
	}
	token := &domain.AccessToken{
		ID:        id,
		UserID:    uint(uid),
		Name:      fields["name"],
		TokenHash: fields["token_hash"],
	}
	if token.CreatedAt, err = time.Parse(redisTimeLayout, fields["created_at"]); err != nil {
		return nil, fmt.Errorf("parse token created_at: %w", err)
	}
	if v, ok := fields["updated_at"]; ok {
		if token.UpdatedAt, err = time.Parse(redisTimeLayout, v); err != nil {
			return nil, fmt.Errorf("parse token updated_at: %w", err)
		}
	}
	if v, ok := fields["last_used_at"]; ok {
		at, err := time.Parse(redisTimeLayout, v)
		if err != nil {
			return nil, fmt.Errorf("parse token last_used_at: %w", err)
		}
		token.LastUsedAt = &at
	}
	return token, nil
}
