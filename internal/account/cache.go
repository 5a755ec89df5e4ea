package account

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const cachePrefix = "user:"

// opTimeout bounds every cache round trip so a stalled Redis never
// stalls a request.
const opTimeout = 2 * time.Second

// cacheEntry is the wire format of a cached account. The identifier is
// string-encoded because it can exceed what JSON consumers handle as a
// number.
type cacheEntry struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	ID       string `json:"id"`
	Type     string `json:"type"`
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed account cache. Entries live for
// ttl (24h in production).
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) key(email string) string {
	return cachePrefix + email
}

func (c *RedisCache) Exists(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := c.client.Exists(ctx, c.key(email)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *RedisCache) Get(ctx context.Context, email string) (*Account, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	val, err := c.client.Get(ctx, c.key(email)).Result()
	if err == redis.Nil {
		return nil, nil // not cached
	}
	if err != nil {
		return nil, err
	}

	var entry cacheEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, fmt.Errorf("cache: failed to unmarshal entry: %w", err)
	}

	id, err := strconv.ParseUint(entry.ID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cache: invalid id %q: %w", entry.ID, err)
	}

	return &Account{
		ID:           id,
		Email:        entry.Email,
		PasswordHash: entry.Password,
		Type:         entry.Type,
	}, nil
}

func (c *RedisCache) Set(ctx context.Context, a *Account) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	data, err := json.Marshal(cacheEntry{
		Email:    a.Email,
		Password: a.PasswordHash,
		ID:       strconv.FormatUint(a.ID, 10),
		Type:     a.Type,
	})
	if err != nil {
		return fmt.Errorf("cache: failed to marshal entry: %w", err)
	}

	return c.client.Set(ctx, c.key(a.Email), data, c.ttl).Err()
}
