package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrLockNotAcquired = errors.New("lock not acquired")

// releaseScript deletes the lock only if the caller still owns it, so a
// slow request cannot release a lock a later request re-acquired.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

type Client struct {
	rdb *redis.Client
}

func New(addr string) *Client {
	return &Client{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

func (c *Client) Ping(ctx context.Context) error {
	const op = "redis.Client.Ping"

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// AcquireLock takes a short-lived exclusive lock keyed by an idempotency
// token. The returned owner value must be passed back to ReleaseLock.
func (c *Client) AcquireLock(ctx context.Context, key, owner string, ttl time.Duration) error {
	const op = "redis.Client.AcquireLock"

	ok, err := c.rdb.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrLockNotAcquired)
	}

	return nil
}

func (c *Client) ReleaseLock(ctx context.Context, key, owner string) error {
	const op = "redis.Client.ReleaseLock"

	if err := c.rdb.Eval(ctx, releaseScript, []string{key}, owner).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// CacheResult stores the serialized response for an idempotency key so a
// retried request gets the original outcome instead of a second bet.
func (c *Client) CacheResult(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	const op = "redis.Client.CacheResult"

	if err := c.rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// CachedResult returns the stored response for an idempotency key, or nil
// when there is none.
func (c *Client) CachedResult(ctx context.Context, key string) ([]byte, error) {
	const op = "redis.Client.CachedResult"

	payload, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return payload, nil
}
