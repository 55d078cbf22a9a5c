package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/KunalSingh5431/smartPDF/internal/shared/telemetry"
)

const (
	defaultKeyPrefix = "smartpdf:lock:"
	defaultTTL       = 2 * time.Minute
	defaultRetry     = 100 * time.Millisecond
	releaseTimeout   = 3 * time.Second
)

// Deletes the key only while it still holds our token, so an expired lock
// re-taken by another holder is left alone.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

type redisClient interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// RedisLocker implements Locker with SET NX PX and a token-checked release.
type RedisLocker struct {
	client redisClient
	ttl    time.Duration
	retry  time.Duration
	prefix string
}

// Connect parses a redis:// URL, pings the server and returns a client.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// NewRedis builds a RedisLocker. ttl bounds how long a crashed holder can block others.
func NewRedis(client redisClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		retry:  defaultRetry,
		prefix: defaultKeyPrefix,
	}
}

// Acquire polls until the lock is taken or ctx ends.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	fullKey := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis setnx %s: %w", fullKey, err)
		}
		if ok {
			return l.releaser(fullKey, token), nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) releaser(fullKey, token string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := l.client.Eval(ctx, releaseScript, []string{fullKey}, token).Err(); err != nil && err != redis.Nil {
			telemetry.Warn("lock.release_failed", map[string]any{"key": fullKey, "error": err})
		}
	}
}

var _ Locker = (*RedisLocker)(nil)
