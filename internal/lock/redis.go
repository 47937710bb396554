package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	// DefaultTTL bounds how long a crashed holder can block a key.
	DefaultTTL = 30 * time.Second

	defaultRetryInterval = 25 * time.Millisecond
)

// releaseScript deletes the key only when it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a keyed lock shared by every process using the same Redis.
type Redis struct {
	client        *redis.Client
	prefix        string
	ttl           time.Duration
	retryInterval time.Duration
}

// RedisOptions configures a Redis lock.
type RedisOptions struct {
	Prefix        string
	TTL           time.Duration
	RetryInterval time.Duration
}

// NewRedis creates a Redis-backed lock.
func NewRedis(client *redis.Client, opts RedisOptions) *Redis {
	if opts.Prefix == "" {
		opts.Prefix = "overlap:lock:"
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}
	return &Redis{
		client:        client,
		prefix:        opts.Prefix,
		ttl:           opts.TTL,
		retryInterval: opts.RetryInterval,
	}
}

// Lock polls SETNX until the key is taken or ctx is done.
func (l *Redis) Lock(ctx context.Context, key string) (func() error, error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("acquiring redis lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return func() error {
		// The caller's context may already be done; release must still run.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		n, err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Int()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("releasing redis lock %s: %w", key, err)
		}
		if n == 0 {
			return ErrNotHeld
		}
		return nil
	}, nil
}
