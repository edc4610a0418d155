package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still carries our token, so an
// expired lock taken over by another instance is left alone.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

// Redis serializes scopes across instances with SET NX and a TTL.
type Redis struct {
	client   redis.Cmdable
	prefix   string
	ttl      time.Duration
	newToken func() string
}

func NewRedis(client redis.Cmdable, prefix string, ttl time.Duration) *Redis {
	return &Redis{
		client:   client,
		prefix:   prefix,
		ttl:      ttl,
		newToken: func() string { return uuid.NewString() },
	}
}

func (r *Redis) Acquire(ctx context.Context, key string) (ReleaseFunc, error) {
	lockKey := r.prefix + key
	token := r.newToken()

	ok, err := r.client.SetNX(ctx, lockKey, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire redis lock %s: %w", lockKey, err)
	}
	if !ok {
		return nil, ErrScopeLocked
	}

	return func(ctx context.Context) error {
		deleted, err := r.client.Eval(ctx, releaseScript, []string{lockKey}, token).Int64()
		if err != nil {
			return fmt.Errorf("release redis lock %s: %w", lockKey, err)
		}
		if deleted == 0 {
			slog.Warn("Redis lock expired before release", "key", lockKey, "ttl", r.ttl)
		}
		return nil
	}, nil
}
