// Package cache shares encoded query answers between processes that read
// the same index.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"mudgraph/internal/logging"
)

const DefaultTTL = 24 * time.Hour

type Cache interface {
	// Get reports a miss with ok false and a nil error.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

var _ Cache = (*Redis)(nil)

type Redis struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis connects to url, e.g. redis://localhost:6379/0. A non-positive
// ttl uses DefaultTTL.
func NewRedis(ctx context.Context, url string, ttl time.Duration, logger *zap.Logger) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	logger = logging.OrNop(logger)
	logger.Debug("connected to redis cache", zap.String("addr", opt.Addr), zap.Int("db", opt.DB))
	return &Redis{rdb: rdb, ttl: ttl, logger: logger}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.rdb.Set(ctx, key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

// Key builds the cache key of one answer. run is the build run the answer
// was computed against, so a new build never serves stale entries.
func Key(run, op string, vnum int) string {
	return fmt.Sprintf("mudgraph:%s:%s:%d", run, op, vnum)
}
