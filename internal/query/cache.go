package query

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"mudgraph/internal/cache"
)

// cached serves op for vnum from the shared cache when one is configured.
// Entries are keyed by the latest build run; before the first recorded
// build nothing is cached. Cache failures only cost the lookup.
func cached[T any](ctx context.Context, s *Service, op string, vnum int, compute func() (T, error)) (T, error) {
	if s.cache == nil {
		return compute()
	}

	run, err := s.db.LastRun(ctx)
	if err != nil || run == nil {
		return compute()
	}
	key := cache.Key(run.ID, op, vnum)

	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			s.logger.Debug("cache hit", zap.String("key", key))
			return v, nil
		}
		s.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	}

	v, err := compute()
	if err != nil {
		return v, err
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("encoding cache entry", zap.String("key", key), zap.Error(err))
		return v, nil
	}
	if err := s.cache.Set(ctx, key, data); err != nil {
		s.logger.Warn("cache store failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}
