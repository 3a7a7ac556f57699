package main

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"mudgraph/internal/cache"
	"mudgraph/internal/query"
	"mudgraph/internal/store"
	"mudgraph/internal/store/postgres"
	"mudgraph/internal/store/sqlite"
	"mudgraph/internal/world"
)

// openWorld resolves the world root from --root, then the config.
func openWorld() (*world.Reader, error) {
	root := cfg.World.Root
	if worldRoot != "" {
		root = worldRoot
	}
	detected, err := world.DetectRoot(root)
	if err != nil {
		return nil, err
	}
	return world.NewReader(detected), nil
}

// storeDSN picks --db, then the configured DSN, then the cache file under
// the world root.
func storeDSN(reader *world.Reader) string {
	if dsnFlag != "" {
		return dsnFlag
	}
	root := cfg.World.Root
	if worldRoot != "" {
		root = worldRoot
	}
	if reader != nil {
		root = reader.Root()
	}
	return cfg.StoreDSN(root)
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func openStore(ctx context.Context, dsn string) (store.Store, error) {
	if isPostgresDSN(dsn) {
		db, err := postgres.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	db, err := sqlite.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// index is an open read side: the query service plus what it holds open.
type index struct {
	svc   *query.Service
	db    store.Store
	cache cache.Cache
}

func (i *index) Close(ctx context.Context) {
	if i.cache != nil {
		_ = i.cache.Close()
	}
	_ = i.db.Close(ctx)
}

// openIndex opens the index for reading. The world tree is optional here;
// without it zones resolve from the index alone.
func openIndex(ctx context.Context) (*index, error) {
	var resolver query.ZoneResolver
	reader, err := openWorld()
	if err != nil {
		logger.Debug("world tree unavailable, resolving zones from the index", zap.Error(err))
		reader = nil
	} else {
		resolver = reader.Resolver()
	}

	dsn := storeDSN(reader)
	logger.Debug("opening index", zap.Bool("postgres", isPostgresDSN(dsn)))
	db, err := openStore(ctx, dsn)
	if err != nil {
		return nil, err
	}
	idx := &index{db: db, svc: query.New(db, resolver, logger)}

	if url := cfg.Cache.RedisURL; url != "" {
		c, err := cache.NewRedis(ctx, url, cfg.Cache.TTL, logger)
		if err != nil {
			logger.Warn("answer cache disabled", zap.Error(err))
		} else {
			idx.cache = c
			idx.svc.UseCache(c)
		}
	}
	return idx, nil
}
