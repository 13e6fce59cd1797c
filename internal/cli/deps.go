package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/andreluis2005/cognira/internal/app"
	"github.com/andreluis2005/cognira/internal/catalog"
	"github.com/andreluis2005/cognira/internal/config"
	"github.com/andreluis2005/cognira/internal/infra/memory"
	pgcatalog "github.com/andreluis2005/cognira/internal/infra/postgres"
	rediscache "github.com/andreluis2005/cognira/internal/infra/redis"
	"github.com/andreluis2005/cognira/internal/infra/sqlite"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// newLogger builds the process logger: JSON for the server, text for interactive commands.
func newLogger(cfg config.Config, w io.Writer, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// resources owns the connections opened for one command run.
type resources struct {
	redis *redis.Client
	pool  *pgxpool.Pool
}

func (r *resources) Close() {
	if r.redis != nil {
		_ = r.redis.Close()
	}
	if r.pool != nil {
		r.pool.Close()
	}
}

func (r *resources) redisClient(cfg config.Config) *redis.Client {
	if r.redis == nil && cfg.Redis.Addr != "" {
		r.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return r.redis
}

func (r *resources) pgPool(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	if r.pool != nil {
		return r.pool, nil
	}
	if cfg.Postgres.URL == "" {
		return nil, fmt.Errorf("postgres url not configured")
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return nil, err
	}
	r.pool = pool
	return pool, nil
}

// catalogRepository picks the catalog source and cache from config.
func (r *resources) catalogRepository(ctx context.Context, cfg config.Config, logger *slog.Logger) (app.CatalogRepository, error) {
	var loader memory.CatalogLoader = catalog.NewEmbeddedLoader()
	if cfg.Catalog.Source == config.SourcePostgres {
		pool, err := r.pgPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		loader = pgcatalog.NewCatalogLoader(pool)
	}

	ttl := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	if client := r.redisClient(cfg); client != nil {
		logger.Debug("catalog cache", "backend", "redis", "source", cfg.Catalog.Source, "ttl", ttl)
		return rediscache.NewCatalogRepository(client, loader, ttl), nil
	}
	logger.Debug("catalog cache", "backend", "memory", "source", cfg.Catalog.Source, "ttl", ttl)
	return memory.NewCatalogRepository(loader, ttl), nil
}

func (r *resources) practiceService(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app.PracticeService, error) {
	catalogs, err := r.catalogRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	service := app.NewPracticeService(catalogs, cfg.Catalog.Certification, logger)
	// fail fast on unusable reference data
	if _, err := service.Catalog(ctx); err != nil {
		return nil, err
	}
	return service, nil
}

// profileStore opens the blob store backing the local learner profile.
func (r *resources) profileStore(cfg config.Config) (app.BlobStore, func(), error) {
	switch cfg.Profile.Store {
	case config.StoreMemory:
		// nothing outlives the process: a throwaway practice run
		return memory.NewBlobStore(), func() {}, nil
	case config.StoreRedis:
		client := r.redisClient(cfg)
		if client == nil {
			return nil, nil, fmt.Errorf("profile store redis requires redis.addr")
		}
		ttl := config.TTLDuration(cfg.Redis.TTL, 0)
		return rediscache.NewBlobStore(client, ttl), func() {}, nil
	}

	path := cfg.Profile.Path
	if path == "" {
		p, err := sqlite.DefaultPath()
		if err != nil {
			return nil, nil, err
		}
		path = p
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

// openProfile wires a practice service and the learner's progress repository.
func openProfile(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app.PracticeService, *app.ProgressRepository, func(), error) {
	res := &resources{}
	service, err := res.practiceService(ctx, cfg, logger)
	if err != nil {
		res.Close()
		return nil, nil, nil, err
	}
	store, closeStore, err := res.profileStore(cfg)
	if err != nil {
		res.Close()
		return nil, nil, nil, err
	}
	cat, err := service.Catalog(ctx)
	if err != nil {
		closeStore()
		res.Close()
		return nil, nil, nil, err
	}
	cleanup := func() {
		closeStore()
		res.Close()
	}
	return service, app.NewProgressRepository(store, cat, logger), cleanup, nil
}
