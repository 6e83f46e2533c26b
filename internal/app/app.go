// Package app assembles the aggregator and its backing clients from config.
// Both the HTTP server and the terminal search box start from here.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/repairhub/repair-search/internal/aggregator"
	"github.com/repairhub/repair-search/internal/cache"
	"github.com/repairhub/repair-search/internal/catalog"
	"github.com/repairhub/repair-search/internal/config"
	"github.com/repairhub/repair-search/internal/firestore"
	"github.com/repairhub/repair-search/internal/memstore"
)

type Store interface {
	aggregator.DocumentStore
	HealthCheck(ctx context.Context) error
}

type App struct {
	Aggregator *aggregator.Aggregator
	Store      Store
	// Cache is nil when redis is disabled.
	Cache   *cache.RedisCache
	Matcher *catalog.Matcher

	closers []func() error
	logger  *zap.Logger
}

// New connects the configured store and cache and builds the aggregator.
// The catalog watcher, when enabled, runs until ctx is done. An unreachable
// redis is logged and the app runs without the owner cache.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	store, err := a.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Store = store

	matcher, err := loadCatalog(ctx, cfg.Search, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Matcher = matcher

	// A nil *RedisCache must not reach the aggregator as a non-nil interface.
	var owners aggregator.OwnerCache
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisCache(cfg.Redis, logger)
		if err != nil {
			logger.Warn("redis unavailable, owner lookups will not be cached", zap.Error(err))
		} else {
			a.Cache = rc
			a.closers = append(a.closers, rc.Close)
			owners = rc
		}
	}

	a.Aggregator = aggregator.New(store, matcher, owners, cfg.Search, logger)
	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Store.Driver {
	case config.DriverFirestore:
		fs, err := firestore.NewClient(ctx, cfg.Firestore, a.logger)
		if err != nil {
			return nil, fmt.Errorf("initializing firestore: %w", err)
		}
		a.closers = append(a.closers, fs.Close)
		a.logger.Info("firestore client initialized", zap.String("project", cfg.Firestore.ProjectID))
		return fs, nil

	case config.DriverMemory:
		if cfg.Store.FixturePath == "" {
			a.logger.Warn("memory store has no fixture, every source will be empty")
			return memstore.New(), nil
		}
		ms, err := memstore.LoadFixture(cfg.Store.FixturePath)
		if err != nil {
			return nil, fmt.Errorf("loading fixture: %w", err)
		}
		a.logger.Info("memory store loaded", zap.String("fixture", cfg.Store.FixturePath))
		return ms, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func loadCatalog(ctx context.Context, cfg config.SearchConfig, logger *zap.Logger) (*catalog.Matcher, error) {
	if cfg.CatalogPath == "" {
		return catalog.NewMatcher(catalog.Default()), nil
	}

	c, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	m := catalog.NewMatcher(c)
	logger.Info("catalog loaded", zap.String("path", cfg.CatalogPath), zap.Int("entries", c.Len()))

	if cfg.WatchCatalog {
		if err := catalog.Watch(ctx, cfg.CatalogPath, m, logger); err != nil {
			logger.Warn("catalog watch failed, reloads disabled", zap.Error(err))
		}
	}
	return m, nil
}

// Close releases clients in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}
