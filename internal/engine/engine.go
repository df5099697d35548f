package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/dshills/forensicq/internal/cache"
	"github.com/dshills/forensicq/internal/config"
	"github.com/dshills/forensicq/internal/indexer"
	"github.com/dshills/forensicq/internal/scanner"
	"github.com/dshills/forensicq/internal/searcher"
	"github.com/dshills/forensicq/internal/storage"
)

// Version is reported by the transports and the CLI
var Version = "dev"

// Engine owns the storage tiers and the components built on them. Both
// transports share one Engine so that scans, queries and the package index
// see the same state.
type Engine struct {
	Config   *config.Config
	Pool     *storage.Pool
	Store    *storage.Store
	Cache    cache.Client
	Scanner  scanner.Scanner
	Indexer  *indexer.Indexer
	Searcher *searcher.Searcher

	logger zerolog.Logger
}

// Option overrides a component New would otherwise build from config
type Option func(*options)

type options struct {
	scanner scanner.Scanner
	cache   cache.Client
}

// WithScanner replaces the filesystem scanner
func WithScanner(sc scanner.Scanner) Option {
	return func(o *options) {
		o.scanner = sc
	}
}

// WithCache replaces the configured cache backend
func WithCache(cc cache.Client) Option {
	return func(o *options) {
		o.cache = cc
	}
}

// New opens the durable store, connects the cache backend and wires the
// indexer and searcher. On failure everything opened so far is closed.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	e := &Engine{Config: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			_ = e.Close()
		}
	}()

	if cfg.DB.Path != ":memory:" {
		if dir := filepath.Dir(cfg.DB.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	var err error
	e.Pool, err = storage.OpenPool(ctx, cfg.DB.Path, cfg.PoolOptions(logger.With().Str("component", "pool").Logger()))
	if err != nil {
		return nil, fmt.Errorf("failed to open connection pool: %w", err)
	}
	e.Store, err = storage.NewStore(ctx, e.Pool)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	e.Cache = o.cache
	if e.Cache == nil {
		if e.Cache, err = newCache(ctx, cfg); err != nil {
			return nil, err
		}
	}

	e.Scanner = o.scanner
	if e.Scanner == nil {
		if e.Scanner, err = scanner.NewFS(cfg.ScannerOptions(logger.With().Str("component", "scanner").Logger())); err != nil {
			return nil, fmt.Errorf("failed to create scanner: %w", err)
		}
	}

	cls, err := cfg.BuildClassifier()
	if err != nil {
		return nil, fmt.Errorf("failed to build classifier: %w", err)
	}

	e.Indexer = indexer.New(e.Scanner, e.Store, e.Cache, cfg.IndexerConfig(),
		indexer.WithLogger(logger.With().Str("component", "indexer").Logger()),
		indexer.WithClassifier(cls),
	)
	e.Searcher = searcher.New(e.Store, e.Cache, e.Indexer, cfg.SearcherConfig(),
		logger.With().Str("component", "searcher").Logger())

	logger.Info().
		Str("db", cfg.DB.Path).
		Str("driver", storage.DriverName).
		Str("cache", cfg.Cache.Backend).
		Int("pool_size", e.Pool.Size()).
		Msg("engine ready")

	ok = true
	return e, nil
}

func newCache(ctx context.Context, cfg *config.Config) (cache.Client, error) {
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		r, err := cache.NewRedis(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		m, err := cache.NewMemory(cfg.Cache.MaxEntries)
		if err != nil {
			return nil, fmt.Errorf("failed to create memory cache: %w", err)
		}
		return m, nil
	}
}

// Close releases the cache connection and the connection pool
func (e *Engine) Close() error {
	var errs []error
	if e.Cache != nil {
		if err := e.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if e.Pool != nil {
		if err := e.Pool.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pool: %w", err))
		}
	}
	return errors.Join(errs...)
}
