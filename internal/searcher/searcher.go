package searcher

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/forensicq/internal/cache"
	"github.com/dshills/forensicq/internal/classifier"
	"github.com/dshills/forensicq/internal/indexer"
	"github.com/dshills/forensicq/internal/storage"
	"github.com/dshills/forensicq/pkg/types"
)

const (
	// DefaultSnippetLength bounds the content returned per match
	DefaultSnippetLength = storage.DefaultSnippetLength
	// DefaultMaxRows bounds durable query results
	DefaultMaxRows = storage.DefaultSearchLimit
	// DefaultCacheFanout bounds concurrent cache reads per query
	DefaultCacheFanout = 16
)

// Store is the durable tier as seen by the searcher
type Store interface {
	SearchContent(ctx context.Context, keyword string, limit, snippetLen int) ([]storage.ContentMatch, error)
	SearchCategory(ctx context.Context, category string, limit, snippetLen int) ([]storage.ContentMatch, error)
	DeleteAll(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*storage.StoreStats, error)
	PoolStats() storage.PoolStats
}

// Ingest is the part of the indexer the searcher reads from. Exclusive
// serializes destructive operations against running scans.
type Ingest interface {
	Packages() *indexer.PackageIndex
	Exclusive(fn func() error) error
	Running() bool
}

// Config contains query limits
type Config struct {
	SnippetLength int // Characters per match (default: 500)
	MaxRows       int // Durable result cap (default: 100)
	CacheFanout   int // Concurrent cache reads (default: 16)
}

// Searcher answers keyword queries from either storage tier and serves the
// package listings built by the last scan.
type Searcher struct {
	store  Store
	cache  cache.Client
	ingest Ingest
	logger zerolog.Logger

	snippetLen int
	maxRows    int
	fanout     int
}

// New creates a Searcher
func New(store Store, cc cache.Client, ingest Ingest, config *Config, logger zerolog.Logger) *Searcher {
	if config == nil {
		config = &Config{}
	}
	s := &Searcher{
		store:      store,
		cache:      cc,
		ingest:     ingest,
		logger:     logger,
		snippetLen: config.SnippetLength,
		maxRows:    config.MaxRows,
		fanout:     config.CacheFanout,
	}
	if s.snippetLen <= 0 {
		s.snippetLen = DefaultSnippetLength
	}
	if s.maxRows <= 0 {
		s.maxRows = DefaultMaxRows
	}
	if s.fanout <= 0 {
		s.fanout = DefaultCacheFanout
	}
	return s
}

// Query finds files whose content contains keyword in the selected tier.
// Cache matching is case-sensitive and unordered; durable matching uses
// SQLite LIKE (ASCII case-insensitive), ordered by path and capped at
// MaxRows. Elapsed time is measured around the tier lookup only.
func (s *Searcher) Query(ctx context.Context, keyword string, source types.Source) (*types.QueryResult, error) {
	if keyword == "" {
		return nil, types.ErrEmptyKeyword
	}

	start := time.Now()
	var (
		matches []types.Match
		err     error
	)
	switch source {
	case types.SourceCache:
		matches = s.queryCache(ctx, keyword)
	case types.SourceDurable:
		matches, err = s.queryDurable(ctx, keyword)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidSource, source)
	}
	if err != nil {
		return nil, err
	}

	res := &types.QueryResult{
		Source:  source,
		Keyword: keyword,
		Matches: matches,
		Elapsed: time.Since(start),
	}
	s.logger.Debug().
		Str("source", string(source)).
		Int("matches", res.Count()).
		Float64("cost_ms", res.CostMS()).
		Msg("query")
	return res, nil
}

// queryCache scans every file entry. Cache failures only shrink the result.
func (s *Searcher) queryCache(ctx context.Context, keyword string) []types.Match {
	keys, err := s.cache.ScanKeys(ctx, cache.FilePattern)
	if err != nil {
		s.logger.Warn().Err(err).Msg("cache key enumeration failed")
		return []types.Match{}
	}

	found := make([]*types.Match, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)
	for i, key := range keys {
		g.Go(func() error {
			value, ok, err := s.cache.Get(gctx, key)
			if err != nil {
				s.logger.Debug().Err(err).Str("key", key).Msg("cache read failed")
				return nil
			}
			if !ok {
				return nil
			}
			content := types.DecodeContent(value)
			if !strings.Contains(content, keyword) {
				return nil
			}
			found[i] = &types.Match{
				FilePath: cache.PathFromKey(key),
				Content:  types.Snippet(content, s.snippetLen),
				Source:   types.SourceCache,
			}
			return nil
		})
	}
	_ = g.Wait()

	matches := make([]types.Match, 0, len(keys))
	for _, m := range found {
		if m != nil {
			matches = append(matches, *m)
		}
	}
	return matches
}

func (s *Searcher) queryDurable(ctx context.Context, keyword string) ([]types.Match, error) {
	rows, err := s.store.SearchContent(ctx, keyword, s.maxRows, s.snippetLen)
	if err != nil {
		return nil, fmt.Errorf("durable query failed: %w", err)
	}

	return durableMatches(rows), nil
}

// QueryCategory returns durable rows classified as category, ordered by path
// and capped at MaxRows. Categories are only persisted durably, so the cache
// tier cannot answer it.
func (s *Searcher) QueryCategory(ctx context.Context, category string) (*types.QueryResult, error) {
	if category == "" {
		return nil, types.ErrEmptyKeyword
	}

	start := time.Now()
	rows, err := s.store.SearchCategory(ctx, category, s.maxRows, s.snippetLen)
	if err != nil {
		return nil, fmt.Errorf("category query failed: %w", err)
	}
	res := &types.QueryResult{
		Source:  types.SourceDurable,
		Keyword: category,
		Matches: durableMatches(rows),
		Elapsed: time.Since(start),
	}
	s.logger.Debug().Str("category", category).Int("matches", res.Count()).Msg("category query")
	return res, nil
}

func durableMatches(rows []storage.ContentMatch) []types.Match {
	matches := make([]types.Match, len(rows))
	for i, r := range rows {
		matches[i] = types.Match{
			FilePath:    r.FilePath,
			Content:     r.Snippet,
			PackageName: r.PackageName,
			Source:      types.SourceDurable,
		}
	}
	return matches
}

// ListPackages returns package names found by the last scan, sorted
func (s *Searcher) ListPackages() []string {
	return s.ingest.Packages().Packages()
}

// ListPaths returns the files attributed to pkg by the last scan
func (s *Searcher) ListPaths(pkg string) ([]string, error) {
	if pkg == "" {
		return nil, types.ErrInvalidPackage
	}
	paths, ok := s.ingest.Packages().Paths(pkg)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrPackageNotFound, pkg)
	}
	return paths, nil
}

// PurgeCache deletes every file entry from the cache and returns how many
// were removed
func (s *Searcher) PurgeCache(ctx context.Context) (int, error) {
	keys, err := s.cache.ScanKeys(ctx, cache.FilePattern)
	if err != nil {
		return 0, fmt.Errorf("failed to list cache entries: %w", err)
	}
	n, err := s.cache.Delete(ctx, keys...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache entries: %w", err)
	}
	s.logger.Info().Int("entries", n).Msg("cache purged")
	return n, nil
}

// ClearResult reports what ClearAll removed
type ClearResult struct {
	Rows         int64
	CacheEntries int
}

// ClearAll deletes all durable rows and cache entries and resets the
// package index. It fails with types.ErrScanInProgress while a scan runs.
// Cache failures are logged and do not fail the operation.
func (s *Searcher) ClearAll(ctx context.Context) (*ClearResult, error) {
	res := &ClearResult{}
	err := s.ingest.Exclusive(func() error {
		n, err := s.store.DeleteAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete durable rows: %w", err)
		}
		res.Rows = n

		if res.CacheEntries, err = s.PurgeCache(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("cache purge failed during clear")
		}

		s.ingest.Packages().Reset()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("rows", res.Rows).Int("cache_entries", res.CacheEntries).Msg("all data cleared")
	return res, nil
}

// App is a package from the last scan with its display metadata
type App struct {
	classifier.AppInfo
	FileCount int `json:"file_count"`
}

// Apps returns app metadata for every package found by the last scan,
// ordered by package name
func (s *Searcher) Apps() []App {
	counts := s.ingest.Packages().Counts()
	apps := make([]App, 0, len(counts))
	for pkg, n := range counts {
		apps = append(apps, App{AppInfo: classifier.LookupApp(pkg), FileCount: n})
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].Package < apps[j].Package })
	return apps
}

// Stats summarizes both tiers
type Stats struct {
	Files           int               `json:"files"`
	Packages        int               `json:"packages"`
	IndexedPackages int               `json:"indexed_packages"`
	Categories      map[string]int    `json:"categories"`
	CacheEntries    int               `json:"cache_entries"`
	Pool            storage.PoolStats `json:"pool"`
	SchemaVersion   string            `json:"schema_version"`
	ScanRunning     bool              `json:"scan_running"`
	LastScan        *storage.ScanRun  `json:"last_scan,omitempty"`
}

// Stats gathers durable counts, cache size and pool occupancy. A cache
// failure reports CacheEntries as -1.
func (s *Searcher) Stats(ctx context.Context) (*Stats, error) {
	ss, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read store stats: %w", err)
	}

	out := &Stats{
		Files:           ss.Files,
		Packages:        ss.Packages,
		IndexedPackages: s.ingest.Packages().Len(),
		Categories:      ss.Categories,
		Pool:            s.store.PoolStats(),
		SchemaVersion:   ss.SchemaVersion,
		ScanRunning:     s.ingest.Running(),
		LastScan:        ss.LastScan,
	}

	keys, err := s.cache.ScanKeys(ctx, cache.FilePattern)
	if err != nil {
		s.logger.Warn().Err(err).Msg("cache stats unavailable")
		out.CacheEntries = -1
	} else {
		out.CacheEntries = len(keys)
	}
	return out, nil
}
