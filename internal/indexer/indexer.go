package indexer

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/stream"

	"github.com/dshills/forensicq/internal/cache"
	"github.com/dshills/forensicq/internal/classifier"
	"github.com/dshills/forensicq/internal/scanner"
	"github.com/dshills/forensicq/pkg/types"
)

// DefaultBatchSize is the number of records committed per transaction
const DefaultBatchSize = 500

// RecordWriter persists ingested records. *storage.Store implements it.
type RecordWriter interface {
	UpsertBatch(ctx context.Context, records []types.FileRecord) error
	RecordScan(ctx context.Context, sum *types.ScanSummary) error
}

// Config contains configuration for the indexer
type Config struct {
	BatchSize int           // Records per flush (default: 500)
	Workers   int           // Concurrent extractions (default: runtime.NumCPU())
	CacheTTL  time.Duration // Lifetime of cache entries (default: 30m)
}

// Indexer drives the ingestion pipeline: scan -> extract -> classify ->
// cache + batched durable write. Only one scan runs at a time.
type Indexer struct {
	scanner    scanner.Scanner
	writer     RecordWriter
	cache      cache.Client
	classifier *classifier.Classifier
	packages   *PackageIndex
	lock       ScanLock
	logger     zerolog.Logger

	batchSize int
	workers   int
	ttl       time.Duration
	retry     RetryConfig
}

// Option configures an Indexer
type Option func(*Indexer)

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(idx *Indexer) {
		idx.logger = l
	}
}

// WithClassifier replaces the default content classifier
func WithClassifier(c *classifier.Classifier) Option {
	return func(idx *Indexer) {
		idx.classifier = c
	}
}

// WithRetry sets the backoff policy for batch writes
func WithRetry(cfg RetryConfig) Option {
	return func(idx *Indexer) {
		idx.retry = cfg
	}
}

// New creates an Indexer
func New(sc scanner.Scanner, writer RecordWriter, cc cache.Client, config *Config, opts ...Option) *Indexer {
	if config == nil {
		config = &Config{}
	}

	idx := &Indexer{
		scanner:    sc,
		writer:     writer,
		cache:      cc,
		classifier: classifier.Default(),
		packages:   NewPackageIndex(),
		logger:     zerolog.Nop(),
		batchSize:  config.BatchSize,
		workers:    config.Workers,
		ttl:        config.CacheTTL,
		retry:      DefaultRetryConfig(),
	}
	if idx.batchSize <= 0 {
		idx.batchSize = DefaultBatchSize
	}
	if idx.workers <= 0 {
		idx.workers = runtime.NumCPU()
	}
	if idx.ttl <= 0 {
		idx.ttl = cache.DefaultTTL
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Packages returns the index populated by the most recent scan
func (idx *Indexer) Packages() *PackageIndex {
	return idx.packages
}

// Running reports whether a scan is in progress
func (idx *Indexer) Running() bool {
	return idx.lock.Held()
}

// Exclusive runs fn while holding the scan lock, failing with
// types.ErrScanInProgress if a scan is running.
func (idx *Indexer) Exclusive(fn func() error) error {
	if !idx.lock.TryAcquire() {
		return types.ErrScanInProgress
	}
	defer idx.lock.Release()
	return fn()
}

// fileResult is the outcome of extracting and classifying one file
type fileResult struct {
	path     string
	content  string
	pkg      string
	category string
	err      error
}

// scanState is owned by the ordered callback goroutine of a single scan
type scanState struct {
	summary *types.ScanSummary
	batch   []types.FileRecord
	batches int
	logger  zerolog.Logger
}

// Scan ingests every file the scanner reports under root. The root is
// validated before any work begins. Per-file extraction failures and
// per-batch write failures are counted in the summary and never abort the
// scan. The scan runs to completion even if ctx is cancelled.
func (idx *Indexer) Scan(ctx context.Context, root string) (*types.ScanSummary, error) {
	if err := scanner.ValidateRoot(root); err != nil {
		return nil, err
	}
	if !idx.lock.TryAcquire() {
		return nil, types.ErrScanInProgress
	}
	defer idx.lock.Release()

	// No mid-scan abort: keep values, drop cancellation
	ctx = context.WithoutCancel(ctx)

	start := time.Now()
	st := &scanState{
		summary: &types.ScanSummary{ScanID: uuid.NewString(), RootDir: root},
		batch:   make([]types.FileRecord, 0, idx.batchSize),
	}
	st.logger = idx.logger.With().Str("scan_id", st.summary.ScanID).Logger()

	idx.packages.Reset()

	paths, err := idx.scanner.Scan(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	st.summary.Discovered = len(paths)
	st.logger.Info().Str("root", root).Int("files", len(paths)).Int("workers", idx.workers).Msg("scan started")

	// Extraction fans out; callbacks run one at a time in path order
	s := stream.New().WithMaxGoroutines(idx.workers)
	for _, path := range paths {
		s.Go(func() stream.Callback {
			res := idx.extract(ctx, path)
			return func() { idx.consume(ctx, st, res) }
		})
	}
	s.Wait()

	idx.flush(ctx, st)

	sum := st.summary
	sum.PackageCount = idx.packages.Len()
	sum.Duration = time.Since(start)

	if err := idx.writer.RecordScan(ctx, sum); err != nil {
		st.logger.Warn().Err(err).Msg("failed to record scan")
	}

	st.logger.Info().
		Int("processed", sum.Processed).
		Int("skipped", sum.Skipped).
		Int("errored", sum.Errored).
		Int("packages", sum.PackageCount).
		Int("batches_failed", sum.BatchesFailed).
		Int("cache_errors", sum.CacheErrors).
		Dur("duration", sum.Duration).
		Msg("scan finished")

	return sum, nil
}

// extract copies the file content out of the scanner buffer and classifies
// it. The buffer is released exactly once on every path.
func (idx *Indexer) extract(ctx context.Context, path string) fileResult {
	buf, err := idx.scanner.Extract(ctx, path)
	if err != nil {
		return fileResult{path: path, err: err}
	}
	if buf == nil {
		return fileResult{path: path}
	}
	content := types.DecodeContent(buf.Bytes())
	buf.Release()

	if content == "" {
		return fileResult{path: path}
	}
	return fileResult{
		path:     path,
		content:  content,
		pkg:      classifier.PackageName(path),
		category: idx.classifier.Classify(content),
	}
}

// consume applies one file result. It runs on the ordered callback path
// only, so st needs no locking.
func (idx *Indexer) consume(ctx context.Context, st *scanState, res fileResult) {
	sum := st.summary
	switch {
	case res.err != nil:
		sum.Errored++
		sum.AddError(res.err)
		st.logger.Warn().Err(res.err).Str("path", res.path).Msg("extraction failed")
		return
	case res.content == "":
		sum.Skipped++
		st.logger.Debug().Str("path", res.path).Msg("empty content, skipped")
		return
	}

	sum.Processed++
	rec := types.FileRecord{
		FilePath:    res.path,
		PackageName: res.pkg,
		Content:     res.content,
		Category:    res.category,
	}
	if rec.HasPackage() {
		idx.packages.Add(rec.PackageName, rec.FilePath)
	}

	if err := idx.cache.SetWithTTL(ctx, cache.FileKey(res.path), []byte(res.content), idx.ttl); err != nil {
		sum.CacheErrors++
		st.logger.Debug().Err(err).Str("path", res.path).Msg("cache write failed")
	}

	st.batch = append(st.batch, rec)
	if len(st.batch) >= idx.batchSize {
		idx.flush(ctx, st)
	}
}

// flush writes the pending batch in one transaction. Pool exhaustion is
// retried with backoff; a batch that still fails is logged and discarded.
func (idx *Indexer) flush(ctx context.Context, st *scanState) {
	if len(st.batch) == 0 {
		return
	}
	st.batches++
	rows := len(st.batch)

	attempts, err := retryWithBackoff(ctx, idx.retry, func() error {
		return idx.writer.UpsertBatch(ctx, st.batch)
	})
	if err != nil {
		berr := &types.BatchError{Batch: st.batches, Rows: rows, Err: err}
		st.summary.BatchesFailed++
		st.summary.AddError(berr)
		st.logger.Error().Err(err).Int("batch", st.batches).Int("rows", rows).Int("attempts", attempts).Msg("batch write failed, discarding")
	} else {
		st.summary.BatchesWritten++
		st.summary.RowsWritten += rows
		st.logger.Debug().Int("batch", st.batches).Int("rows", rows).Int("attempts", attempts).Msg("batch committed")
	}

	st.batch = make([]types.FileRecord, 0, idx.batchSize)
}
