package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/dshills/forensicq/pkg/types"
)

const (
	// DefaultPoolSize is the number of pinned connections
	DefaultPoolSize = 10
	// DefaultAcquireTimeout bounds how long Acquire waits for a free connection
	DefaultAcquireTimeout = 30 * time.Second
)

// PoolOptions configures connection creation and checkout
type PoolOptions struct {
	Size           int
	AcquireTimeout time.Duration // 0 fails immediately when no connection is free
	BusyTimeoutMS  int
	CacheSizeKB    int
	MmapSize       int64
	Logger         zerolog.Logger
}

// DefaultPoolOptions returns the write-throughput tuning used in production
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		Size:           DefaultPoolSize,
		AcquireTimeout: DefaultAcquireTimeout,
		BusyTimeoutMS:  30000,
		CacheSizeKB:    64000,
		MmapSize:       256 << 20,
		Logger:         zerolog.Nop(),
	}
}

// pragma is a single PRAGMA applied once per connection
type pragma struct {
	name  string
	value string
}

func (o PoolOptions) pragmas() []pragma {
	// busy_timeout goes first so the WAL switch can wait out other connections
	return []pragma{
		{"busy_timeout", fmt.Sprint(o.BusyTimeoutMS)},
		{"journal_mode", "WAL"},
		{"synchronous", "NORMAL"},
		{"cache_size", fmt.Sprint(-o.CacheSizeKB)},
		{"temp_store", "MEMORY"},
		{"mmap_size", fmt.Sprint(o.MmapSize)},
		{"page_size", "4096"},
		{"locking_mode", "NORMAL"},
	}
}

// Pool owns a fixed set of pinned SQLite connections. A connection is leased
// to exactly one caller between Acquire and Release.
type Pool struct {
	db      *sql.DB
	path    string
	size    int
	timeout time.Duration
	logger  zerolog.Logger

	// sem counts free connections; waiters block on it, not on mu
	sem *semaphore.Weighted
	// closing is cancelled by Close to wake waiters in Acquire
	closing   context.Context
	stopWaits context.CancelFunc

	mu     sync.Mutex
	free   []*Conn
	leased int
	closed bool
}

// PoolStats is a consistent snapshot of pool occupancy
type PoolStats struct {
	Size      int `json:"size"`
	Leased    int `json:"leased"`
	Available int `json:"available"`
}

// OpenPool opens size connections to the database at path and applies the
// performance PRAGMAs to each. It fails if any connection cannot be opened.
func OpenPool(ctx context.Context, path string, opts PoolOptions) (*Pool, error) {
	if opts.Size <= 0 {
		opts.Size = DefaultPoolSize
	}
	if path == ":memory:" && opts.Size > 1 {
		// every connection to :memory: is a distinct database
		opts.Logger.Warn().Int("requested", opts.Size).Msg("in-memory database, limiting pool to one connection")
		opts.Size = 1
	}

	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(opts.Size)
	db.SetMaxIdleConns(opts.Size)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	p := &Pool{
		db:      db,
		path:    path,
		size:    opts.Size,
		timeout: opts.AcquireTimeout,
		logger:  opts.Logger,
		sem:     semaphore.NewWeighted(int64(opts.Size)),
		free:    make([]*Conn, 0, opts.Size),
	}
	p.closing, p.stopWaits = context.WithCancel(context.Background())

	p.logger.Info().Str("path", path).Int("size", opts.Size).Str("driver", DriverName).Msg("initializing connection pool")
	for i := 0; i < opts.Size; i++ {
		raw, err := db.Conn(ctx)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("failed to create connection %d/%d: %w", i+1, opts.Size, err)
		}
		p.applyPragmas(ctx, raw, opts.pragmas())
		p.free = append(p.free, &Conn{conn: raw, pool: p, id: i + 1})
		p.logger.Debug().Int("conn", i+1).Msg("connection created")
	}

	return p, nil
}

func (p *Pool) applyPragmas(ctx context.Context, raw *sql.Conn, pragmas []pragma) {
	for _, pr := range pragmas {
		stmt := fmt.Sprintf("PRAGMA %s=%s", pr.name, pr.value)
		if _, err := raw.ExecContext(ctx, stmt); err != nil {
			p.logger.Warn().Err(err).Str("pragma", pr.name).Msg("pragma failed")
		}
	}
}

// Acquire leases a connection. When none is free it waits up to the
// configured acquire timeout and then returns ErrPoolExhausted. Cancelling
// ctx returns ctx.Err(); closing the pool returns ErrPoolClosed to every
// waiter immediately.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, types.ErrPoolClosed
	}

	if p.timeout <= 0 {
		if !p.sem.TryAcquire(1) {
			return nil, types.ErrPoolExhausted
		}
	} else {
		waitCtx, cancel := context.WithTimeout(ctx, p.timeout)
		stop := context.AfterFunc(p.closing, cancel)
		err := p.sem.Acquire(waitCtx, 1)
		stop()
		cancel()
		if err != nil {
			if p.closing.Err() != nil {
				return nil, types.ErrPoolClosed
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: no connection released within %s", types.ErrPoolExhausted, p.timeout)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || len(p.free) == 0 {
		p.sem.Release(1)
		return nil, types.ErrPoolClosed
	}
	c := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	c.leased = true
	p.leased++
	p.logger.Debug().Int("conn", c.id).Int("available", len(p.free)).Msg("connection acquired")
	return c, nil
}

// WithConn leases a connection for the duration of fn. The connection is
// returned on every exit path, including panics.
func (p *Pool) WithConn(ctx context.Context, fn func(*Conn) error) error {
	c, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer c.Release()
	return fn(c)
}

// Stats returns pool occupancy. Leased+Available always equals Size.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{Size: p.size, Leased: p.leased, Available: len(p.free)}
}

// Size returns the fixed number of connections
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

// Path returns the database path
func (p *Pool) Path() string {
	return p.path
}

// Close closes all free connections and the database handle. Connections
// still leased are closed when released.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.stopWaits()
	for _, c := range p.free {
		if err := c.conn.Close(); err != nil {
			p.logger.Warn().Err(err).Int("conn", c.id).Msg("failed to close connection")
		}
	}
	p.free = nil
	p.size = p.leased
	p.mu.Unlock()

	p.logger.Info().Str("path", p.path).Msg("connection pool closed")
	return p.db.Close()
}

// Conn is a leased connection. It must be released exactly once; further
// Release calls are no-ops.
type Conn struct {
	conn *sql.Conn
	pool *Pool
	id   int

	leased bool // guarded by pool.mu
}

// Release returns the connection to its pool
func (c *Conn) Release() {
	p := c.pool
	p.mu.Lock()
	if !c.leased {
		p.mu.Unlock()
		return
	}
	c.leased = false
	p.leased--
	if p.closed {
		_ = c.conn.Close()
		p.size--
	} else {
		p.free = append(p.free, c)
	}
	p.logger.Debug().Int("conn", c.id).Int("available", len(p.free)).Msg("connection released")
	p.mu.Unlock()
	p.sem.Release(1)
}

// ID returns the 1-based connection number within the pool
func (c *Conn) ID() int {
	return c.id
}

func (c *Conn) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return c.conn.ExecContext(ctx, query, args...)
}

func (c *Conn) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return c.conn.QueryContext(ctx, query, args...)
}

func (c *Conn) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return c.conn.QueryRowContext(ctx, query, args...)
}

// BeginTx starts a transaction on the leased connection
func (c *Conn) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return c.conn.BeginTx(ctx, opts)
}
