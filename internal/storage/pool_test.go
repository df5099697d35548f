package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/forensicq/pkg/types"
)

func setupTestPool(t testing.TB, size int, timeout time.Duration) *Pool {
	t.Helper()

	opts := DefaultPoolOptions()
	opts.Size = size
	opts.AcquireTimeout = timeout

	pool, err := OpenPool(context.Background(), filepath.Join(t.TempDir(), "pool.db"), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

func assertInvariant(t *testing.T, p *Pool) {
	t.Helper()
	s := p.Stats()
	assert.Equal(t, s.Size, s.Leased+s.Available, "leased + available must equal size")
}

func TestOpenPool(t *testing.T) {
	pool := setupTestPool(t, 4, time.Second)

	stats := pool.Stats()
	assert.Equal(t, 4, stats.Size)
	assert.Equal(t, 0, stats.Leased)
	assert.Equal(t, 4, stats.Available)
}

func TestOpenPool_PragmasApplied(t *testing.T) {
	pool := setupTestPool(t, 2, time.Second)
	ctx := context.Background()

	// every connection must carry the tuning, not only the first
	conns := make([]*Conn, 0, 2)
	for i := 0; i < 2; i++ {
		c, err := pool.Acquire(ctx)
		require.NoError(t, err)
		conns = append(conns, c)
	}
	defer func() {
		for _, c := range conns {
			c.Release()
		}
	}()

	for _, c := range conns {
		var mode string
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
		assert.Equal(t, "wal", mode)

		var busy int
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busy))
		assert.Equal(t, 30000, busy)

		var tempStore int
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA temp_store").Scan(&tempStore))
		assert.Equal(t, 2, tempStore) // MEMORY
	}
}

func TestOpenPool_MemoryLimitedToOne(t *testing.T) {
	opts := DefaultPoolOptions()
	opts.Size = 5
	pool, err := OpenPool(context.Background(), ":memory:", opts)
	require.NoError(t, err)
	defer pool.Close()

	assert.Equal(t, 1, pool.Size())
}

func TestAcquireRelease(t *testing.T) {
	pool := setupTestPool(t, 3, time.Second)
	ctx := context.Background()

	c1, err := pool.Acquire(ctx)
	require.NoError(t, err)
	assertInvariant(t, pool)
	assert.Equal(t, 1, pool.Stats().Leased)

	c2, err := pool.Acquire(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, c1.ID(), c2.ID())
	assertInvariant(t, pool)

	c1.Release()
	assertInvariant(t, pool)
	assert.Equal(t, 1, pool.Stats().Leased)

	// second release of the same lease is a no-op
	c1.Release()
	assert.Equal(t, 1, pool.Stats().Leased)
	assert.Equal(t, 2, pool.Stats().Available)

	c2.Release()
	assert.Equal(t, 0, pool.Stats().Leased)
	assertInvariant(t, pool)
}

func TestAcquire_ExhaustedFailFast(t *testing.T) {
	pool := setupTestPool(t, 1, 0)
	ctx := context.Background()

	c, err := pool.Acquire(ctx)
	require.NoError(t, err)
	defer c.Release()

	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, types.ErrPoolExhausted)
	assert.True(t, types.IsRetryable(err))
	assertInvariant(t, pool)
}

func TestAcquire_ExhaustedAfterTimeout(t *testing.T) {
	pool := setupTestPool(t, 1, 50*time.Millisecond)
	ctx := context.Background()

	c, err := pool.Acquire(ctx)
	require.NoError(t, err)
	defer c.Release()

	start := time.Now()
	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, types.ErrPoolExhausted)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestAcquire_WaitsForRelease(t *testing.T) {
	pool := setupTestPool(t, 1, 5*time.Second)
	ctx := context.Background()

	c, err := pool.Acquire(ctx)
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		c.Release()
	}()

	c2, err := pool.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, c.ID(), c2.ID())
	c2.Release()
}

func TestAcquire_ContextCancelled(t *testing.T) {
	pool := setupTestPool(t, 1, 5*time.Second)

	c, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer c.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, types.ErrPoolExhausted))
}

func TestWithConn_ReleasesOnErrorAndPanic(t *testing.T) {
	pool := setupTestPool(t, 2, time.Second)
	ctx := context.Background()

	boom := errors.New("boom")
	err := pool.WithConn(ctx, func(c *Conn) error {
		assert.Equal(t, 1, pool.Stats().Leased)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, pool.Stats().Leased)

	assert.Panics(t, func() {
		_ = pool.WithConn(ctx, func(c *Conn) error {
			panic("handler crashed")
		})
	})
	assert.Equal(t, 0, pool.Stats().Leased)
	assertInvariant(t, pool)
}

func TestPool_ConcurrentLeases(t *testing.T) {
	pool := setupTestPool(t, 3, 5*time.Second)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		holders = make(map[int]int)
		maxSeen int
	)

	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pool.WithConn(ctx, func(c *Conn) error {
				mu.Lock()
				holders[c.ID()]++
				if holders[c.ID()] > maxSeen {
					maxSeen = holders[c.ID()]
				}
				mu.Unlock()

				s := pool.Stats()
				if s.Leased+s.Available != s.Size {
					t.Errorf("invariant violated: %+v", s)
				}
				time.Sleep(time.Millisecond)

				mu.Lock()
				holders[c.ID()]--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen, "a connection was held by two leases")
	assert.Equal(t, 0, pool.Stats().Leased)
}

func TestPool_Close(t *testing.T) {
	opts := DefaultPoolOptions()
	opts.Size = 2
	pool, err := OpenPool(context.Background(), filepath.Join(t.TempDir(), "close.db"), opts)
	require.NoError(t, err)

	c, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	require.NoError(t, pool.Close())
	assert.NoError(t, pool.Close(), "close is idempotent")

	_, err = pool.Acquire(context.Background())
	assert.ErrorIs(t, err, types.ErrPoolClosed)

	c.Release()
	assertInvariant(t, pool)
}

func TestPool_CloseWakesWaiters(t *testing.T) {
	opts := DefaultPoolOptions()
	opts.Size = 1
	opts.AcquireTimeout = 30 * time.Second
	pool, err := OpenPool(context.Background(), filepath.Join(t.TempDir(), "wake.db"), opts)
	require.NoError(t, err)

	c, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := pool.Acquire(context.Background())
		errCh <- err
	}()
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	require.NoError(t, pool.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, types.ErrPoolClosed)
		assert.False(t, errors.Is(err, types.ErrPoolExhausted))
		assert.Less(t, time.Since(start), 2*time.Second)
	case <-time.After(5 * time.Second):
		t.Fatal("waiter still blocked after Close")
	}

	c.Release()
	assertInvariant(t, pool)
}
