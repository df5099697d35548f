package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/danwakefield/fnmatch"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxEntries bounds the memory cache when no capacity is given
const DefaultMaxEntries = 100000

type memEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Memory is an in-process Client. Capacity is bounded by LRU eviction and
// expiry is checked lazily on access. The clock is read before mu is taken;
// the expiry check and the removal it triggers happen under mu.
type Memory struct {
	mu      sync.Mutex
	entries *lru.Cache[string, memEntry]
	now     func() time.Time
}

// MemoryOption configures a Memory cache
type MemoryOption func(*Memory)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// NewMemory creates a memory cache holding at most maxEntries entries
func NewMemory(maxEntries int, opts ...MemoryOption) (*Memory, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	entries, err := lru.New[string, memEntry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}

	m := &Memory{entries: entries, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// SetWithTTL stores a copy of value under key. A ttl <= 0 never expires.
func (m *Memory) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries.Add(key, e)
	return nil
}

// Get returns the live value for key. An expired entry is removed.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	if e.expired(now) {
		m.entries.Remove(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// ScanKeys returns the live keys matching a redis-style glob and drops
// expired entries along the way
func (m *Memory) ScanKeys(_ context.Context, pattern string) ([]string, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	keys := m.entries.Keys()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		e, ok := m.entries.Peek(k)
		if !ok {
			continue
		}
		if e.expired(now) {
			m.entries.Remove(k)
			continue
		}
		if fnmatch.Match(pattern, k, 0) {
			out = append(out, k)
		}
	}
	return out, nil
}

// Delete removes keys and reports how many were live
func (m *Memory) Delete(_ context.Context, keys ...string) (int, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for _, k := range keys {
		e, ok := m.entries.Peek(k)
		if !ok {
			continue
		}
		m.entries.Remove(k)
		if !e.expired(now) {
			removed++
		}
	}
	return removed, nil
}

// Len counts live entries
func (m *Memory) Len(ctx context.Context) (int, error) {
	keys, err := m.ScanKeys(ctx, "*")
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Close drops all entries
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries.Purge()
	return nil
}
