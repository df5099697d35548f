package cache

import (
	"context"
	"strings"
	"time"
)

const (
	// KeyPrefix namespaces file content entries
	KeyPrefix = "file:"
	// FilePattern matches every file content entry
	FilePattern = KeyPrefix + "*"
	// DefaultTTL is the lifetime of a file content entry
	DefaultTTL = 30 * time.Minute
)

// Client is a key-value store with per-entry expiry. Reads of an expired
// entry behave as if it were never written.
type Client interface {
	// SetWithTTL stores value under key, replacing any previous entry
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns the value for key; ok is false when absent or expired
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// ScanKeys returns live keys matching a glob pattern. '*' matches
	// across '/' so "file:*" covers absolute paths.
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
	// Delete removes keys and returns how many existed
	Delete(ctx context.Context, keys ...string) (int, error)
	// Len returns the number of live entries
	Len(ctx context.Context) (int, error)
	Close() error
}

// FileKey returns the cache key for a file path
func FileKey(path string) string {
	return KeyPrefix + path
}

// PathFromKey strips KeyPrefix from a file content key
func PathFromKey(key string) string {
	return strings.TrimPrefix(key, KeyPrefix)
}
