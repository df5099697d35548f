package cache

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	r, err := NewRedis(context.Background(), RedisOptions{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestRedis_SetGet(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, r.SetWithTTL(ctx, FileKey("/a.txt"), []byte("hello"), time.Minute))

	v, ok, err := r.Get(ctx, "file:/a.txt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", string(v))

	_, ok, err = r.Get(ctx, "file:/none")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_Expiry(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, r.SetWithTTL(ctx, "k", []byte("v"), time.Second))
	_, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Second)

	_, ok, err = r.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_ScanAndDelete(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()

	for _, k := range []string{"file:/a/1", "file:/a/b/2", "meta:x"} {
		require.NoError(t, r.SetWithTTL(ctx, k, []byte("x"), time.Minute))
	}

	keys, err := r.ScanKeys(ctx, FilePattern)
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"file:/a/1", "file:/a/b/2"}, keys)

	n, err := r.Delete(ctx, keys...)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = r.Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = r.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRedis_ScanKeysAcrossPages(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()

	const n = scanCount*2 + 7
	for i := 0; i < n; i++ {
		require.NoError(t, r.SetWithTTL(ctx, FileKey(fmt.Sprintf("/f/%d", i)), []byte("x"), time.Minute))
	}

	keys, err := r.ScanKeys(ctx, FilePattern)
	require.NoError(t, err)
	assert.Len(t, keys, n)

	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		assert.False(t, seen[k], "key %s returned twice", k)
		seen[k] = true
	}
}

func TestAppendUnique(t *testing.T) {
	// SCAN may hand back a key on more than one page
	pages := [][]string{
		{"file:/a", "file:/b"},
		{"file:/b", "file:/c"},
		{"file:/a"},
	}

	var keys []string
	seen := make(map[string]struct{})
	for _, page := range pages {
		for _, k := range page {
			keys = appendUnique(keys, seen, k)
		}
	}
	assert.Equal(t, []string{"file:/a", "file:/b", "file:/c"}, keys)
}

func TestNewRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRedis(ctx, RedisOptions{Addr: addr})
	assert.Error(t, err)
}
