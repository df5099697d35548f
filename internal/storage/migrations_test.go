package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMigrations(t *testing.T) {
	pool := setupTestPool(t, 1, 0)
	ctx := context.Background()

	err := pool.WithConn(ctx, func(c *Conn) error {
		require.NoError(t, ApplyMigrations(ctx, c))

		v, err := SchemaVersion(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, CurrentSchemaVersion, v)

		for _, table := range []string{"file_data", "scan_runs", "schema_version"} {
			var name string
			err := c.QueryRowContext(ctx,
				"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
			assert.NoError(t, err, "table %s should exist", table)
		}

		for _, idx := range []string{"idx_package_name", "idx_file_path", "idx_category", "idx_create_time"} {
			var name string
			err := c.QueryRowContext(ctx,
				"SELECT name FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&name)
			assert.NoError(t, err, "index %s should exist", idx)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	pool := setupTestPool(t, 1, 0)
	ctx := context.Background()

	err := pool.WithConn(ctx, func(c *Conn) error {
		require.NoError(t, ApplyMigrations(ctx, c))
		require.NoError(t, ApplyMigrations(ctx, c))

		var count int
		require.NoError(t, c.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_version").Scan(&count))
		assert.Equal(t, len(AllMigrations), count)
		return nil
	})
	require.NoError(t, err)
}
