// Package storage provides the durable SQLite tier: a fixed-size connection
// pool and the file store built on it.
//
// # Connection Pool
//
// OpenPool pins a fixed number of connections and tunes each one once at
// creation (WAL journal, NORMAL sync, 64MB page cache, in-memory temp store,
// 256MB mmap, 30s busy timeout). Connections are leased exclusively:
//
//	pool, err := storage.OpenPool(ctx, "forensic.db", storage.DefaultPoolOptions())
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	err = pool.WithConn(ctx, func(c *storage.Conn) error {
//	    _, err := c.ExecContext(ctx, "DELETE FROM file_data")
//	    return err
//	})
//
// When every connection is leased, Acquire waits up to AcquireTimeout and
// then returns types.ErrPoolExhausted. With AcquireTimeout == 0 it fails
// immediately. At any observation Stats().Leased + Stats().Available equals
// Stats().Size.
//
// # Database Schema
//
// Tables:
//   - file_data: one row per ingested file path (upsert on file_path)
//   - scan_runs: persisted scan summaries
//   - schema_version: applied migrations, compared as semver
//
// # Drivers
//
// The default build uses modernc.org/sqlite (pure Go). Building with
// -tags cgo_sqlite switches to github.com/mattn/go-sqlite3.
package storage
