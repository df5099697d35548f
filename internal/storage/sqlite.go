package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/forensicq/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
)

const (
	// DefaultSearchLimit caps durable keyword search results
	DefaultSearchLimit = 100
	// DefaultSnippetLength is the number of characters returned per match
	DefaultSnippetLength = 500
)

// querier is an interface that *Conn and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store is the durable file store. Every operation runs on a connection
// leased from the pool for the duration of the call.
type Store struct {
	pool *Pool
}

// NewStore applies pending migrations and returns a store bound to pool
func NewStore(ctx context.Context, pool *Pool) (*Store, error) {
	err := pool.WithConn(ctx, func(c *Conn) error {
		return ApplyMigrations(ctx, c)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Pool returns the underlying connection pool
func (s *Store) Pool() *Pool {
	return s.pool
}

// PoolStats returns occupancy of the underlying pool
func (s *Store) PoolStats() PoolStats {
	return s.pool.Stats()
}

const upsertFileQuery = `
	INSERT INTO file_data (file_path, package_name, content, category)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(file_path) DO UPDATE SET
		package_name = excluded.package_name,
		content = excluded.content,
		category = excluded.category
`

// UpsertBatch writes records in a single transaction. A row with the same
// file_path is updated in place; create_time keeps its first-insert value.
func (s *Store) UpsertBatch(ctx context.Context, records []types.FileRecord) error {
	if len(records) == 0 {
		return nil
	}
	return s.pool.WithConn(ctx, func(c *Conn) error {
		tx, err := c.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, upsertFileQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare upsert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i := range records {
			r := &records[i]
			if _, err := stmt.ExecContext(ctx, r.FilePath, r.PackageName, r.Content, r.Category); err != nil {
				return fmt.Errorf("failed to upsert %s: %w", r.FilePath, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

// GetFile returns the record stored for filePath
func (s *Store) GetFile(ctx context.Context, filePath string) (*types.FileRecord, error) {
	var rec *types.FileRecord
	err := s.pool.WithConn(ctx, func(c *Conn) error {
		var err error
		rec, err = getFileWithQuerier(ctx, c, filePath)
		return err
	})
	return rec, err
}

func getFileWithQuerier(ctx context.Context, q querier, filePath string) (*types.FileRecord, error) {
	query := `
		SELECT id, file_path, COALESCE(package_name, ''), COALESCE(content, ''),
		       COALESCE(category, ''), CAST(strftime('%s', create_time) AS INTEGER)
		FROM file_data
		WHERE file_path = ?
	`
	var rec types.FileRecord
	var created int64
	err := q.QueryRowContext(ctx, query, filePath).Scan(
		&rec.ID, &rec.FilePath, &rec.PackageName, &rec.Content, &rec.Category, &created,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.CreateTime = time.Unix(created, 0).UTC()
	return &rec, nil
}

// ContentMatch is a durable-tier keyword hit
type ContentMatch struct {
	FilePath    string
	Snippet     string
	PackageName string
}

// SearchContent returns up to limit files whose content contains keyword,
// with content truncated to snippetLen characters. LIKE wildcards in keyword
// are matched literally.
func (s *Store) SearchContent(ctx context.Context, keyword string, limit, snippetLen int) ([]ContentMatch, error) {
	query := `
		SELECT file_path, COALESCE(substr(content, 1, ?), ''), COALESCE(package_name, '')
		FROM file_data
		WHERE content LIKE ? ESCAPE '\'
		ORDER BY file_path
		LIMIT ?
	`
	return s.searchMatches(ctx, query, "%"+escapeLike(keyword)+"%", limit, snippetLen)
}

// SearchCategory returns up to limit files classified as category
func (s *Store) SearchCategory(ctx context.Context, category string, limit, snippetLen int) ([]ContentMatch, error) {
	query := `
		SELECT file_path, COALESCE(substr(content, 1, ?), ''), COALESCE(package_name, '')
		FROM file_data
		WHERE category = ?
		ORDER BY file_path
		LIMIT ?
	`
	return s.searchMatches(ctx, query, category, limit, snippetLen)
}

func (s *Store) searchMatches(ctx context.Context, query string, arg interface{}, limit, snippetLen int) ([]ContentMatch, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if snippetLen <= 0 {
		snippetLen = DefaultSnippetLength
	}

	matches := make([]ContentMatch, 0)
	err := s.pool.WithConn(ctx, func(c *Conn) error {
		rows, err := c.QueryContext(ctx, query, snippetLen, arg, limit)
		if err != nil {
			return fmt.Errorf("failed to search content: %w", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var m ContentMatch
			if err := rows.Scan(&m.FilePath, &m.Snippet, &m.PackageName); err != nil {
				return err
			}
			// substr counts characters for TEXT; guard against BLOB-typed rows
			m.Snippet = types.Snippet(m.Snippet, snippetLen)
			matches = append(matches, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Packages returns the distinct package names stored durably, sorted,
// excluding the unknown sentinel
func (s *Store) Packages(ctx context.Context) ([]string, error) {
	names := make([]string, 0)
	err := s.pool.WithConn(ctx, func(c *Conn) error {
		rows, err := c.QueryContext(ctx, `
			SELECT DISTINCT package_name FROM file_data
			WHERE package_name IS NOT NULL AND package_name != '' AND package_name != ?
			ORDER BY package_name
		`, types.UnknownPackage)
		if err != nil {
			return fmt.Errorf("failed to list packages: %w", err)
		}
		defer func() { _ = rows.Close() }()
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			names = append(names, name)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// DeleteAll removes every file row and returns the number deleted
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.WithConn(ctx, func(c *Conn) error {
		res, err := c.ExecContext(ctx, "DELETE FROM file_data")
		if err != nil {
			return fmt.Errorf("failed to delete file data: %w", err)
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

// StoreStats summarizes durable contents
type StoreStats struct {
	Files         int
	Packages      int
	Categories    map[string]int
	SchemaVersion string
	LastScan      *ScanRun
}

// Stats returns row counts grouped by category
func (s *Store) Stats(ctx context.Context) (*StoreStats, error) {
	stats := &StoreStats{Categories: make(map[string]int)}
	err := s.pool.WithConn(ctx, func(c *Conn) error {
		if err := c.QueryRowContext(ctx, "SELECT COUNT(*) FROM file_data").Scan(&stats.Files); err != nil {
			return fmt.Errorf("failed to count files: %w", err)
		}

		err := c.QueryRowContext(ctx,
			"SELECT COUNT(DISTINCT package_name) FROM file_data WHERE package_name != ?",
			types.UnknownPackage).Scan(&stats.Packages)
		if err != nil {
			return fmt.Errorf("failed to count packages: %w", err)
		}

		rows, err := c.QueryContext(ctx, "SELECT COALESCE(category, ''), COUNT(*) FROM file_data GROUP BY category")
		if err != nil {
			return fmt.Errorf("failed to count categories: %w", err)
		}
		defer func() { _ = rows.Close() }()
		for rows.Next() {
			var cat string
			var n int
			if err := rows.Scan(&cat, &n); err != nil {
				return err
			}
			stats.Categories[cat] = n
		}
		if err := rows.Err(); err != nil {
			return err
		}

		if stats.SchemaVersion, err = SchemaVersion(ctx, c); err != nil {
			return err
		}

		stats.LastScan, err = lastScanWithQuerier(ctx, c)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ScanRun is a persisted scan summary
type ScanRun struct {
	ScanID        string    `json:"scan_id"`
	RootDir       string    `json:"root_dir"`
	Discovered    int       `json:"discovered"`
	Processed     int       `json:"processed"`
	Skipped       int       `json:"skipped"`
	Errored       int       `json:"errored"`
	BatchesFailed int       `json:"batches_failed"`
	PackageCount  int       `json:"package_count"`
	DurationMS    int64     `json:"duration_ms"`
	FinishedAt    time.Time `json:"finished_at"`
}

// RecordScan persists the outcome of a finished scan
func (s *Store) RecordScan(ctx context.Context, sum *types.ScanSummary) error {
	query := `
		INSERT INTO scan_runs (scan_id, root_dir, discovered, processed, skipped, errored,
		                       batches_failed, package_count, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	return s.pool.WithConn(ctx, func(c *Conn) error {
		_, err := c.ExecContext(ctx, query,
			sum.ScanID, sum.RootDir, sum.Discovered, sum.Processed, sum.Skipped, sum.Errored,
			sum.BatchesFailed, sum.PackageCount, sum.Duration.Milliseconds())
		if err != nil {
			return fmt.Errorf("failed to record scan: %w", err)
		}
		return nil
	})
}

func lastScanWithQuerier(ctx context.Context, q querier) (*ScanRun, error) {
	query := `
		SELECT scan_id, root_dir, discovered, processed, skipped, errored,
		       batches_failed, package_count, duration_ms,
		       CAST(strftime('%s', finished_at) AS INTEGER)
		FROM scan_runs
		ORDER BY id DESC
		LIMIT 1
	`
	var run ScanRun
	var finished int64
	err := q.QueryRowContext(ctx, query).Scan(
		&run.ScanID, &run.RootDir, &run.Discovered, &run.Processed, &run.Skipped,
		&run.Errored, &run.BatchesFailed, &run.PackageCount, &run.DurationMS, &finished,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	run.FinishedAt = time.Unix(finished, 0).UTC()
	return &run, nil
}
