package types

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Validation errors
	ErrInvalidRoot    = errors.New("root directory does not exist or is not a directory")
	ErrEmptyKeyword   = errors.New("keyword cannot be empty")
	ErrInvalidSource  = errors.New("source must be one of: cache, durable")
	ErrRootRequired   = errors.New("root directory is required")
	ErrInvalidPackage = errors.New("package name is required")

	// Resource errors
	ErrPoolExhausted  = errors.New("connection pool exhausted")
	ErrPoolClosed     = errors.New("connection pool closed")
	ErrScanInProgress = errors.New("another scan is already running")

	// Lookup errors
	ErrPackageNotFound = errors.New("package not found")
)

// FileError records a scanner failure for a single file.
type FileError struct {
	Path string
	Op   string // "scan" or "extract"
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// BatchError records a failed batch flush. The rows of the batch are lost.
type BatchError struct {
	Batch int // 1-based batch sequence within the scan
	Rows  int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d (%d rows): %v", e.Batch, e.Rows, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a transient resource condition the
// caller may retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPoolExhausted) || errors.Is(err, ErrScanInProgress)
}
