package scanner

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/dshills/forensicq/pkg/types"
)

// Scanner enumerates candidate files under a root and extracts their raw
// content.
type Scanner interface {
	// Scan returns absolute file paths under root in a stable order. It
	// fails with types.ErrInvalidRoot when root is not a directory.
	Scan(ctx context.Context, root string) ([]string, error)
	// Extract returns the content of path in a Buffer owned by the scanner.
	// The caller must copy what it needs and call Release exactly once.
	Extract(ctx context.Context, path string) (*Buffer, error)
}

// Buffer is scanner-owned content returned by Extract
type Buffer struct {
	data    []byte
	release func()
	once    sync.Once
}

// NewBuffer wraps data; release runs on the first Release call
func NewBuffer(data []byte, release func()) *Buffer {
	return &Buffer{data: data, release: release}
}

// Bytes returns the content. It is only valid until Release.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the content length
func (b *Buffer) Len() int {
	return len(b.data)
}

// Release returns the buffer to its owner. Calls after the first are no-ops.
func (b *Buffer) Release() {
	b.once.Do(func() {
		b.data = nil
		if b.release != nil {
			b.release()
		}
	})
}

// ValidateRoot checks that root exists and is a directory
func ValidateRoot(root string) error {
	if root == "" {
		return fmt.Errorf("%w: %w", types.ErrInvalidRoot, types.ErrRootRequired)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", types.ErrInvalidRoot, root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", types.ErrInvalidRoot, root)
	}
	return nil
}
