package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/dshills/forensicq/pkg/types"
)

const (
	// DefaultMaxFileSize excludes files larger than 100 MiB
	DefaultMaxFileSize int64 = 100 << 20

	initialBufferSize = 32 << 10
	// buffers grown past this are not returned to the pool
	maxPooledBufferSize = 4 << 20
)

// DefaultExtensions are the file types worth extracting from a device dump
var DefaultExtensions = []string{".db", ".sqlite", ".txt", ".log", ".json", ".xml", ".plist", ".rdb", ".aof"}

// ErrFileTooLarge is returned by Extract for files above the size limit
var ErrFileTooLarge = errors.New("file exceeds maximum size")

// Options configures an FS scanner
type Options struct {
	Extensions  []string // Matched case-insensitively; nil means DefaultExtensions
	MaxFileSize int64    // 0 means DefaultMaxFileSize
	Exclude     []string // doublestar patterns matched against root-relative slash paths
	Logger      zerolog.Logger
}

// FS walks the local filesystem
type FS struct {
	extensions  map[string]struct{}
	maxFileSize int64
	exclude     []string
	logger      zerolog.Logger
	buffers     sync.Pool
}

// NewFS validates exclude patterns and returns a filesystem scanner
func NewFS(opts Options) (*FS, error) {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	extSet := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		extSet[e] = struct{}{}
	}

	for _, p := range opts.Exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern: %s", p)
		}
	}

	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	s := &FS{
		extensions:  extSet,
		maxFileSize: maxSize,
		exclude:     opts.Exclude,
		logger:      opts.Logger,
	}
	s.buffers.New = func() interface{} {
		b := make([]byte, 0, initialBufferSize)
		return &b
	}
	return s, nil
}

// Scan walks root and returns supported, non-empty files within the size
// limit. Unreadable subdirectories are logged and skipped.
func (s *FS) Scan(ctx context.Context, root string) ([]string, error) {
	if err := ValidateRoot(root); err != nil {
		return nil, err
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	var paths []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == absRoot {
				return walkErr
			}
			s.logger.Warn().Err(walkErr).Str("path", path).Msg("skipping unreadable path")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path != absRoot && s.excluded(absRoot, path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if !s.supported(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.logger.Debug().Err(err).Str("path", path).Msg("stat failed")
			return nil
		}
		if info.Size() == 0 || info.Size() > s.maxFileSize {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	s.logger.Debug().Str("root", absRoot).Int("files", len(paths)).Msg("scan complete")
	return paths, nil
}

func (s *FS) supported(path string) bool {
	_, ok := s.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

func (s *FS) excluded(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range s.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// Extract reads path into a pooled buffer
func (s *FS) Extract(ctx context.Context, path string) (*Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &types.FileError{Path: path, Op: "extract", Err: err}
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, &types.FileError{Path: path, Op: "extract", Err: err}
	}
	size := info.Size()
	if size > s.maxFileSize {
		return nil, &types.FileError{Path: path, Op: "extract", Err: ErrFileTooLarge}
	}

	bp := s.buffers.Get().(*[]byte)
	buf := *bp
	if int64(cap(buf)) < size {
		buf = make([]byte, size)
	}
	buf = buf[:size]

	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		s.putBuffer(bp, buf)
		return nil, &types.FileError{Path: path, Op: "extract", Err: err}
	}

	// the file may have shrunk since Stat
	data := buf[:n]
	return NewBuffer(data, func() { s.putBuffer(bp, buf) }), nil
}

func (s *FS) putBuffer(bp *[]byte, buf []byte) {
	if cap(buf) > maxPooledBufferSize {
		return
	}
	*bp = buf[:0]
	s.buffers.Put(bp)
}
