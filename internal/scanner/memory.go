package scanner

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/dshills/forensicq/pkg/types"
)

// Memory is an in-process Scanner over a fixed set of files. It tracks
// buffer ownership so tests can assert every extracted buffer is released
// exactly once.
type Memory struct {
	mu       sync.Mutex
	order    []string
	files    map[string][]byte
	failures map[string]error

	extracted int
	released  int
}

// NewMemory returns an empty in-memory scanner
func NewMemory() *Memory {
	return &Memory{
		files:    make(map[string][]byte),
		failures: make(map[string]error),
	}
}

// Add registers a file. Re-adding a path replaces its content.
func (m *Memory) Add(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[path]; !ok {
		m.order = append(m.order, path)
	}
	m.files[path] = content
}

// Fail makes Extract of path return err
func (m *Memory) Fail(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[path] = err
}

// Scan returns registered paths under root in insertion order. root must be
// an existing directory, as with the filesystem scanner.
func (m *Memory) Scan(ctx context.Context, root string) ([]string, error) {
	if err := ValidateRoot(root); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := strings.TrimSuffix(root, "/") + "/"

	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.order))
	for _, p := range m.order {
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// Extract returns a copy of the registered content
func (m *Memory) Extract(ctx context.Context, path string) (*Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failures[path]; ok {
		return nil, &types.FileError{Path: path, Op: "extract", Err: err}
	}
	content, ok := m.files[path]
	if !ok {
		return nil, &types.FileError{Path: path, Op: "extract", Err: errNotRegistered}
	}

	m.extracted++
	data := append([]byte(nil), content...)
	return NewBuffer(data, m.onRelease), nil
}

func (m *Memory) onRelease() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released++
}

// Outstanding returns the number of extracted buffers not yet released
func (m *Memory) Outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.extracted - m.released
}

// Extracted returns how many buffers have been handed out
func (m *Memory) Extracted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.extracted
}

var errNotRegistered = errors.New("no such file")
