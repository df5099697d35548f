package indexer

import (
	"sort"
	"sync"
)

// PackageIndex maps package names to the file paths attributed to them
// during the most recent scan. The indexer is its only writer.
type PackageIndex struct {
	mu    sync.RWMutex
	paths map[string][]string
}

// NewPackageIndex returns an empty index
func NewPackageIndex() *PackageIndex {
	return &PackageIndex{paths: make(map[string][]string)}
}

// Add appends path to pkg's path list
func (p *PackageIndex) Add(pkg, path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paths[pkg] = append(p.paths[pkg], path)
}

// Reset drops every package
func (p *PackageIndex) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paths = make(map[string][]string)
}

// Packages returns package names in ascending order
func (p *PackageIndex) Packages() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.paths))
	for name := range p.paths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Paths returns a copy of pkg's paths in ingestion order
func (p *PackageIndex) Paths(pkg string) ([]string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	paths, ok := p.paths[pkg]
	if !ok {
		return nil, false
	}
	return append([]string(nil), paths...), true
}

// Counts returns the number of paths per package
func (p *PackageIndex) Counts() map[string]int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	counts := make(map[string]int, len(p.paths))
	for name, paths := range p.paths {
		counts[name] = len(paths)
	}
	return counts
}

// Len returns the number of packages
func (p *PackageIndex) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.paths)
}
