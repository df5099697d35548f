package types

import (
	"math"
	"time"
)

// Source selects the storage tier a query is answered from
type Source string

const (
	SourceCache   Source = "cache"   // Ephemeral TTL cache
	SourceDurable Source = "durable" // SQLite store of record
)

// ParseSource maps a wire value to a Source. The empty string selects the
// cache tier; "redis" and "sqlite" are accepted as aliases.
func ParseSource(s string) (Source, error) {
	switch s {
	case "", "cache", "redis":
		return SourceCache, nil
	case "durable", "sqlite", "db":
		return SourceDurable, nil
	default:
		return "", ErrInvalidSource
	}
}

// Match is a single keyword hit
type Match struct {
	FilePath    string `json:"file_path"`
	Content     string `json:"content"` // Snippet, length-bounded
	PackageName string `json:"package_name,omitempty"`
	Source      Source `json:"source"`
}

// QueryResult contains the matches of one query and its latency
type QueryResult struct {
	Source  Source
	Keyword string
	Matches []Match
	Elapsed time.Duration
}

// Count returns the number of matches
func (r *QueryResult) Count() int {
	return len(r.Matches)
}

// CostMS returns the elapsed time in milliseconds rounded to two decimals.
func (r *QueryResult) CostMS() float64 {
	ms := float64(r.Elapsed) / float64(time.Millisecond)
	return math.Round(ms*100) / 100
}

// ScanSummary aggregates the per-file and per-batch outcomes of one scan
type ScanSummary struct {
	ScanID         string
	RootDir        string
	Discovered     int // Paths returned by the scanner
	Processed      int // Files extracted and classified
	Skipped        int // Files with empty content
	Errored        int // Files the scanner failed to extract
	CacheErrors    int
	BatchesWritten int
	BatchesFailed  int
	RowsWritten    int
	PackageCount   int
	Duration       time.Duration
	ErrorMessages  []string
}

// MaxErrorMessages caps the number of error messages kept in a summary
const MaxErrorMessages = 20

// AddError records an error message, keeping at most MaxErrorMessages.
func (s *ScanSummary) AddError(err error) {
	if len(s.ErrorMessages) < MaxErrorMessages {
		s.ErrorMessages = append(s.ErrorMessages, err.Error())
	}
}
