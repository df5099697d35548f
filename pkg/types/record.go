package types

import (
	"strings"
	"time"
	"unicode/utf8"
)

// UnknownPackage is the package name assigned to files whose path carries
// no recognizable package identifier.
const UnknownPackage = "unknown"

// FileRecord represents one ingested file
type FileRecord struct {
	ID          int64
	FilePath    string // Absolute path, unique
	PackageName string
	Content     string
	Category    string
	CreateTime  time.Time // Set at first insert
}

// HasPackage reports whether the record was attributed to a real package.
func (r *FileRecord) HasPackage() bool {
	return r.PackageName != "" && r.PackageName != UnknownPackage
}

// DecodeContent converts raw extracted bytes to text, dropping invalid
// UTF-8 sequences.
func DecodeContent(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	return strings.ToValidUTF8(string(raw), "")
}

// Snippet returns at most n characters (runes) of s.
func Snippet(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
