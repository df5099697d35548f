package classifier

import (
	"strings"
	"unicode"

	"github.com/dshills/forensicq/pkg/types"
)

// dirBlacklist holds directory names that are never package names
var dirBlacklist = map[string]struct{}{
	"library":     {},
	"documents":   {},
	"preferences": {},
	"cache":       {},
	"tmp":         {},
	"system":      {},
	"var":         {},
	"usr":         {},
	"home":        {},
	"root":        {},
}

// strippedSuffixes are removed (first match only) before a segment is tested
var strippedSuffixes = []string{".app", ".plist", ".db", ".txt", ".xml", ".json", ".log"}

// PackageName derives a reverse-domain package identifier from a file path.
// Segments are examined in path order; the first one that is a valid
// package name once its file-type suffix is removed wins. A directory
// segment is returned whole ("com.example.app" stays intact), while the
// file name segment is returned without its suffix. Paths with no
// qualifying segment yield types.UnknownPackage.
func PackageName(path string) string {
	segments := strings.Split(strings.ReplaceAll(path, `\`, "/"), "/")

	last := len(segments) - 1
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if _, skip := dirBlacklist[strings.ToLower(seg)]; skip {
			continue
		}

		stripped := stripSuffix(seg)
		if !IsValidPackageName(stripped) {
			continue
		}
		if i == last {
			return stripped
		}
		return seg
	}
	return types.UnknownPackage
}

func stripSuffix(seg string) string {
	for _, ext := range strippedSuffixes {
		n := len(seg) - len(ext)
		if n >= 0 && strings.EqualFold(seg[n:], ext) {
			return seg[:n]
		}
	}
	return seg
}

// IsValidPackageName reports whether name is dot-separated parts, each
// non-empty, starting with a letter or digit and containing only letters,
// digits and underscores.
func IsValidPackageName(name string) bool {
	if !strings.Contains(name, ".") {
		return false
	}
	for _, part := range strings.Split(name, ".") {
		if part == "" {
			return false
		}
		for i, r := range part {
			alnum := unicode.IsLetter(r) || unicode.IsDigit(r)
			if i == 0 && !alnum {
				return false
			}
			if !alnum && r != '_' {
				return false
			}
		}
	}
	return true
}
