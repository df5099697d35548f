package types

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnippet(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"ascii truncated", "hello", 3, "hel"},
		{"shorter than limit", "abc", 10, "abc"},
		{"zero limit", "abc", 0, ""},
		{"negative limit", "abc", -1, ""},
		{"cut on rune boundary", "héllo", 2, "hé"},
		{"multibyte truncated", "日本語", 2, "日本"},
		{"multibyte exact", "日本語", 3, "日本語"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Snippet(tt.in, tt.n))
		})
	}
}

func TestDecodeContent(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"valid ascii", []byte("password: abc123"), "password: abc123"},
		{"valid multibyte", []byte("日本"), "日本"},
		{"invalid bytes dropped", []byte{'a', 0xff, 0xfe, 'b'}, "ab"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeContent(tt.in))
		})
	}
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		in      string
		want    Source
		wantErr bool
	}{
		{"", SourceCache, false},
		{"cache", SourceCache, false},
		{"redis", SourceCache, false},
		{"durable", SourceDurable, false},
		{"sqlite", SourceDurable, false},
		{"db", SourceDurable, false},
		{"Cache", "", true},
		{"mongo", "", true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.in), func(t *testing.T) {
			got, err := ParseSource(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSource)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryResult_CostMS(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		want    float64
	}{
		{0, 0},
		{1234567 * time.Nanosecond, 1.23},
		{1999 * time.Microsecond, 2},
		{2 * time.Second, 2000},
	}
	for _, tt := range tests {
		t.Run(tt.elapsed.String(), func(t *testing.T) {
			r := &QueryResult{Elapsed: tt.elapsed}
			assert.Equal(t, tt.want, r.CostMS())
		})
	}

	r := &QueryResult{Matches: []Match{{FilePath: "/a"}, {FilePath: "/b"}}}
	assert.Equal(t, 2, r.Count())
}

func TestScanSummary_AddErrorBounded(t *testing.T) {
	var sum ScanSummary
	for i := 0; i < MaxErrorMessages+5; i++ {
		sum.AddError(fmt.Errorf("e%d", i))
	}
	assert.Len(t, sum.ErrorMessages, MaxErrorMessages)
	assert.Equal(t, "e0", sum.ErrorMessages[0])
}

func TestFileRecord_HasPackage(t *testing.T) {
	assert.True(t, (&FileRecord{PackageName: "com.example.app"}).HasPackage())
	assert.False(t, (&FileRecord{PackageName: UnknownPackage}).HasPackage())
	assert.False(t, (&FileRecord{}).HasPackage())
}

func TestErrors(t *testing.T) {
	cause := errors.New("boom")
	fe := &FileError{Path: "/a", Op: "extract", Err: cause}
	assert.Equal(t, "extract /a: boom", fe.Error())
	assert.ErrorIs(t, fe, cause)

	be := &BatchError{Batch: 2, Rows: 10, Err: fmt.Errorf("acquire: %w", ErrPoolExhausted)}
	assert.True(t, IsRetryable(be), "retryable through the wrap chain")
	assert.True(t, IsRetryable(ErrScanInProgress))
	assert.False(t, IsRetryable(ErrInvalidRoot))
	assert.False(t, IsRetryable(fe))
}
