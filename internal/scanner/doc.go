// Package scanner defines the collaborator that enumerates candidate files
// and extracts their raw content, with two implementations.
//
// FS walks the local filesystem, keeping files whose extension is supported
// and whose size is between 1 byte and the configured limit. Memory serves a
// fixed set of files for tests and counts buffer releases.
//
// Extract hands out a *Buffer owned by the scanner. Callers copy the bytes
// into their own memory and call Release exactly once; FS recycles the
// backing array through a sync.Pool.
package scanner
