// Package cache provides the ephemeral tier: a TTL key-value store holding
// raw file content under "file:<path>" keys.
//
// Two backends implement Client. Memory keeps entries in-process behind an
// LRU bound and expires them lazily on read. Redis talks to a real server
// with SET EX, SCAN and DEL. Neither promises durability; a restart or an
// eviction simply makes entries absent.
package cache
