// Package indexer runs the ingestion pipeline that turns a directory of
// evidence files into cache entries, durable rows and a package index.
//
// # Pipeline
//
// A scan proceeds in four stages:
//
//  1. Validation: the root must be an existing directory, and no other scan
//     may be running. Both checks happen before any state is touched.
//  2. Discovery: the scanner returns candidate paths in a stable order and
//     the PackageIndex is cleared.
//  3. Extraction: up to Config.Workers files are extracted concurrently.
//     Each scanner buffer is copied into a string and released immediately;
//     package name and category are derived on the worker.
//  4. Consumption: results are applied one at a time, in path order. Each
//     file is added to the PackageIndex, written to the cache, and appended
//     to the pending batch. Full batches are flushed as one transaction.
//
// # Failure Isolation
//
// Nothing short of an invalid root or a concurrent scan fails a scan:
//
//	sum, err := idx.Scan(ctx, "/evidence/dump")
//	// err != nil only for ErrInvalidRoot, ErrScanInProgress or a scanner
//	// that cannot enumerate the root
//
//	sum.Errored       // files the scanner could not extract
//	sum.CacheErrors   // cache writes that failed (entries simply absent)
//	sum.BatchesFailed // batches whose rows were discarded
//
// Failed batches are not retried.
//
// # Cancellation
//
// Scans are not abortable. The caller's context is detached with
// context.WithoutCancel; values such as request-scoped loggers survive.
//
// # Concurrency
//
// ScanLock rejects rather than queues a second scan. Exclusive lets other
// operations (clearing all data) take the same lock.
package indexer
