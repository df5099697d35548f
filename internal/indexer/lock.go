package indexer

import "sync/atomic"

// ScanLock is a non-blocking mutual exclusion flag. A second scan is
// rejected rather than queued.
type ScanLock struct {
	state atomic.Int32 // 0 = idle, 1 = held
}

// TryAcquire takes the lock if it is free and reports whether it did
func (l *ScanLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release frees the lock. Only the holder may call it.
func (l *ScanLock) Release() {
	l.state.Store(0)
}

// Held reports whether the lock is currently taken
func (l *ScanLock) Held() bool {
	return l.state.Load() == 1
}
