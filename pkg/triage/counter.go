package triage

import "sync/atomic"

// Counter hands out process-unique sequence numbers for error IDs.
// Implementations must be safe for concurrent use.
type Counter interface {
	Next() uint64
}

// AtomicCounter is a lock-free Counter. The zero value starts at 1.
type AtomicCounter struct {
	n atomic.Uint64
}

// Next increments and returns the counter.
func (c *AtomicCounter) Next() uint64 { return c.n.Add(1) }
