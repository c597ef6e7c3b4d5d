package jobqueue

import (
	"sync/atomic"
)

// MetricsPolicy defines hooks used by the manager and simulator to report
// queue activity.
//
// Implementations must be safe for concurrent use.
// All methods are expected to be lightweight and non-blocking.
type MetricsPolicy interface {
	// IncSubmitted increments the accepted submissions counter.
	IncSubmitted()

	// IncRejected increments the counter of submissions refused
	// with ErrCapacityExceeded.
	IncRejected()

	IncWithdrawn()

	// IncAged increments the number of single-step priority bumps.
	IncAged()

	IncExpired()

	// SetQueued records the current buffer size.
	SetQueued(n int)
}

// AtomicMetrics is a lock-free metrics implementation backed by atomics.
//
// Writes are optimized for hot paths.
// Reads are intended for cold-path observation.
type AtomicMetrics struct {
	submitted atomic.Uint64
	rejected  atomic.Uint64
	withdrawn atomic.Uint64
	aged      atomic.Uint64
	expired   atomic.Uint64

	_ [56]byte // padding to avoid false sharing

	queued atomic.Int64
}

func (m *AtomicMetrics) Submitted() uint64 { return m.submitted.Load() }
func (m *AtomicMetrics) Rejected() uint64  { return m.rejected.Load() }
func (m *AtomicMetrics) Withdrawn() uint64 { return m.withdrawn.Load() }
func (m *AtomicMetrics) Aged() uint64      { return m.aged.Load() }
func (m *AtomicMetrics) Expired() uint64   { return m.expired.Load() }

// Queued returns the buffer size recorded by the last mutation.
func (m *AtomicMetrics) Queued() int64 { return m.queued.Load() }

func (m *AtomicMetrics) IncSubmitted()   { m.submitted.Add(1) }
func (m *AtomicMetrics) IncRejected()    { m.rejected.Add(1) }
func (m *AtomicMetrics) IncWithdrawn()   { m.withdrawn.Add(1) }
func (m *AtomicMetrics) IncAged()        { m.aged.Add(1) }
func (m *AtomicMetrics) IncExpired()     { m.expired.Add(1) }
func (m *AtomicMetrics) SetQueued(n int) { m.queued.Store(int64(n)) }

//------------- NoopMetrics ----------------------------------

// NoopMetrics is a MetricsPolicy implementation that discards
// all metric updates.
type NoopMetrics struct{}

func (m *NoopMetrics) IncSubmitted()   {}
func (m *NoopMetrics) IncRejected()    {}
func (m *NoopMetrics) IncWithdrawn()   {}
func (m *NoopMetrics) IncAged()        {}
func (m *NoopMetrics) IncExpired()     {}
func (m *NoopMetrics) SetQueued(n int) {}
