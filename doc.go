// Package jobqueue provides a bounded, in-process job submission queue
// with priority aging and time-based expiry.
//
// Design goals
//
//   - Never block a producer: a full queue rejects, an empty one reports so
//   - Keep every mutation of shared state behind one lock
//   - Prevent starvation of low-priority jobs through aging
//   - Stay small enough to embed in a larger scheduler
//
// Architecture overview
//
// The queue is composed of three layers:
//
//  1. Storage (RingBuffer)
//     A fixed-capacity circular buffer with explicit head, tail and size.
//     It has no locking of its own.
//
//  2. Access (Manager)
//     Wraps the buffer with a mutex, assigns sequential job ids and exposes
//     the non-blocking Submit / SubmitMany / Withdraw contract.
//
//  3. Time (Simulator)
//     Runs discrete ticks. Each tick drains the buffer, bumps the priority
//     of jobs that waited at least AgingInterval by one step, discards jobs
//     that waited at least ExpiryTime, sorts the survivors and reinserts
//     them, all while holding the manager lock.
//
// Job lifecycle
//
//	Queued --tick, waited >= AgingInterval, priority < max--> Queued (priority+1)
//	Queued --tick, waited >= ExpiryTime--> Expired
//	Queued --Withdraw--> Withdrawn
//
// Expired and Withdrawn are terminal.
//
// Priorities
//
// Submitted priorities are clamped into [MinPriority, MaxPriority], so a
// submission either yields a job or fails with ErrCapacityExceeded.
//
// Ordering
//
// Between ticks the buffer is FIFO. A tick reorders it by priority
// (highest first), then waiting time (longest first), then submission
// sequence (earliest first), which makes the result deterministic.
//
// Error handling
//
// The package distinguishes between two classes of errors:
//
//   - Caller errors: ErrCapacityExceeded and ErrEmptyBuffer, returned
//     as values
//   - Internal errors: ErrInvariantViolation, reported to
//     Manager.OnInternalError, or a panic when no handler is set
//
// Time
//
// Timestamps and tick pauses come from Options.Clock, so tests can drive
// the queue with a fake clock.
package jobqueue
