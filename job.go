package jobqueue

import (
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrCapacityExceeded is returned when the buffer cannot accept more jobs.
	ErrCapacityExceeded = errors.New("jobqueue: capacity exceeded")

	// ErrEmptyBuffer is returned when a job is requested from an empty buffer.
	ErrEmptyBuffer = errors.New("jobqueue: buffer is empty")

	// ErrInvariantViolation signals a broken internal guarantee (duplicate ids,
	// size/capacity mismatch). It is never caused by caller input.
	ErrInvariantViolation = errors.New("jobqueue: invariant violation")
)

// JobState is the lifecycle state of a Job.
type JobState uint8

const (
	Queued JobState = iota
	Expired
	Withdrawn
)

func (s JobState) String() string {
	switch s {
	case Queued:
		return "queued"
	case Expired:
		return "expired"
	case Withdrawn:
		return "withdrawn"
	default:
		return "unknown"
	}
}

// Job represents a single unit of work submitted to the queue.
//
// SubmittedAt is captured once by the Manager and never modified.
// WaitingTime is derived from it and refreshed on every tick, withdrawal
// and snapshot.
type Job struct {
	SubmitterID string
	ID          string
	Priority    int
	SubmittedAt time.Time
	WaitingTime time.Duration
	State       JobState

	seq uint64
}

// refresh recomputes the waiting time relative to now.
func (j *Job) refresh(now time.Time) {
	w := now.Sub(j.SubmittedAt)
	if w < 0 {
		w = 0
	}
	j.WaitingTime = w
}

// Submission is one entry of a SubmitMany call.
type Submission struct {
	SubmitterID string
	Priority    int
}

// SubmitResult is the outcome of one Submission. Err is nil on success.
type SubmitResult struct {
	Job Job
	Err error
}

// Status is an immutable snapshot of the buffer occupancy.
type Status struct {
	Size     int
	Capacity int
	IsEmpty  bool
	IsFull   bool
}
