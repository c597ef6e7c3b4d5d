package jobqueue

import (
	"time"
)

const (
	defaultAttempts     = 3
	defaultInitialRetry = 200 * time.Millisecond
	defaultMaxRetry     = 5 * time.Second
)

// RetryPolicy describes how many times and how often SubmitRetry retries a
// submission refused with ErrCapacityExceeded.
// Zero values are treated as "use defaults".
type RetryPolicy struct {
	// Attempts is the maximum number of tries.
	Attempts int

	// Initial is the first backoff duration.
	Initial time.Duration

	// Max is the cap for backoff duration.
	Max time.Duration
}

// GetDefaultRP returns a pointer to the default retry policy.
func GetDefaultRP() *RetryPolicy {
	rp := RetryPolicy{
		Attempts: defaultAttempts,
		Initial:  defaultInitialRetry,
		Max:      defaultMaxRetry,
	}
	return &rp
}

// merged returns the default policy overridden by the non-zero fields of rp.
func (rp *RetryPolicy) merged() RetryPolicy {
	pol := *GetDefaultRP()
	if rp == nil {
		return pol
	}
	if rp.Attempts > 0 {
		pol.Attempts = rp.Attempts
	}
	if rp.Initial > 0 {
		pol.Initial = rp.Initial
	}
	if rp.Max > 0 {
		pol.Max = rp.Max
	}
	return pol
}
