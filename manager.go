package jobqueue

import (
	"context"
	"fmt"
	"sync"

	boff "github.com/Andrej220/go-utils/backoff"
	lg "github.com/Andrej220/go-utils/zlog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Manager guards a RingBuffer with a single mutex and hands out job ids.
//
// Every read or write of buffer state happens under mu, including the whole
// drain/reinsert sequence of a Simulator tick, so callers never observe a
// partially updated buffer. Submit and Withdraw never wait for space or
// items; they fail immediately instead.
type Manager struct {
	mu   sync.Mutex
	buf  *RingBuffer
	seq  uint64
	live map[string]struct{} // ids currently held in buf

	opts Options

	// OnInternalError receives invariant violations. When nil the manager
	// panics on them. It is called with the manager lock held and must not
	// call back into the manager.
	OnInternalError func(error)
}

// NewManager creates a manager from opts after filling defaults.
func NewManager(opts Options) (*Manager, error) {
	opts.FillDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Manager{
		buf:  NewRingBuffer(opts.Capacity),
		live: make(map[string]struct{}, opts.Capacity),
		opts: opts,
	}, nil
}

// Options returns the effective options, defaults included.
func (m *Manager) Options() Options { return m.opts }

// GenerateJobID returns the next unique job id.
func (m *Manager) GenerateJobID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.formatID(m.nextSeq())
}

func (m *Manager) nextSeq() uint64 {
	m.seq++
	return m.seq
}

func (m *Manager) formatID(seq uint64) string {
	return fmt.Sprintf("%s-%0*d", m.opts.IDPrefix, m.opts.IDWidth, seq)
}

// Submit creates a job stamped with the current time and inserts it.
//
// priority is clamped into [MinPriority, MaxPriority]. The only failure a
// caller can cause is ErrCapacityExceeded when the buffer is full; no id is
// consumed by it.
func (m *Manager) Submit(submitterID string, priority int) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	logger := lg.FromContext(m.opts.Context)
	if p := min(max(priority, m.opts.MinPriority), m.opts.MaxPriority); p != priority {
		logger.Warn("Job priority clamped",
			lg.String("submitter", submitterID),
			lg.Int("requested", priority),
			lg.Int("priority", p),
		)
		priority = p
	}
	if m.buf.IsFull() {
		m.opts.Metrics.IncRejected()
		logger.Warn("Job rejected, buffer full",
			lg.String("submitter", submitterID),
			lg.Int("capacity", m.buf.Cap()),
		)
		return Job{}, ErrCapacityExceeded
	}

	seq := m.nextSeq()
	job := Job{
		SubmitterID: submitterID,
		ID:          m.formatID(seq),
		Priority:    priority,
		SubmittedAt: m.opts.Clock.Now(),
		State:       Queued,
		seq:         seq,
	}
	if err := m.insertLocked(job); err != nil {
		return Job{}, err
	}
	m.opts.Metrics.IncSubmitted()
	logger.Info("Job submitted",
		lg.String("job", job.ID),
		lg.String("submitter", submitterID),
		lg.Int("priority", priority),
	)
	return job, nil
}

// SubmitMany submits every entry from its own goroutine.
//
// Results are index-aligned with entries. The order in which the jobs reach
// the buffer is whatever order the goroutines win the lock in.
func (m *Manager) SubmitMany(entries []Submission) []SubmitResult {
	results := make([]SubmitResult, len(entries))
	var g errgroup.Group
	for i, e := range entries {
		g.Go(func() error {
			job, err := m.Submit(e.SubmitterID, e.Priority)
			results[i] = SubmitResult{Job: job, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// SubmitRetry calls Submit until it succeeds, the policy runs out of
// attempts or ctx is done. Only ErrCapacityExceeded is retried.
//
// The wait between attempts is taken from an exponential backoff bounded by
// rp. A nil rp uses GetDefaultRP.
func (m *Manager) SubmitRetry(ctx context.Context, submitterID string, priority int, rp *RetryPolicy) (Job, error) {
	pol := rp.merged()
	logger := lg.FromContext(ctx)
	bo := boff.New(pol.Initial, pol.Max, m.opts.Clock.Now().UnixNano())

	for attempt := 1; ; attempt++ {
		job, err := m.Submit(submitterID, priority)
		if err == nil || !errors.Is(err, ErrCapacityExceeded) {
			return job, err
		}
		if attempt >= pol.Attempts {
			return Job{}, errors.Wrapf(err, "submit gave up after %d attempts", attempt)
		}
		delay := bo.Next()
		logger.Warn("submit attempt failed; backing off",
			lg.String("submitter", submitterID),
			lg.Int("attempt", attempt),
			lg.String("sleep", delay.String()),
		)
		timer := m.opts.Clock.NewTimer(delay)
		select {
		case <-timer.C():
		case <-ctx.Done():
			timer.Stop()
			logger.Info("submit canceled", lg.Any("reason", ctx.Err()))
			return Job{}, ctx.Err()
		}
	}
}

// Withdraw removes the oldest job in buffer order.
//
// It returns ErrEmptyBuffer when nothing is queued. The returned job is in
// state Withdrawn with its waiting time refreshed.
func (m *Manager) Withdraw() (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, err := m.buf.Remove()
	if err != nil {
		return Job{}, err
	}
	delete(m.live, job.ID)
	m.opts.Metrics.SetQueued(m.buf.Len())
	m.opts.Metrics.IncWithdrawn()

	job.refresh(m.opts.Clock.Now())
	job.State = Withdrawn
	lg.FromContext(m.opts.Context).Info("Job withdrawn",
		lg.String("job", job.ID),
		lg.String("waited", job.WaitingTime.String()),
	)
	return job, nil
}

// Status returns the current occupancy.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

// Snapshot returns the queued jobs in buffer order with waiting times
// computed against the current time.
func (m *Manager) Snapshot() []Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.opts.Clock.Now()
	jobs := m.buf.Snapshot()
	for i := range jobs {
		jobs[i].refresh(now)
	}
	return jobs
}

func (m *Manager) statusLocked() Status {
	return Status{
		Size:     m.buf.Len(),
		Capacity: m.buf.Cap(),
		IsEmpty:  m.buf.IsEmpty(),
		IsFull:   m.buf.IsFull(),
	}
}

// insertLocked stores job and records its id. mu must be held.
func (m *Manager) insertLocked(job Job) error {
	if _, dup := m.live[job.ID]; dup {
		err := errors.Wrapf(ErrInvariantViolation, "duplicate job id %s", job.ID)
		m.reportInternalError(err)
		return err
	}
	if err := m.buf.Insert(job); err != nil {
		return err
	}
	m.live[job.ID] = struct{}{}
	m.opts.Metrics.SetQueued(m.buf.Len())
	return m.checkLocked()
}

// checkLocked verifies buffer bookkeeping against the live id set.
func (m *Manager) checkLocked() error {
	err := m.buf.check()
	if err == nil && len(m.live) != m.buf.Len() {
		err = errors.Wrapf(ErrInvariantViolation, "%d live ids for %d buffered jobs", len(m.live), m.buf.Len())
	}
	if err != nil {
		m.reportInternalError(err)
	}
	return err
}
