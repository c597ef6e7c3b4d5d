package jobqueue

import (
	"cmp"
	"context"
	"slices"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
	"github.com/pkg/errors"
)

// AgingEvent records a single-step priority bump.
type AgingEvent struct {
	JobID       string
	OldPriority int
	NewPriority int
}

// ExpiryEvent records a job discarded for waiting too long.
type ExpiryEvent struct {
	JobID       string
	WaitingTime time.Duration
}

// TickLog is everything one tick did.
type TickLog struct {
	Tick    int
	Aged    []AgingEvent
	Expired []ExpiryEvent

	// MaxWait is the longest waiting time among the jobs kept by the tick.
	MaxWait time.Duration

	// Status is the buffer occupancy after reinsertion.
	Status Status
}

// Simulator drives discrete aging/expiry ticks over a Manager.
type Simulator struct {
	m    *Manager
	tick int // guarded by m.mu
}

func NewSimulator(m *Manager) *Simulator {
	return &Simulator{m: m}
}

// Tick drains the buffer, ages and expires jobs, reorders the survivors and
// reinserts them.
//
// The manager lock is held for the whole sequence, so submissions either
// happen before the drain or after the refill. Reinsertion keeps each
// job's SubmittedAt, so waiting times keep growing across ticks.
//
// Survivors are ordered by priority (highest first), then waiting time
// (longest first), then submission sequence (earliest first).
func (s *Simulator) Tick() TickLog {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	s.tick++
	log := TickLog{Tick: s.tick}
	now := m.opts.Clock.Now()
	logger := lg.FromContext(m.opts.Context)

	jobs := make([]Job, 0, m.buf.Len())
	for !m.buf.IsEmpty() {
		j, err := m.buf.Remove()
		if err != nil {
			m.reportInternalError(errors.Wrap(ErrInvariantViolation, err.Error()))
			break
		}
		delete(m.live, j.ID)
		j.refresh(now)
		jobs = append(jobs, j)
	}

	active := jobs[:0]
	for _, j := range jobs {
		if j.WaitingTime >= m.opts.AgingInterval && j.Priority < m.opts.MaxPriority {
			old := j.Priority
			j.Priority++
			log.Aged = append(log.Aged, AgingEvent{JobID: j.ID, OldPriority: old, NewPriority: j.Priority})
			m.opts.Metrics.IncAged()
			logger.Info("Job aged",
				lg.String("job", j.ID),
				lg.Int("old_priority", old),
				lg.Int("new_priority", j.Priority),
			)
		}

		if j.WaitingTime >= m.opts.ExpiryTime {
			log.Expired = append(log.Expired, ExpiryEvent{JobID: j.ID, WaitingTime: j.WaitingTime})
			m.opts.Metrics.IncExpired()
			logger.Info("Job expired",
				lg.String("job", j.ID),
				lg.String("waited", j.WaitingTime.String()),
			)
			continue
		}
		if j.WaitingTime > log.MaxWait {
			log.MaxWait = j.WaitingTime
		}
		active = append(active, j)
	}

	slices.SortFunc(active, compareJobs)

	for _, j := range active {
		if err := m.insertLocked(j); err != nil {
			// insertLocked already reported invariant breaches.
			if !errors.Is(err, ErrInvariantViolation) {
				m.reportInternalError(errors.Wrapf(ErrInvariantViolation, "reinsert %s: %v", j.ID, err))
			}
		}
	}
	m.opts.Metrics.SetQueued(m.buf.Len())

	log.Status = m.statusLocked()
	logger.Info("Tick completed",
		lg.Int("tick", log.Tick),
		lg.Int("aged", len(log.Aged)),
		lg.Int("expired", len(log.Expired)),
		lg.Int("size", log.Status.Size),
		lg.String("max_wait", log.MaxWait.String()),
	)
	return log
}

// compareJobs orders jobs for reinsertion.
func compareJobs(a, b Job) int {
	if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
		return c
	}
	if c := cmp.Compare(b.WaitingTime, a.WaitingTime); c != 0 {
		return c
	}
	return cmp.Compare(a.seq, b.seq)
}

// Simulate runs ticks sequential ticks, pausing tickDuration on the
// manager's clock between them.
//
// When ctx is done the run stops and the logs of completed ticks are
// returned with ctx.Err(). Jobs still in the buffer are left as they are.
func (s *Simulator) Simulate(ctx context.Context, ticks int, tickDuration time.Duration) ([]TickLog, error) {
	logs := make([]TickLog, 0, max(ticks, 0))
	clk := s.m.opts.Clock

	for i := range ticks {
		if i > 0 && tickDuration > 0 {
			timer := clk.NewTimer(tickDuration)
			select {
			case <-timer.C():
			case <-ctx.Done():
				timer.Stop()
				return logs, ctx.Err()
			}
		}
		if err := ctx.Err(); err != nil {
			return logs, err
		}
		logs = append(logs, s.Tick())
	}
	return logs, nil
}
