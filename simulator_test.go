package jobqueue_test

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jq "github.com/azargarov/jobqueue"
)

func scenarioOptions() jq.Options {
	return jq.Options{
		Capacity:      5,
		AgingInterval: 5 * time.Second,
		ExpiryTime:    10 * time.Second,
		MinPriority:   1,
		MaxPriority:   10,
	}
}

func TestTick_AgesJobPastInterval(t *testing.T) {
	m, fc := newTestManager(t, scenarioOptions())
	job, err := m.Submit("user1", 3)
	require.NoError(t, err)

	fc.Step(6 * time.Second)
	log := jq.NewSimulator(m).Tick()

	require.Equal(t, []jq.AgingEvent{{JobID: job.ID, OldPriority: 3, NewPriority: 4}}, log.Aged)
	assert.Empty(t, log.Expired)

	snap := m.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 4, snap[0].Priority)
	assert.Equal(t, jq.Queued, snap[0].State)
	assert.Equal(t, 6*time.Second, log.MaxWait)
}

func TestTick_ExpiresJobPastExpiry(t *testing.T) {
	m, fc := newTestManager(t, scenarioOptions())
	job, err := m.Submit("user1", 3)
	require.NoError(t, err)

	fc.Step(11 * time.Second)
	log := jq.NewSimulator(m).Tick()

	require.Len(t, log.Expired, 1)
	assert.Equal(t, job.ID, log.Expired[0].JobID)
	assert.Equal(t, 11*time.Second, log.Expired[0].WaitingTime)
	assert.Empty(t, m.Snapshot())
	assert.Equal(t, jq.Status{Size: 0, Capacity: 5, IsEmpty: true}, log.Status)
}

func TestTick_BelowIntervalUnchanged(t *testing.T) {
	m, fc := newTestManager(t, scenarioOptions())
	_, _ = m.Submit("user1", 3)

	fc.Step(4 * time.Second)
	log := jq.NewSimulator(m).Tick()

	assert.Empty(t, log.Aged)
	assert.Empty(t, log.Expired)
	assert.Equal(t, 3, m.Snapshot()[0].Priority)
}

func TestTick_SingleStepRegardlessOfOverrun(t *testing.T) {
	opts := scenarioOptions()
	opts.ExpiryTime = time.Hour
	m, fc := newTestManager(t, opts)
	_, _ = m.Submit("user1", 2)

	fc.Step(50 * time.Second)
	jq.NewSimulator(m).Tick()

	assert.Equal(t, 3, m.Snapshot()[0].Priority)
}

func TestTick_PriorityCappedAtMax(t *testing.T) {
	m, fc := newTestManager(t, scenarioOptions())
	_, _ = m.Submit("top", 10)
	_, _ = m.Submit("near", 9)

	sim := jq.NewSimulator(m)
	fc.Step(6 * time.Second)
	first := sim.Tick()
	fc.Step(time.Second)
	second := sim.Tick()

	require.Len(t, first.Aged, 1)
	assert.Equal(t, 10, first.Aged[0].NewPriority)
	assert.Empty(t, second.Aged)
	for _, j := range m.Snapshot() {
		assert.Equal(t, 10, j.Priority)
	}
}

// Two jobs of equal priority, the second submitted three seconds later.
func TestTick_EqualPriorityLongerWaitFirst(t *testing.T) {
	m, fc := newTestManager(t, scenarioOptions())
	first, _ := m.Submit("first", 2)
	fc.Step(3 * time.Second)
	second, _ := m.Submit("second", 2)

	fc.Step(6 * time.Second)
	log := jq.NewSimulator(m).Tick()

	assert.Len(t, log.Aged, 2)
	snap := m.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, []string{first.ID, second.ID}, ids(snap))
	assert.Equal(t, 3, snap[0].Priority)
	assert.Equal(t, 3, snap[1].Priority)
}

func TestTick_SortsByPriorityThenWait(t *testing.T) {
	opts := scenarioOptions()
	opts.Capacity = 32
	opts.AgingInterval = time.Hour
	opts.ExpiryTime = 2 * time.Hour
	m, fc := newTestManager(t, opts)

	rng := rand.New(rand.NewPCG(1, 2))
	for i := range 32 {
		_, err := m.Submit(fmt.Sprintf("u%d", i), 1+rng.IntN(10))
		require.NoError(t, err)
		fc.Step(time.Duration(rng.IntN(3)) * time.Second)
	}

	jq.NewSimulator(m).Tick()
	snap := m.Snapshot()
	require.Len(t, snap, 32)

	sorted := sort.SliceIsSorted(snap, func(i, k int) bool {
		if snap[i].Priority != snap[k].Priority {
			return snap[i].Priority > snap[k].Priority
		}
		if snap[i].WaitingTime != snap[k].WaitingTime {
			return snap[i].WaitingTime > snap[k].WaitingTime
		}
		return snap[i].ID < snap[k].ID
	})
	assert.True(t, sorted, "buffer not ordered after tick: %v", ids(snap))
}

func TestTick_FullTieBreaksBySubmissionOrder(t *testing.T) {
	opts := scenarioOptions()
	opts.Capacity = 20
	m, _ := newTestManager(t, opts)

	entries := make([]jq.Submission, 20)
	for i := range entries {
		entries[i] = jq.Submission{SubmitterID: fmt.Sprintf("u%d", i), Priority: 4}
	}
	for _, r := range m.SubmitMany(entries) {
		require.NoError(t, r.Err)
	}

	jq.NewSimulator(m).Tick()
	got := ids(m.Snapshot())
	want := append([]string(nil), got...)
	sort.Strings(want)
	assert.Equal(t, want, got)
}

func TestTick_PreservesSubmissionTime(t *testing.T) {
	opts := scenarioOptions()
	opts.AgingInterval = time.Hour
	opts.ExpiryTime = 2 * time.Hour
	m, fc := newTestManager(t, opts)
	job, _ := m.Submit("u", 1)

	sim := jq.NewSimulator(m)
	fc.Step(2 * time.Second)
	sim.Tick()
	fc.Step(2 * time.Second)
	log := sim.Tick()

	snap := m.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, job.SubmittedAt, snap[0].SubmittedAt)
	assert.Equal(t, 4*time.Second, snap[0].WaitingTime)
	assert.Equal(t, 4*time.Second, log.MaxWait)
}

func TestTick_AgesAcrossTicksThenExpires(t *testing.T) {
	m, fc := newTestManager(t, scenarioOptions())
	job, _ := m.Submit("u", 1)
	sim := jq.NewSimulator(m)

	var aged int
	for range 10 {
		fc.Step(time.Second)
		log := sim.Tick()
		aged += len(log.Aged)
		if len(log.Expired) > 0 {
			assert.Equal(t, job.ID, log.Expired[0].JobID)
			assert.Equal(t, 10, log.Tick)
		}
	}
	// waits 5..10 each bump once
	assert.Equal(t, 6, aged)
	assert.Empty(t, m.Snapshot())
}

func TestTick_EmptyBuffer(t *testing.T) {
	m, _ := newTestManager(t, scenarioOptions())
	log := jq.NewSimulator(m).Tick()

	assert.Equal(t, 1, log.Tick)
	assert.Empty(t, log.Aged)
	assert.Empty(t, log.Expired)
	assert.True(t, log.Status.IsEmpty)
}

func TestSimulate_ZeroDuration(t *testing.T) {
	m, _ := newTestManager(t, scenarioOptions())
	_, _ = m.Submit("u", 1)

	logs, err := jq.NewSimulator(m).Simulate(context.Background(), 3, 0)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	for i, l := range logs {
		assert.Equal(t, i+1, l.Tick)
		assert.Equal(t, 1, l.Status.Size)
	}
}

func TestSimulate_PausesOnClock(t *testing.T) {
	m, fc := newTestManager(t, scenarioOptions())
	_, _ = m.Submit("u", 1)

	type result struct {
		logs []jq.TickLog
		err  error
	}
	done := make(chan result, 1)
	go func() {
		logs, err := jq.NewSimulator(m).Simulate(context.Background(), 3, 3*time.Second)
		done <- result{logs, err}
	}()

	for range 2 {
		waitForWaiter(t, fc)
		fc.Step(3 * time.Second)
	}

	select {
	case r := <-done:
		require.NoError(t, r.err)
		require.Len(t, r.logs, 3)
		// ticks at 0s, 3s and 6s
		assert.Empty(t, r.logs[1].Aged)
		require.Len(t, r.logs[2].Aged, 1)
		assert.Equal(t, 6*time.Second, r.logs[2].MaxWait)
	case <-time.After(2 * time.Second):
		t.Fatal("Simulate did not finish")
	}
}

func TestSimulate_CancelLeavesJobsUntouched(t *testing.T) {
	m, fc := newTestManager(t, scenarioOptions())
	_, _ = m.Submit("a", 2)
	_, _ = m.Submit("b", 7)

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		logs []jq.TickLog
		err  error
	}
	done := make(chan result, 1)
	go func() {
		logs, err := jq.NewSimulator(m).Simulate(ctx, 5, time.Minute)
		done <- result{logs, err}
	}()

	waitForWaiter(t, fc)
	before := m.Snapshot()
	cancel()

	select {
	case r := <-done:
		require.ErrorIs(t, r.err, context.Canceled)
		assert.Len(t, r.logs, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("Simulate ignored cancellation")
	}
	assert.Equal(t, before, m.Snapshot())
}

func TestSimulate_AlreadyCanceled(t *testing.T) {
	m, _ := newTestManager(t, scenarioOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	logs, err := jq.NewSimulator(m).Simulate(ctx, 3, 0)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, logs)
}

// Submitters, withdrawers and ticks racing on one manager must never break
// size or uniqueness.
func TestTick_ConcurrentWithSubmitters(t *testing.T) {
	opts := scenarioOptions()
	opts.Capacity = 16
	opts.AgingInterval = time.Millisecond
	opts.ExpiryTime = 50 * time.Millisecond
	m, fc := newTestManager(t, opts)
	sim := jq.NewSimulator(m)

	const producers, perProducer = 8, 200
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted = make(map[string]struct{})
	)
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perProducer {
				j, err := m.Submit(fmt.Sprintf("p%d", p), 1+i%10)
				if err != nil {
					assert.ErrorIs(t, err, jq.ErrCapacityExceeded)
					continue
				}
				mu.Lock()
				_, dup := accepted[j.ID]
				accepted[j.ID] = struct{}{}
				mu.Unlock()
				assert.False(t, dup, "duplicate id %s", j.ID)
			}
		}()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		for range 100 {
			fc.Step(time.Millisecond)
			log := sim.Tick()
			assert.LessOrEqual(t, log.Status.Size, opts.Capacity)
		}
	}()
	go func() {
		defer wg.Done()
		for range 300 {
			if _, err := m.Withdraw(); err != nil {
				assert.ErrorIs(t, err, jq.ErrEmptyBuffer)
			}
		}
	}()
	wg.Wait()

	snap := m.Snapshot()
	st := m.Status()
	assert.Equal(t, len(snap), st.Size)
	assert.LessOrEqual(t, st.Size, opts.Capacity)
	seen := make(map[string]struct{})
	for _, j := range snap {
		_, dup := seen[j.ID]
		require.False(t, dup)
		seen[j.ID] = struct{}{}
		assert.GreaterOrEqual(t, j.Priority, opts.MinPriority)
		assert.LessOrEqual(t, j.Priority, opts.MaxPriority)
	}
}
