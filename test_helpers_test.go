package jobqueue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	jq "github.com/azargarov/jobqueue"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestManager builds a manager on a fake clock starting at t0.
func newTestManager(t *testing.T, opts jq.Options) (*jq.Manager, *clocktesting.FakeClock) {
	t.Helper()

	fc := clocktesting.NewFakeClock(t0)
	opts.Clock = fc
	m, err := jq.NewManager(opts)
	require.NoError(t, err)
	return m, fc
}

func ids(jobs []jq.Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.ID
	}
	return out
}

func waitForWaiter(t *testing.T, fc *clocktesting.FakeClock) {
	t.Helper()
	require.Eventually(t, fc.HasWaiters, 2*time.Second, time.Millisecond, "no timer registered on fake clock")
}
