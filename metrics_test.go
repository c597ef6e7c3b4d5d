package jobqueue

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	pm, err := NewPrometheusMetrics("test", reg)
	require.NoError(t, err)

	fc := clocktesting.NewFakeClock(time.Unix(1000, 0))
	m, err := NewManager(Options{
		Capacity:      2,
		AgingInterval: 5 * time.Second,
		ExpiryTime:    10 * time.Second,
		Clock:         fc,
		Metrics:       pm,
	})
	require.NoError(t, err)

	_, _ = m.Submit("a", 1)
	fc.Step(6 * time.Second)
	_, _ = m.Submit("b", 1)
	_, err = m.Submit("c", 1)
	require.ErrorIs(t, err, ErrCapacityExceeded)

	NewSimulator(m).Tick()
	fc.Step(5 * time.Second)
	NewSimulator(m).Tick()

	assert.Equal(t, 2.0, testutil.ToFloat64(pm.submitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.rejected))
	// a ages on both ticks and expires on the second; b ages on the second.
	assert.Equal(t, 3.0, testutil.ToFloat64(pm.aged))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.expired))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.queued))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 6)
}

func TestPrometheusMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusMetrics("dup", reg)
	require.NoError(t, err)

	_, err = NewPrometheusMetrics("dup", reg)
	require.Error(t, err)
}

func TestNoopMetricsIsDefault(t *testing.T) {
	m, err := NewManager(Options{})
	require.NoError(t, err)
	assert.IsType(t, &NoopMetrics{}, m.Options().Metrics)
}
