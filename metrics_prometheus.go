package jobqueue

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics exports queue activity as prometheus collectors.
type PrometheusMetrics struct {
	submitted prometheus.Counter
	rejected  prometheus.Counter
	withdrawn prometheus.Counter
	aged      prometheus.Counter
	expired   prometheus.Counter
	queued    prometheus.Gauge
}

// NewPrometheusMetrics creates the collectors under the given namespace and
// registers them with reg. A nil reg skips registration.
func NewPrometheusMetrics(namespace string, reg prometheus.Registerer) (*PrometheusMetrics, error) {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobqueue",
			Name:      name,
			Help:      help,
		})
	}
	m := &PrometheusMetrics{
		submitted: counter("submitted_total", "Jobs accepted into the buffer."),
		rejected:  counter("rejected_total", "Submissions refused because the buffer was full."),
		withdrawn: counter("withdrawn_total", "Jobs explicitly withdrawn."),
		aged:      counter("aged_total", "Single-step priority bumps applied by ticks."),
		expired:   counter("expired_total", "Jobs discarded after exceeding the expiry time."),
		queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "jobqueue",
			Name:      "queued",
			Help:      "Jobs currently held in the buffer.",
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.submitted, m.rejected, m.withdrawn, m.aged, m.expired, m.queued} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PrometheusMetrics) IncSubmitted()   { m.submitted.Inc() }
func (m *PrometheusMetrics) IncRejected()    { m.rejected.Inc() }
func (m *PrometheusMetrics) IncWithdrawn()   { m.withdrawn.Inc() }
func (m *PrometheusMetrics) IncAged()        { m.aged.Inc() }
func (m *PrometheusMetrics) IncExpired()     { m.expired.Inc() }
func (m *PrometheusMetrics) SetQueued(n int) { m.queued.Set(float64(n)) }
