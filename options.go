package jobqueue

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"k8s.io/utils/clock"
)

const (
	DefaultCapacity      = 10
	DefaultAgingInterval = 5 * time.Second
	DefaultExpiryTime    = 10 * time.Second
	DefaultMinPriority   = 1
	DefaultMaxPriority   = 10
	DefaultIDPrefix      = "JOB"
	DefaultIDWidth       = 4
)

// PriorityZero requests a minimum priority of 0. A zero MinPriority means
// DefaultMinPriority.
const PriorityZero = math.MinInt

// Options configure a Manager and the Simulator driving it.
//
// All zero values are replaced with defaults in FillDefaults.
type Options struct {
	Capacity int

	// AgingInterval is the waiting time after which a job gains one
	// priority step per tick.
	AgingInterval time.Duration

	// ExpiryTime is the waiting time after which a job is discarded.
	ExpiryTime time.Duration

	// MinPriority and MaxPriority bound submitted priorities; Submit clamps
	// into them and aging never exceeds MaxPriority. Each bound left at zero
	// gets its default independently.
	MinPriority int
	MaxPriority int

	IDPrefix string
	IDWidth  int

	// Clock supplies submission timestamps and tick pauses.
	Clock clock.Clock

	Metrics MetricsPolicy

	// Context carries the logger used by the manager and simulator.
	Context context.Context
}

func (o *Options) FillDefaults() {
	if o.Capacity <= 0 {
		o.Capacity = DefaultCapacity
	}
	if o.AgingInterval <= 0 {
		o.AgingInterval = DefaultAgingInterval
	}
	if o.ExpiryTime <= 0 {
		o.ExpiryTime = DefaultExpiryTime
	}
	switch o.MinPriority {
	case 0:
		o.MinPriority = DefaultMinPriority
	case PriorityZero:
		o.MinPriority = 0
	}
	if o.MaxPriority == 0 {
		o.MaxPriority = DefaultMaxPriority
	}
	if o.IDPrefix == "" {
		o.IDPrefix = DefaultIDPrefix
	}
	if o.IDWidth <= 0 {
		o.IDWidth = DefaultIDWidth
	}
	if o.Clock == nil {
		o.Clock = clock.RealClock{}
	}
	if o.Metrics == nil {
		o.Metrics = &NoopMetrics{}
	}
	if o.Context == nil {
		o.Context = context.Background()
	}
}

// Validate reports option combinations a Manager cannot honour.
func (o Options) Validate() error {
	if o.MinPriority > o.MaxPriority {
		return errors.Errorf("jobqueue: min priority %d exceeds max priority %d", o.MinPriority, o.MaxPriority)
	}
	if o.Capacity <= 0 {
		return errors.Errorf("jobqueue: capacity must be positive, got %d", o.Capacity)
	}
	return nil
}
