// Package dynamic implements the adaptive tier: accessors start on the
// safe reflective tier, accrue heat per call, and are promoted to the
// specialized tier once they cross the tenuring threshold inside the
// configured time window. A process-wide policy bounds how many
// specialized accessors stay resident and force-demotes them in bulk
// when the registry is overloaded.
package dynamic

import (
	"log/slog"
	"sync"
	"time"

	"github.com/szaher/exlang/internal/telemetry"
)

// Tuning defaults, applied by New.
const (
	DefaultTenuringThreshold = 50
	DefaultTimeWindow        = 100 * time.Millisecond
	DefaultTenureLimit       = 1500
)

// Optimizer is the process-wide optimization policy: tuning knobs,
// the resident-accessor registry, and the eviction operation. One
// instance is shared by every Accessor it creates. The knobs are
// settable before first use only; changing them concurrently with
// active evaluation is not supported.
type Optimizer struct {
	tenuringThreshold int64
	timeWindow        time.Duration
	tenureLimit       int
	now               func() time.Time
	log               *slog.Logger
	metrics           *telemetry.Metrics

	mu       sync.Mutex
	resident map[*Accessor]struct{}
}

// New creates a policy with default tuning.
func New() *Optimizer {
	return &Optimizer{
		tenuringThreshold: DefaultTenuringThreshold,
		timeWindow:        DefaultTimeWindow,
		tenureLimit:       DefaultTenureLimit,
		now:               time.Now,
		log:               telemetry.NopLogger(),
		resident:          make(map[*Accessor]struct{}),
	}
}

// SetTenuringThreshold sets the invocation count above which promotion
// is considered.
func (o *Optimizer) SetTenuringThreshold(n int) { o.tenuringThreshold = int64(n) }

// SetTimeWindow sets the window within which the threshold must be
// reached for a node to count as hot.
func (o *Optimizer) SetTimeWindow(d time.Duration) { o.timeWindow = d }

// SetTenureLimit bounds how many specialized accessors may stay
// resident before eviction kicks in.
func (o *Optimizer) SetTenureLimit(n int) { o.tenureLimit = n }

// SetClock replaces the time source. Intended for tests.
func (o *Optimizer) SetClock(now func() time.Time) { o.now = now }

// SetLogger installs a structured logger for tier-transition events.
func (o *Optimizer) SetLogger(log *slog.Logger) {
	if log != nil {
		o.log = log
	}
}

// SetMetrics installs the telemetry collector.
func (o *Optimizer) SetMetrics(m *telemetry.Metrics) { o.metrics = m }

// TenuringThreshold returns the promotion threshold.
func (o *Optimizer) TenuringThreshold() int64 { return o.tenuringThreshold }

// TimeWindow returns the promotion window.
func (o *Optimizer) TimeWindow() time.Duration { return o.timeWindow }

// Overloaded reports whether the resident-accessor registry has grown
// past the tenure limit.
func (o *Optimizer) Overloaded() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.resident) > o.tenureLimit
}

// ResidentCount returns the number of resident specialized accessors.
func (o *Optimizer) ResidentCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.resident)
}

// EnforceTenureLimit force-demotes every resident specialized
// accessor, bounding total specialized-accessor memory. Demotion goes
// through each holder's Deoptimize contract only.
func (o *Optimizer) EnforceTenureLimit() {
	o.mu.Lock()
	victims := make([]*Accessor, 0, len(o.resident))
	for a := range o.resident {
		victims = append(victims, a)
	}
	o.mu.Unlock()

	for _, a := range victims {
		a.Deoptimize()
		if o.metrics != nil {
			o.metrics.Evictions.Inc()
		}
	}
	o.log.Info("enforced tenure limit", slog.Int("evicted", len(victims)))
}

func (o *Optimizer) track(a *Accessor) {
	o.mu.Lock()
	o.resident[a] = struct{}{}
	n := len(o.resident)
	o.mu.Unlock()
	if o.metrics != nil {
		o.metrics.Resident.Set(float64(n))
	}
}

func (o *Optimizer) untrack(a *Accessor) {
	o.mu.Lock()
	delete(o.resident, a)
	n := len(o.resident)
	o.mu.Unlock()
	if o.metrics != nil {
		o.metrics.Resident.Set(float64(n))
	}
}
