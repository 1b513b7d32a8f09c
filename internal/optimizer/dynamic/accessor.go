package dynamic

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/szaher/exlang/internal/optimizer"
	"github.com/szaher/exlang/internal/scope"
)

// AccessType selects which promotion recipe applies to a holder.
type AccessType int

const (
	AccessRegular AccessType = iota
	AccessObjectCreation
	AccessCollection
	AccessFold
)

func (t AccessType) String() string {
	switch t {
	case AccessRegular:
		return "regular"
	case AccessObjectCreation:
		return "object-creation"
	case AccessCollection:
		return "collection"
	case AccessFold:
		return "fold"
	}
	return "unknown"
}

type accessorBox struct {
	acc optimizer.Accessor
}

// Accessor wraps a safe-tier accessor and counts invocations. Once the
// run count crosses the policy's tenuring threshold inside the time
// window since first use, it requests a specialized accessor and swaps
// it in. A holder that was hot only in a stale, spread-out sense has
// its counters reset instead.
//
// Reads go through an atomic pointer so concurrent callers never
// observe a partially installed accessor; the promoted flag is a
// compare-and-swap so exactly one promotion transition occurs.
type Accessor struct {
	policy *Optimizer
	prop   string
	typ    AccessType

	safe     optimizer.Accessor
	current  atomic.Pointer[accessorBox]
	runCount atomic.Int64
	stamp    atomic.Int64 // unix nanos of first use in the current window
	opt      atomic.Bool

	mu sync.Mutex // serializes install and deoptimize
}

// NewAccessor creates a holder over a safe-tier accessor. The safe
// accessor is retained separately so demotion never recompiles.
func NewAccessor(policy *Optimizer, prop string, typ AccessType, safe optimizer.Accessor) *Accessor {
	a := &Accessor{
		policy: policy,
		prop:   prop,
		typ:    typ,
		safe:   safe,
	}
	a.current.Store(&accessorBox{acc: safe})
	a.stamp.Store(policy.now().UnixNano())
	return a
}

// Get resolves the value through the current tier, deciding promotion
// on the way. Lost increments under contention are tolerated; a
// double promotion is not.
func (a *Accessor) Get(root, this any, sc scope.Scope) (any, error) {
	if !a.opt.Load() {
		if count := a.runCount.Add(1); count > a.policy.TenuringThreshold() {
			now := a.policy.now().UnixNano()
			if now-a.stamp.Load() < int64(a.policy.TimeWindow()) {
				if a.opt.CompareAndSwap(false, true) {
					return a.promote(root, this, sc)
				}
			} else {
				// Hot only across a stale stretch: restart the window.
				a.runCount.Store(0)
				a.stamp.Store(now)
			}
		}
	}
	return a.current.Load().acc.Get(root, this, sc)
}

// Set always delegates to the current accessor; writes never drive a
// promotion decision.
func (a *Accessor) Set(root, this any, sc scope.Scope, value any) (any, error) {
	a.runCount.Add(1)
	return a.current.Load().acc.Set(root, this, sc, value)
}

// promote requests a specialized accessor for this holder's recipe and
// installs it, returning the promotion pass's immediate result. If the
// specialized tier declines the shape, the safe accessor stays current.
func (a *Accessor) promote(root, this any, sc scope.Scope) (any, error) {
	if a.policy.Overloaded() {
		a.policy.EnforceTenureLimit()
	}

	sp := optimizer.ForTier(optimizer.TierSpecialized)

	var (
		acc optimizer.Accessor
		err error
	)
	switch a.typ {
	case AccessRegular:
		acc, err = sp.OptimizeAccessor(a.prop, root, this, sc, true)
	case AccessObjectCreation:
		acc, err = sp.OptimizeObjectCreation(a.prop, root, this, sc)
	case AccessCollection:
		acc, err = sp.OptimizeCollection(a.prop, root, this, sc)
	case AccessFold:
		acc, err = sp.OptimizeFold(a.prop, root, this, sc)
	}
	if a.policy.metrics != nil {
		a.policy.metrics.RecordCompile(optimizer.TierSpecialized, err)
	}
	if err != nil {
		if errors.Is(err, optimizer.ErrNotSupported) {
			// Stay on the safe accessor; the flag stays set so the
			// rejection is not retried on every subsequent call.
			a.policy.log.Debug("specialized tier declined shape",
				slog.String("property", a.prop), slog.String("type", a.typ.String()))
			return a.safe.Get(root, this, sc)
		}
		a.opt.Store(false)
		return nil, err
	}

	a.mu.Lock()
	a.current.Store(&accessorBox{acc: acc})
	a.mu.Unlock()
	a.policy.track(a)
	if a.policy.metrics != nil {
		a.policy.metrics.Promotions.Inc()
	}
	a.policy.log.Debug("promoted accessor",
		slog.String("property", a.prop), slog.String("type", a.typ.String()))

	switch a.typ {
	case AccessRegular, AccessFold:
		return sp.Result(), nil
	default:
		return acc.Get(root, this, sc)
	}
}

// Deoptimize unconditionally resets the holder to the safe accessor
// and restarts heat tracking. Idempotent.
func (a *Accessor) Deoptimize() {
	a.mu.Lock()
	a.current.Store(&accessorBox{acc: a.safe})
	a.mu.Unlock()

	if a.opt.Swap(false) {
		a.policy.untrack(a)
		if a.policy.metrics != nil {
			a.policy.metrics.Demotions.Inc()
		}
		a.policy.log.Debug("deoptimized accessor", slog.String("property", a.prop))
	}
	a.runCount.Store(0)
	a.stamp.Store(a.policy.now().UnixNano())
}

// Promoted reports whether the holder is currently on the specialized
// tier (or pinned on safe after a declined promotion).
func (a *Accessor) Promoted() bool { return a.opt.Load() }

// RunCount returns the current heat counter.
func (a *Accessor) RunCount() int64 { return a.runCount.Load() }
