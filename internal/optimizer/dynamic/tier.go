package dynamic

import (
	"reflect"

	"github.com/szaher/exlang/internal/optimizer"
	"github.com/szaher/exlang/internal/scope"
)

// TierName is the tier identifier the dynamic optimizer registers
// under.
const TierName = "dynamic"

// Install registers the dynamic tier backed by policy and makes it the
// default, so freshly bound nodes start on heat-tracked safe accessors.
func Install(policy *Optimizer) {
	optimizer.Register(TierName, func() optimizer.Optimizer {
		return &tierOptimizer{policy: policy}
	})
	optimizer.SetDefaultTier(TierName)
}

// Uninstall restores the safe tier as the default. The tier itself
// stays registered; existing holders keep working.
func Uninstall() {
	optimizer.SetDefaultTier(optimizer.TierSafe)
}

// tierOptimizer compiles through the safe tier and wraps the result in
// a heat-tracking holder.
type tierOptimizer struct {
	policy *Optimizer
	safe   optimizer.Optimizer
}

func (t *tierOptimizer) OptimizeAccessor(expr string, root, this any, sc scope.Scope, storeResult bool) (optimizer.Accessor, error) {
	return t.wrap(expr, AccessRegular, func(safe optimizer.Optimizer) (optimizer.Accessor, error) {
		return safe.OptimizeAccessor(expr, root, this, sc, storeResult)
	})
}

func (t *tierOptimizer) OptimizeObjectCreation(expr string, root, this any, sc scope.Scope) (optimizer.Accessor, error) {
	return t.wrap(expr, AccessObjectCreation, func(safe optimizer.Optimizer) (optimizer.Accessor, error) {
		return safe.OptimizeObjectCreation(expr, root, this, sc)
	})
}

func (t *tierOptimizer) OptimizeCollection(expr string, root, this any, sc scope.Scope) (optimizer.Accessor, error) {
	return t.wrap(expr, AccessCollection, func(safe optimizer.Optimizer) (optimizer.Accessor, error) {
		return safe.OptimizeCollection(expr, root, this, sc)
	})
}

func (t *tierOptimizer) OptimizeFold(expr string, root, this any, sc scope.Scope) (optimizer.Accessor, error) {
	return t.wrap(expr, AccessFold, func(safe optimizer.Optimizer) (optimizer.Accessor, error) {
		return safe.OptimizeFold(expr, root, this, sc)
	})
}

func (t *tierOptimizer) wrap(expr string, typ AccessType, compile func(optimizer.Optimizer) (optimizer.Accessor, error)) (optimizer.Accessor, error) {
	t.safe = optimizer.ForTier(optimizer.TierSafe)
	acc, err := compile(t.safe)
	if t.policy.metrics != nil {
		t.policy.metrics.RecordCompile(optimizer.TierSafe, err)
	}
	if err != nil {
		return nil, err
	}
	return NewAccessor(t.policy, expr, typ, acc), nil
}

func (t *tierOptimizer) Result() any {
	if t.safe == nil {
		return nil
	}
	return t.safe.Result()
}

func (t *tierOptimizer) EgressType() reflect.Type {
	if t.safe == nil {
		return nil
	}
	return t.safe.EgressType()
}
