// Package optimizer defines the accessor (compiled strategy) and
// accessor-optimizer (strategy factory) contracts, the tier registry,
// and the reflective safe tier plus the closure-specializing fast tier.
package optimizer

import (
	"errors"
	"reflect"

	"github.com/szaher/exlang/internal/scope"
)

// Accessor is a compiled recipe for getting or setting the value of one
// specific expression shape. An accessor either succeeds for the shape
// it was built for or reports ErrTypeMismatch when a runtime type
// assumption baked in at construction no longer holds.
type Accessor interface {
	Get(root, this any, sc scope.Scope) (any, error)
	Set(root, this any, sc scope.Scope, value any) (any, error)
}

// Optimizer produces accessors for one tier. Instances are single-use:
// Result and EgressType report the outcome of the last Optimize call,
// so callers obtain a fresh instance from ForTier per compilation.
type Optimizer interface {
	// OptimizeAccessor compiles a property/identifier path. When
	// storeResult is true the value computed during the optimization
	// pass is retained and available from Result.
	OptimizeAccessor(expr string, root, this any, sc scope.Scope, storeResult bool) (Accessor, error)

	// OptimizeObjectCreation compiles a "new Type(args)" expression.
	OptimizeObjectCreation(expr string, root, this any, sc scope.Scope) (Accessor, error)

	// OptimizeCollection compiles an inline list/map literal.
	OptimizeCollection(expr string, root, this any, sc scope.Scope) (Accessor, error)

	// OptimizeFold compiles a "(projection in collection)" expression.
	OptimizeFold(expr string, root, this any, sc scope.Scope) (Accessor, error)

	// Result returns the value computed during the last optimization
	// pass, when one was computed.
	Result() any

	// EgressType returns the inferred static result type of the last
	// optimization pass, or nil when unknown.
	EgressType() reflect.Type
}

var (
	// ErrNotSupported reports that a tier cannot compile the given
	// shape. It is a rejection, not a resolution failure: callers
	// retry on the safe tier.
	ErrNotSupported = errors.New("optimizer: shape not supported by tier")

	// ErrTypeMismatch reports that a runtime value no longer matches
	// the shape assumptions an accessor was built with.
	ErrTypeMismatch = errors.New("optimizer: runtime type does not match compiled shape")
)
