// Package scope defines the chained variable scope consumed by the
// expression core, plus the in-memory implementations used by the CLI
// and tests.
package scope

// Resolver is a handle to a single named variable.
type Resolver interface {
	// Name returns the variable name this resolver serves.
	Name() string

	// Get returns the current value.
	Get() any

	// Set replaces the current value.
	Set(value any)
}

// Scope is a chained lookup of named values. Implementations must be
// safe for concurrent readers; writers follow the embedding
// application's discipline.
type Scope interface {
	// IsResolvable reports whether name can be resolved in this scope
	// or any parent.
	IsResolvable(name string) bool

	// Resolver returns the handle for name, or false if the name is
	// not resolvable.
	Resolver(name string) (Resolver, bool)
}

// Value resolves name and returns its value, or nil/false when the
// name is not resolvable.
func Value(sc Scope, name string) (any, bool) {
	if sc == nil {
		return nil, false
	}
	r, ok := sc.Resolver(name)
	if !ok {
		return nil, false
	}
	return r.Get(), true
}
