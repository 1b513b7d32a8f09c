package scope

import "sync"

// MapScope is a map-backed Scope with an optional parent. Lookups fall
// through to the parent when the local map misses, so nested evaluation
// frames can shadow outer variables.
type MapScope struct {
	mu     sync.RWMutex
	vars   map[string]any
	parent Scope
}

// NewMapScope creates an empty scope with no parent.
func NewMapScope() *MapScope {
	return &MapScope{vars: make(map[string]any)}
}

// NewChainedScope creates a scope backed by vars that falls through to
// parent for unknown names. The map is used directly, not copied.
func NewChainedScope(parent Scope, vars map[string]any) *MapScope {
	if vars == nil {
		vars = make(map[string]any)
	}
	return &MapScope{vars: vars, parent: parent}
}

// Define sets name in this scope, shadowing any parent binding.
func (s *MapScope) Define(name string, value any) {
	s.mu.Lock()
	s.vars[name] = value
	s.mu.Unlock()
}

// IsResolvable reports whether name is bound here or in a parent.
func (s *MapScope) IsResolvable(name string) bool {
	s.mu.RLock()
	_, ok := s.vars[name]
	s.mu.RUnlock()
	if ok {
		return true
	}
	if s.parent != nil {
		return s.parent.IsResolvable(name)
	}
	return false
}

// Resolver returns the handle for name, searching parents on a local miss.
func (s *MapScope) Resolver(name string) (Resolver, bool) {
	s.mu.RLock()
	_, ok := s.vars[name]
	s.mu.RUnlock()
	if ok {
		return &mapResolver{scope: s, name: name}, true
	}
	if s.parent != nil {
		return s.parent.Resolver(name)
	}
	return nil, false
}

type mapResolver struct {
	scope *MapScope
	name  string
}

func (r *mapResolver) Name() string { return r.name }

func (r *mapResolver) Get() any {
	r.scope.mu.RLock()
	defer r.scope.mu.RUnlock()
	return r.scope.vars[r.name]
}

func (r *mapResolver) Set(value any) {
	r.scope.mu.Lock()
	r.scope.vars[r.name] = value
	r.scope.mu.Unlock()
}
