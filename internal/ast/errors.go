package ast

import "fmt"

// CompileError reports a semantic error in a single expression:
// an incomplete statement, a malformed literal, or an identifier that
// cannot be resolved at all. Never retried.
type CompileError struct {
	Msg  string
	Expr string
}

func (e *CompileError) Error() string {
	if e.Expr == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Msg, e.Expr)
}

// UnresolvablePropertyError wraps the cause of a failed property
// resolution into the single caller-visible category.
type UnresolvablePropertyError struct {
	Name string
	Err  error
}

func (e *UnresolvablePropertyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unable to resolve property %q: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("unable to resolve property %q", e.Name)
}

func (e *UnresolvablePropertyError) Unwrap() error { return e.Err }

// OptimizationFailure reports that no tier could produce an accessor.
// This indicates a misconfigured factory, not a user error, and is
// never retried.
type OptimizationFailure struct {
	Name string
	Err  error
}

func (e *OptimizationFailure) Error() string {
	return fmt.Sprintf("failed optimization for %q: %v", e.Name, e.Err)
}

func (e *OptimizationFailure) Unwrap() error { return e.Err }
