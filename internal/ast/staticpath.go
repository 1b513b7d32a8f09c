package ast

import (
	"github.com/szaher/exlang/internal/optimizer"
	"github.com/szaher/exlang/internal/scope"
)

// tryStaticAccess scans the token right to left for a boundary whose
// prefix names a registered static namespace, then resolves the
// remainder against it. Dots inside call-argument regions are never
// boundaries, and a '.' immediately following a call region is skipped
// (the call result, not a type name, precedes it). At each boundary
// the longer prefix (up to the previously seen boundary) is probed
// before the prefix ending at the current position. Probe failures are
// expected and swallowed; only overall failure is reported, as a
// false ok.
func (n *Node) tryStaticAccess(this any, sc scope.Scope) (any, bool) {
	name := n.name
	meth := false
	depth := 0
	last := len(name)

	for i := len(name) - 1; i > 0; i-- {
		switch name[i] {
		case '.':
			if depth == 0 && !meth {
				if ns, ok := optimizer.LookupStatic(string(name[:last])); ok {
					if v, ok := staticMember(name[last:], ns, sc, this); ok {
						return v, true
					}
				}
				if ns, ok := optimizer.LookupStatic(string(name[:i])); ok {
					if v, ok := staticMember(name[i+1:], ns, sc, this); ok {
						return v, true
					}
				}
			}
			meth = false
			last = i
		case ')':
			depth++
		case '(':
			if depth--; depth == 0 {
				meth = true
			}
		}
	}
	return nil, false
}

// staticMember resolves the remainder path against a namespace value.
// An empty remainder yields the namespace itself.
func staticMember(remainder []byte, ns any, sc scope.Scope, this any) (any, bool) {
	path := string(remainder)
	for len(path) > 0 && path[0] == '.' {
		path = path[1:]
	}
	if path == "" {
		return ns, true
	}
	v, err := optimizer.Get(path, ns, sc, this)
	if err != nil {
		return nil, false
	}
	return v, true
}
