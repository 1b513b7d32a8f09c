package scope

import (
	"sync"
	"testing"
)

// ---------------------------------------------------------------------------
// MapScope
// ---------------------------------------------------------------------------

func TestMapScope_DefineAndResolve(t *testing.T) {
	sc := NewMapScope()
	sc.Define("count", 42)

	if !sc.IsResolvable("count") {
		t.Fatal("count should be resolvable")
	}
	r, ok := sc.Resolver("count")
	if !ok {
		t.Fatal("expected resolver for count")
	}
	if r.Name() != "count" {
		t.Errorf("name: got %q, want %q", r.Name(), "count")
	}
	if got := r.Get(); got != 42 {
		t.Errorf("value: got %v, want 42", got)
	}
}

func TestMapScope_UnknownName(t *testing.T) {
	sc := NewMapScope()
	if sc.IsResolvable("missing") {
		t.Error("missing should not be resolvable")
	}
	if _, ok := sc.Resolver("missing"); ok {
		t.Error("expected no resolver for missing")
	}
}

func TestMapScope_SetThroughResolver(t *testing.T) {
	sc := NewMapScope()
	sc.Define("x", 1)

	r, _ := sc.Resolver("x")
	r.Set(99)
	if got, _ := Value(sc, "x"); got != 99 {
		t.Errorf("after set: got %v, want 99", got)
	}
}

func TestMapScope_ParentFallthrough(t *testing.T) {
	parent := NewMapScope()
	parent.Define("outer", "p")
	child := NewChainedScope(parent, map[string]any{"inner": "c"})

	if !child.IsResolvable("outer") {
		t.Fatal("outer should resolve through the parent")
	}
	if got, _ := Value(child, "outer"); got != "p" {
		t.Errorf("outer: got %v, want p", got)
	}
	if got, _ := Value(child, "inner"); got != "c" {
		t.Errorf("inner: got %v, want c", got)
	}
}

func TestMapScope_ChildShadowsParent(t *testing.T) {
	parent := NewMapScope()
	parent.Define("name", "parent")
	child := NewChainedScope(parent, nil)
	child.Define("name", "child")

	if got, _ := Value(child, "name"); got != "child" {
		t.Errorf("shadowed lookup: got %v, want child", got)
	}
	if got, _ := Value(parent, "name"); got != "parent" {
		t.Errorf("parent lookup: got %v, want parent", got)
	}
}

func TestMapScope_ConcurrentAccess(t *testing.T) {
	sc := NewMapScope()
	sc.Define("shared", 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sc.Define("shared", n)
				if _, ok := Value(sc, "shared"); !ok {
					t.Error("shared should stay resolvable")
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

// ---------------------------------------------------------------------------
// Value helper
// ---------------------------------------------------------------------------

func TestValue_MissingName(t *testing.T) {
	sc := NewMapScope()
	if _, ok := Value(sc, "nope"); ok {
		t.Error("expected miss for unknown name")
	}
}

func TestValue_NilScope(t *testing.T) {
	if _, ok := Value(nil, "anything"); ok {
		t.Error("nil scope should never resolve")
	}
}
