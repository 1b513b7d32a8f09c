package ast

import (
	"testing"

	"github.com/szaher/exlang/internal/optimizer"
)

type mathNS struct{}

func (mathNS) Square(n int) int { return n * n }

// ---------------------------------------------------------------------------
// Static boundary scanning
// ---------------------------------------------------------------------------

func TestStaticAccess_MemberOfNamespace(t *testing.T) {
	optimizer.RegisterStatic("sys.env", map[string]any{"region": "eu"})
	defer optimizer.UnregisterStatic("sys.env")

	n := MustNode("sys.env.region", 0)
	v, ok := n.tryStaticAccess(nil, nil)
	if !ok {
		t.Fatal("expected a static hit")
	}
	if v != "eu" {
		t.Errorf("got %v, want eu", v)
	}
}

func TestStaticAccess_WholeNameIsNamespace(t *testing.T) {
	ns := map[string]any{"k": 1}
	optimizer.RegisterStatic("sys.env", ns)
	defer optimizer.UnregisterStatic("sys.env")

	// The probe at the last boundary tries the full prefix first, so a
	// name that is itself registered resolves to the namespace value.
	n := MustNode("sys.env", 0)
	v, ok := n.tryStaticAccess(nil, nil)
	if !ok {
		t.Fatal("expected a static hit")
	}
	if m, isMap := v.(map[string]any); !isMap || m["k"] != 1 {
		t.Errorf("got %v, want the namespace itself", v)
	}
}

func TestStaticAccess_ScanContinuesToEarlierBoundaries(t *testing.T) {
	optimizer.RegisterStatic("sys", map[string]any{
		"env": map[string]any{"region": "eu"},
	})
	defer optimizer.UnregisterStatic("sys")

	// No boundary matches at "sys.env", so the scan moves left and
	// resolves the longer remainder against "sys".
	n := MustNode("sys.env.region", 0)
	v, ok := n.tryStaticAccess(nil, nil)
	if !ok {
		t.Fatal("expected a static hit at the earlier boundary")
	}
	if v != "eu" {
		t.Errorf("got %v, want eu", v)
	}
}

func TestStaticAccess_LongerPrefixPreferred(t *testing.T) {
	optimizer.RegisterStatic("sys", map[string]any{
		"env": map[string]any{"region": "outer"},
	})
	optimizer.RegisterStatic("sys.env", map[string]any{"region": "inner"})
	defer optimizer.UnregisterStatic("sys")
	defer optimizer.UnregisterStatic("sys.env")

	n := MustNode("sys.env.region", 0)
	v, ok := n.tryStaticAccess(nil, nil)
	if !ok {
		t.Fatal("expected a static hit")
	}
	if v != "inner" {
		t.Errorf("got %v, want the longer prefix to win", v)
	}
}

func TestStaticAccess_MethodCallOnNamespace(t *testing.T) {
	optimizer.RegisterStatic("util.math", mathNS{})
	defer optimizer.UnregisterStatic("util.math")

	n := MustNode("util.math.square(6)", Method)
	v, ok := n.tryStaticAccess(nil, nil)
	if !ok {
		t.Fatal("expected a static hit")
	}
	if v != 36 {
		t.Errorf("got %v, want 36", v)
	}
}

func TestStaticAccess_DotsInsideCallArgsAreNotBoundaries(t *testing.T) {
	optimizer.RegisterStatic("a.b(x", 1)
	defer optimizer.UnregisterStatic("a.b(x")

	// The only '.' splitting "x.y" sits inside the argument region, so
	// no probe ever uses a prefix ending there.
	n := MustNode("a.b(x.y).c", Method)
	if _, ok := n.tryStaticAccess(nil, nil); ok {
		t.Error("argument-region dots must not produce boundaries")
	}
}

func TestStaticAccess_DotAfterCallRegionSkipped(t *testing.T) {
	optimizer.RegisterStatic("a", map[string]any{"b": 1})
	defer optimizer.UnregisterStatic("a")

	// The boundary between "a" and "b(…)" follows backwards from a call
	// region, so the prefix "a" is never probed: a method result, not a
	// type name, precedes that dot.
	n := MustNode("a.b(1).c", Method)
	if _, ok := n.tryStaticAccess(nil, nil); ok {
		t.Error("the dot preceding a call region is not a static boundary")
	}
}

func TestStaticAccess_MissReportsFalse(t *testing.T) {
	n := MustNode("never.registered.path", 0)
	if _, ok := n.tryStaticAccess(nil, nil); ok {
		t.Error("expected a miss")
	}
}

func TestStaticAccess_UndottedNameNeverMatches(t *testing.T) {
	optimizer.RegisterStatic("solo", 7)
	defer optimizer.UnregisterStatic("solo")

	// The scan only probes at '.' boundaries; an undotted identifier
	// has none.
	n := MustNode("solo", 0)
	if _, ok := n.tryStaticAccess(nil, nil); ok {
		t.Error("expected a miss for an undotted token")
	}
}
