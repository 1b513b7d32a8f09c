package ast

import (
	"reflect"
	"testing"
)

// ---------------------------------------------------------------------------
// Classification
// ---------------------------------------------------------------------------

func TestClassify_IntegerLiteral(t *testing.T) {
	n := MustNode("42", 0)
	if !n.IsLiteral() || !n.IsIdentifier() {
		t.Fatalf("flags: %b", n.Flags())
	}
	if n.Flags()&Numeric == 0 {
		t.Error("expected Numeric")
	}
	if n.LiteralValue() != int64(42) {
		t.Errorf("literal: got %v, want int64 42", n.LiteralValue())
	}
	if n.Flags()&Integer32 == 0 || n.IntRegister() != 42 {
		t.Errorf("int register: got %d, want 42 with Integer32 set", n.IntRegister())
	}
	if n.EgressType() != reflect.TypeOf(int64(0)) {
		t.Errorf("egress: got %v, want int64", n.EgressType())
	}
}

func TestClassify_FloatLiteral(t *testing.T) {
	n := MustNode("2.5", 0)
	if n.LiteralValue() != 2.5 {
		t.Errorf("literal: got %v, want 2.5", n.LiteralValue())
	}
	if n.Flags()&Integer32 != 0 {
		t.Error("floats must not set Integer32")
	}
	if n.IsDeepProperty() {
		t.Error("the decimal point is not a property separator")
	}
}

func TestClassify_NegativeNumber(t *testing.T) {
	n := MustNode("-7", Negation)
	if n.LiteralValue() != int64(-7) {
		t.Errorf("literal: got %v, want -7", n.LiteralValue())
	}
}

func TestClassify_InvertFoldsIntoLiteral(t *testing.T) {
	n := MustNode("42", Invert)
	if n.LiteralValue() != int64(-43) {
		t.Errorf("literal: got %v, want -43 (bitwise complement)", n.LiteralValue())
	}
	if n.Flags()&Integer32 == 0 || n.IntRegister() != -43 {
		t.Errorf("int register: got %d, want -43", n.IntRegister())
	}
}

func TestClassify_InvertOnFloatFails(t *testing.T) {
	_, err := NewNode([]byte("2.5"), Invert)
	if err == nil {
		t.Fatal("expected error inverting a float")
	}
	if _, ok := err.(*CompileError); !ok {
		t.Errorf("got %T, want *CompileError", err)
	}
}

func TestClassify_LargeIntegerSkipsRegister(t *testing.T) {
	n := MustNode("4294967296", 0)
	if n.Flags()&Integer32 != 0 {
		t.Error("values past int32 range must not set Integer32")
	}
	if n.LiteralValue() != int64(4294967296) {
		t.Errorf("literal: got %v", n.LiteralValue())
	}
}

func TestClassify_StringLiteral(t *testing.T) {
	n := MustNode("'hello world'", StringLiteral)
	if !n.IsLiteral() {
		t.Fatal("expected Literal")
	}
	if n.LiteralValue() != "hello world" {
		t.Errorf("literal: got %v, want unquoted text", n.LiteralValue())
	}
	if n.IsDeepProperty() || n.IsCollection() {
		t.Error("string contents must not classify as structure")
	}
}

func TestClassify_StringWithDotsStaysFlat(t *testing.T) {
	n := MustNode("'a.b.c'", StringLiteral)
	if n.IsDeepProperty() {
		t.Error("dots inside a string literal are not separators")
	}
}

func TestClassify_ReservedLiterals(t *testing.T) {
	tests := []struct {
		text string
		want any
	}{
		{"true", true},
		{"false", false},
		{"nil", nil},
		{"null", nil},
		{"empty", ""},
	}
	for _, tt := range tests {
		n := MustNode(tt.text, 0)
		if !n.IsLiteral() {
			t.Errorf("%q: expected Literal", tt.text)
		}
		if n.LiteralValue() != tt.want {
			t.Errorf("%q: got %v, want %v", tt.text, n.LiteralValue(), tt.want)
		}
	}
}

func TestClassify_ThisRef(t *testing.T) {
	n := MustNode("this", 0)
	if !n.IsThisRef() || !n.IsLiteral() {
		t.Fatalf("flags: %b", n.Flags())
	}
}

func TestClassify_Operators(t *testing.T) {
	for _, text := range []string{"+", "-", "*", "/", "%", "==", "!=", "&&", "||", "and", "or", "mod", "**", "~"} {
		n := MustNode(text, 0)
		if !n.IsOperator() {
			t.Errorf("%q: expected Operator", text)
		}
		if n.IsLiteral() || n.IsDeepProperty() {
			t.Errorf("%q: operator must not carry literal or structure flags", text)
		}
	}
}

func TestClassify_OperatorValue(t *testing.T) {
	n := MustNode("and", 0)
	op, ok := n.OperatorValue()
	if !ok || op != OpAnd {
		t.Errorf("got %v/%v, want OpAnd", op, ok)
	}
}

func TestClassify_PlainIdentifier(t *testing.T) {
	n := MustNode("foobar", 0)
	if !n.IsIdentifier() {
		t.Fatal("expected Identifier")
	}
	if n.IsLiteral() || n.IsDeepProperty() || n.IsCollection() {
		t.Errorf("flags: %b", n.Flags())
	}
	if n.AbsoluteRootName() != "foobar" {
		t.Errorf("root: got %q", n.AbsoluteRootName())
	}
}

func TestClassify_DeepProperty(t *testing.T) {
	n := MustNode("user.address.city", 0)
	if !n.IsDeepProperty() {
		t.Fatal("expected DeepProperty")
	}
	if n.AbsoluteRootName() != "user" {
		t.Errorf("root: got %q, want user", n.AbsoluteRootName())
	}
	if n.AbsoluteRemainder() != "address.city" {
		t.Errorf("remainder: got %q, want address.city", n.AbsoluteRemainder())
	}
}

func TestClassify_MethodWithDottedPathIsDeep(t *testing.T) {
	// The dot precedes the call region, so the path is deep.
	n := MustNode("user.greeting()", Method)
	if !n.IsDeepProperty() {
		t.Error("expected DeepProperty when a separator precedes the call")
	}
}

func TestClassify_MethodWithDottedArgIsFlat(t *testing.T) {
	// The only dots live inside the argument region.
	n := MustNode("calc(a.b)", Method)
	if n.IsDeepProperty() {
		t.Error("dots inside call arguments must not make the node deep")
	}
	if !n.IsIdentifier() {
		t.Error("expected Identifier")
	}
}

func TestClassify_Collection(t *testing.T) {
	n := MustNode("items[0]", 0)
	if !n.IsCollection() {
		t.Fatal("expected Collection")
	}
	if n.AbsoluteRootName() != "items" {
		t.Errorf("root: got %q, want items", n.AbsoluteRootName())
	}
	if n.AbsoluteRemainder() != "[0]" {
		t.Errorf("remainder: got %q, want [0]", n.AbsoluteRemainder())
	}
}

func TestClassify_DeepCollection(t *testing.T) {
	n := MustNode("order.items[2].sku", 0)
	if !n.IsCollection() || !n.IsDeepProperty() {
		t.Fatalf("flags: %b", n.Flags())
	}
	if n.AbsoluteRootName() != "order" {
		t.Errorf("root: got %q, want order", n.AbsoluteRootName())
	}
}

func TestClassify_InlineCollectionKeptVerbatim(t *testing.T) {
	n := MustNode("[1, 2, 3]", InlineCollection)
	if n.Name() != "[1, 2, 3]" {
		t.Errorf("name: got %q", n.Name())
	}
	if n.IsLiteral() {
		t.Error("inline collections are rebuilt per evaluation, not cached literals")
	}
}

func TestClassify_Idempotent(t *testing.T) {
	// Flags settle at construction; repeated reads agree.
	n := MustNode("user.address.city", 0)
	first := n.Flags()
	for i := 0; i < 3; i++ {
		if n.Flags() != first {
			t.Fatal("flags changed between reads")
		}
	}
}

func TestMustNode_PanicsOnBadToken(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustNode("2.5", Invert)
}
