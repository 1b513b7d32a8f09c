package parser

import (
	"testing"

	"github.com/szaher/exlang/internal/ast"
)

func chain(t *testing.T, input string) []*ast.Node {
	t.Helper()
	head, err := Parse(input)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	var nodes []*ast.Node
	for n := head; n != nil; n = n.Next {
		nodes = append(nodes, n)
	}
	return nodes
}

// ---------------------------------------------------------------------------
// Tokenization
// ---------------------------------------------------------------------------

func TestParse_SingleProperty(t *testing.T) {
	nodes := chain(t, "user.address.city")
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
	if !nodes[0].IsDeepProperty() {
		t.Error("expected a deep property node")
	}
}

func TestParse_BinaryExpression(t *testing.T) {
	nodes := chain(t, "count + 3")
	if len(nodes) != 3 {
		t.Fatalf("got %d nodes, want 3", len(nodes))
	}
	if !nodes[0].IsIdentifier() || !nodes[1].IsOperator() || !nodes[2].IsLiteral() {
		t.Errorf("flags: %b %b %b", nodes[0].Flags(), nodes[1].Flags(), nodes[2].Flags())
	}
	if op, _ := nodes[1].OperatorValue(); op != ast.OpAdd {
		t.Errorf("operator: got %v, want +", op)
	}
	if nodes[2].LiteralValue() != int64(3) {
		t.Errorf("literal: got %v, want 3", nodes[2].LiteralValue())
	}
}

func TestParse_CallTokenGetsMethodHint(t *testing.T) {
	nodes := chain(t, "user.greeting()")
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
	if nodes[0].Flags()&ast.Method == 0 {
		t.Error("expected the Method hint")
	}
	if !nodes[0].IsDeepProperty() {
		t.Error("the pre-call dot makes the node deep")
	}
}

func TestParse_CallArgumentsStayInOneToken(t *testing.T) {
	nodes := chain(t, "calc(a.b, 'x, y')")
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1: %v", len(nodes), nodes)
	}
	if nodes[0].Name() != "calc(a.b, 'x, y')" {
		t.Errorf("name: got %q", nodes[0].Name())
	}
}

func TestParse_NegativeNumberFolds(t *testing.T) {
	nodes := chain(t, "-5")
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
	if nodes[0].LiteralValue() != int64(-5) {
		t.Errorf("got %v, want -5", nodes[0].LiteralValue())
	}
}

func TestParse_MinusAfterOperandIsSubtraction(t *testing.T) {
	nodes := chain(t, "a - 5")
	if len(nodes) != 3 {
		t.Fatalf("got %d nodes, want 3", len(nodes))
	}
	if op, _ := nodes[1].OperatorValue(); op != ast.OpSub {
		t.Errorf("operator: got %v, want -", op)
	}
	if nodes[2].LiteralValue() != int64(5) {
		t.Errorf("literal: got %v, want 5", nodes[2].LiteralValue())
	}
}

func TestParse_MinusAfterOperatorNegates(t *testing.T) {
	nodes := chain(t, "a + -5")
	if len(nodes) != 3 {
		t.Fatalf("got %d nodes, want 3", len(nodes))
	}
	if nodes[2].LiteralValue() != int64(-5) {
		t.Errorf("literal: got %v, want -5", nodes[2].LiteralValue())
	}
}

func TestParse_InvertPrefix(t *testing.T) {
	nodes := chain(t, "~3")
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
	if nodes[0].LiteralValue() != int64(-4) {
		t.Errorf("got %v, want -4", nodes[0].LiteralValue())
	}
}

func TestParse_InvertOnFloatErrors(t *testing.T) {
	if _, err := Parse("~2.5"); err == nil {
		t.Fatal("expected error")
	}
}

func TestParse_StringLiteral(t *testing.T) {
	nodes := chain(t, "'hello world'")
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
	if nodes[0].LiteralValue() != "hello world" {
		t.Errorf("got %v", nodes[0].LiteralValue())
	}
}

func TestParse_InlineList(t *testing.T) {
	nodes := chain(t, "[1, 2, 3]")
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
	if nodes[0].Flags()&ast.InlineCollection == 0 {
		t.Error("expected the InlineCollection hint")
	}
}

func TestParse_InlineMap(t *testing.T) {
	nodes := chain(t, "{'a': 1}")
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
	if nodes[0].Flags()&ast.InlineCollection == 0 {
		t.Error("expected the InlineCollection hint")
	}
}

func TestParse_Fold(t *testing.T) {
	nodes := chain(t, "(name in people)")
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
	if !nodes[0].IsFold() {
		t.Error("expected the Fold flag")
	}
}

func TestParse_Assignment(t *testing.T) {
	nodes := chain(t, "total = 5")
	if len(nodes) != 3 {
		t.Fatalf("got %d nodes, want 3", len(nodes))
	}
	if !nodes[0].IsAssignment() {
		t.Error("the left-hand node carries the Assign flag")
	}
	if op, _ := nodes[1].OperatorValue(); op != ast.OpAssignEq {
		t.Errorf("operator: got %v, want =", op)
	}
}

func TestParse_EqualityIsNotAssignment(t *testing.T) {
	nodes := chain(t, "total == 5")
	if len(nodes) != 3 {
		t.Fatalf("got %d nodes, want 3", len(nodes))
	}
	if nodes[0].IsAssignment() {
		t.Error("== must not mark an assignment")
	}
	if op, _ := nodes[1].OperatorValue(); op != ast.OpEqual {
		t.Errorf("operator: got %v, want ==", op)
	}
}

func TestParse_IndexedPathStaysOneToken(t *testing.T) {
	nodes := chain(t, "orders[0].total")
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
	if !nodes[0].IsCollection() {
		t.Error("expected the Collection flag")
	}
}

func TestParse_Empty(t *testing.T) {
	head, err := Parse("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if head != nil {
		t.Error("empty input parses to no nodes")
	}
}

func TestParse_UnterminatedString(t *testing.T) {
	if _, err := Parse("'oops"); err == nil {
		t.Fatal("expected error")
	}
}

func TestParse_UnbalancedCall(t *testing.T) {
	if _, err := Parse("f(1, 2"); err == nil {
		t.Fatal("expected error")
	}
}
