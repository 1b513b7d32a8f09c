// Package parser implements the statement tokenizer that splits raw
// expression text into classified expression nodes.
package parser

import "fmt"

// TokenType represents the type of a lexical token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota

	// Value tokens
	TokenIdent            // property path: a.b[0].c(x)
	TokenNumber           // 42, 4.2
	TokenString           // 'text' or "text"
	TokenOperator         // +, ==, &&, ...
	TokenInlineCollection // [1, 2] or {k: v}
	TokenFold             // (projection in collection)
	TokenAssignEq         // =
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenIdent:
		return "Ident"
	case TokenNumber:
		return "Number"
	case TokenString:
		return "String"
	case TokenOperator:
		return "Operator"
	case TokenInlineCollection:
		return "InlineCollection"
	case TokenFold:
		return "Fold"
	case TokenAssignEq:
		return "AssignEq"
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is a single lexical token with its raw text and the
// classification hints the lexer already knows.
type Token struct {
	Type   TokenType
	Text   string
	Pos    int
	Method bool // a call region follows an identifier in the path
	Invert bool // preceded by the bitwise-invert prefix
	Negate bool // preceded by a unary minus
}
