package parser

import (
	"fmt"

	"github.com/szaher/exlang/internal/ast"
)

// Parse tokenizes a statement and builds the linked node chain. Each
// token is classified with the hint flags the lexer already
// determined, so the classifier never re-scans for call or collection
// shapes the lexer found.
func Parse(input string) (*ast.Node, error) {
	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		return nil, err
	}

	var head, tail *ast.Node
	link := func(n *ast.Node) {
		if head == nil {
			head = n
		} else {
			tail.Next = n
		}
		tail = n
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok.Type {
		case TokenEOF:
			return head, nil

		case TokenIdent:
			var hints uint32
			if tok.Method {
				hints |= ast.Method
			}
			if tok.Invert {
				hints |= ast.Invert
			}
			if i+1 < len(tokens) && tokens[i+1].Type == TokenAssignEq {
				hints |= ast.Assign
			}
			n, err := ast.NewNode([]byte(tok.Text), hints)
			if err != nil {
				return nil, err
			}
			link(n)

		case TokenNumber:
			text := tok.Text
			var hints uint32
			if tok.Invert {
				hints |= ast.Invert
			}
			if tok.Negate {
				hints |= ast.Negation
				text = "-" + text
			}
			n, err := ast.NewNode([]byte(text), hints)
			if err != nil {
				return nil, err
			}
			link(n)

		case TokenString:
			n, err := ast.NewNode([]byte(tok.Text), ast.StringLiteral)
			if err != nil {
				return nil, err
			}
			link(n)

		case TokenInlineCollection:
			n, err := ast.NewNode([]byte(tok.Text), ast.InlineCollection)
			if err != nil {
				return nil, err
			}
			link(n)

		case TokenFold:
			n, err := ast.NewNode([]byte(tok.Text), ast.Fold)
			if err != nil {
				return nil, err
			}
			link(n)

		case TokenAssignEq:
			// Assignment was recorded on the left-hand node; the
			// operator itself carries no state.
			n, err := ast.NewNode([]byte("="), 0)
			if err != nil {
				return nil, err
			}
			link(n)

		case TokenOperator:
			// A leading minus folds into the following numeric
			// literal instead of producing an operator node.
			if tok.Text == "-" && expressionStart(tokens, i) &&
				i+1 < len(tokens) && tokens[i+1].Type == TokenNumber {
				tokens[i+1].Negate = true
				continue
			}
			n, err := ast.NewNode([]byte(tok.Text), 0)
			if err != nil {
				return nil, err
			}
			link(n)

		default:
			return nil, fmt.Errorf("unexpected token %s at offset %d", tok.Type, tok.Pos)
		}
	}
	return head, nil
}

// expressionStart reports whether the token at index i sits where an
// operand is expected: at the start of the statement or right after
// another operator.
func expressionStart(tokens []Token, i int) bool {
	if i == 0 {
		return true
	}
	prev := tokens[i-1].Type
	return prev == TokenOperator || prev == TokenAssignEq
}
