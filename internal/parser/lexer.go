package parser

import (
	"fmt"
	"strings"
)

// Lexer tokenizes a single expression statement.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize scans the entire input and returns all tokens, ending with
// an EOF token.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	return tokens, nil
}

func (l *Lexer) nextToken() (Token, error) {
	l.skipWhitespace()
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}, nil
	}

	start := l.pos
	ch := l.input[l.pos]

	switch {
	case ch == '\'' || ch == '"':
		text, err := l.scanString(ch)
		if err != nil {
			return Token{}, err
		}
		return Token{Type: TokenString, Text: text, Pos: start}, nil

	case ch == '~':
		l.pos++
		tok, err := l.nextToken()
		if err != nil {
			return Token{}, err
		}
		if tok.Type != TokenNumber && tok.Type != TokenIdent {
			return Token{}, fmt.Errorf("unexpected ~ at offset %d", start)
		}
		tok.Invert = true
		tok.Pos = start
		return tok, nil

	case ch >= '0' && ch <= '9':
		return Token{Type: TokenNumber, Text: l.scanNumber(), Pos: start}, nil

	case isIdentStart(ch):
		text, method, err := l.scanPath()
		if err != nil {
			return Token{}, err
		}
		return Token{Type: TokenIdent, Text: text, Pos: start, Method: method}, nil

	case ch == '[' || ch == '{':
		text, err := l.scanBalanced()
		if err != nil {
			return Token{}, err
		}
		return Token{Type: TokenInlineCollection, Text: text, Pos: start}, nil

	case ch == '(':
		text, err := l.scanBalanced()
		if err != nil {
			return Token{}, err
		}
		if isFold(text) {
			return Token{Type: TokenFold, Text: text, Pos: start}, nil
		}
		return Token{}, fmt.Errorf("unsupported parenthesized group at offset %d", start)

	default:
		if op := l.scanOperator(); op != "" {
			if op == "=" {
				return Token{Type: TokenAssignEq, Text: op, Pos: start}, nil
			}
			return Token{Type: TokenOperator, Text: op, Pos: start}, nil
		}
	}
	return Token{}, fmt.Errorf("unexpected character %q at offset %d", ch, l.pos)
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\r', '\n', ';':
			l.pos++
		default:
			return
		}
	}
}

func (l *Lexer) scanString(quote byte) (string, error) {
	start := l.pos
	l.pos++
	for l.pos < len(l.input) {
		if l.input[l.pos] == '\\' {
			l.pos += 2
			continue
		}
		if l.input[l.pos] == quote {
			l.pos++
			return l.input[start:l.pos], nil
		}
		l.pos++
	}
	return "", fmt.Errorf("unterminated string at offset %d", start)
}

func (l *Lexer) scanNumber() string {
	start := l.pos
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' {
			l.pos++
			continue
		}
		if (c == '+' || c == '-') && l.pos > start {
			prev := l.input[l.pos-1]
			if prev == 'e' || prev == 'E' {
				l.pos++
				continue
			}
		}
		break
	}
	// A trailing '.' belongs to a following property, not the number.
	if l.pos > start && l.input[l.pos-1] == '.' {
		l.pos--
	}
	return l.input[start:l.pos]
}

// scanPath consumes a full property path: identifiers joined by dots,
// with balanced call-argument and index regions kept inline. Reports
// whether a call region directly follows an identifier.
func (l *Lexer) scanPath() (string, bool, error) {
	start := l.pos
	method := false
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case isIdentChar(c):
			l.pos++
		case c == '(' || c == '[':
			if c == '(' {
				method = true
			}
			if _, err := l.scanBalanced(); err != nil {
				return "", false, err
			}
		case c == '.':
			if l.pos+1 < len(l.input) && isIdentStart(l.input[l.pos+1]) {
				l.pos++
			} else {
				return l.input[start:l.pos], method, nil
			}
		default:
			return l.input[start:l.pos], method, nil
		}
	}
	return l.input[start:l.pos], method, nil
}

func (l *Lexer) scanBalanced() (string, error) {
	start := l.pos
	depth := 0
	var quote byte
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if quote != 0 {
			if c == '\\' {
				l.pos += 2
				continue
			}
			if c == quote {
				quote = 0
			}
			l.pos++
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				l.pos++
				return l.input[start:l.pos], nil
			}
		}
		l.pos++
	}
	return "", fmt.Errorf("unbalanced %q at offset %d", l.input[start], start)
}

var operatorTexts = []string{
	"**", "==", "!=", ">=", "<=", "&&", "||", "<<", ">>",
	"+", "-", "*", "/", "%", ">", "<", "!", "&", "|", "^", "?", ":", "=",
}

func (l *Lexer) scanOperator() string {
	rest := l.input[l.pos:]
	for _, op := range operatorTexts {
		if strings.HasPrefix(rest, op) {
			l.pos += len(op)
			return op
		}
	}
	return ""
}

// isFold reports whether a parenthesized group is a fold expression:
// it contains the "in" keyword at nesting depth zero.
func isFold(text string) bool {
	depth := 0
	for i := 0; i+4 <= len(text); i++ {
		switch text[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ' ':
			if depth == 1 && strings.HasPrefix(text[i:], " in ") {
				return true
			}
		}
	}
	return false
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
