package ast

import (
	"bytes"
	"math"
	"reflect"
	"strconv"
)

// classify performs the one-shot token classification. First match
// wins; operator and numeric matches stop immediately, everything else
// falls through to the independent index-opener scan.
func (n *Node) classify(raw []byte) error {
	n.name = raw
	text := string(raw)
	n.nameCache = text

	if n.is(StringLiteral) {
		n.setFlags(Literal | Identifier)
		n.literal = unquote(text)
		n.egressType = reflect.TypeOf("")
		return nil
	}

	if v, ok := literals[text]; ok {
		n.setFlags(Literal | Identifier)
		n.literal = v
		if _, isThis := v.(thisLiteral); isThis {
			n.setFlags(ThisRef)
		}
		if v != nil {
			n.egressType = reflect.TypeOf(v)
		}
	} else if op, ok := operators[text]; ok {
		n.setFlags(Operator)
		n.literal = op
		n.egressType = reflect.TypeOf(op)
		return nil
	} else if isNumber(text) {
		v, err := parseNumber(text)
		if err != nil {
			return &CompileError{Msg: "malformed numeric literal", Expr: text}
		}
		n.setFlags(Numeric | Literal | Identifier)
		if n.is(Invert) {
			i, ok := v.(int64)
			if !ok {
				return &CompileError{Msg: "bitwise (~) operator can only be applied to integers", Expr: text}
			}
			v = ^i
		}
		n.literal = v
		n.egressType = reflect.TypeOf(v)
		if i, ok := v.(int64); ok && i >= math.MinInt32 && i <= math.MaxInt32 {
			n.intRegister = int32(i)
			n.setFlags(Integer32)
		}
		return nil
	} else if n.is(InlineCollection) {
		// Handled by the collection-literal accessor; the raw text is
		// kept verbatim.
		return nil
	} else if n.firstUnion = bytes.IndexByte(raw, '.'); n.firstUnion > 0 {
		if n.is(Method) {
			if paren := bytes.IndexByte(raw, '('); n.firstUnion < paren {
				n.setFlags(DeepProperty | Identifier)
			} else {
				n.setFlags(Identifier)
			}
		} else {
			n.setFlags(DeepProperty | Identifier)
		}
	} else {
		n.setFlags(Identifier)
	}

	if n.endOfName = bytes.IndexByte(raw, '['); n.endOfName > 0 {
		n.setFlags(Collection)
	}
	return nil
}

// isNumber reports whether text is a decimal integer or floating
// literal, with an optional leading sign.
func isNumber(text string) bool {
	if text == "" {
		return false
	}
	s := text
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	if s == "" || s[0] < '0' || s[0] > '9' {
		return false
	}
	if _, err := strconv.ParseInt(text, 10, 64); err == nil {
		return true
	}
	_, err := strconv.ParseFloat(text, 64)
	return err == nil
}

// parseNumber converts a numeric literal, preferring the integer form.
func parseNumber(text string) (any, error) {
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
