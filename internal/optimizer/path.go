package optimizer

import (
	"fmt"
	"strings"
)

// segment is one parsed element of a property path: an identifier,
// optionally a call with raw argument expressions, followed by any
// number of raw index expressions.
type segment struct {
	name    string
	call    bool
	args    []string
	indexes []string
}

// parsePath splits a dotted property path into segments. Call-argument
// and index regions are captured raw; their contents are evaluated
// lazily at access time. Leading separators are tolerated so callers
// can pass path remainders verbatim.
func parsePath(path string) ([]segment, error) {
	var segs []segment
	i := 0
	n := len(path)
	for i < n && path[i] == '.' {
		i++
	}
	for i < n {
		start := i
		for i < n && isIdentChar(path[i]) {
			i++
		}
		seg := segment{name: strings.TrimSpace(path[start:i])}
		if i < n && path[i] == '(' {
			inner, rest, err := balanced(path[i:], '(', ')')
			if err != nil {
				return nil, fmt.Errorf("path %q: %w", path, err)
			}
			seg.call = true
			seg.args = splitTopLevel(inner, ',')
			i = n - len(rest)
		}
		for i < n && path[i] == '[' {
			inner, rest, err := balanced(path[i:], '[', ']')
			if err != nil {
				return nil, fmt.Errorf("path %q: %w", path, err)
			}
			seg.indexes = append(seg.indexes, strings.TrimSpace(inner))
			i = n - len(rest)
		}
		if seg.name == "" && !seg.call && len(seg.indexes) == 0 {
			return nil, fmt.Errorf("path %q: empty element at offset %d", path, start)
		}
		segs = append(segs, seg)
		if i < n {
			if path[i] != '.' {
				return nil, fmt.Errorf("path %q: unexpected %q at offset %d", path, path[i], i)
			}
			i++
		}
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("empty property path")
	}
	return segs, nil
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// balanced consumes a bracketed region starting at s[0] (which must be
// open) and returns the inner text and the unconsumed remainder.
// Nested brackets of either kind and quoted strings are respected.
func balanced(s string, open, close byte) (inner, rest string, err error) {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote && (i == 0 || s[i-1] != '\\') {
				quote = 0
			}
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
				if c != close {
					return "", "", fmt.Errorf("mismatched %q, expected %q", c, close)
				}
				return s[1:i], s[i+1:], nil
			}
		}
	}
	return "", "", fmt.Errorf("unterminated %q", open)
}

// splitTopLevel splits s on sep occurrences outside any bracket or
// quote nesting. Empty input yields no parts.
func splitTopLevel(s string, sep byte) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote && s[i-1] != '\\' {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		default:
			if c == sep && depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts
}
