package ast

// OpCode identifies a reserved operator token.
type OpCode int

const (
	OpNoop OpCode = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPower
	OpEqual
	OpNotEqual
	OpGreater
	OpGreaterEq
	OpLess
	OpLessEq
	OpAnd
	OpOr
	OpNot
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShiftLeft
	OpShiftRight
	OpInvert
	OpAssignEq
	OpIn
	OpContains
	OpInstanceOf
	OpTernary
	OpTernaryElse
)

var operatorNames = map[OpCode]string{
	OpNoop:        "noop",
	OpAdd:         "+",
	OpSub:         "-",
	OpMul:         "*",
	OpDiv:         "/",
	OpMod:         "%",
	OpPower:       "**",
	OpEqual:       "==",
	OpNotEqual:    "!=",
	OpGreater:     ">",
	OpGreaterEq:   ">=",
	OpLess:        "<",
	OpLessEq:      "<=",
	OpAnd:         "&&",
	OpOr:          "||",
	OpNot:         "!",
	OpBitAnd:      "&",
	OpBitOr:       "|",
	OpBitXor:      "^",
	OpShiftLeft:   "<<",
	OpShiftRight:  ">>",
	OpInvert:      "~",
	OpAssignEq:    "=",
	OpIn:          "in",
	OpContains:    "contains",
	OpInstanceOf:  "instanceof",
	OpTernary:     "?",
	OpTernaryElse: ":",
}

func (op OpCode) String() string {
	if s, ok := operatorNames[op]; ok {
		return s
	}
	return "unknown"
}

// operators is the reserved operator table consulted during
// classification.
var operators = map[string]OpCode{}

func init() {
	for op, s := range operatorNames {
		if op == OpNoop {
			continue
		}
		operators[s] = op
	}
	operators["and"] = OpAnd
	operators["or"] = OpOr
	operators["mod"] = OpMod
}

// thisLiteral marks the reserved "this" token; resolution substitutes
// the call's this-context for it.
type thisLiteral struct{}

// ThisMarker is the singleton value cached for "this" tokens.
var ThisMarker = thisLiteral{}

// literals is the reserved literal table consulted during
// classification.
var literals = map[string]any{
	"true":  true,
	"false": false,
	"nil":   nil,
	"null":  nil,
	"empty": "",
	"this":  ThisMarker,
}

// LookupLiteral reports whether name is a reserved literal and returns
// its value.
func LookupLiteral(name string) (any, bool) {
	v, ok := literals[name]
	return v, ok
}
