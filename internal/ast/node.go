// Package ast implements the expression node: per-token
// classification, the canonical resolution protocol, and the
// accelerated (tier-compiled) resolution path with its one-shot
// deoptimization guard.
package ast

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/szaher/exlang/internal/optimizer"
)

// Classification flags. Literal through StringLiteral describe what
// the raw token is; NoSpecialize pins a node to the safe tier;
// Deoptimized is transient, set while a node falls back after a type
// mismatch.
const (
	Literal uint32 = 1 << iota
	DeepProperty
	Operator
	Identifier
	Numeric
	Negation
	Invert
	Fold
	Method
	Assign
	Collection
	ThisRef
	InlineCollection
	StringLiteral
	Integer32
	NoSpecialize
	Deoptimized
)

type installed struct {
	acc optimizer.Accessor
}

// Node is a single classified expression token and its evaluation
// state. Classification happens exactly once, in NewNode. The
// accessor, once installed, is replaced atomically and never shared
// between nodes; flag updates after publication (literal
// reclassification, deoptimization) go through the atomic bitset so
// concurrent evaluators always observe a consistent state.
type Node struct {
	flags atomic.Uint32

	name      []byte
	nameCache string

	literal     any
	intRegister int32

	egressType reflect.Type

	firstUnion int
	endOfName  int

	accessor     atomic.Pointer[installed]
	safeAccessor optimizer.Accessor

	// mu serializes strategy install (bind, promotion, demotion) and
	// post-classification literal caching.
	mu sync.Mutex

	// Next links to the following node in a statement sequence. The
	// sequence owns its nodes; this is a traversal pointer only.
	Next *Node
}

// NewNode classifies raw and returns the node. hints carries flags the
// parser already knows (Method, InlineCollection, Invert, Negation,
// Assign, Fold, NoSpecialize, StringLiteral).
func NewNode(raw []byte, hints uint32) (*Node, error) {
	n := &Node{
		firstUnion: -1,
		endOfName:  -1,
	}
	n.flags.Store(hints)
	if err := n.classify(raw); err != nil {
		return nil, err
	}
	return n, nil
}

// MustNode is NewNode for tokens known to classify cleanly.
func MustNode(raw string, hints uint32) *Node {
	n, err := NewNode([]byte(raw), hints)
	if err != nil {
		panic(err)
	}
	return n
}

func (n *Node) is(f uint32) bool    { return n.flags.Load()&f != 0 }
func (n *Node) setFlags(f uint32) {
	for {
		old := n.flags.Load()
		if n.flags.CompareAndSwap(old, old|f) {
			return
		}
	}
}

func (n *Node) clearFlags(f uint32) {
	for {
		old := n.flags.Load()
		if n.flags.CompareAndSwap(old, old&^f) {
			return
		}
	}
}

// Name returns the token text.
func (n *Node) Name() string { return n.nameCache }

// Flags returns the classification bitset.
func (n *Node) Flags() uint32 { return n.flags.Load() }

func (n *Node) IsLiteral() bool      { return n.is(Literal) }
func (n *Node) IsIdentifier() bool   { return n.is(Identifier) }
func (n *Node) IsOperator() bool     { return n.is(Operator) }
func (n *Node) IsDeepProperty() bool { return n.is(DeepProperty) }
func (n *Node) IsCollection() bool   { return n.is(Collection) }
func (n *Node) IsAssignment() bool   { return n.is(Assign) }
func (n *Node) IsThisRef() bool      { return n.is(ThisRef) }
func (n *Node) IsFold() bool         { return n.is(Fold) }

// LiteralValue returns the cached literal; meaningful only when
// IsLiteral reports true.
func (n *Node) LiteralValue() any {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.literal
}

// OperatorValue returns the operator token; meaningful only when
// IsOperator reports true.
func (n *Node) OperatorValue() (OpCode, bool) {
	op, ok := n.literal.(OpCode)
	return op, ok
}

// IntRegister returns the fast integer register; meaningful only when
// the Integer32 flag is set.
func (n *Node) IntRegister() int32 { return n.intRegister }

// EgressType returns the inferred static result type, or nil before
// any strategy has executed.
func (n *Node) EgressType() reflect.Type {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.egressType
}

// SetAsLiteral caches v as the node's literal value and reclassifies
// the node, permanently: subsequent resolutions return v directly.
func (n *Node) SetAsLiteral(v any) {
	n.mu.Lock()
	n.literal = v
	n.mu.Unlock()
	n.setFlags(Literal)
}

// absoluteFirstPart is the offset ending the root element of the
// token: the earlier of the first '.' and the first '['.
func (n *Node) absoluteFirstPart() int {
	if n.is(Collection) {
		if n.firstUnion < 0 || n.endOfName < n.firstUnion {
			return n.endOfName
		}
		return n.firstUnion
	}
	if n.is(DeepProperty) {
		return n.firstUnion
	}
	return -1
}

// AbsoluteRootName returns the token text up to the first path
// separator or index opener, or the whole token when neither applies.
func (n *Node) AbsoluteRootName() string {
	if n.is(Collection | DeepProperty) {
		return string(n.name[:n.absoluteFirstPart()])
	}
	return n.Name()
}

// AbsoluteRemainder returns the token text after the root element:
// from the index opener for collection tokens, or after the first '.'
// for deep properties. Empty otherwise.
func (n *Node) AbsoluteRemainder() string {
	if n.is(Collection) {
		return string(n.name[n.endOfName:])
	}
	if n.is(DeepProperty) {
		return string(n.name[n.firstUnion+1:])
	}
	return ""
}

func (n *Node) loadAccessor() optimizer.Accessor {
	if in := n.accessor.Load(); in != nil {
		return in.acc
	}
	return nil
}

func (n *Node) storeAccessor(acc optimizer.Accessor) {
	if acc == nil {
		n.accessor.Store(nil)
		return
	}
	n.accessor.Store(&installed{acc: acc})
}

// Accessor returns the currently installed strategy, if any.
func (n *Node) Accessor() optimizer.Accessor { return n.loadAccessor() }
