package ast

import (
	"bytes"

	"github.com/szaher/exlang/internal/optimizer"
	"github.com/szaher/exlang/internal/scope"
)

// Resolve produces the token's value without any cached accessor.
// This is the reference semantics the accelerated path must reproduce.
func (n *Node) Resolve(root, this any, sc scope.Scope) (any, error) {
	if n.is(Literal) {
		return n.literalValue(this), nil
	}
	if n.is(Fold) {
		// Fold expressions always compile through the safe tier and
		// are never cached as plain literals.
		opt := optimizer.ForTier(optimizer.TierSafe)
		if _, err := opt.OptimizeFold(n.Name(), root, this, sc); err != nil {
			return nil, &UnresolvablePropertyError{Name: n.Name(), Err: err}
		}
		return opt.Result(), nil
	}
	if n.is(InlineCollection) {
		opt := optimizer.ForTier(optimizer.TierSafe)
		if _, err := opt.OptimizeCollection(n.Name(), root, this, sc); err != nil {
			return nil, &UnresolvablePropertyError{Name: n.Name(), Err: err}
		}
		return opt.Result(), nil
	}

	if n.is(DeepProperty) {
		return n.resolveDeep(root, this, sc)
	}
	return n.resolvePlain(root, this, sc)
}

func (n *Node) literalValue(this any) any {
	if n.is(ThisRef) {
		if _, ok := n.literal.(thisLiteral); ok {
			return this
		}
	}
	return n.LiteralValue()
}

// resolveDeep handles dotted tokens: the root element resolves against
// the reserved-literal table, then the scope, then the root context,
// with a static-path last resort that permanently reclassifies the
// node as a literal.
func (n *Node) resolveDeep(root, this any, sc scope.Scope) (any, error) {
	rootName := n.AbsoluteRootName()

	if lit, ok := literals[rootName]; ok {
		base := lit
		if _, isThis := lit.(thisLiteral); isThis {
			base = this
		}
		v, err := optimizer.Get(n.AbsoluteRemainder(), base, sc, this)
		if err != nil {
			return nil, &UnresolvablePropertyError{Name: n.Name(), Err: err}
		}
		return v, nil
	}

	if sc != nil && sc.IsResolvable(rootName) {
		v, err := optimizer.Get(n.Name(), root, sc, this)
		if err != nil {
			return nil, &UnresolvablePropertyError{Name: n.Name(), Err: err}
		}
		return v, nil
	}

	if root != nil {
		v, err := optimizer.Get(n.Name(), root, sc, this)
		if err == nil {
			return v, nil
		}
		if lit, ok := n.tryStaticAccess(this, sc); ok {
			n.SetAsLiteral(lit)
			return lit, nil
		}
		return nil, &UnresolvablePropertyError{Name: n.Name(), Err: err}
	}

	if lit, ok := n.tryStaticAccess(this, sc); ok {
		n.SetAsLiteral(lit)
		return lit, nil
	}
	return nil, &UnresolvablePropertyError{Name: n.Name()}
}

// resolvePlain handles undotted tokens: scope first, then the root
// context, then the callable-handle synthesis for call tokens, then
// the static last resort.
func (n *Node) resolvePlain(root, this any, sc scope.Scope) (any, error) {
	name := n.AbsoluteRootName()

	if sc != nil && sc.IsResolvable(name) {
		base, _ := scope.Value(sc, name)
		if n.is(Collection) {
			v, err := optimizer.Get(n.AbsoluteRemainder(), base, sc, this)
			if err != nil {
				return nil, &UnresolvablePropertyError{Name: n.Name(), Err: err}
			}
			return v, nil
		}
		return base, nil
	}

	if root != nil {
		v, err := optimizer.Get(n.Name(), root, sc, this)
		if err != nil {
			// Wrapped, never silently swallowed.
			return nil, &UnresolvablePropertyError{Name: n.Name(), Err: err}
		}
		return v, nil
	}

	if n.is(Operator) {
		return nil, &CompileError{Msg: "incomplete statement", Expr: n.Name()}
	}

	if v, handled, err := n.resolveCallable(this, sc); handled {
		if err != nil {
			return nil, err
		}
		return v, nil
	}

	if lit, ok := n.tryStaticAccess(this, sc); ok {
		n.SetAsLiteral(lit)
		return lit, nil
	}
	return nil, &CompileError{Msg: "cannot resolve identifier", Expr: n.Name()}
}

// resolveCallable handles a call token whose prefix names a stored
// callable: the call is re-synthesized under the callable's declared
// name against its declaring receiver or scope.
func (n *Node) resolveCallable(this any, sc scope.Scope) (any, bool, error) {
	mBegin := bytes.IndexByte(n.name, '(')
	if mBegin == -1 || sc == nil {
		return nil, false, nil
	}
	v, ok := scope.Value(sc, string(n.name[:mBegin]))
	if !ok {
		return nil, false, nil
	}
	suffix := string(n.name[mBegin:])

	var (
		path string
		base any
	)
	switch h := v.(type) {
	case scope.MethodHandle:
		path, base = h.Name+suffix, h.Recv
	case *scope.MethodHandle:
		path, base = h.Name+suffix, h.Recv
	case scope.FuncHandle:
		path, base = h.Name+suffix, nil
	case *scope.FuncHandle:
		path, base = h.Name+suffix, nil
	default:
		return nil, false, nil
	}

	out, err := optimizer.Get(path, base, sc, this)
	if err != nil {
		return nil, true, &UnresolvablePropertyError{Name: n.Name(), Err: err}
	}
	return out, true, nil
}
