package ast

import (
	"errors"

	"github.com/szaher/exlang/internal/optimizer"
	"github.com/szaher/exlang/internal/scope"
)

// ResolveAccelerated resolves the token through its installed
// accessor, binding one on first use. A type-mismatch failure demotes
// the node to the safe tier exactly once; a recurring mismatch after
// that fallback is fatal and propagated unchanged.
func (n *Node) ResolveAccelerated(root, this any, sc scope.Scope) (any, error) {
	if n.is(Literal) {
		return n.literalValue(this), nil
	}
	if acc := n.loadAccessor(); acc != nil {
		v, err := acc.Get(root, this, sc)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, optimizer.ErrTypeMismatch) {
			return nil, err
		}
		return n.demoteAndRetry(acc, root, this, sc, err)
	}

	n.mu.Lock()
	if acc := n.loadAccessor(); acc != nil {
		// Another caller bound while we waited for the lock. Its
		// accessor gets the same mismatch handling as a cached one.
		n.mu.Unlock()
		v, err := acc.Get(root, this, sc)
		if err == nil || !errors.Is(err, optimizer.ErrTypeMismatch) {
			return v, err
		}
		return n.demoteAndRetry(acc, root, this, sc, err)
	}
	defer n.mu.Unlock()
	return n.bindLocked(root, this, sc)
}

// demoteAndRetry serializes the fallback after a type mismatch from
// failing. Exactly one caller performs the rebind; the others retry
// against whatever accessor that rebind installed.
func (n *Node) demoteAndRetry(failing optimizer.Accessor, root, this any, sc scope.Scope, cause error) (any, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if cur := n.loadAccessor(); cur != nil && cur != failing {
		return cur.Get(root, this, sc)
	}

	if n.is(NoSpecialize) {
		// The one-shot fallback has already run (or the node was
		// pinned to the safe tier): a mismatch here is unrecoverable.
		return nil, cause
	}

	n.storeAccessor(nil)
	n.setFlags(Deoptimized | NoSpecialize)
	return n.bindLocked(root, this, sc)
}

// bindLocked performs the UNBOUND transition: choose a tier, ask the
// factory for an accessor, install it, and return the optimization
// pass's result. Caller holds n.mu.
func (n *Node) bindLocked(root, this any, sc scope.Scope) (any, error) {
	n.clearFlags(Deoptimized)

	if n.is(Fold) {
		opt := optimizer.ForTier(optimizer.TierSafe)
		acc, err := opt.OptimizeFold(n.Name(), root, this, sc)
		if err != nil {
			return nil, &UnresolvablePropertyError{Name: n.Name(), Err: err}
		}
		n.storeAccessor(acc)
		n.safeAccessor = acc
		return opt.Result(), nil
	}

	if n.is(InlineCollection) {
		tier := optimizer.DefaultTier()
		opt := optimizer.ForTier(tier)
		acc, err := opt.OptimizeCollection(n.Name(), root, this, sc)
		if err != nil && errors.Is(err, optimizer.ErrNotSupported) {
			tier = optimizer.TierSafe
			opt = optimizer.ForTier(tier)
			acc, err = opt.OptimizeCollection(n.Name(), root, this, sc)
		}
		if err != nil {
			return nil, &UnresolvablePropertyError{Name: n.Name(), Err: err}
		}
		n.storeAccessor(acc)
		if tier == optimizer.TierSafe {
			n.safeAccessor = acc
		}
		if n.egressType == nil {
			n.egressType = opt.EgressType()
		}
		return opt.Result(), nil
	}

	// A demoted node rebinds on its retained safe accessor without
	// recompiling.
	if n.is(NoSpecialize) && n.safeAccessor != nil {
		n.storeAccessor(n.safeAccessor)
		return n.safeAccessor.Get(root, this, sc)
	}

	tier := optimizer.DefaultTier()
	if n.is(NoSpecialize) {
		tier = optimizer.TierSafe
	}

	opt := optimizer.ForTier(tier)
	acc, err := opt.OptimizeAccessor(n.Name(), root, this, sc, true)
	if err != nil && errors.Is(err, optimizer.ErrNotSupported) {
		// The chosen tier rejected this shape; retry once, forced safe.
		tier = optimizer.TierSafe
		opt = optimizer.ForTier(tier)
		acc, err = opt.OptimizeAccessor(n.Name(), root, this, sc, true)
	}
	if err != nil {
		return nil, &UnresolvablePropertyError{Name: n.Name(), Err: err}
	}
	if acc == nil {
		return nil, &OptimizationFailure{Name: n.Name(), Err: errors.New("optimizer produced no accessor")}
	}

	n.storeAccessor(acc)
	if tier == optimizer.TierSafe {
		n.safeAccessor = acc
	}
	if n.egressType == nil {
		n.egressType = opt.EgressType()
	}
	return opt.Result(), nil
}
