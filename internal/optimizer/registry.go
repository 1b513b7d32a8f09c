package optimizer

import (
	"fmt"
	"sync"
)

// Tier names for the built-in optimizers. Additional tiers (the
// dynamic, heat-tracking tier) register themselves on startup.
const (
	TierSafe        = "safe"
	TierSpecialized = "specialized"
)

var (
	tierMu      sync.RWMutex
	tiers       = map[string]func() Optimizer{}
	defaultTier = TierSafe
)

func init() {
	Register(TierSafe, func() Optimizer { return newReflectiveOptimizer() })
	Register(TierSpecialized, func() Optimizer { return newSpecializedOptimizer() })
}

// Register installs a tier factory under name, replacing any previous
// registration.
func Register(name string, factory func() Optimizer) {
	tierMu.Lock()
	tiers[name] = factory
	tierMu.Unlock()
}

// ForTier returns a fresh Optimizer for the named tier. Unknown tiers
// are a configuration error and panic.
func ForTier(name string) Optimizer {
	tierMu.RLock()
	factory, ok := tiers[name]
	tierMu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("optimizer: unknown tier %q", name))
	}
	return factory()
}

// SetDefaultTier selects the tier used when no explicit tier is
// requested. Not safe to call concurrently with active evaluation.
func SetDefaultTier(name string) {
	tierMu.Lock()
	defer tierMu.Unlock()
	if _, ok := tiers[name]; !ok {
		panic(fmt.Sprintf("optimizer: unknown tier %q", name))
	}
	defaultTier = name
}

// DefaultTier returns the currently selected default tier name.
func DefaultTier() string {
	tierMu.RLock()
	defer tierMu.RUnlock()
	return defaultTier
}

// Default returns a fresh Optimizer for the default tier.
func Default() Optimizer {
	return ForTier(DefaultTier())
}
