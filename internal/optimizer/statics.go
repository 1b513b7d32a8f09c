package optimizer

import "sync"

// Static-name registry. Go has no classloader, so fully-qualified
// static references ("pkg.Type.Member" shaped tokens) resolve through
// an explicit table the embedding application populates. A registered
// value's members are then traversed with the ordinary property
// protocol, so maps, structs, and values with methods all work as
// static namespaces.

var (
	staticMu  sync.RWMutex
	staticReg = map[string]any{}
)

// RegisterStatic binds a dotted name to a namespace value. Probing an
// unregistered name is not an error; static resolution is exploratory.
func RegisterStatic(name string, value any) {
	staticMu.Lock()
	staticReg[name] = value
	staticMu.Unlock()
}

// UnregisterStatic removes a binding. Intended for tests.
func UnregisterStatic(name string) {
	staticMu.Lock()
	delete(staticReg, name)
	staticMu.Unlock()
}

// LookupStatic returns the namespace value bound to name.
func LookupStatic(name string) (any, bool) {
	staticMu.RLock()
	v, ok := staticReg[name]
	staticMu.RUnlock()
	return v, ok
}
