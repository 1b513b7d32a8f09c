package optimizer

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/szaher/exlang/internal/scope"
)

// reflectiveOptimizer is the safe tier: accessors resolve through
// reflection on every call, so they are always correct for any shape
// and never report a type mismatch.
type reflectiveOptimizer struct {
	result any
	egress reflect.Type
}

func newReflectiveOptimizer() *reflectiveOptimizer {
	return &reflectiveOptimizer{}
}

func (o *reflectiveOptimizer) OptimizeAccessor(expr string, root, this any, sc scope.Scope, storeResult bool) (Accessor, error) {
	v, err := Get(expr, root, sc, this)
	if err != nil {
		return nil, err
	}
	if storeResult {
		o.result = v
	}
	o.egress = reflect.TypeOf(v)
	return &reflectiveAccessor{path: expr}, nil
}

func (o *reflectiveOptimizer) OptimizeObjectCreation(expr string, root, this any, sc scope.Scope) (Accessor, error) {
	acc, err := parseConstruction(expr)
	if err != nil {
		return nil, err
	}
	v, err := acc.Get(root, this, sc)
	if err != nil {
		return nil, err
	}
	o.result = v
	o.egress = reflect.TypeOf(v)
	return acc, nil
}

func (o *reflectiveOptimizer) OptimizeCollection(expr string, root, this any, sc scope.Scope) (Accessor, error) {
	acc, err := parseInlineCollection(expr)
	if err != nil {
		return nil, err
	}
	v, err := acc.Get(root, this, sc)
	if err != nil {
		return nil, err
	}
	o.result = v
	o.egress = reflect.TypeOf(v)
	return acc, nil
}

func (o *reflectiveOptimizer) OptimizeFold(expr string, root, this any, sc scope.Scope) (Accessor, error) {
	acc, err := parseFold(expr)
	if err != nil {
		return nil, err
	}
	v, err := acc.Get(root, this, sc)
	if err != nil {
		return nil, err
	}
	o.result = v
	o.egress = reflect.TypeOf(v)
	return acc, nil
}

func (o *reflectiveOptimizer) Result() any { return o.result }

func (o *reflectiveOptimizer) EgressType() reflect.Type { return o.egress }

// reflectiveAccessor re-resolves its path on every call.
type reflectiveAccessor struct {
	path string
}

func (a *reflectiveAccessor) Get(root, this any, sc scope.Scope) (any, error) {
	return Get(a.path, root, sc, this)
}

func (a *reflectiveAccessor) Set(root, this any, sc scope.Scope, value any) (any, error) {
	return Set(a.path, root, sc, this, value)
}

// foldAccessor evaluates a "(projection in collection)" expression:
// the collection expression is resolved once per call, then the
// projection is resolved with each element as the context.
type foldAccessor struct {
	projection string
	collection string
}

// parseFold splits "(proj in coll)" at the top-level "in" keyword.
func parseFold(expr string) (*foldAccessor, error) {
	s := strings.TrimSpace(expr)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		inner, rest, err := balanced(s, '(', ')')
		if err == nil && strings.TrimSpace(rest) == "" {
			s = strings.TrimSpace(inner)
		}
	}
	depth := 0
	for i := 0; i+4 <= len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ' ':
			if depth == 0 && strings.HasPrefix(s[i:], " in ") {
				proj := strings.TrimSpace(s[:i])
				coll := strings.TrimSpace(s[i+4:])
				if proj == "" || coll == "" {
					return nil, fmt.Errorf("malformed fold expression %q", expr)
				}
				return &foldAccessor{projection: proj, collection: coll}, nil
			}
		}
	}
	return nil, fmt.Errorf("malformed fold expression %q", expr)
}

func (a *foldAccessor) Get(root, this any, sc scope.Scope) (any, error) {
	coll, err := Get(a.collection, root, sc, this)
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(coll)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Errorf("fold over nil collection %q", a.collection)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("fold target %q is %T, not a collection", a.collection, coll)
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		v, err := Get(a.projection, rv.Index(i).Interface(), sc, this)
		if err != nil {
			return nil, fmt.Errorf("fold element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (a *foldAccessor) Set(root, this any, sc scope.Scope, value any) (any, error) {
	return nil, fmt.Errorf("cannot assign to fold expression")
}

// collectionAccessor rebuilds an inline list or map literal per call.
type collectionAccessor struct {
	list  bool
	elems []string
	keys  []string
	vals  []string
}

func parseInlineCollection(expr string) (*collectionAccessor, error) {
	s := strings.TrimSpace(expr)
	if len(s) < 2 {
		return nil, fmt.Errorf("malformed inline collection %q", expr)
	}
	switch s[0] {
	case '[':
		inner, rest, err := balanced(s, '[', ']')
		if err != nil || strings.TrimSpace(rest) != "" {
			return nil, fmt.Errorf("malformed inline list %q", expr)
		}
		return &collectionAccessor{list: true, elems: splitTopLevel(inner, ',')}, nil
	case '{':
		inner, rest, err := balanced(s, '{', '}')
		if err != nil || strings.TrimSpace(rest) != "" {
			return nil, fmt.Errorf("malformed inline map %q", expr)
		}
		acc := &collectionAccessor{}
		for _, pair := range splitTopLevel(inner, ',') {
			kv := splitTopLevel(pair, ':')
			if len(kv) != 2 {
				return nil, fmt.Errorf("malformed map entry %q in %q", pair, expr)
			}
			acc.keys = append(acc.keys, kv[0])
			acc.vals = append(acc.vals, kv[1])
		}
		return acc, nil
	}
	return nil, fmt.Errorf("malformed inline collection %q", expr)
}

func (a *collectionAccessor) Get(root, this any, sc scope.Scope) (any, error) {
	r := &propResolver{sc: sc, this: this, root: root}
	if a.list {
		out := make([]any, len(a.elems))
		for i, e := range a.elems {
			v, err := r.operand(e)
			if err != nil {
				return nil, fmt.Errorf("list element %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	}
	out := make(map[any]any, len(a.keys))
	for i := range a.keys {
		k, err := r.operand(a.keys[i])
		if err != nil {
			return nil, fmt.Errorf("map key %q: %w", a.keys[i], err)
		}
		v, err := r.operand(a.vals[i])
		if err != nil {
			return nil, fmt.Errorf("map value for %q: %w", a.keys[i], err)
		}
		out[k] = v
	}
	return out, nil
}

func (a *collectionAccessor) Set(root, this any, sc scope.Scope, value any) (any, error) {
	return nil, fmt.Errorf("cannot assign to inline collection")
}

// constructorAccessor builds a value from a "new Type(args)" token.
// The type name resolves through the static registry to a
// reflect.Type or a constructor function.
type constructorAccessor struct {
	typeName string
	args     []string
}

func parseConstruction(expr string) (*constructorAccessor, error) {
	s := strings.TrimSpace(expr)
	s = strings.TrimPrefix(s, "new ")
	s = strings.TrimSpace(s)
	name := s
	var args []string
	if i := strings.IndexByte(s, '('); i >= 0 {
		inner, rest, err := balanced(s[i:], '(', ')')
		if err != nil || strings.TrimSpace(rest) != "" {
			return nil, fmt.Errorf("malformed construction %q", expr)
		}
		name = strings.TrimSpace(s[:i])
		args = splitTopLevel(inner, ',')
	}
	if name == "" {
		return nil, fmt.Errorf("malformed construction %q", expr)
	}
	return &constructorAccessor{typeName: name, args: args}, nil
}

func (a *constructorAccessor) Get(root, this any, sc scope.Scope) (any, error) {
	target, ok := LookupStatic(a.typeName)
	if !ok {
		if v, found := scope.Value(sc, a.typeName); found {
			target = v
		} else {
			return nil, fmt.Errorf("unknown type %q", a.typeName)
		}
	}

	r := &propResolver{sc: sc, this: this, root: root}
	args := make([]any, len(a.args))
	for i, raw := range a.args {
		v, err := r.operand(raw)
		if err != nil {
			return nil, fmt.Errorf("constructor argument %d: %w", i, err)
		}
		args[i] = v
	}

	switch t := target.(type) {
	case reflect.Type:
		if len(args) > 0 {
			return nil, fmt.Errorf("type %q takes no constructor arguments", a.typeName)
		}
		if t.Kind() == reflect.Struct {
			return reflect.New(t).Interface(), nil
		}
		return reflect.Zero(t).Interface(), nil
	default:
		if reflect.ValueOf(target).Kind() == reflect.Func {
			return callValue(target, args)
		}
	}
	return nil, fmt.Errorf("%q is not constructible", a.typeName)
}

func (a *constructorAccessor) Set(root, this any, sc scope.Scope, value any) (any, error) {
	return nil, fmt.Errorf("cannot assign to constructor expression")
}
