package optimizer

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/szaher/exlang/internal/scope"
)

// The specialized tier bakes the concrete runtime shapes observed at
// compile time into a step plan: struct fields become index lookups,
// map reads carry a pre-built key, methods are resolved to method
// indexes. Every step guards its baked input type and reports
// ErrTypeMismatch when a later call presents a different shape.
//
// Plans are immutable and shared: concurrent compilations of the same
// (root type, path) pair are deduplicated through singleflight and the
// resulting plan is cached process-wide.

var (
	planCache sync.Map
	planGroup singleflight.Group
	planCount atomic.Int64
)

// maxCachedPlans bounds the process-wide plan cache. Hitting the bound
// dumps the cache wholesale, the same recovery the tenure limit applies
// to resident accessors; hot paths recompile on their next use.
const maxCachedPlans = 512

func storePlan(key string, plan *specPlan) {
	if planCount.Add(1) > maxCachedPlans {
		planCache.Range(func(k, _ any) bool {
			planCache.Delete(k)
			return true
		})
		planCount.Store(1)
	}
	planCache.Store(key, plan)
}

type specializedOptimizer struct {
	result any
	egress reflect.Type
}

func newSpecializedOptimizer() *specializedOptimizer {
	return &specializedOptimizer{}
}

func (o *specializedOptimizer) OptimizeAccessor(expr string, root, this any, sc scope.Scope, storeResult bool) (Accessor, error) {
	plan, err := planFor(expr, root, this, sc)
	if err != nil {
		return nil, err
	}
	acc := &specializedAccessor{path: expr, plan: plan}
	v, err := acc.Get(root, this, sc)
	if err != nil {
		return nil, err
	}
	if storeResult {
		o.result = v
	}
	o.egress = reflect.TypeOf(v)
	return acc, nil
}

// Object construction and inline collections carry no per-call shape
// assumption worth baking; the specialized tier declines them and the
// caller retries on the safe tier.
func (o *specializedOptimizer) OptimizeObjectCreation(expr string, root, this any, sc scope.Scope) (Accessor, error) {
	return nil, ErrNotSupported
}

func (o *specializedOptimizer) OptimizeCollection(expr string, root, this any, sc scope.Scope) (Accessor, error) {
	return nil, ErrNotSupported
}

func (o *specializedOptimizer) OptimizeFold(expr string, root, this any, sc scope.Scope) (Accessor, error) {
	fold, err := parseFold(expr)
	if err != nil {
		return nil, err
	}
	coll, err := Get(fold.collection, root, sc, this)
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(coll)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, ErrNotSupported
		}
		rv = rv.Elem()
	}
	if (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || rv.Len() == 0 {
		return nil, ErrNotSupported
	}
	elemPlan, err := planFor(fold.projection, rv.Index(0).Interface(), this, nil)
	if err != nil {
		return nil, err
	}
	acc := &specializedFoldAccessor{fold: fold, elemPlan: elemPlan}
	v, err := acc.Get(root, this, sc)
	if err != nil {
		return nil, err
	}
	o.result = v
	o.egress = reflect.TypeOf(v)
	return acc, nil
}

func (o *specializedOptimizer) Result() any { return o.result }

func (o *specializedOptimizer) EgressType() reflect.Type { return o.egress }

// specStep is one baked access in a plan. Implementations verify the
// incoming value against the shape they were compiled for.
type specStep interface {
	get(cur reflect.Value, r *propResolver, first bool) (reflect.Value, error)
}

type specPlan struct {
	steps []specStep
}

func planKey(expr string, root any) string {
	var b strings.Builder
	if t := reflect.TypeOf(root); t != nil {
		b.WriteString(t.String())
	} else {
		b.WriteString("<nil>")
	}
	b.WriteByte('|')
	b.WriteString(expr)
	return b.String()
}

// planFor compiles (or returns a cached) plan for expr against the
// sample root's concrete shape.
func planFor(expr string, root, this any, sc scope.Scope) (*specPlan, error) {
	key := planKey(expr, root)
	if p, ok := planCache.Load(key); ok {
		return p.(*specPlan), nil
	}
	p, err, _ := planGroup.Do(key, func() (any, error) {
		if p, ok := planCache.Load(key); ok {
			return p, nil
		}
		plan, err := compilePlan(expr, root, this, sc)
		if err != nil {
			return nil, err
		}
		storePlan(key, plan)
		return plan, nil
	})
	if err != nil {
		return nil, err
	}
	return p.(*specPlan), nil
}

func compilePlan(expr string, root, this any, sc scope.Scope) (*specPlan, error) {
	segs, err := parsePath(expr)
	if err != nil {
		return nil, err
	}
	plan := &specPlan{}
	r := &propResolver{sc: sc, this: this, root: root}

	cur := root
	for i, seg := range segs {
		first := i == 0
		var step specStep
		var next any

		switch {
		case seg.call:
			// Call arguments cannot be baked: they may read the scope.
			// The method itself is resolved to a baked method name on
			// the receiver's concrete type.
			next, err = r.invoke(seg, cur, first)
			if err != nil {
				return nil, ErrNotSupported
			}
			if first {
				if _, ok := scope.Value(sc, seg.name); ok {
					step = &scopeCallStep{seg: seg}
					break
				}
			}
			t := reflect.TypeOf(cur)
			if t == nil {
				return nil, ErrNotSupported
			}
			name, ok := bakedMethodName(reflect.ValueOf(cur), seg.name)
			if !ok {
				return nil, ErrNotSupported
			}
			step = &methodStep{typ: t, name: name, seg: seg}
		case first && seg.name == "this":
			next = this
			step = thisStep{}
		case first && resolvableIn(sc, seg.name):
			next, _ = scope.Value(sc, seg.name)
			step = &scopeStep{name: seg.name}
		default:
			var s specStep
			s, next, err = compilePropertyStep(seg.name, cur)
			if err != nil {
				return nil, err
			}
			step = s
		}
		plan.steps = append(plan.steps, step)

		for _, idx := range seg.indexes {
			t := reflect.TypeOf(next)
			if t == nil {
				return nil, ErrNotSupported
			}
			next, err = r.index(next, idx)
			if err != nil {
				return nil, ErrNotSupported
			}
			plan.steps = append(plan.steps, &indexStep{typ: t, expr: idx})
		}
		cur = next
	}
	return plan, nil
}

func resolvableIn(sc scope.Scope, name string) bool {
	return sc != nil && sc.IsResolvable(name)
}

// compilePropertyStep bakes a single property read against the sample
// value's concrete type.
func compilePropertyStep(name string, sample any) (specStep, any, error) {
	if sample == nil {
		return nil, nil, ErrNotSupported
	}
	typ := reflect.TypeOf(sample)
	rv := reflect.ValueOf(sample)
	derefs := 0
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil, ErrNotSupported
		}
		rv = rv.Elem()
		derefs++
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, nil, ErrNotSupported
		}
		key := reflect.ValueOf(name).Convert(rv.Type().Key())
		out := rv.MapIndex(key)
		if !out.IsValid() {
			return nil, nil, fmt.Errorf("unable to resolve property %q against %T", name, sample)
		}
		return &mapStep{typ: typ, derefs: derefs, key: key}, out.Interface(), nil
	case reflect.Struct:
		for _, n := range []string{name, exportedName(name)} {
			if f, ok := rv.Type().FieldByName(n); ok && f.IsExported() {
				return &fieldStep{typ: typ, derefs: derefs, index: f.Index},
					rv.FieldByIndex(f.Index).Interface(), nil
			}
		}
	}

	if m, ok := findMethod(reflect.ValueOf(sample), name); ok && m.Type().NumIn() == 0 {
		baked, _ := bakedMethodName(reflect.ValueOf(sample), name)
		out, err := callReflected(m, nil)
		if err != nil {
			return nil, nil, err
		}
		return &getterStep{typ: typ, name: baked}, out, nil
	}
	return nil, nil, fmt.Errorf("unable to resolve property %q against %T", name, sample)
}

func bakedMethodName(v reflect.Value, name string) (string, bool) {
	for _, n := range []string{name, exportedName(name)} {
		if v.MethodByName(n).IsValid() {
			return n, true
		}
	}
	return "", false
}

// guard verifies the incoming concrete type against the baked one.
func guard(cur reflect.Value, want reflect.Type) (reflect.Value, error) {
	if !cur.IsValid() || cur.Type() != want {
		return reflect.Value{}, ErrTypeMismatch
	}
	return cur, nil
}

type thisStep struct{}

func (thisStep) get(_ reflect.Value, r *propResolver, _ bool) (reflect.Value, error) {
	return reflect.ValueOf(r.this), nil
}

type scopeStep struct {
	name string
}

func (s *scopeStep) get(_ reflect.Value, r *propResolver, _ bool) (reflect.Value, error) {
	v, ok := scope.Value(r.sc, s.name)
	if !ok {
		// The binding this plan was built against is gone.
		return reflect.Value{}, ErrTypeMismatch
	}
	return reflect.ValueOf(v), nil
}

type scopeCallStep struct {
	seg segment
}

func (s *scopeCallStep) get(_ reflect.Value, r *propResolver, _ bool) (reflect.Value, error) {
	v, err := r.invoke(s.seg, r.root, true)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(v), nil
}

type fieldStep struct {
	typ    reflect.Type
	derefs int
	index  []int
}

func (s *fieldStep) get(cur reflect.Value, _ *propResolver, _ bool) (reflect.Value, error) {
	cur, err := guard(cur, s.typ)
	if err != nil {
		return reflect.Value{}, err
	}
	for i := 0; i < s.derefs; i++ {
		if cur.IsNil() {
			return reflect.Value{}, ErrTypeMismatch
		}
		cur = cur.Elem()
	}
	return cur.FieldByIndex(s.index), nil
}

type mapStep struct {
	typ    reflect.Type
	derefs int
	key    reflect.Value
}

func (s *mapStep) get(cur reflect.Value, _ *propResolver, _ bool) (reflect.Value, error) {
	cur, err := guard(cur, s.typ)
	if err != nil {
		return reflect.Value{}, err
	}
	for i := 0; i < s.derefs; i++ {
		if cur.IsNil() {
			return reflect.Value{}, ErrTypeMismatch
		}
		cur = cur.Elem()
	}
	out := cur.MapIndex(s.key)
	if !out.IsValid() {
		return reflect.Value{}, nil
	}
	return out, nil
}

type getterStep struct {
	typ  reflect.Type
	name string
}

func (s *getterStep) get(cur reflect.Value, _ *propResolver, _ bool) (reflect.Value, error) {
	cur, err := guard(cur, s.typ)
	if err != nil {
		return reflect.Value{}, err
	}
	m := cur.MethodByName(s.name)
	if !m.IsValid() {
		return reflect.Value{}, ErrTypeMismatch
	}
	v, err := callReflected(m, nil)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(v), nil
}

type methodStep struct {
	typ  reflect.Type
	name string
	seg  segment
}

func (s *methodStep) get(cur reflect.Value, r *propResolver, _ bool) (reflect.Value, error) {
	cur, err := guard(cur, s.typ)
	if err != nil {
		return reflect.Value{}, err
	}
	m := cur.MethodByName(s.name)
	if !m.IsValid() {
		return reflect.Value{}, ErrTypeMismatch
	}
	args := make([]any, len(s.seg.args))
	for i, raw := range s.seg.args {
		v, err := r.operand(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		args[i] = v
	}
	v, err := callReflected(m, args)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(v), nil
}

type indexStep struct {
	typ  reflect.Type
	expr string
}

func (s *indexStep) get(cur reflect.Value, r *propResolver, _ bool) (reflect.Value, error) {
	cur, err := guard(cur, s.typ)
	if err != nil {
		return reflect.Value{}, err
	}
	v, err := r.index(cur.Interface(), s.expr)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(v), nil
}

// specializedAccessor executes a baked plan.
type specializedAccessor struct {
	path string
	plan *specPlan
}

func (a *specializedAccessor) Get(root, this any, sc scope.Scope) (any, error) {
	r := &propResolver{sc: sc, this: this, root: root}
	cur := reflect.ValueOf(root)
	for i, step := range a.plan.steps {
		v, err := step.get(cur, r, i == 0)
		if err != nil {
			return nil, err
		}
		cur = unwrapInterface(v)
	}
	if !cur.IsValid() {
		return nil, nil
	}
	return cur.Interface(), nil
}

// Set falls back to the reflective protocol: writes are not
// specialized in this design.
func (a *specializedAccessor) Set(root, this any, sc scope.Scope, value any) (any, error) {
	return Set(a.path, root, sc, this, value)
}

type specializedFoldAccessor struct {
	fold     *foldAccessor
	elemPlan *specPlan
}

func (a *specializedFoldAccessor) Get(root, this any, sc scope.Scope) (any, error) {
	coll, err := Get(a.fold.collection, root, sc, this)
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(coll)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, ErrTypeMismatch
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, ErrTypeMismatch
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		r := &propResolver{sc: sc, this: this, root: elem}
		cur := reflect.ValueOf(elem)
		for j, step := range a.elemPlan.steps {
			v, err := step.get(cur, r, j == 0)
			if err != nil {
				return nil, err
			}
			cur = unwrapInterface(v)
		}
		if cur.IsValid() {
			out[i] = cur.Interface()
		}
	}
	return out, nil
}

func (a *specializedFoldAccessor) Set(root, this any, sc scope.Scope, value any) (any, error) {
	return nil, fmt.Errorf("cannot assign to fold expression")
}

func unwrapInterface(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	return v
}
