package optimizer

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/szaher/exlang/internal/scope"
)

// Get resolves a property path against ctx. The first path element is
// looked up in sc before ctx, so scope variables shadow root
// properties; this is the canonical resolution order every tier must
// reproduce.
func Get(path string, ctx any, sc scope.Scope, this any) (any, error) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	r := &propResolver{sc: sc, this: this, root: ctx}
	return r.resolve(segs, ctx)
}

// Set resolves all but the last element of path, then assigns value at
// the final element. The assigned value is returned.
func Set(path string, ctx any, sc scope.Scope, this any, value any) (any, error) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	r := &propResolver{sc: sc, this: this, root: ctx}
	return r.assign(segs, ctx, value)
}

type propResolver struct {
	sc   scope.Scope
	this any
	root any
}

func (r *propResolver) resolve(segs []segment, ctx any) (any, error) {
	cur := ctx
	for i, seg := range segs {
		first := i == 0
		var v any
		var err error
		switch {
		case seg.call:
			v, err = r.invoke(seg, cur, first)
		case seg.name == "":
			v = cur
		default:
			v, err = r.property(seg.name, cur, first)
		}
		if err != nil {
			return nil, err
		}
		for _, idx := range seg.indexes {
			v, err = r.index(v, idx)
			if err != nil {
				return nil, err
			}
		}
		cur = v
	}
	return cur, nil
}

func (r *propResolver) assign(segs []segment, ctx any, value any) (any, error) {
	last := segs[len(segs)-1]
	if last.call {
		return nil, fmt.Errorf("cannot assign to call %q", last.name)
	}

	cur := ctx
	if len(segs) > 1 {
		v, err := r.resolve(segs[:len(segs)-1], ctx)
		if err != nil {
			return nil, err
		}
		cur = v
	}

	if len(last.indexes) > 0 {
		target := cur
		if last.name != "" {
			v, err := r.property(last.name, cur, len(segs) == 1)
			if err != nil {
				return nil, err
			}
			target = v
		}
		var err error
		for _, idx := range last.indexes[:len(last.indexes)-1] {
			target, err = r.index(target, idx)
			if err != nil {
				return nil, err
			}
		}
		return r.setIndex(target, last.indexes[len(last.indexes)-1], value)
	}

	// A bare variable assignment goes through the scope when the name
	// is resolvable there.
	if len(segs) == 1 && r.sc != nil {
		if res, ok := r.sc.Resolver(last.name); ok {
			res.Set(value)
			return value, nil
		}
	}
	return r.setProperty(cur, last.name, value)
}

func (r *propResolver) property(name string, ctx any, first bool) (any, error) {
	if first {
		if name == "this" {
			return r.this, nil
		}
		if v, ok := scope.Value(r.sc, name); ok {
			return v, nil
		}
	}
	if ctx == nil {
		return nil, fmt.Errorf("cannot read property %q of nil", name)
	}

	rv := reflect.ValueOf(ctx)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Errorf("cannot read property %q of nil", name)
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if v, ok := mapLookup(rv, name); ok {
			return v, nil
		}
	case reflect.Struct:
		if f := rv.FieldByName(name); f.IsValid() && f.CanInterface() {
			return f.Interface(), nil
		}
		if exp := exportedName(name); exp != name {
			if f := rv.FieldByName(exp); f.IsValid() && f.CanInterface() {
				return f.Interface(), nil
			}
		}
	case reflect.Slice, reflect.Array, reflect.String:
		if name == "length" || name == "size" {
			return rv.Len(), nil
		}
	}

	// Zero-argument method as a property read.
	if m, ok := findMethod(reflect.ValueOf(ctx), name); ok && m.Type().NumIn() == 0 {
		return callReflected(m, nil)
	}
	return nil, fmt.Errorf("unable to resolve property %q against %T", name, ctx)
}

func (r *propResolver) invoke(seg segment, ctx any, first bool) (any, error) {
	args := make([]any, len(seg.args))
	for i, raw := range seg.args {
		v, err := r.operand(raw)
		if err != nil {
			return nil, fmt.Errorf("argument %d of %s(): %w", i, seg.name, err)
		}
		args[i] = v
	}

	if first {
		if v, ok := scope.Value(r.sc, seg.name); ok {
			return callValue(v, args)
		}
	}
	if ctx == nil {
		return nil, fmt.Errorf("cannot call %q on nil", seg.name)
	}
	if m, ok := findMethod(reflect.ValueOf(ctx), seg.name); ok {
		return callReflected(m, args)
	}
	// A field holding a callable value also serves as a method.
	if v, err := r.property(seg.name, ctx, false); err == nil {
		return callValue(v, args)
	}
	return nil, fmt.Errorf("unable to resolve method %q against %T", seg.name, ctx)
}

func (r *propResolver) index(v any, expr string) (any, error) {
	key, err := r.operand(expr)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("cannot index nil with [%s]", expr)
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Errorf("cannot index nil with [%s]", expr)
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		kv, err := convertValue(reflect.ValueOf(key), rv.Type().Key())
		if err != nil {
			return nil, fmt.Errorf("index [%s]: %w", expr, err)
		}
		out := rv.MapIndex(kv)
		if !out.IsValid() {
			return nil, nil
		}
		return out.Interface(), nil
	case reflect.Slice, reflect.Array, reflect.String:
		i, err := toInt(key)
		if err != nil {
			return nil, fmt.Errorf("index [%s]: %w", expr, err)
		}
		if i < 0 || i >= rv.Len() {
			return nil, fmt.Errorf("index %d out of range (len %d)", i, rv.Len())
		}
		return rv.Index(i).Interface(), nil
	}
	return nil, fmt.Errorf("cannot index value of type %T", v)
}

func (r *propResolver) setIndex(v any, expr string, value any) (any, error) {
	key, err := r.operand(expr)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("cannot index nil with [%s]", expr)
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Errorf("cannot index nil with [%s]", expr)
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		kv, err := convertValue(reflect.ValueOf(key), rv.Type().Key())
		if err != nil {
			return nil, fmt.Errorf("index [%s]: %w", expr, err)
		}
		vv, err := convertValue(reflect.ValueOf(value), rv.Type().Elem())
		if err != nil {
			return nil, fmt.Errorf("index [%s]: %w", expr, err)
		}
		rv.SetMapIndex(kv, vv)
		return value, nil
	case reflect.Slice:
		i, err := toInt(key)
		if err != nil {
			return nil, fmt.Errorf("index [%s]: %w", expr, err)
		}
		if i < 0 || i >= rv.Len() {
			return nil, fmt.Errorf("index %d out of range (len %d)", i, rv.Len())
		}
		vv, err := convertValue(reflect.ValueOf(value), rv.Type().Elem())
		if err != nil {
			return nil, fmt.Errorf("index [%s]: %w", expr, err)
		}
		rv.Index(i).Set(vv)
		return value, nil
	}
	return nil, fmt.Errorf("cannot index-assign value of type %T", v)
}

func (r *propResolver) setProperty(ctx any, name string, value any) (any, error) {
	if ctx == nil {
		return nil, fmt.Errorf("cannot assign property %q on nil", name)
	}
	rv := reflect.ValueOf(ctx)
	for rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Map {
		kv, err := convertValue(reflect.ValueOf(name), rv.Type().Key())
		if err != nil {
			return nil, err
		}
		vv, err := convertValue(reflect.ValueOf(value), rv.Type().Elem())
		if err != nil {
			return nil, fmt.Errorf("assign %q: %w", name, err)
		}
		rv.SetMapIndex(kv, vv)
		return value, nil
	}

	// Setter method before direct field write: Set<Name>(v).
	if m, ok := findMethod(reflect.ValueOf(ctx), "Set"+exportedName(name)); ok && m.Type().NumIn() == 1 {
		if _, err := callReflected(m, []any{value}); err != nil {
			return nil, err
		}
		return value, nil
	}

	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("cannot assign property %q on nil", name)
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		f := rv.FieldByName(name)
		if !f.IsValid() {
			f = rv.FieldByName(exportedName(name))
		}
		if f.IsValid() && f.CanSet() {
			vv, err := convertValue(reflect.ValueOf(value), f.Type())
			if err != nil {
				return nil, fmt.Errorf("assign %q: %w", name, err)
			}
			f.Set(vv)
			return value, nil
		}
	}
	return nil, fmt.Errorf("unable to assign property %q against %T", name, ctx)
}

// operand evaluates a call-argument or index expression: a literal, or
// a property path resolved from the root context.
func (r *propResolver) operand(s string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty expression")
	}
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return unescape(s[1 : len(s)-1]), nil
		}
	}
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "nil", "null":
		return nil, nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(i), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	segs, err := parsePath(s)
	if err != nil {
		return nil, err
	}
	return r.resolve(segs, r.root)
}

func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func mapLookup(rv reflect.Value, name string) (any, bool) {
	if rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
	if !v.IsValid() {
		return nil, false
	}
	return v.Interface(), true
}

// findMethod locates name (exact, then export-cased) on v or its
// pointer receiver.
func findMethod(v reflect.Value, name string) (reflect.Value, bool) {
	for _, n := range []string{name, exportedName(name)} {
		if m := v.MethodByName(n); m.IsValid() {
			return m, true
		}
		if v.Kind() != reflect.Pointer && v.CanAddr() {
			if m := v.Addr().MethodByName(n); m.IsValid() {
				return m, true
			}
		}
	}
	return reflect.Value{}, false
}

// callValue invokes a callable scope value: a FuncHandle, a
// MethodHandle, or a bare func.
func callValue(v any, args []any) (any, error) {
	switch h := v.(type) {
	case scope.FuncHandle:
		return callValue(h.Fn, args)
	case *scope.FuncHandle:
		return callValue(h.Fn, args)
	case scope.MethodHandle:
		if m, ok := findMethod(reflect.ValueOf(h.Recv), h.Name); ok {
			return callReflected(m, args)
		}
		return nil, fmt.Errorf("method %q not found on %T", h.Name, h.Recv)
	case *scope.MethodHandle:
		return callValue(*h, args)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Func {
		return nil, fmt.Errorf("value of type %T is not callable", v)
	}
	return callReflected(rv, args)
}

func callReflected(fn reflect.Value, args []any) (any, error) {
	t := fn.Type()
	fixed := t.NumIn()
	if t.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, fmt.Errorf("expected at least %d arguments, got %d", fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("expected %d arguments, got %d", fixed, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		var want reflect.Type
		if i < fixed {
			want = t.In(i)
		} else {
			want = t.In(t.NumIn() - 1).Elem()
		}
		v, err := convertValue(reflect.ValueOf(a), want)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in[i] = v
	}

	out := fn.Call(in)
	if len(out) == 0 {
		return nil, nil
	}
	if last := out[len(out)-1]; last.Type() == errType {
		if !last.IsNil() {
			return nil, last.Interface().(error)
		}
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

// convertValue coerces v to type want, allowing the numeric widenings
// expression operands need.
func convertValue(v reflect.Value, want reflect.Type) (reflect.Value, error) {
	if !v.IsValid() {
		return reflect.Zero(want), nil
	}
	if v.Type() == want {
		return v, nil
	}
	if v.Type().AssignableTo(want) {
		return v, nil
	}
	if v.Kind() == reflect.Interface {
		return convertValue(v.Elem(), want)
	}
	if isNumericKind(v.Kind()) && isNumericKind(want.Kind()) {
		return v.Convert(want), nil
	}
	if v.Kind() == reflect.String && want.Kind() == reflect.String {
		return v.Convert(want), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", v.Type(), want)
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func toInt(v any) (int, error) {
	rv := reflect.ValueOf(v)
	switch {
	case !rv.IsValid():
		return 0, fmt.Errorf("nil index")
	case rv.CanInt():
		return int(rv.Int()), nil
	case rv.CanUint():
		return int(rv.Uint()), nil
	case rv.CanFloat():
		return int(rv.Float()), nil
	}
	return 0, fmt.Errorf("%T is not an integer index", v)
}

// exportedName upper-cases the first rune so lower-cased property
// names reach exported Go fields and methods.
func exportedName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}
