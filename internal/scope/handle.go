package scope

// MethodHandle is a stored reference to a named method on a declaring
// receiver. When a call token's prefix resolves to one of these, the
// call is re-targeted at the declaring receiver under the method's own
// name.
type MethodHandle struct {
	// Name is the declared method name on Recv.
	Name string

	// Recv is the declaring receiver the method is resolved against.
	Recv any
}

// FuncHandle is a stored reference to a plain function value bound
// under a declared name.
type FuncHandle struct {
	// Name is the declared name the function is resolvable under.
	Name string

	// Fn is the function value, invoked via reflection.
	Fn any
}
