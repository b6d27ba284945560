package tinst

import (
	"reflect"
	"runtime"
	"unsafe"
)

// FactoryExtension creates test class instances in place of default
// construction. Extensions are compared by identity, never by name.
//
// Example:
//
//	type seededFactory struct{ seed int64 }
//
//	func (f *seededFactory) CreateInstance(ctx tinst.FactoryContext) (any, error) {
//	    return &RandomTests{Seed: f.seed}, nil
//	}
type FactoryExtension interface {
	CreateInstance(ctx FactoryContext) (any, error)
}

// FactoryFunc adapts an ordinary function to a FactoryExtension.
// Two FactoryFunc values are the same extension when they share a code pointer.
//
// Example:
//
//	scope := tinst.NewClassScope(tinst.TypeFor[*GreeterTests](),
//	    tinst.WithFactories(tinst.FactoryFunc(func(ctx tinst.FactoryContext) (any, error) {
//	        return &GreeterTests{Greeting: "hello"}, nil
//	    })),
//	)
type FactoryFunc func(ctx FactoryContext) (any, error)

// CreateInstance calls f(ctx).
func (f FactoryFunc) CreateInstance(ctx FactoryContext) (any, error) {
	return f(ctx)
}

// NamedFactory is implemented by extensions that want to control how they
// are named in error messages.
type NamedFactory interface {
	FactoryName() string
}

// FactoryContext is handed to a FactoryExtension on every invocation.
type FactoryContext struct {
	target   TypeID
	outer    any
	hasOuter bool
	scope    *ClassScope
}

// TestType returns the identity of the class being instantiated.
func (c FactoryContext) TestType() TypeID {
	return c.target
}

// OuterInstance returns the already-created enclosing instance of a nested
// scope. The boolean is false for top-level scopes.
func (c FactoryContext) OuterInstance() (any, bool) {
	return c.outer, c.hasOuter
}

// DefaultInstance performs the default construction the orchestrator would
// use if no factory were registered.
func (c FactoryContext) DefaultInstance() (any, error) {
	if c.scope == nil {
		return nil, &ConstructionError{Target: c.target, Reason: "no scope bound to factory context"}
	}
	return c.scope.construct(c.outer, c.hasOuter)
}

// FactoryNameOf returns the display name used for ext in messages.
func FactoryNameOf(ext FactoryExtension) string {
	if ext == nil {
		return "null"
	}
	if named, ok := ext.(NamedFactory); ok {
		return named.FactoryName()
	}
	v := reflect.ValueOf(ext)
	if v.Kind() == reflect.Func {
		if fn := runtime.FuncForPC(v.Pointer()); fn != nil {
			return fn.Name()
		}
	}
	return displayName(v.Type())
}

// identityOf returns the key that decides whether two extensions are the same.
// Comparable values are their own key. Functions, maps and non-comparable
// structs are keyed on the interface data word, which every copy of the same
// interface value shares: a static function has one funcval, while each
// closure instance gets its own.
func identityOf(ext FactoryExtension) any {
	typ := reflect.TypeOf(ext)
	if typ.Comparable() {
		return ext
	}
	if typ.Kind() == reflect.Slice {
		v := reflect.ValueOf(ext)
		return refIdentity{typ: typ, ptr: v.UnsafePointer(), len: v.Len()}
	}
	return refIdentity{typ: typ, ptr: (*[2]unsafe.Pointer)(unsafe.Pointer(&ext))[1]}
}

type refIdentity struct {
	typ reflect.Type
	ptr unsafe.Pointer
	len int
}
