package tinst

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// TypeID is an opaque identity token for a test class type.
//
// Two TypeIDs are equal only when they were produced from the same token.
// Display names play no part in equality: two distinct types that print the
// same name (for example, types declared locally in two different functions,
// or dynamic types minted with NewType) never compare equal.
//
// The zero TypeID represents "no type" and is what TypeOf returns for nil.
type TypeID struct {
	tok *typeToken
}

type typeToken struct {
	seq  uint64
	name string
	rt   reflect.Type // nil for dynamic types
}

// Typed is implemented by values that carry a dynamic type identity.
// TypeOf prefers the identity reported here over the Go type of the value.
type Typed interface {
	TypeID() TypeID
}

var (
	typeSeq    atomic.Uint64
	typeTokens sync.Map // reflect.Type -> *typeToken
)

// TypeFor returns the identity of the Go type T.
//
// Example:
//
//	id := tinst.TypeFor[*CalculatorTests]()
func TypeFor[T any]() TypeID {
	return typeIDOf(reflect.TypeOf((*T)(nil)).Elem())
}

// TypeOf returns the runtime identity of v.
// Values implementing Typed report their own identity; nil yields the zero TypeID.
func TypeOf(v any) TypeID {
	if v == nil {
		return TypeID{}
	}
	if typed, ok := v.(Typed); ok {
		return typed.TypeID()
	}
	return typeIDOf(reflect.TypeOf(v))
}

// NewType mints a new dynamic type identity with the given display name.
// Every call returns a distinct identity, even for equal names.
func NewType(name string) TypeID {
	return TypeID{tok: &typeToken{seq: typeSeq.Add(1), name: name}}
}

func typeIDOf(rt reflect.Type) TypeID {
	if tok, ok := typeTokens.Load(rt); ok {
		return TypeID{tok: tok.(*typeToken)}
	}
	tok := &typeToken{seq: typeSeq.Add(1), name: displayName(rt), rt: rt}
	actual, _ := typeTokens.LoadOrStore(rt, tok)
	return TypeID{tok: actual.(*typeToken)}
}

// displayName renders rt package-qualified with any pointer indirection
// stripped, so *pkg.T and pkg.T share a display name.
func displayName(rt reflect.Type) string {
	for rt.Kind() == reflect.Ptr && rt.Name() == "" {
		rt = rt.Elem()
	}
	if rt.Name() != "" && rt.PkgPath() != "" {
		return rt.PkgPath() + "." + rt.Name()
	}
	return rt.String()
}

// IsZero reports whether t is the zero TypeID.
func (t TypeID) IsZero() bool {
	return t.tok == nil
}

// Name returns the display name of the type, or "null" for the zero TypeID.
func (t TypeID) Name() string {
	if t.tok == nil {
		return "null"
	}
	return t.tok.name
}

// Qualified returns the display name, optionally followed by a
// disambiguating marker unique to this identity.
func (t TypeID) Qualified(marker bool) string {
	if !marker || t.tok == nil {
		return t.Name()
	}
	return fmt.Sprintf("%s@%x", t.tok.name, t.tok.seq)
}

// String implements fmt.Stringer.
func (t TypeID) String() string {
	return t.Name()
}

// reflectType returns the Go type behind t, or nil for dynamic types.
func (t TypeID) reflectType() reflect.Type {
	if t.tok == nil {
		return nil
	}
	return t.tok.rt
}
