package tinst

import (
	"fmt"
	"reflect"
)

// Constructor is the raw construction collaborator: it receives the enclosing
// instance (nil for top-level scopes) and returns a new instance.
type Constructor func(outer any) (any, error)

// ConstructorFunc represents a constructor accepted by WithConstructor.
// Supported forms:
//   - Constructor
//   - func() *T
//   - func() (*T, error)
//   - func(*Outer) *T
//   - func(*Outer) (*T, error)
//
// The single parameter, when present, receives the enclosing instance.
type ConstructorFunc interface{}

// constructorInfo holds metadata about a constructor function.
type constructorInfo struct {
	raw          Constructor
	fn           reflect.Value
	outerType    reflect.Type
	returnsError bool
	returnType   reflect.Type
}

var errorInterface = reflect.TypeOf((*error)(nil)).Elem()

// parseConstructor analyzes a constructor function and extracts metadata.
func parseConstructor(constructor ConstructorFunc) (*constructorInfo, error) {
	if constructor == nil {
		return nil, nil
	}
	if raw, ok := constructor.(Constructor); ok {
		return &constructorInfo{raw: raw}, nil
	}
	if raw, ok := constructor.(func(any) (any, error)); ok {
		return &constructorInfo{raw: raw}, nil
	}

	fnValue := reflect.ValueOf(constructor)
	fnType := fnValue.Type()

	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %v", fnType.Kind())
	}
	if fnType.IsVariadic() || fnType.NumIn() > 1 {
		return nil, fmt.Errorf("constructor must take at most one parameter (the enclosing instance), got %d", fnType.NumIn())
	}

	numOut := fnType.NumOut()
	if numOut == 0 || numOut > 2 {
		return nil, fmt.Errorf("constructor must return (T) or (T, error), got %d return values", numOut)
	}

	returnsError := false
	if numOut == 2 {
		if !fnType.Out(1).Implements(errorInterface) {
			return nil, fmt.Errorf("constructor's second return value must be error, got %v", fnType.Out(1))
		}
		returnsError = true
	}

	info := &constructorInfo{
		fn:           fnValue,
		returnsError: returnsError,
		returnType:   fnType.Out(0),
	}
	if fnType.NumIn() == 1 {
		info.outerType = fnType.In(0)
	}
	return info, nil
}

// invoke calls the constructor with the enclosing instance when it wants one.
func (info *constructorInfo) invoke(outer any, hasOuter bool) (any, error) {
	if info.raw != nil {
		if !hasOuter {
			outer = nil
		}
		return info.raw(outer)
	}

	var params []reflect.Value
	if info.outerType != nil {
		if !hasOuter {
			return nil, fmt.Errorf("constructor expects an enclosing instance of type %v but the scope is not nested", info.outerType)
		}
		outerValue := reflect.ValueOf(outer)
		if !outerValue.IsValid() {
			outerValue = reflect.Zero(info.outerType)
		}
		if !outerValue.Type().AssignableTo(info.outerType) {
			return nil, fmt.Errorf("enclosing instance of type %v is not assignable to constructor parameter %v",
				outerValue.Type(), info.outerType)
		}
		params = []reflect.Value{outerValue}
	}

	results := info.fn.Call(params)

	if info.returnsError && !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}
	if isNilValue(results[0]) {
		return nil, nil
	}
	return results[0].Interface(), nil
}

// construct performs default construction for the scope.
func (s *ClassScope) construct(outer any, hasOuter bool) (any, error) {
	if s.constructorErr != nil {
		return nil, &ConstructionError{Target: s.typ, Reason: "invalid constructor", Cause: s.constructorErr}
	}
	if s.constructor != nil {
		return s.constructor.invoke(outer, hasOuter)
	}

	rt := s.typ.reflectType()
	if rt == nil {
		return nil, &ConstructionError{Target: s.typ, Reason: "no constructor registered for dynamic type"}
	}

	switch {
	case rt.Kind() == reflect.Ptr && rt.Elem().Kind() == reflect.Struct:
		instance := reflect.New(rt.Elem())
		if hasOuter {
			if err := injectOuter(instance.Elem(), outer); err != nil {
				return nil, &ConstructionError{Target: s.typ, Reason: "cannot inject enclosing instance", Cause: err}
			}
		}
		return instance.Interface(), nil

	case rt.Kind() == reflect.Struct:
		instance := reflect.New(rt).Elem()
		if hasOuter {
			if err := injectOuter(instance, outer); err != nil {
				return nil, &ConstructionError{Target: s.typ, Reason: "cannot inject enclosing instance", Cause: err}
			}
		}
		return instance.Interface(), nil

	default:
		return nil, &ConstructionError{
			Target: s.typ,
			Reason: fmt.Sprintf("type must be a struct or pointer to struct, got %v", rt),
		}
	}
}

// isNil reports whether v is nil or a typed nil.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	return isNilValue(reflect.ValueOf(v))
}

func isNilValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
