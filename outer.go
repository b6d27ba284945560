package tinst

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// outerTag is the struct tag that marks the field receiving the enclosing
// instance during default construction of a nested scope.
//
//	type InnerTests struct {
//	    Outer *OuterTests `tinst:"outer"`
//	}
const outerTag = "tinst"

// fieldInfo stores metadata about a struct field for outer injection.
type fieldInfo struct {
	index    int
	name     string
	typ      reflect.Type
	exported bool
	outer    bool // tagged `tinst:"outer"`
}

// fieldCache caches struct field metadata to avoid repeated type analysis.
type fieldCache struct {
	mu     sync.RWMutex
	fields map[reflect.Type][]fieldInfo
}

var structFields = &fieldCache{fields: make(map[reflect.Type][]fieldInfo)}

// get retrieves or computes struct field information.
func (fc *fieldCache) get(typ reflect.Type) []fieldInfo {
	fc.mu.RLock()
	fields, exists := fc.fields[typ]
	fc.mu.RUnlock()
	if exists {
		return fields
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	if fields, exists = fc.fields[typ]; exists {
		return fields
	}

	fields = make([]fieldInfo, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		fields = append(fields, fieldInfo{
			index:    i,
			name:     field.Name,
			typ:      field.Type,
			exported: field.PkgPath == "",
			outer:    hasOuterOption(field.Tag.Get(outerTag)),
		})
	}
	fc.fields[typ] = fields
	return fields
}

func hasOuterOption(tag string) bool {
	for _, part := range strings.Split(tag, ",") {
		if strings.TrimSpace(part) == "outer" {
			return true
		}
	}
	return false
}

// injectOuter stores outer in the field of structValue that should hold the
// enclosing instance. A field tagged `tinst:"outer"` wins; otherwise the one
// exported field assignable from outer's type is used. Structs without such a
// field are left untouched.
func injectOuter(structValue reflect.Value, outer any) error {
	if outer == nil {
		return nil
	}
	outerValue := reflect.ValueOf(outer)
	fields := structFields.get(structValue.Type())

	for _, f := range fields {
		if !f.outer {
			continue
		}
		if !f.exported {
			return fmt.Errorf("field %s is not settable (not exported?)", f.name)
		}
		if !outerValue.Type().AssignableTo(f.typ) {
			return fmt.Errorf("enclosing instance of type %v is not assignable to field %s of type %v",
				outerValue.Type(), f.name, f.typ)
		}
		structValue.Field(f.index).Set(outerValue)
		return nil
	}

	candidate := -1
	for i, f := range fields {
		if !f.exported || !outerValue.Type().AssignableTo(f.typ) {
			continue
		}
		if candidate >= 0 {
			return fmt.Errorf("ambiguous enclosing instance field: both %s and %s accept %v; tag one with `tinst:\"outer\"`",
				fields[candidate].name, f.name, outerValue.Type())
		}
		candidate = i
	}
	if candidate >= 0 {
		structValue.Field(fields[candidate].index).Set(outerValue)
	}
	return nil
}
