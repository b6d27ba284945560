package tinst

// ClassScope describes one test class: its type identity, enclosing scope,
// lifecycle and the factory extensions registered for it.
//
// Factory extensions are attached explicitly when the scope is built; nothing
// is discovered by inspecting the type at runtime.
//
// Example:
//
//	outer := tinst.NewClassScope(tinst.TypeFor[*OuterTests](),
//	    tinst.WithFactories(factory),
//	)
//	inner := tinst.NewClassScope(tinst.TypeFor[*InnerTests](),
//	    tinst.WithParent(outer),
//	    tinst.WithLifecycle(tinst.LifecycleSharedPerClass),
//	)
type ClassScope struct {
	typ                TypeID
	parent             *ClassScope
	lifecycle          Lifecycle
	interfaceFactories []FactoryExtension
	inheritedFactories []FactoryExtension
	localFactories     []FactoryExtension
	constructor        *constructorInfo
	constructorErr     error
}

// ScopeOption configures a ClassScope.
type ScopeOption func(*ClassScope)

// NewClassScope creates a scope descriptor for the given type.
func NewClassScope(typ TypeID, options ...ScopeOption) *ClassScope {
	s := &ClassScope{
		typ:       typ,
		lifecycle: LifecycleFreshPerTest,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// WithParent marks the scope as nested inside parent.
func WithParent(parent *ClassScope) ScopeOption {
	return func(s *ClassScope) {
		s.parent = parent
	}
}

// WithLifecycle sets the scope's lifecycle policy.
func WithLifecycle(l Lifecycle) ScopeOption {
	return func(s *ClassScope) {
		s.lifecycle = l
	}
}

// WithInterfaceFactories registers factories declared on interfaces the
// class implements. Repeated calls append in order.
func WithInterfaceFactories(factories ...FactoryExtension) ScopeOption {
	return func(s *ClassScope) {
		s.interfaceFactories = appendNonNil(s.interfaceFactories, factories)
	}
}

// WithInheritedFactories registers factories declared on a superclass.
// Call it once per superclass level, from the root of the hierarchy down.
func WithInheritedFactories(factories ...FactoryExtension) ScopeOption {
	return func(s *ClassScope) {
		s.inheritedFactories = appendNonNil(s.inheritedFactories, factories)
	}
}

// WithFactories registers factories declared directly on the class.
func WithFactories(factories ...FactoryExtension) ScopeOption {
	return func(s *ClassScope) {
		s.localFactories = appendNonNil(s.localFactories, factories)
	}
}

// WithConstructor sets the construction collaborator used for default
// construction. See Constructor and ConstructorFunc for accepted forms.
func WithConstructor(constructor ConstructorFunc) ScopeOption {
	return func(s *ClassScope) {
		s.constructor, s.constructorErr = parseConstructor(constructor)
	}
}

func appendNonNil(dst, src []FactoryExtension) []FactoryExtension {
	for _, f := range src {
		if f != nil {
			dst = append(dst, f)
		}
	}
	return dst
}

// Type returns the scope's type identity.
func (s *ClassScope) Type() TypeID {
	return s.typ
}

// Parent returns the enclosing scope, or nil for top-level scopes.
func (s *ClassScope) Parent() *ClassScope {
	return s.parent
}

// Lifecycle returns the scope's lifecycle policy.
func (s *ClassScope) Lifecycle() Lifecycle {
	return s.lifecycle
}

// Nested reports whether the scope has an enclosing scope.
func (s *ClassScope) Nested() bool {
	return s.parent != nil
}

// Depth returns the number of enclosing scopes.
func (s *ClassScope) Depth() int {
	depth := 0
	for p := s.parent; p != nil; p = p.parent {
		depth++
	}
	return depth
}

// String returns the scope's type name.
func (s *ClassScope) String() string {
	return s.typ.Name()
}
