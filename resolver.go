package tinst

// ResolvedFactorySet is the ordered, de-duplicated set of factory extensions
// visible to a scope.
type ResolvedFactorySet struct {
	extensions []FactoryExtension
}

// Len returns the number of distinct extensions.
func (rs ResolvedFactorySet) Len() int {
	return len(rs.extensions)
}

// Extensions returns the extensions in resolution order.
func (rs ResolvedFactorySet) Extensions() []FactoryExtension {
	out := make([]FactoryExtension, len(rs.extensions))
	copy(out, rs.extensions)
	return out
}

// Names returns the display names of the extensions in resolution order.
func (rs ResolvedFactorySet) Names() []string {
	names := make([]string, len(rs.extensions))
	for i, ext := range rs.extensions {
		names[i] = FactoryNameOf(ext)
	}
	return names
}

// Resolve gathers every factory extension visible to scope, in this order:
// factories declared on implemented interfaces, inherited factories from the
// root of the class hierarchy down, factories declared on the class itself
// and, for nested scopes, the enclosing scope's resolved set.
//
// Extensions are de-duplicated by identity; an extension reachable through
// several paths keeps its first position. Resolve never fails.
//
// Factories from the enclosing scope are aggregated rather than overridden:
// a nested class that registers its own factory while its enclosing class
// also has one ends up with two, which Select reports as a conflict.
func Resolve(scope *ClassScope) ResolvedFactorySet {
	if scope == nil {
		return ResolvedFactorySet{}
	}

	seen := make(map[any]struct{})
	var out []FactoryExtension
	add := func(exts []FactoryExtension) {
		for _, ext := range exts {
			key := identityOf(ext)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, ext)
		}
	}

	add(scope.interfaceFactories)
	add(scope.inheritedFactories)
	add(scope.localFactories)
	if scope.parent != nil {
		add(Resolve(scope.parent).extensions)
	}

	return ResolvedFactorySet{extensions: out}
}
