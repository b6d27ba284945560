package tinst

// Selection is the outcome of factory selection for a scope: either one
// factory extension or default construction.
type Selection struct {
	scope   *ClassScope
	factory FactoryExtension
}

// Factory returns the selected extension, or nil for default construction.
func (s Selection) Factory() FactoryExtension {
	return s.factory
}

// Default reports whether default construction was selected.
func (s Selection) Default() bool {
	return s.factory == nil
}

// Scope returns the scope the selection was made for.
func (s Selection) Scope() *ClassScope {
	return s.scope
}

// Select enforces that at most one factory extension is visible to scope.
// No extensions selects default construction, one selects that extension,
// more than one fails with a *ConfigurationError naming the class and every
// conflicting factory in resolution order.
func Select(scope *ClassScope, resolved ResolvedFactorySet) (Selection, error) {
	switch resolved.Len() {
	case 0:
		return Selection{scope: scope}, nil
	case 1:
		return Selection{scope: scope, factory: resolved.extensions[0]}, nil
	default:
		return Selection{}, &ConfigurationError{
			Scope:     scope.Type(),
			Factories: resolved.Names(),
		}
	}
}
