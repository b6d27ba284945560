// Package tinst decides how test class instances are created and how long
// they live.
//
// A test class is described by a ClassScope: its type identity, the scope it
// is nested in (if any), its lifecycle and the factory extensions registered
// for it. The Manager turns scopes into instances.
//
// # Resolution
//
// Resolve collects every FactoryExtension visible to a scope: factories from
// implemented interfaces, inherited factories from the root of the class
// hierarchy down, the class's own factories and finally those of the
// enclosing scope. Extensions are compared by identity. Select then allows at
// most one: zero means default construction, more than one is a
// *ConfigurationError.
//
//	scope := tinst.NewClassScope(tinst.TypeFor[*CalculatorTests](),
//	    tinst.WithFactories(&calculatorFactory{}),
//	)
//	manager := tinst.New()
//	if err := manager.Enter(scope); err != nil {
//	    log.Fatal(err)
//	}
//
// # Lifecycles
//
// Fresh per test - a new instance (and a new enclosing chain) for every test:
//
//	tinst.WithLifecycle(tinst.LifecycleFreshPerTest)
//
// Shared per class - one instance for all tests of the scope, dropped by
// Release:
//
//	tinst.WithLifecycle(tinst.LifecycleSharedPerClass)
//
// # Nested scopes
//
// A nested scope names its enclosing scope with WithParent. The enclosing
// instance is always created first and handed to the nested factory through
// FactoryContext.OuterInstance, or injected by default construction into the
// field tagged `tinst:"outer"`.
//
// # Type identity
//
// Every instance is checked against the scope's TypeID by identity. Types
// that merely share a name never match; in error messages both names then
// carry an identity marker such as "pkg.Tests@1f".
//
// # Errors
//
// Instantiation failures are classified into *InstantiationError values with
// messages naming the factory and the target class. PlacementOf tells the
// caller whether to fail the whole scope or a single test.
package tinst
