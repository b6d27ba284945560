package engine

import (
	tinst "github.com/toutaio/toutago-tinst"
)

// Hook runs before or after tests. Class-level hooks of shared-per-class
// scopes receive the shared instance; otherwise they receive nil.
type Hook func(instance any) error

// Test is a single test of a container.
type Test struct {
	Name string
	Body func(instance any) error
}

// Container is one test class in the execution tree: its scope, its tests,
// its hooks and the containers nested inside it.
//
// Nested containers must use scopes whose parent is this container's scope.
type Container struct {
	Name       string
	Scope      *tinst.ClassScope
	BeforeAll  []Hook
	BeforeEach []Hook
	AfterEach  []Hook
	AfterAll   []Hook
	Tests      []Test
	Nested     []*Container
}

// DisplayName returns Name, or the scope's type name when Name is empty.
func (c *Container) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	if c.Scope != nil {
		return c.Scope.Type().Name()
	}
	return "<unnamed>"
}

// CountTests returns the number of tests in c and all nested containers.
func (c *Container) CountTests() int {
	n := len(c.Tests)
	for _, nested := range c.Nested {
		n += nested.CountTests()
	}
	return n
}
