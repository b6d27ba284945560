package tinst

import "fmt"

// Lifecycle represents how long a test class instance lives.
type Lifecycle string

const (
	// LifecycleFreshPerTest creates a new instance for every test.
	// For nested scopes the whole ancestor chain is created again as well.
	// This is the default lifecycle.
	LifecycleFreshPerTest Lifecycle = "per-method"

	// LifecycleSharedPerClass creates a single instance on first need and
	// shares it with every test and class-level hook of the scope.
	// The instance is dropped when the scope's execution ends.
	LifecycleSharedPerClass Lifecycle = "per-class"
)

// String returns the string representation of the lifecycle.
func (l Lifecycle) String() string {
	return string(l)
}

// Shared reports whether instances are shared across the tests of a scope.
func (l Lifecycle) Shared() bool {
	return l == LifecycleSharedPerClass
}

// ParseLifecycle parses a lifecycle name. The empty string maps to
// LifecycleFreshPerTest.
func ParseLifecycle(s string) (Lifecycle, error) {
	switch Lifecycle(s) {
	case "", LifecycleFreshPerTest:
		return LifecycleFreshPerTest, nil
	case LifecycleSharedPerClass:
		return LifecycleSharedPerClass, nil
	default:
		return "", fmt.Errorf("unknown lifecycle %q (want %q or %q)", s, LifecycleFreshPerTest, LifecycleSharedPerClass)
	}
}
