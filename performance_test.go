package tinst

import (
	"fmt"
	"testing"
)

// BenchmarkRequestInstance_Shared benchmarks retrieval of a cached shared instance.
func BenchmarkRequestInstance_Shared(b *testing.B) {
	scope := NewClassScope(TypeFor[*CalculatorTests](), WithLifecycle(LifecycleSharedPerClass))
	m := New()

	// Warm up the cache
	_, _ = m.RequestInstance(scope)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, _ = m.RequestInstance(scope)
	}
}

// BenchmarkRequestInstance_Fresh benchmarks default construction per request.
func BenchmarkRequestInstance_Fresh(b *testing.B) {
	scope := NewClassScope(TypeFor[*CalculatorTests]())
	m := New()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = m.RequestInstance(scope)
	}
}

// BenchmarkRequestInstance_NestedChain benchmarks a three level fresh chain.
func BenchmarkRequestInstance_NestedChain(b *testing.B) {
	outer := NewClassScope(TypeFor[*OuterTests]())
	middle := NewClassScope(TypeFor[*MiddleTests](), WithParent(outer))
	inner := NewClassScope(TypeFor[*InnerTests](), WithParent(middle))
	m := New()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = m.RequestInstance(inner)
	}
}

// BenchmarkResolve benchmarks resolution over a deep ancestor chain.
func BenchmarkResolve(b *testing.B) {
	for _, depth := range []int{1, 4, 16} {
		b.Run(fmt.Sprintf("depth=%d", depth), func(b *testing.B) {
			scope := NewClassScope(TypeFor[*OuterTests](), WithFactories(newStub("Root", nil)))
			for d := 1; d < depth; d++ {
				scope = NewClassScope(TypeFor[*MiddleTests](), WithParent(scope))
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = Resolve(scope)
			}
		})
	}
}

// BenchmarkTypeOf benchmarks interned type identity lookup.
func BenchmarkTypeOf(b *testing.B) {
	v := &CalculatorTests{}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = TypeOf(v)
	}
}
