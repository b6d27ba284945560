package tinst

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type disposableTests struct {
	disposed int
	err      error
}

func (d *disposableTests) Dispose() error {
	d.disposed++
	return d.err
}

func TestNew_Defaults(t *testing.T) {
	m := New()
	require.NotNil(t, m)
	assert.NotNil(t, m.Orchestrator())
	assert.True(t, m.dispose)
}

func TestNew_NilLoggerPanics(t *testing.T) {
	assert.Panics(t, func() { New(WithLogger(nil)) })
}

func TestManager_EnterConflict(t *testing.T) {
	m := New(WithLogger(zaptest.NewLogger(t)))
	scope := NewClassScope(TypeFor[*CalculatorTests](),
		WithFactories(newStub("F1", nil), newStub("F2", nil)),
	)

	err := m.Enter(scope)

	require.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "but only one is permitted: [F1, F2]")

	_, reqErr := m.RequestInstance(scope)
	assert.Same(t, err, reqErr)
}

func TestManager_EnterNilScope(t *testing.T) {
	assert.Error(t, New().Enter(nil))
}

func TestManager_FreshPerTest(t *testing.T) {
	f := newStub("Foo", nil)
	scope := NewClassScope(TypeFor[*CalculatorTests](), WithFactories(f))
	m := New()
	require.NoError(t, m.Enter(scope))

	first, err := m.RequestInstance(scope)
	require.NoError(t, err)
	second, err := m.RequestInstance(scope)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), f.calls.Load())
	_, cached := m.Cached(scope)
	assert.False(t, cached)
}

func TestManager_SharedPerClass(t *testing.T) {
	f := newStub("Foo", nil)
	scope := NewClassScope(TypeFor[*CalculatorTests](),
		WithLifecycle(LifecycleSharedPerClass),
		WithFactories(f),
	)
	m := New()
	require.NoError(t, m.Enter(scope))

	var instances []any
	for i := 0; i < 5; i++ {
		instance, err := m.RequestInstance(scope)
		require.NoError(t, err)
		instances = append(instances, instance)
	}

	for _, instance := range instances[1:] {
		assert.Same(t, instances[0], instance)
	}
	assert.Equal(t, int32(1), f.calls.Load())

	cached, ok := m.Cached(scope)
	require.True(t, ok)
	assert.Same(t, instances[0], cached)
}

func TestManager_SharedPerClassConcurrentRequests(t *testing.T) {
	f := newStub("Foo", nil)
	scope := NewClassScope(TypeFor[*CalculatorTests](),
		WithLifecycle(LifecycleSharedPerClass),
		WithFactories(f),
	)
	m := New()
	require.NoError(t, m.Enter(scope))

	var wg sync.WaitGroup
	results := make([]any, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = m.RequestInstance(scope)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Same(t, results[0], r)
	}
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestManager_SharedFailureNotRetried(t *testing.T) {
	f := newStub("Boom", func(FactoryContext) (any, error) {
		return nil, errors.New("boom!")
	})
	scope := NewClassScope(TypeFor[*CalculatorTests](),
		WithLifecycle(LifecycleSharedPerClass),
		WithFactories(f),
	)
	m := New()

	_, err1 := m.RequestInstance(scope)
	_, err2 := m.RequestInstance(scope)

	require.ErrorIs(t, err1, ErrInstantiation)
	assert.Same(t, err1, err2)
	assert.Equal(t, int32(1), f.calls.Load())
	assert.Equal(t, PlacementContainer, PlacementOf(scope, err1))

	_, cached := m.Cached(scope)
	assert.False(t, cached)
}

func TestManager_ReleaseDropsSharedInstance(t *testing.T) {
	f := newStub("Foo", nil)
	scope := NewClassScope(TypeFor[*CalculatorTests](),
		WithLifecycle(LifecycleSharedPerClass),
		WithFactories(f),
	)
	m := New()

	first, err := m.RequestInstance(scope)
	require.NoError(t, err)
	require.NoError(t, m.Release(scope))

	_, cached := m.Cached(scope)
	assert.False(t, cached)
	assert.Equal(t, 0, m.cache.len())

	second, err := m.RequestInstance(scope)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestManager_ReleaseDropsFailedEntry(t *testing.T) {
	fail := true
	f := newStub("Flaky", func(ctx FactoryContext) (any, error) {
		if fail {
			return nil, errors.New("flaky")
		}
		return ctx.DefaultInstance()
	})
	scope := NewClassScope(TypeFor[*CalculatorTests](), WithLifecycle(LifecycleSharedPerClass), WithFactories(f))
	m := New()

	_, err := m.RequestInstance(scope)
	require.Error(t, err)
	require.NoError(t, m.Release(scope))

	fail = false
	_, err = m.RequestInstance(scope)
	assert.NoError(t, err)
}

func TestManager_ReleaseForgetsSelection(t *testing.T) {
	scope := NewClassScope(TypeFor[*CalculatorTests]())
	m := New()
	require.NoError(t, m.Enter(scope))
	require.Len(t, m.selections, 1)

	require.NoError(t, m.Release(scope))
	assert.Empty(t, m.selections)
	assert.NoError(t, m.Release(nil))
}

func TestManager_ReleaseDisposes(t *testing.T) {
	instance := &disposableTests{}
	scope := NewClassScope(TypeFor[*disposableTests](),
		WithLifecycle(LifecycleSharedPerClass),
		WithConstructor(func() *disposableTests { return instance }),
	)
	m := New()

	_, err := m.RequestInstance(scope)
	require.NoError(t, err)
	require.NoError(t, m.Release(scope))
	assert.Equal(t, 1, instance.disposed)

	require.NoError(t, m.Release(scope))
	assert.Equal(t, 1, instance.disposed)
}

func TestManager_ReleaseDisposeError(t *testing.T) {
	instance := &disposableTests{err: errors.New("close failed")}
	scope := NewClassScope(TypeFor[*disposableTests](),
		WithLifecycle(LifecycleSharedPerClass),
		WithConstructor(func() *disposableTests { return instance }),
	)
	m := New()

	_, err := m.RequestInstance(scope)
	require.NoError(t, err)

	err = m.Release(scope)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close failed")
	_, cached := m.Cached(scope)
	assert.False(t, cached)
}

func TestManager_WithDisposalDisabled(t *testing.T) {
	instance := &disposableTests{}
	scope := NewClassScope(TypeFor[*disposableTests](),
		WithLifecycle(LifecycleSharedPerClass),
		WithConstructor(func() *disposableTests { return instance }),
	)
	m := New(WithDisposal(false))

	_, err := m.RequestInstance(scope)
	require.NoError(t, err)
	require.NoError(t, m.Release(scope))
	assert.Equal(t, 0, instance.disposed)
}

func TestManager_NestedFreshChainRecreatedPerRequest(t *testing.T) {
	log := &creationLog{}
	f := recordingFactory("F", log)

	outer := NewClassScope(TypeFor[*OuterTests](), WithFactories(f))
	middle := NewClassScope(TypeFor[*MiddleTests](), WithParent(outer))
	inner := NewClassScope(TypeFor[*InnerTests](), WithParent(middle))
	m := New()

	first, err := m.RequestInstance(inner)
	require.NoError(t, err)
	second, err := m.RequestInstance(inner)
	require.NoError(t, err)

	a, b := first.(*InnerTests), second.(*InnerTests)
	assert.NotSame(t, a, b)
	assert.NotSame(t, a.Middle, b.Middle)
	assert.NotSame(t, a.Middle.Outer, b.Middle.Outer)
	assert.Len(t, log.entries(), 6)
}

func TestManager_NestedUsesSharedParent(t *testing.T) {
	outer := NewClassScope(TypeFor[*OuterTests](), WithLifecycle(LifecycleSharedPerClass))
	middle := NewClassScope(TypeFor[*MiddleTests](), WithParent(outer))
	m := New()

	first, err := m.RequestInstance(middle)
	require.NoError(t, err)
	second, err := m.RequestInstance(middle)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Same(t, first.(*MiddleTests).Outer, second.(*MiddleTests).Outer)

	cachedOuter, ok := m.Cached(outer)
	require.True(t, ok)
	assert.Same(t, cachedOuter, first.(*MiddleTests).Outer)
}

func TestManager_NestedParentFailureShortCircuits(t *testing.T) {
	outerFactory := newStub("OuterBoom", func(ctx FactoryContext) (any, error) {
		if ctx.TestType() == TypeFor[*OuterTests]() {
			return nil, errors.New("boom!")
		}
		return ctx.DefaultInstance()
	})
	outer := NewClassScope(TypeFor[*OuterTests](), WithFactories(outerFactory))
	middle := NewClassScope(TypeFor[*MiddleTests](), WithParent(outer))
	m := New()

	_, err := m.RequestInstance(middle)

	var ie *InstantiationError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, TypeFor[*OuterTests](), ie.Target)
	assert.Equal(t, int32(1), outerFactory.calls.Load())
}

func TestManager_SelectionMemoized(t *testing.T) {
	f := newStub("Foo", nil)
	scope := NewClassScope(TypeFor[*CalculatorTests](), WithFactories(f))
	m := New()
	require.NoError(t, m.Enter(scope))

	// Later registrations are not seen until the scope is released.
	WithFactories(newStub("Late", nil))(scope)
	_, err := m.RequestInstance(scope)
	assert.NoError(t, err)

	require.NoError(t, m.Release(scope))
	assert.ErrorIs(t, m.Enter(scope), ErrConfiguration)
}

func TestManager_DefaultEquivalentToPlainFactory(t *testing.T) {
	plain := NewClassScope(TypeFor[*MiddleTests](), WithParent(NewClassScope(TypeFor[*OuterTests]())))
	viaFactory := NewClassScope(TypeFor[*MiddleTests](),
		WithParent(NewClassScope(TypeFor[*OuterTests]())),
		WithFactories(newStub("Plain", nil)),
	)
	m := New()

	a, err := m.RequestInstance(plain)
	require.NoError(t, err)
	b, err := m.RequestInstance(viaFactory)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestManager_LogsWithLogger(t *testing.T) {
	m := New(WithLogger(zap.NewNop()))
	_, err := m.RequestInstance(NewClassScope(TypeFor[*CalculatorTests]()))
	assert.NoError(t, err)
}

// Scenario tests, one per documented behavior of the lifecycle subsystem.

func TestScenario_MultipleFactoriesAreAConfigurationError(t *testing.T) {
	scope := NewClassScope(TypeFor[*CalculatorTests](),
		WithFactories(newStub("F1", nil), newStub("F2", nil)),
	)

	err := New().Enter(scope)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{"F1", "F2"}, cfgErr.Factories)
	assert.Equal(t, PlacementContainer, PlacementOf(scope, err))
}

func TestScenario_NullFactoryFailsTheTest(t *testing.T) {
	scope := NewClassScope(TypeFor[*CalculatorTests](), WithFactories(newStub("Null", func(FactoryContext) (any, error) {
		return nil, nil
	})))
	m := New()
	require.NoError(t, m.Enter(scope))

	_, err := m.RequestInstance(scope)

	require.Error(t, err)
	assert.Regexp(t, `and instead returned an instance of \[null\]\.$`, err.Error())
	assert.Equal(t, PlacementTest, PlacementOf(scope, err))
}

func TestScenario_ThrowingFactoryPreservesCause(t *testing.T) {
	boom := errors.New("boom!")
	scope := NewClassScope(TypeFor[*CalculatorTests](), WithFactories(newStub("Explosive", func(FactoryContext) (any, error) {
		return nil, boom
	})))

	_, err := New().RequestInstance(scope)

	require.Error(t, err)
	assert.Regexp(t, `failed to instantiate test class \[.*CalculatorTests\]: boom!$`, err.Error())
	assert.Same(t, boom, errors.Unwrap(err))
}

func TestScenario_DeepNestingCreatesOuterFirst(t *testing.T) {
	log := &creationLog{}
	f := recordingFactory("F", log)

	outer := NewClassScope(TypeFor[*OuterTests](), WithFactories(f))
	middle := NewClassScope(TypeFor[*MiddleTests](), WithParent(outer))
	inner := NewClassScope(TypeFor[*InnerTests](), WithParent(middle))
	m := New()
	require.NoError(t, m.Enter(outer))
	require.NoError(t, m.Enter(middle))
	require.NoError(t, m.Enter(inner))

	instance, err := m.RequestInstance(inner)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"github.com/toutaio/toutago-tinst.OuterTests",
		"github.com/toutaio/toutago-tinst.MiddleTests",
		"github.com/toutaio/toutago-tinst.InnerTests",
	}, log.entries())

	in := instance.(*InnerTests)
	require.NotNil(t, in.Middle)
	assert.NotNil(t, in.Middle.Outer)
}

func TestScenario_SharedInstanceSeesMutations(t *testing.T) {
	f := newStub("F", nil)
	scope := NewClassScope(TypeFor[*CalculatorTests](),
		WithLifecycle(LifecycleSharedPerClass),
		WithFactories(f),
	)
	m := New()
	require.NoError(t, m.Enter(scope))

	first, err := m.RequestInstance(scope)
	require.NoError(t, err)
	first.(*CalculatorTests).Value++

	second, err := m.RequestInstance(scope)
	require.NoError(t, err)

	assert.Equal(t, 1, second.(*CalculatorTests).Value)
	assert.Equal(t, int32(1), f.calls.Load())
}
