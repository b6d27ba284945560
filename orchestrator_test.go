package tinst

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func selectFor(t *testing.T, scope *ClassScope) Selection {
	t.Helper()
	sel, err := Select(scope, Resolve(scope))
	require.NoError(t, err)
	return sel
}

func TestInstantiate_DefaultConstruction(t *testing.T) {
	o := NewOrchestrator(nil)

	result := o.Instantiate(selectFor(t, NewClassScope(TypeFor[*CalculatorTests]())), nil)

	require.True(t, result.OK())
	assert.Equal(t, OutcomeSuccess, result.Kind)
	assert.IsType(t, &CalculatorTests{}, result.Instance)
	assert.Nil(t, result.Factory)
}

func TestInstantiate_DefaultConstructionValueType(t *testing.T) {
	result := NewOrchestrator(nil).Instantiate(selectFor(t, NewClassScope(TypeFor[CalculatorTests]())), nil)

	require.True(t, result.OK())
	assert.Equal(t, CalculatorTests{}, result.Instance)
}

func TestInstantiate_FactorySuccess(t *testing.T) {
	var seen FactoryContext
	f := newStub("Foo", func(ctx FactoryContext) (any, error) {
		seen = ctx
		return &CalculatorTests{Value: 7}, nil
	})
	scope := NewClassScope(TypeFor[*CalculatorTests](), WithFactories(f))

	result := NewOrchestrator(nil).Instantiate(selectFor(t, scope), "ignored")

	require.True(t, result.OK())
	assert.Equal(t, 7, result.Instance.(*CalculatorTests).Value)
	assert.Same(t, f, result.Factory)
	assert.Equal(t, TypeFor[*CalculatorTests](), seen.TestType())
	outer, ok := seen.OuterInstance()
	assert.False(t, ok)
	assert.Nil(t, outer)
}

func TestInstantiate_Outcomes(t *testing.T) {
	tests := []struct {
		name   string
		create func(ctx FactoryContext) (any, error)
		kind   OutcomeKind
		actual TypeID
	}{
		{
			name:   "null",
			create: func(FactoryContext) (any, error) { return nil, nil },
			kind:   OutcomeNull,
		},
		{
			name:   "typed nil",
			create: func(FactoryContext) (any, error) { return (*CalculatorTests)(nil), nil },
			kind:   OutcomeNull,
		},
		{
			name:   "wrong type",
			create: func(FactoryContext) (any, error) { return "bogus", nil },
			kind:   OutcomeTypeMismatch,
			actual: TypeFor[string](),
		},
		{
			name:   "value instead of pointer",
			create: func(FactoryContext) (any, error) { return CalculatorTests{}, nil },
			kind:   OutcomeTypeMismatch,
			actual: TypeFor[CalculatorTests](),
		},
		{
			name:   "error",
			create: func(FactoryContext) (any, error) { return nil, errors.New("boom!") },
			kind:   OutcomeThrown,
		},
		{
			name:   "error with instance",
			create: func(FactoryContext) (any, error) { return &CalculatorTests{}, errors.New("boom!") },
			kind:   OutcomeThrown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope := NewClassScope(TypeFor[*CalculatorTests](), WithFactories(newStub("F", tt.create)))

			result := NewOrchestrator(nil).Instantiate(selectFor(t, scope), nil)

			assert.Equal(t, tt.kind, result.Kind)
			assert.False(t, result.OK())
			assert.Nil(t, result.Instance)
			assert.Equal(t, tt.actual, result.Actual)
		})
	}
}

func TestInstantiate_SameNameDifferentIdentity(t *testing.T) {
	target := NewType("Proxy")
	scope := NewClassScope(target, WithFactories(newStub("ProxyFactory", func(FactoryContext) (any, error) {
		return typedValue{id: NewType("Proxy")}, nil
	})))

	result := NewOrchestrator(nil).Instantiate(selectFor(t, scope), nil)

	assert.Equal(t, OutcomeTypeMismatch, result.Kind)
	assert.Equal(t, target.Name(), result.Actual.Name())
	assert.NotEqual(t, target, result.Actual)
}

func TestInstantiate_PanicIsCaptured(t *testing.T) {
	scope := NewClassScope(TypeFor[*CalculatorTests](), WithFactories(newStub("Panicky", func(FactoryContext) (any, error) {
		panic("kaboom")
	})))

	result := NewOrchestrator(nil).Instantiate(selectFor(t, scope), nil)

	require.Equal(t, OutcomeThrown, result.Kind)
	var panicErr *PanicError
	require.ErrorAs(t, result.Cause, &panicErr)
	assert.Equal(t, "kaboom", panicErr.Value)
	assert.Equal(t, "kaboom", panicErr.Error())
	assert.NotEmpty(t, panicErr.Stack)
}

func TestInstantiate_PanicWithError(t *testing.T) {
	sentinel := errors.New("sentinel")
	scope := NewClassScope(TypeFor[*CalculatorTests](), WithConstructor(func() *CalculatorTests {
		panic(sentinel)
	}))

	result := NewOrchestrator(nil).Instantiate(selectFor(t, scope), nil)

	require.Equal(t, OutcomeThrown, result.Kind)
	assert.ErrorIs(t, result.Cause, sentinel)
}

func TestInstantiate_NestedPassesOuter(t *testing.T) {
	outerInstance := &OuterTests{Name: "outer"}
	var seenOuter any
	var hasOuter bool

	outer := NewClassScope(TypeFor[*OuterTests]())
	middle := NewClassScope(TypeFor[*MiddleTests](),
		WithParent(outer),
		WithFactories(newStub("Inspecting", func(ctx FactoryContext) (any, error) {
			seenOuter, hasOuter = ctx.OuterInstance()
			return ctx.DefaultInstance()
		})),
	)

	result := NewOrchestrator(nil).Instantiate(selectFor(t, middle), outerInstance)

	require.True(t, result.OK())
	assert.True(t, hasOuter)
	assert.Same(t, outerInstance, seenOuter)
	assert.Same(t, outerInstance, result.Instance.(*MiddleTests).Outer)
}

func TestInstantiate_DynamicTypeWithoutConstructor(t *testing.T) {
	scope := NewClassScope(NewType("Scripted"))

	result := NewOrchestrator(nil).Instantiate(selectFor(t, scope), nil)

	require.Equal(t, OutcomeThrown, result.Kind)
	var ce *ConstructionError
	require.ErrorAs(t, result.Cause, &ce)
	assert.Equal(t, "Scripted", ce.Target.Name())
}

func TestInstantiate_NonStructType(t *testing.T) {
	result := NewOrchestrator(nil).Instantiate(selectFor(t, NewClassScope(TypeFor[int]())), nil)

	require.Equal(t, OutcomeThrown, result.Kind)
	assert.Contains(t, result.Cause.Error(), "type must be a struct or pointer to struct")
}

func TestInstantiate_LogsAttempt(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	o := NewOrchestrator(zap.New(core))
	scope := NewClassScope(TypeFor[*CalculatorTests](), WithFactories(newStub("Foo", nil)))

	o.Instantiate(selectFor(t, scope), nil)

	entries := logs.FilterMessage("instantiation attempt").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "github.com/toutaio/toutago-tinst.CalculatorTests", fields["class"])
	assert.Equal(t, "success", fields["outcome"])
	assert.Equal(t, "Foo", fields["factory"])
}
