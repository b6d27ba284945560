package tinst

import (
	"errors"
	"fmt"
)

// Placement says where a failure is reported.
type Placement int

const (
	// PlacementContainer reports the failure once for the whole scope;
	// no test inside it starts.
	PlacementContainer Placement = iota
	// PlacementTest fails only the test that requested the instance.
	PlacementTest
)

// String returns the string representation of the placement.
func (p Placement) String() string {
	if p == PlacementTest {
		return "test"
	}
	return "container"
}

// Classify converts a raw instantiation result into a typed error.
// Successful results classify to nil. Classification is deterministic: the
// same result always yields the same error kind and message.
func Classify(r InstantiationResult) error {
	switch r.Kind {
	case OutcomeSuccess:
		return nil

	case OutcomeNull:
		msg := fmt.Sprintf("%s failed to return an instance of [%s] and instead returned an instance of [null].",
			producer(r.Factory), r.Target.Name())
		return &InstantiationError{
			Kind:    OutcomeNull,
			Factory: factoryLabel(r.Factory),
			Target:  r.Target,
			msg:     msg,
		}

	case OutcomeTypeMismatch:
		// Same display name on both sides: print identity markers.
		marker := r.Target.Name() == r.Actual.Name()
		msg := fmt.Sprintf("%s failed to return an instance of [%s] and instead returned an instance of [%s].",
			producer(r.Factory), r.Target.Qualified(marker), r.Actual.Qualified(marker))
		return &InstantiationError{
			Kind:    OutcomeTypeMismatch,
			Factory: factoryLabel(r.Factory),
			Target:  r.Target,
			Actual:  r.Actual,
			msg:     msg,
		}

	case OutcomeThrown:
		var existing *InstantiationError
		if errors.As(r.Cause, &existing) {
			return existing
		}
		cause := r.Cause
		if cause == nil {
			cause = errors.New("unknown failure")
		}
		msg := fmt.Sprintf("%s failed to instantiate test class [%s]: %s",
			producer(r.Factory), r.Target.Name(), cause.Error())
		return &InstantiationError{
			Kind:    OutcomeThrown,
			Factory: factoryLabel(r.Factory),
			Target:  r.Target,
			Cause:   cause,
			msg:     msg,
		}

	default:
		return fmt.Errorf("unknown instantiation outcome %d for %s", r.Kind, r.Target.Name())
	}
}

// PlacementOf decides whether err, raised while obtaining an instance for
// scope, is reported at container or test granularity.
// Configuration errors and failures of shared-per-class scopes are container
// failures; failures of fresh-per-test scopes only fail the requesting test.
func PlacementOf(scope *ClassScope, err error) Placement {
	if errors.Is(err, ErrConfiguration) {
		return PlacementContainer
	}
	if scope != nil && scope.Lifecycle().Shared() {
		return PlacementContainer
	}
	return PlacementTest
}

func producer(factory FactoryExtension) string {
	if factory == nil {
		return "Default constructor"
	}
	return fmt.Sprintf("TestInstanceFactory [%s]", FactoryNameOf(factory))
}

func factoryLabel(factory FactoryExtension) string {
	if factory == nil {
		return ""
	}
	return FactoryNameOf(factory)
}
