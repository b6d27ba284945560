package tinst

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration matches every *ConfigurationError via errors.Is.
	ErrConfiguration = errors.New("extension configuration error")

	// ErrInstantiation matches every *InstantiationError via errors.Is.
	ErrInstantiation = errors.New("test instantiation error")
)

// ConfigurationError is returned when more than one factory extension is
// visible to a scope. It is detected when the scope is entered, before any
// instantiation is attempted.
type ConfigurationError struct {
	Scope     TypeID
	Factories []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("The following TestInstanceFactory extensions were registered for test class [%s], but only one is permitted: [%s]",
		e.Scope.Name(), strings.Join(e.Factories, ", "))
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// InstantiationError is returned when creating a test instance fails: the
// factory returned nil, returned a value of the wrong type, or failed.
type InstantiationError struct {
	Kind    OutcomeKind
	Factory string // empty for default construction
	Target  TypeID
	Actual  TypeID
	Cause   error
	msg     string
}

func (e *InstantiationError) Error() string {
	return e.msg
}

// Unwrap returns the underlying cause, if any.
func (e *InstantiationError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrInstantiation.
func (e *InstantiationError) Is(target error) bool {
	return target == ErrInstantiation
}

// ConstructionError is returned by default construction when no instance can
// be produced for a type.
type ConstructionError struct {
	Target TypeID
	Reason string
	Cause  error
}

func (e *ConstructionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot construct %s: %s: %v", e.Target.Name(), e.Reason, e.Cause)
	}
	return fmt.Sprintf("cannot construct %s: %s", e.Target.Name(), e.Reason)
}

// Unwrap returns the underlying cause error.
func (e *ConstructionError) Unwrap() error {
	return e.Cause
}

// PanicError carries a value recovered from a panicking factory or
// constructor. Its message is the panic value itself.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprint(e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
