// Package plan loads declarative descriptions of test classes from YAML and
// turns them into engine containers.
//
// A plan names its factory extensions once and refers to them by name from
// any number of classes, so one name always stands for one extension
// identity:
//
//	factories:
//	  - name: Foo
//	    kind: default
//	  - name: Boom
//	    kind: explosive
//	    message: boom!
//	classes:
//	  - name: OuterTests
//	    factories: [Foo]
//	    tests:
//	      - name: outerTest
//	    nested:
//	      - name: InnerTests
//	        lifecycle: per-class
//	        tests:
//	          - name: first
//	            increment: true
//	          - name: second
//	            increment: true
//	            expect_count: 2
package plan

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Factory kinds understood by plans.
const (
	KindDefault   = "default"   // default construction
	KindNull      = "null"      // returns nil
	KindBogus     = "bogus"     // returns a string
	KindExplosive = "explosive" // returns an error with Message
	KindPanic     = "panic"     // panics with Message
	KindProxy     = "proxy"     // returns an instance of a same-named but distinct type
)

// Hook names understood by plans.
const (
	HookBeforeAll  = "before_all"
	HookBeforeEach = "before_each"
	HookAfterEach  = "after_each"
	HookAfterAll   = "after_all"
)

// Plan is the root of a plan file.
type Plan struct {
	Name      string        `yaml:"name,omitempty"`
	Factories []FactorySpec `yaml:"factories,omitempty" validate:"dive"`
	Classes   []ClassSpec   `yaml:"classes" validate:"required,min=1,dive"`
}

// FactorySpec declares a named factory extension.
type FactorySpec struct {
	Name    string   `yaml:"name" validate:"required"`
	Kind    string   `yaml:"kind" validate:"required,oneof=default null bogus explosive panic proxy"`
	Message string   `yaml:"message,omitempty" validate:"required_if=Kind explosive,required_if=Kind panic"`
	Tags    []string `yaml:"tags,omitempty"`
}

// ClassSpec declares a test class and the classes nested inside it.
type ClassSpec struct {
	Name               string      `yaml:"name" validate:"required"`
	Lifecycle          string      `yaml:"lifecycle,omitempty" validate:"omitempty,oneof=per-method per-class"`
	InterfaceFactories []string    `yaml:"interface_factories,omitempty" validate:"dive,required"`
	InheritedFactories [][]string  `yaml:"inherited_factories,omitempty" validate:"dive,dive,required"`
	Factories          []string    `yaml:"factories,omitempty" validate:"dive,required"`
	Hooks              []string    `yaml:"hooks,omitempty" validate:"dive,oneof=before_all before_each after_each after_all"`
	Tests              []TestSpec  `yaml:"tests,omitempty" validate:"dive"`
	Nested             []ClassSpec `yaml:"nested,omitempty" validate:"dive"`
}

// TestSpec declares a single test.
type TestSpec struct {
	Name        string `yaml:"name" validate:"required"`
	Increment   bool   `yaml:"increment,omitempty"`
	ExpectCount *int   `yaml:"expect_count,omitempty" validate:"omitempty,min=0"`
	Fail        string `yaml:"fail,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and validates a plan file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = path
	}
	return p, nil
}

// Parse decodes and validates a plan from YAML. Unknown keys are rejected.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks field constraints, unique factory names and that every
// referenced factory is declared.
func (p *Plan) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid plan: %w", err)
	}

	declared := make(map[string]bool, len(p.Factories))
	var errs []error
	for _, f := range p.Factories {
		if declared[f.Name] {
			errs = append(errs, fmt.Errorf("factory %q declared more than once", f.Name))
		}
		declared[f.Name] = true
	}

	var walk func(path string, classes []ClassSpec)
	walk = func(path string, classes []ClassSpec) {
		for _, c := range classes {
			classPath := path + c.Name
			for _, name := range c.referencedFactories() {
				if !declared[name] {
					errs = append(errs, fmt.Errorf("class %s references undeclared factory %q", classPath, name))
				}
			}
			walk(classPath+".", c.Nested)
		}
	}
	walk("", p.Classes)

	if len(errs) > 0 {
		return fmt.Errorf("invalid plan: %w", errors.Join(errs...))
	}
	return nil
}

func (c ClassSpec) referencedFactories() []string {
	var names []string
	names = append(names, c.InterfaceFactories...)
	for _, level := range c.InheritedFactories {
		names = append(names, level...)
	}
	return append(names, c.Factories...)
}

// CountTests returns the number of tests declared in the plan.
func (p *Plan) CountTests() int {
	var count func([]ClassSpec) int
	count = func(classes []ClassSpec) int {
		n := 0
		for _, c := range classes {
			n += len(c.Tests) + count(c.Nested)
		}
		return n
	}
	return count(p.Classes)
}
