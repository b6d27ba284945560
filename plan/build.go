package plan

import (
	"errors"
	"fmt"

	tinst "github.com/toutaio/toutago-tinst"
	"github.com/toutaio/toutago-tinst/engine"
	"github.com/toutaio/toutago-tinst/registry"
)

// Build is an executable form of a plan.
type Build struct {
	Plan       *Plan
	Containers []*engine.Container
	Registry   *registry.Registry
	Trace      *Trace
}

type buildConfig struct {
	registry         *registry.Registry
	defaultLifecycle tinst.Lifecycle
}

// BuildOption configures Plan.Build.
type BuildOption func(*buildConfig)

// WithRegistry registers the plan's factories into reg instead of a new registry.
func WithRegistry(reg *registry.Registry) BuildOption {
	return func(c *buildConfig) {
		c.registry = reg
	}
}

// WithDefaultLifecycle sets the lifecycle of classes that do not declare one.
func WithDefaultLifecycle(l tinst.Lifecycle) BuildOption {
	return func(c *buildConfig) {
		c.defaultLifecycle = l
	}
}

type builder struct {
	cfg   buildConfig
	trace *Trace
}

// Build creates factory extensions, scopes and containers for the plan.
// Every class gets its own dynamic type identity.
func (p *Plan) Build(options ...BuildOption) (*Build, error) {
	cfg := buildConfig{defaultLifecycle: tinst.LifecycleFreshPerTest}
	for _, opt := range options {
		opt(&cfg)
	}
	if cfg.registry == nil {
		cfg.registry = registry.New()
	}

	b := &builder{cfg: cfg, trace: &Trace{}}

	for _, spec := range p.Factories {
		f := &factory{spec: spec, trace: b.trace}
		if err := cfg.registry.Register(spec.Name, f, spec.Tags...); err != nil {
			return nil, fmt.Errorf("failed to register factory %s: %w", spec.Name, err)
		}
	}

	containers := make([]*engine.Container, 0, len(p.Classes))
	for _, spec := range p.Classes {
		c, err := b.container(spec, nil)
		if err != nil {
			return nil, err
		}
		containers = append(containers, c)
	}

	return &Build{Plan: p, Containers: containers, Registry: cfg.registry, Trace: b.trace}, nil
}

func (b *builder) container(spec ClassSpec, parent *tinst.ClassScope) (*engine.Container, error) {
	lifecycle := b.cfg.defaultLifecycle
	if spec.Lifecycle != "" {
		var err error
		if lifecycle, err = tinst.ParseLifecycle(spec.Lifecycle); err != nil {
			return nil, fmt.Errorf("class %s: %w", spec.Name, err)
		}
	}

	typ := tinst.NewType(spec.Name)
	opts := []tinst.ScopeOption{
		tinst.WithLifecycle(lifecycle),
		tinst.WithConstructor(tinst.Constructor(func(outer any) (any, error) {
			inst := &Instance{typ: typ, Class: spec.Name}
			if o, ok := outer.(*Instance); ok {
				inst.Outer = o
			}
			return inst, nil
		})),
	}
	if parent != nil {
		opts = append(opts, tinst.WithParent(parent))
	}

	interfaces, err := b.cfg.registry.Lookup(spec.InterfaceFactories...)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", spec.Name, err)
	}
	opts = append(opts, tinst.WithInterfaceFactories(interfaces...))

	for _, level := range spec.InheritedFactories {
		inherited, err := b.cfg.registry.Lookup(level...)
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", spec.Name, err)
		}
		opts = append(opts, tinst.WithInheritedFactories(inherited...))
	}

	local, err := b.cfg.registry.Lookup(spec.Factories...)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", spec.Name, err)
	}
	opts = append(opts, tinst.WithFactories(local...))

	scope := tinst.NewClassScope(typ, opts...)
	c := &engine.Container{Name: spec.Name, Scope: scope}

	for _, hook := range spec.Hooks {
		h := b.hook(hook, spec.Name)
		switch hook {
		case HookBeforeAll:
			c.BeforeAll = append(c.BeforeAll, h)
		case HookBeforeEach:
			c.BeforeEach = append(c.BeforeEach, h)
		case HookAfterEach:
			c.AfterEach = append(c.AfterEach, h)
		case HookAfterAll:
			c.AfterAll = append(c.AfterAll, h)
		default:
			return nil, fmt.Errorf("class %s: unknown hook %q", spec.Name, hook)
		}
	}

	for _, t := range spec.Tests {
		c.Tests = append(c.Tests, engine.Test{Name: t.Name, Body: b.test(t)})
	}

	for _, nestedSpec := range spec.Nested {
		nested, err := b.container(nestedSpec, scope)
		if err != nil {
			return nil, err
		}
		c.Nested = append(c.Nested, nested)
	}

	return c, nil
}

func (b *builder) hook(name, class string) engine.Hook {
	return func(any) error {
		b.trace.Add(fmt.Sprintf("%s: %s", name, class))
		return nil
	}
}

func (b *builder) test(spec TestSpec) func(any) error {
	return func(instance any) error {
		inst, ok := instance.(*Instance)
		if !ok {
			return fmt.Errorf("test %s received unexpected instance %T", spec.Name, instance)
		}
		b.trace.Add(spec.Name)
		if spec.Increment {
			inst.Counter++
		}
		if spec.ExpectCount != nil && inst.Counter != *spec.ExpectCount {
			return fmt.Errorf("expected counter %d, got %d", *spec.ExpectCount, inst.Counter)
		}
		if spec.Fail != "" {
			return errors.New(spec.Fail)
		}
		return nil
	}
}

// factory is the FactoryExtension behind a FactorySpec.
type factory struct {
	spec  FactorySpec
	trace *Trace
}

func (f *factory) FactoryName() string {
	return f.spec.Name
}

func (f *factory) CreateInstance(ctx tinst.FactoryContext) (any, error) {
	f.trace.Add(fmt.Sprintf("%s instantiated: %s", f.spec.Name, ctx.TestType().Name()))

	switch f.spec.Kind {
	case KindNull:
		return nil, nil
	case KindBogus:
		return "bogus", nil
	case KindExplosive:
		return nil, errors.New(f.spec.Message)
	case KindPanic:
		panic(f.spec.Message)
	case KindProxy:
		instance, err := ctx.DefaultInstance()
		if err != nil {
			return nil, err
		}
		inst, ok := instance.(*Instance)
		if !ok {
			return instance, nil
		}
		proxy := *inst
		proxy.typ = tinst.NewType(ctx.TestType().Name())
		return &proxy, nil
	default:
		return ctx.DefaultInstance()
	}
}
