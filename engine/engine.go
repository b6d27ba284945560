// Package engine executes trees of test containers on top of a tinst.Manager
// and reports what happens as a stream of events.
//
// Per container the engine emits "started", enters the scope, obtains the
// shared instance for shared-per-class scopes, runs class hooks, tests and
// nested containers, releases the scope and emits "finished". Instantiation
// failures of shared-per-class scopes and configuration errors fail the
// container without starting any of its tests; instantiation failures of
// fresh-per-test scopes fail only the test that needed the instance.
package engine

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	tinst "github.com/toutaio/toutago-tinst"
	"github.com/toutaio/toutago-tinst/uniqueid"
)

// DefaultEngineID is the engine segment used in unique ids.
const DefaultEngineID = "tinst"

// Engine runs containers. An Engine is not safe for concurrent Execute calls;
// use one Engine per goroutine.
type Engine struct {
	id        string
	manager   *tinst.Manager
	listeners multiListener
	logger    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithListener adds a listener. Listeners are called in the order added.
func WithListener(l Listener) Option {
	return func(e *Engine) {
		if l != nil {
			e.listeners = append(e.listeners, l)
		}
	}
}

// WithManager sets the manager used to obtain instances.
func WithManager(m *tinst.Manager) Option {
	return func(e *Engine) {
		if m != nil {
			e.manager = m
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithEngineID overrides the engine segment of unique ids.
func WithEngineID(id string) Option {
	return func(e *Engine) {
		if id != "" {
			e.id = id
		}
	}
}

// New creates an engine. Without WithManager it uses a fresh tinst.Manager
// sharing the engine's logger.
func New(options ...Option) *Engine {
	e := &Engine{
		id:     DefaultEngineID,
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		opt(e)
	}
	if e.manager == nil {
		e.manager = tinst.New(tinst.WithLogger(e.logger))
	}
	return e
}

// Summary describes one Execute call.
type Summary struct {
	RunID            uuid.UUID
	Started          time.Time
	Duration         time.Duration
	TestsStarted     int
	TestsSucceeded   int
	TestsFailed      int
	ContainersFailed int
}

// Failed reports whether any test or container failed.
func (s Summary) Failed() bool {
	return s.TestsFailed > 0 || s.ContainersFailed > 0
}

// run holds the state of a single Execute call.
type run struct {
	*Engine
	summary *Summary
	logger  *zap.Logger
}

// Execute runs the given top-level containers in order and returns a summary.
func (e *Engine) Execute(containers ...*Container) Summary {
	summary := &Summary{RunID: uuid.New(), Started: time.Now()}
	r := &run{
		Engine:  e,
		summary: summary,
		logger:  e.logger.With(zap.String("run_id", summary.RunID.String())),
	}

	root := uniqueid.ForEngine(e.id)
	r.emit(Event{Type: EventStarted, Kind: KindEngine, ID: root, Name: e.id})
	for _, c := range containers {
		r.executeContainer(c, root)
	}
	r.emit(Event{Type: EventFinished, Kind: KindEngine, ID: root, Name: e.id, Result: Successful()})

	summary.Duration = time.Since(summary.Started)
	r.logger.Info("execution finished",
		zap.Int("tests_started", summary.TestsStarted),
		zap.Int("tests_failed", summary.TestsFailed),
		zap.Int("containers_failed", summary.ContainersFailed),
		zap.Duration("duration", summary.Duration),
	)
	return *summary
}

func (r *run) emit(ev Event) {
	switch {
	case ev.Kind == KindTest && ev.Type == EventStarted:
		r.summary.TestsStarted++
	case ev.Kind == KindTest && ev.Result.Status == StatusSuccessful:
		r.summary.TestsSucceeded++
	case ev.Kind == KindTest && ev.Result.Status == StatusFailed:
		r.summary.TestsFailed++
	case ev.Kind == KindContainer && ev.Result.Status == StatusFailed:
		r.summary.ContainersFailed++
	}
	r.listeners.OnEvent(ev)
}

func (r *run) executeContainer(c *Container, parentID uniqueid.ID) {
	nested := c.Scope != nil && c.Scope.Nested()
	segment := uniqueid.TypeClass
	if nested {
		segment = uniqueid.TypeNestedClass
	}
	id := parentID.Append(segment, c.DisplayName())
	logger := r.logger.With(zap.String("container", c.DisplayName()))

	r.emit(Event{Type: EventStarted, Kind: KindContainer, ID: id, Name: c.DisplayName(), Nested: nested})
	result := r.runContainer(c, id, logger)
	if result.Err != nil {
		logger.Warn("container failed", zap.Error(result.Err))
	}
	r.emit(Event{Type: EventFinished, Kind: KindContainer, ID: id, Name: c.DisplayName(), Nested: nested, Result: result})
}

func (r *run) runContainer(c *Container, id uniqueid.ID, logger *zap.Logger) (result Result) {
	if c.Scope == nil {
		return Failed(fmt.Errorf("container %s has no scope", c.DisplayName()))
	}
	scope := c.Scope

	if err := r.manager.Enter(scope); err != nil {
		_ = r.manager.Release(scope)
		return Failed(err)
	}

	defer func() {
		if err := r.manager.Release(scope); err != nil && result.Err == nil {
			result = Failed(err)
		}
	}()

	var classInstance any
	if scope.Lifecycle().Shared() {
		instance, err := r.manager.RequestInstance(scope)
		if err != nil {
			return Failed(err)
		}
		classInstance = instance
	}

	if err := runHooks(c.BeforeAll, classInstance); err != nil {
		// after-all hooks run even when before-all fails
		if afterErr := runHooks(c.AfterAll, classInstance); afterErr != nil {
			err = errors.Join(err, afterErr)
		}
		return Failed(err)
	}

	for _, t := range c.Tests {
		r.executeTest(c, t, id.Append(uniqueid.TypeMethod, t.Name), logger)
	}

	for _, nested := range c.Nested {
		r.executeContainer(nested, id)
	}

	if err := runHooks(c.AfterAll, classInstance); err != nil {
		return Failed(err)
	}
	return Successful()
}

func (r *run) executeTest(c *Container, t Test, id uniqueid.ID, logger *zap.Logger) {
	r.emit(Event{Type: EventStarted, Kind: KindTest, ID: id, Name: t.Name})
	err := r.runTest(c, t)
	result := Successful()
	if err != nil {
		logger.Debug("test failed", zap.String("test", t.Name), zap.Error(err))
		result = Failed(err)
	}
	r.emit(Event{Type: EventFinished, Kind: KindTest, ID: id, Name: t.Name, Result: result})
}

func (r *run) runTest(c *Container, t Test) error {
	instance, err := r.manager.RequestInstance(c.Scope)
	if err != nil {
		return err
	}

	err = runHooks(c.BeforeEach, instance)
	if err == nil && t.Body != nil {
		err = safeCall(t.Body, instance)
	}
	if afterErr := runHooks(c.AfterEach, instance); afterErr != nil {
		err = errors.Join(err, afterErr)
	}
	return err
}

func runHooks(hooks []Hook, instance any) error {
	for _, h := range hooks {
		if err := safeCall(h, instance); err != nil {
			return err
		}
	}
	return nil
}

// safeCall runs fn and turns a panic into an error.
func safeCall(fn func(any) error, instance any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &tinst.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn(instance)
}
