package tinst

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Disposable represents a test instance that requires cleanup.
// Shared instances implementing this interface have Dispose called when
// their scope is released.
//
// Example:
//
//	type DatabaseTests struct{ conn *sql.DB }
//	func (t *DatabaseTests) Dispose() error {
//	    return t.conn.Close()
//	}
type Disposable interface {
	Dispose() error
}

// Manager hands out test instances for class scopes and keeps shared
// instances alive for as long as their scope executes.
//
// Typical use by an execution engine:
//
//	manager := tinst.New(tinst.WithLogger(logger))
//	if err := manager.Enter(scope); err != nil {
//	    // container-level configuration failure
//	}
//	defer manager.Release(scope)
//	instance, err := manager.RequestInstance(scope)
//
// Execution of one scope chain is expected to be sequential; the Manager
// guards its own state but offers no scheduling.
type Manager struct {
	logger       *zap.Logger
	orchestrator *Orchestrator
	cache        *instanceCache
	selections   map[*ClassScope]*selectionEntry
	dispose      bool
	mu           sync.Mutex
}

type selectionEntry struct {
	sel Selection
	err error
}

// New creates a new Manager.
// Options can be provided to configure the manager behavior.
//
// Example:
//
//	manager := tinst.New()
//	// or with options:
//	manager := tinst.New(tinst.WithLogger(logger))
func New(options ...Option) *Manager {
	m := &Manager{
		logger:       zap.NewNop(),
		orchestrator: NewOrchestrator(nil),
		cache:        newInstanceCache(),
		selections:   make(map[*ClassScope]*selectionEntry),
		dispose:      true,
	}

	for _, opt := range options {
		if err := opt(m); err != nil {
			panic(fmt.Sprintf("failed to apply option: %v", err))
		}
	}

	return m
}

// Orchestrator returns the orchestrator used by the manager.
func (m *Manager) Orchestrator() *Orchestrator {
	return m.orchestrator
}

// Enter resolves the factory extensions visible to scope and selects the
// winner. The selection is remembered until Release. A scope with more than
// one visible factory fails with a *ConfigurationError; nothing inside such a
// scope may run.
func (m *Manager) Enter(scope *ClassScope) error {
	_, err := m.selection(scope)
	return err
}

func (m *Manager) selection(scope *ClassScope) (Selection, error) {
	if scope == nil {
		return Selection{}, fmt.Errorf("scope cannot be nil")
	}

	m.mu.Lock()
	entry, ok := m.selections[scope]
	m.mu.Unlock()
	if ok {
		return entry.sel, entry.err
	}

	resolved := Resolve(scope)
	sel, err := Select(scope, resolved)

	m.logger.Debug("scope entered",
		zap.Stringer("class", scope.typ),
		zap.Stringer("lifecycle", scope.lifecycle),
		zap.Strings("factories", resolved.Names()),
		zap.Error(err),
	)

	m.mu.Lock()
	m.selections[scope] = &selectionEntry{sel: sel, err: err}
	m.mu.Unlock()

	return sel, err
}

// RequestInstance returns an instance for scope, honouring its lifecycle.
//
// Shared-per-class scopes are instantiated on the first request and the same
// instance (or the same failure) is returned until Release. Fresh-per-test
// scopes are instantiated on every request.
//
// For nested scopes the enclosing instance is obtained first, following the
// enclosing scope's own lifecycle. A failure there is returned unchanged and
// the nested scope is not instantiated.
//
// Errors are *ConfigurationError or *InstantiationError.
func (m *Manager) RequestInstance(scope *ClassScope) (any, error) {
	sel, err := m.selection(scope)
	if err != nil {
		return nil, err
	}

	if scope.lifecycle.Shared() {
		return m.cache.getOrCreate(scope, func() (any, error) {
			return m.create(sel)
		})
	}
	return m.create(sel)
}

// create builds the enclosing chain and then the instance itself.
func (m *Manager) create(sel Selection) (any, error) {
	scope := sel.scope

	var outer any
	if scope.parent != nil {
		var err error
		outer, err = m.RequestInstance(scope.parent)
		if err != nil {
			return nil, err
		}
	}

	result := m.orchestrator.Instantiate(sel, outer)
	if err := Classify(result); err != nil {
		return nil, err
	}
	return result.Instance, nil
}

// Cached returns the shared instance currently held for scope, if any.
func (m *Manager) Cached(scope *ClassScope) (any, bool) {
	return m.cache.peek(scope)
}

// Release ends the scope's execution: the shared instance (if any) and the
// remembered selection are dropped unconditionally. When disposal is enabled
// and the instance implements Disposable, Dispose is called and its error
// returned.
func (m *Manager) Release(scope *ClassScope) error {
	if scope == nil {
		return nil
	}

	m.mu.Lock()
	delete(m.selections, scope)
	m.mu.Unlock()

	instance, ok := m.cache.drop(scope)
	m.logger.Debug("scope released",
		zap.Stringer("class", scope.typ),
		zap.Bool("had_instance", ok),
	)
	if !ok || !m.dispose {
		return nil
	}

	if disposable, isDisposable := instance.(Disposable); isDisposable {
		if err := disposable.Dispose(); err != nil {
			return fmt.Errorf("disposal error for %s: %w", scope.typ.Name(), err)
		}
	}
	return nil
}
