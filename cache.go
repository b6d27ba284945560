package tinst

import (
	"sync"
	"sync/atomic"
)

// cachedInstance holds the shared instance of a scope and ensures it's
// created only once per scope execution. A failed creation is remembered as
// well; it is never retried.
type cachedInstance struct {
	value any
	err   error
	once  sync.Once
	done  atomic.Bool
}

// instanceCache manages shared-per-class instances keyed by scope.
type instanceCache struct {
	instances map[*ClassScope]*cachedInstance
	mu        sync.Mutex
}

// newInstanceCache creates a new instance cache.
func newInstanceCache() *instanceCache {
	return &instanceCache{
		instances: make(map[*ClassScope]*cachedInstance),
	}
}

// getOrCreate retrieves the instance cached for scope or creates it using the
// provided factory. The factory is called at most once until the entry is
// dropped. The lock is not held while the factory runs, so creating a nested
// scope's instance may itself populate the enclosing scope's entry.
func (c *instanceCache) getOrCreate(scope *ClassScope, factory func() (any, error)) (any, error) {
	c.mu.Lock()
	entry, exists := c.instances[scope]
	if !exists {
		entry = &cachedInstance{}
		c.instances[scope] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.value, entry.err = factory()
		entry.done.Store(true)
	})

	return entry.value, entry.err
}

// peek returns the cached instance for scope without creating it.
func (c *instanceCache) peek(scope *ClassScope) (any, bool) {
	c.mu.Lock()
	entry, exists := c.instances[scope]
	c.mu.Unlock()
	if !exists || !entry.done.Load() || entry.err != nil {
		return nil, false
	}
	return entry.value, true
}

// drop removes the entry for scope and returns its instance, if one was
// successfully created.
func (c *instanceCache) drop(scope *ClassScope) (any, bool) {
	c.mu.Lock()
	entry, exists := c.instances[scope]
	delete(c.instances, scope)
	c.mu.Unlock()
	if !exists || !entry.done.Load() || entry.err != nil {
		return nil, false
	}
	return entry.value, true
}

// len returns the number of live entries.
func (c *instanceCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.instances)
}
