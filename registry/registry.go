// Package registry provides thread-safe, named storage of factory extensions.
//
// Plans and other callers that describe test classes declaratively refer to
// factory extensions by name; the registry maps those names back to the one
// extension value, so that the same name always yields the same identity.
package registry

import (
	"fmt"
	"sort"
	"sync"

	tinst "github.com/toutaio/toutago-tinst"
)

// Entry represents a named factory extension.
type Entry struct {
	// Name is the unique identifier of the extension
	Name string

	// Extension is the registered factory extension
	Extension tinst.FactoryExtension

	// Tags are optional labels used for grouping
	Tags []string
}

// Registry provides thread-safe storage for named factory extensions.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string
}

// New creates a new Registry instance.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

// Register stores an extension under name.
// Returns an error if the name is empty, the extension is nil or the name is
// already taken.
//
// This method is goroutine-safe.
func (r *Registry) Register(name string, ext tinst.FactoryExtension, tags ...string) error {
	if name == "" {
		return fmt.Errorf("extension name cannot be empty")
	}
	if ext == nil {
		return fmt.Errorf("extension %q cannot be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return &AlreadyExistsError{Name: name}
	}

	r.entries[name] = &Entry{Name: name, Extension: ext, Tags: tags}
	r.order = append(r.order, name)
	return nil
}

// Get retrieves an extension by name.
//
// This method is goroutine-safe.
func (r *Registry) Get(name string) (tinst.FactoryExtension, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[name]
	if !exists {
		return nil, &NotFoundError{Name: name}
	}
	return entry.Extension, nil
}

// Lookup resolves several names at once, preserving order.
func (r *Registry) Lookup(names ...string) ([]tinst.FactoryExtension, error) {
	out := make([]tinst.FactoryExtension, 0, len(names))
	for _, name := range names {
		ext, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, ext)
	}
	return out, nil
}

// Has checks if an extension is registered under name.
//
// This method is goroutine-safe.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.entries[name]
	return exists
}

// Names returns all registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// ByTag returns all entries that have the specified tag, sorted by name.
//
// This method is goroutine-safe.
func (r *Registry) ByTag(tag string) []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Entry
	for _, entry := range r.entries {
		if containsTag(entry.Tags, tag) {
			result = append(result, entry)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// containsTag checks if a tag exists in a slice of tags.
func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AlreadyExistsError is returned when attempting to register a duplicate name.
type AlreadyExistsError struct {
	Name string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("extension %q already registered", e.Name)
}

// NotFoundError is returned when a requested name does not exist.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("extension %q not registered", e.Name)
}
