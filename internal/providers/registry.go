package providers

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages the available sources by name
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

var (
	// globalRegistry is the default source registry
	globalRegistry = NewRegistry()
)

// NewRegistry creates a new source registry
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]Source),
	}
}

// Register adds a source to the registry
func (r *Registry) Register(source Source) error {
	if source == nil {
		return fmt.Errorf("cannot register nil source")
	}

	name := source.Name()
	if name == "" {
		return fmt.Errorf("source must have a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[name]; exists {
		return fmt.Errorf("source %s is already registered", name)
	}

	r.sources[name] = source
	return nil
}

// Unregister removes a source from the registry
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[name]; !exists {
		return fmt.Errorf("source %s is not registered", name)
	}

	delete(r.sources, name)
	return nil
}

// Get returns a source by name
func (r *Registry) Get(name string) (Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	source, exists := r.sources[name]
	if !exists {
		return nil, fmt.Errorf("source %s: %w", name, ErrNotFound)
	}

	return source, nil
}

// List returns the names of all registered sources, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered sources
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sources)
}

// Clear removes all sources from the registry
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sources = make(map[string]Source)
}

// Global registry functions

// Register adds a source to the global registry
func Register(source Source) error {
	return globalRegistry.Register(source)
}

// Get returns a source by name from the global registry
func Get(name string) (Source, error) {
	return globalRegistry.Get(name)
}

// List returns the names of all registered sources from the global registry
func List() []string {
	return globalRegistry.List()
}

// Count returns the number of registered sources in the global registry
func Count() int {
	return globalRegistry.Count()
}

// Clear removes all sources from the global registry
func Clear() {
	globalRegistry.Clear()
}
