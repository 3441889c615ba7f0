package engine

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages registered recognition providers. It is safe for
// concurrent use; providers typically register from their init functions.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// globalRegistry backs the package-level registration functions.
var globalRegistry = &Registry{providers: make(map[string]Provider)}

// Register adds a provider to the global registry, replacing any provider
// with the same name.
func Register(provider Provider) {
	globalRegistry.Register(provider)
}

// Get retrieves a provider by name from the global registry.
func Get(name string) (Provider, error) {
	return globalRegistry.Get(name)
}

// List returns the registered provider names from the global registry,
// sorted for stable presentation.
func List() []string {
	return globalRegistry.List()
}

// Register adds a provider to this registry.
func (r *Registry) Register(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// Get retrieves a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, name)
	}
	return provider, nil
}

// List returns registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
