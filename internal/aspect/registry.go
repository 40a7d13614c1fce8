package aspect

import (
	"fmt"
	"sync"
)

// Registry maps aspect names to value factories so stored payloads can be
// deserialized back into their concrete types. Populated at startup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]func() Value
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]func() Value)}
}

// Register adds a factory for the aspect name produced by its zero value.
func (r *Registry) Register(factory func() Value) {
	name := factory().AspectName()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// New returns a fresh zero value for the named aspect.
func (r *Registry) New(name string) (Value, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no aspect registered under name %q", name)
	}
	return factory(), nil
}

// Known reports whether name has a registered factory.
func (r *Registry) Known(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}
