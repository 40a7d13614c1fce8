package urn

import (
	"fmt"
	"sort"
	"sync"
)

// Constructor builds an Urn of one entity type from its full string form.
// Constructors validate that the text actually names their entity type.
type Constructor func(text string) (Urn, error)

// Registry maps entity types to urn constructors. It replaces runtime
// reflection over urn classes with an explicit factory table populated
// at startup.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Register adds a constructor for entityType, replacing any previous one.
func (r *Registry) Register(entityType string, c Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[entityType] = c
}

// RegisterDefault adds the generic Parse-based constructor for entityType,
// rejecting text whose entity type segment differs.
func (r *Registry) RegisterDefault(entityType string) {
	r.Register(entityType, func(text string) (Urn, error) {
		u, err := Parse(text)
		if err != nil {
			return Urn{}, err
		}
		if u.EntityType() != entityType {
			return Urn{}, &ArgumentError{Text: text, Reason: "entity type is not " + entityType}
		}
		return u, nil
	})
}

// New constructs an urn of the given entity type from text.
// Returns a *ConstructionError if no constructor is registered.
func (r *Registry) New(entityType, text string) (Urn, error) {
	r.mu.RLock()
	c, ok := r.constructors[entityType]
	r.mu.RUnlock()

	if !ok {
		return Urn{}, &ConstructionError{EntityType: entityType}
	}
	return c(text)
}

// EntityTypes returns the registered entity types, sorted.
func (r *Registry) EntityTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.constructors))
	for t := range r.constructors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// ConstructionError reports a lookup miss in the registry.
type ConstructionError struct {
	EntityType string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("no urn constructor registered for entity type %q", e.EntityType)
}
