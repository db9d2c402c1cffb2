package saga

import "sync"

// Registry holds immutable saga definitions keyed by definition id.
// Re-registering an id overwrites the prior definition; callers are
// expected to register once at process startup.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]*Definition
}

// NewRegistry creates an empty definition registry.
func NewRegistry() *Registry {
	return &Registry{
		definitions: make(map[string]*Definition),
	}
}

// Register validates and stores a definition, overwriting any previous
// definition with the same id.
func (r *Registry) Register(def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	clone := def.clone()
	r.mu.Lock()
	r.definitions[clone.ID] = clone
	r.mu.Unlock()
	return nil
}

// Definition returns the registered definition for an id.
func (r *Registry) Definition(id string) (*Definition, error) {
	r.mu.RLock()
	def, ok := r.definitions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{Entity: "saga definition", ID: id}
	}
	return def, nil
}

// Count returns the number of registered definitions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.definitions)
}

// IDs returns the registered definition ids.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.definitions))
	for id := range r.definitions {
		ids = append(ids, id)
	}
	return ids
}
