package agents

import (
	"fmt"
	"sort"
	"sync"
)

// Constructor builds an executor from shared dependencies
type Constructor func(deps Deps) (Executor, error)

// Registry is a closed table of executor constructors keyed by name
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Register adds a constructor under a name; re-registration is rejected
func (r *Registry) Register(name string, constructor Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.constructors[name]; exists {
		return fmt.Errorf("agent %q already registered", name)
	}
	r.constructors[name] = constructor
	return nil
}

// Create instantiates the named executor
func (r *Registry) Create(name string, deps Deps) (Executor, error) {
	r.mu.RLock()
	constructor, ok := r.constructors[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown agent %q (registered: %v)", name, r.Names())
	}
	return constructor(deps)
}

// Names lists the registered agent names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
