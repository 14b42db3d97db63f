package index

import (
	"fmt"
	"sync"
)

// DefaultName is the index used when a query does not name one.
const DefaultName = "internal"

// Registry resolves searching contexts by index name. Reads vastly outnumber
// writes; registration happens at startup.
type Registry struct {
	mu      sync.RWMutex
	indexes map[string]*Index
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{indexes: make(map[string]*Index)}
}

// Add registers an index under its name, replacing any previous entry.
func (r *Registry) Add(idx *Index) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexes[idx.Name()] = idx
}

// Get resolves an index by name; the empty name resolves the default index.
func (r *Registry) Get(name string) (*Index, error) {
	if name == "" {
		name = DefaultName
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.indexes[name]
	if !ok {
		return nil, fmt.Errorf("unresolvable searching context %q", name)
	}
	return idx, nil
}

// Names returns the registered index names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.indexes))
	for name := range r.indexes {
		names = append(names, name)
	}
	return names
}

// Close closes every registered index, returning the first error.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first error
	for _, idx := range r.indexes {
		if err := idx.Close(); err != nil && first == nil {
			first = err
		}
	}
	r.indexes = make(map[string]*Index)
	return first
}
