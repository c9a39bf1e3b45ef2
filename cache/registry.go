package cache

import "sync"

// ClearResult reports what an administrative clear found
type ClearResult int

const (
	// NothingToClear means every store was already empty
	NothingToClear ClearResult = iota
	// Cleared means at least one entry was dropped
	Cleared
)

func (r ClearResult) String() string {
	if r == Cleared {
		return "cache cleared"
	}
	return "nothing to clear"
}

// Registry groups the process-wide stores for administration
type Registry struct {
	mu     sync.Mutex
	names  []string
	stores map[string]Clearer
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]Clearer)}
}

// Register adds a store under name, replacing any store with the same name
func (r *Registry) Register(name string, s Clearer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.stores[name]; !ok {
		r.names = append(r.names, name)
	}
	r.stores[name] = s
}

// Clear drops every entry from every registered store
func (r *Registry) Clear() ClearResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for _, name := range r.names {
		dropped += r.stores[name].Clear()
	}
	if dropped == 0 {
		return NothingToClear
	}
	return Cleared
}

// Stats returns the live entry count of each store
func (r *Registry) Stats() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]int, len(r.stores))
	for name, s := range r.stores {
		out[name] = s.Len()
	}
	return out
}
