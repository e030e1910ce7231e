package network

import "sync"

// Registry is the process-wide catalogue of built-in NodeTypes, per spec.md
// §9's "keep the node-type lookup as a registry populated once at startup"
// guidance. It is not a global: Register adds or replaces entries under a
// lock, evaluator.NewDefaultRegistry populates one at startup, and it reaches
// evaluator.Evaluate through EvaluationContext.Registry, so tests can
// construct isolated registries instead of reaching into global state.
type Registry struct {
	mu    sync.RWMutex
	types map[string]NodeType
}

// NewRegistry returns an empty registry. Callers populate it with Register
// before first use; internal/domain/evaluator's default registry
// construction registers every built-in node type once at process start.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]NodeType)}
}

// Register adds or replaces a NodeType under its own Name.
func (r *Registry) Register(nt NodeType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[nt.Name] = nt
}

// Lookup returns the NodeType registered under name.
func (r *Registry) Lookup(name string) (NodeType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	nt, ok := r.types[name]
	return nt, ok
}

// Names returns every registered NodeType name, for UI palette listing and
// the text editor's type-name validation.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	return names
}
