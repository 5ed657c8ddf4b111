package tool

import (
	"fmt"
	"strings"
	"sync"
)

// Registry holds all tool specs for the process lifetime. It is built once at
// startup and frozen before the server starts serving; after Freeze it is
// read-only and concurrent lookups need no coordination beyond the RWMutex.
type Registry struct {
	mu     sync.RWMutex
	specs  map[string]Spec
	order  []string
	frozen bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		specs: make(map[string]Spec),
	}
}

// Register adds a spec. It fails on empty or duplicate names, invalid
// parameter declarations, or registration after Freeze. On failure the
// existing entries are left untouched.
func (r *Registry) Register(spec Spec) error {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return &ToolError{Code: CodeInvalidArguments, Message: "tool name is required"}
	}
	if spec.Handler == nil {
		return fmt.Errorf("tool: register %q: handler is nil", name)
	}
	for _, p := range spec.Params {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("tool: register %q: parameter name is empty", name)
		}
		if !isValidParamType(p.Type) {
			return fmt.Errorf("tool: register %q: parameter %q has unsupported type %q", name, p.Name, p.Type)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrFrozen
	}
	if _, exists := r.specs[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	spec.Name = name
	r.specs[name] = spec
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the spec registered under name.
func (r *Registry) Lookup(name string) (Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[name]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return spec, nil
}

// Specs returns all registered specs in registration order.
func (r *Registry) Specs() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Spec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.specs[name])
	}
	return out
}

// Names returns registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.specs)
}

// Freeze marks the registry read-only. Registration attempts after Freeze
// fail with ErrFrozen. Freezing twice is a no-op.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether the registry has been frozen.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}
