package factors

import (
	"fmt"
	"sort"

	"github.com/wonny/factorlab/internal/contracts"
)

// Registry is an explicit, caller-owned collection of factor sources.
// It is populated once at process start and treated as read-only for
// the duration of any evaluation, so no locking is needed after setup.
type Registry struct {
	factors map[string]contracts.FactorSource
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		factors: make(map[string]contracts.FactorSource),
	}
}

// Register adds a factor source. Registering a duplicate name is a
// configuration error.
func (r *Registry) Register(factor contracts.FactorSource) error {
	name := factor.Name()
	if _, exists := r.factors[name]; exists {
		return fmt.Errorf("factor %q already registered", name)
	}
	r.factors[name] = factor
	return nil
}

// Get returns the factor source by name
func (r *Registry) Get(name string) (contracts.FactorSource, bool) {
	factor, ok := r.factors[name]
	return factor, ok
}

// Names returns all registered factor names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factors))
	for name := range r.factors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered factors
func (r *Registry) Len() int {
	return len(r.factors)
}
