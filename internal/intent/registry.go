package intent

import (
	"fmt"
	"sort"
)

// Registry is the closed set of actions the pipeline may execute. It is
// immutable after construction: the model can only ever name actions that
// were registered at startup.
type Registry struct {
	specs map[string]*ActionSpec
}

// NewRegistry builds a registry from the given specs. Duplicate names and
// malformed specs are construction errors, not runtime surprises.
func NewRegistry(specs ...ActionSpec) (*Registry, error) {
	r := &Registry{specs: make(map[string]*ActionSpec, len(specs))}
	for i := range specs {
		spec := specs[i]
		if spec.Name == "" {
			return nil, fmt.Errorf("registry: action spec without a name")
		}
		if spec.Handler == nil {
			return nil, fmt.Errorf("registry: action %q has no handler", spec.Name)
		}
		if _, exists := r.specs[spec.Name]; exists {
			return nil, fmt.Errorf("registry: action %q already registered", spec.Name)
		}
		seen := make(map[string]bool, len(spec.Params))
		for _, p := range spec.Params {
			if p.Name == "" {
				return nil, fmt.Errorf("registry: action %q has a parameter without a name", spec.Name)
			}
			if seen[p.Name] {
				return nil, fmt.Errorf("registry: action %q declares parameter %q twice", spec.Name, p.Name)
			}
			seen[p.Name] = true
			switch p.Type {
			case TypeString, TypeNumber, TypeBool:
			default:
				return nil, fmt.Errorf("registry: action %q parameter %q has unknown type %q", spec.Name, p.Name, p.Type)
			}
		}
		r.specs[spec.Name] = &spec
	}
	return r, nil
}

// Get returns the spec for the named action.
func (r *Registry) Get(name string) (*ActionSpec, bool) {
	spec, ok := r.specs[name]
	return spec, ok
}

// List returns all specs sorted by name, for prompt building.
func (r *Registry) List() []*ActionSpec {
	out := make([]*ActionSpec, 0, len(r.specs))
	for _, spec := range r.specs {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered actions.
func (r *Registry) Len() int { return len(r.specs) }
