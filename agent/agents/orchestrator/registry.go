package orchestrator

import (
	"fmt"
	"sort"

	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
)

// Registry maps agent types to their variants.
type Registry struct {
	variants map[contractx.AgentType]contractx.Variant
}

func NewRegistry(variants ...contractx.Variant) (*Registry, error) {
	r := &Registry{variants: make(map[contractx.AgentType]contractx.Variant, len(variants))}
	for _, v := range variants {
		if v == nil {
			return nil, fmt.Errorf("%w: nil variant", contractx.ErrValidation)
		}
		if _, dup := r.variants[v.Name()]; dup {
			return nil, fmt.Errorf("%w: variant %s registered twice", contractx.ErrValidation, v.Name())
		}
		r.variants[v.Name()] = v
	}
	return r, nil
}

func (r *Registry) Get(agentType contractx.AgentType) (contractx.Variant, error) {
	v, ok := r.variants[agentType]
	if !ok {
		return nil, fmt.Errorf("%w: variant %s", contractx.ErrNotFound, agentType)
	}
	return v, nil
}

func (r *Registry) Names() []contractx.AgentType {
	names := make([]contractx.AgentType, 0, len(r.variants))
	for name := range r.variants {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
