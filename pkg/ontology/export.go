package ontology

import (
	"encoding/json"
	"fmt"
)

// ExportSchema returns a fully serializable tree of the registered
// schema, used to seed prompts and retrieval indices. The tree
// round-trips through JSON without loss for scalar fields; handler and
// params-model references are excluded.
func (r *Registry) ExportSchema() (map[string]any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entities := make(map[string]any, len(r.entityOrder))
	for _, name := range r.entityOrder {
		entities[name] = r.entities[name]
	}

	actions := make([]any, 0, len(r.actionOrder))
	for _, name := range r.actionOrder {
		actions = append(actions, r.actionsByName[name])
	}

	constraints := make(map[string]any, len(r.constraints))
	for entity, list := range r.constraints {
		constraints[entity] = list
	}

	stateMachines := make(map[string]any, len(r.stateMachines))
	for entity, machine := range r.stateMachines {
		stateMachines[entity] = machine
	}

	tree := map[string]any{
		"entities":        entities,
		"actions":         actions,
		"constraints":     constraints,
		"state_machines":  stateMachines,
		"interfaces":      r.interfaces,
		"implementations": r.implementations,
	}

	// Round-trip through JSON so the caller receives plain maps and
	// slices rather than registry-owned structs.
	raw, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	return out, nil
}
