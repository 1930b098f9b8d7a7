package ontology

import "fmt"

// CheckInterfaces verifies every interface-implementation claim
// structurally: the claiming entity must declare all required properties
// and all required actions. Returns a description per violated claim;
// call at boot after all adapters have registered.
func (r *Registry) CheckInterfaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var problems []string
	for ifaceName, entityNames := range r.implementations {
		def, ok := r.interfaces[ifaceName]
		if !ok {
			problems = append(problems, fmt.Sprintf(
				"interface %q is claimed but not defined", ifaceName))
			continue
		}

		for _, entityName := range entityNames {
			entity := r.entities[entityName]
			if entity == nil {
				problems = append(problems, fmt.Sprintf(
					"interface %q claimed by unknown entity %q", ifaceName, entityName))
				continue
			}

			for _, prop := range def.RequiredProperties {
				if _, ok := entity.Properties[prop]; !ok {
					problems = append(problems, fmt.Sprintf(
						"entity %q claims %q but lacks property %q", entityName, ifaceName, prop))
				}
			}
			for _, actionName := range def.RequiredActions {
				action, ok := r.actionsByName[actionName]
				if !ok || action.Entity != entityName {
					problems = append(problems, fmt.Sprintf(
						"entity %q claims %q but lacks action %q", entityName, ifaceName, actionName))
				}
			}
		}
	}
	return problems
}
