// Package dag executes dependency-ordered action plans with snapshot
// rollback on failure.
package dag

import (
	"github.com/ontoflow-ai/ontoflow/pkg/apperrors"
	"github.com/ontoflow-ai/ontoflow/pkg/models"
)

// topologicalOrder returns plan step ids in dependency order using
// Kahn's algorithm. Duplicate step ids, references to unknown steps and
// cycles are all rejected before any step runs.
func topologicalOrder(plan *models.ExecutionPlan) ([]string, error) {
	byID := make(map[string]*models.PlanningStep, len(plan.Steps))
	for i := range plan.Steps {
		step := &plan.Steps[i]
		if step.StepID == "" {
			return nil, apperrors.New(apperrors.KindValidation, "plan contains a step without an id")
		}
		if _, ok := byID[step.StepID]; ok {
			return nil, apperrors.Newf(apperrors.KindValidation,
				"plan contains duplicate step id %q", step.StepID)
		}
		byID[step.StepID] = step
	}

	indegree := make(map[string]int, len(plan.Steps))
	dependents := make(map[string][]string, len(plan.Steps))
	for i := range plan.Steps {
		step := &plan.Steps[i]
		indegree[step.StepID] += 0
		for _, dep := range step.Dependencies {
			if _, ok := byID[dep]; !ok {
				return nil, apperrors.Newf(apperrors.KindValidation,
					"step %q depends on unknown step %q", step.StepID, dep)
			}
			indegree[step.StepID]++
			dependents[dep] = append(dependents[dep], step.StepID)
		}
	}

	// Seed the queue in plan order so runs are deterministic even though
	// ordering within a layer is unspecified.
	var queue []string
	for i := range plan.Steps {
		if indegree[plan.Steps[i].StepID] == 0 {
			queue = append(queue, plan.Steps[i].StepID)
		}
	}

	order := make([]string, 0, len(plan.Steps))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, dependent := range dependents[id] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(order) != len(plan.Steps) {
		return nil, apperrors.Newf(apperrors.KindCyclicPlan,
			"plan %s contains a dependency cycle", plan.PlanID)
	}
	return order, nil
}
