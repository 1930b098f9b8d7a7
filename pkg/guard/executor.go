// Package guard implements the unified pre-dispatch gate: state-machine
// legality plus declarative constraint evaluation for one
// action/parameter/entity-state triple.
package guard

import (
	"go.uber.org/zap"

	"github.com/ontoflow-ai/ontoflow/pkg/apperrors"
	"github.com/ontoflow-ai/ontoflow/pkg/guard/exprlang"
	"github.com/ontoflow-ai/ontoflow/pkg/models"
	"github.com/ontoflow-ai/ontoflow/pkg/ontology"
)

// Input is one guard evaluation request. EntityState is a read-only view
// of the entity as it exists now; CurrentState and TargetState trigger
// the state-machine legality check when both are present.
type Input struct {
	Entity       string
	Action       string
	Params       map[string]any
	EntityState  map[string]any
	CurrentState string
	TargetState  string
	User         models.UserContext
}

// Executor evaluates guard inputs against the registry. Stateless; safe
// for concurrent use.
type Executor struct {
	registry *ontology.Registry
	logger   *zap.Logger
}

// NewExecutor creates a guard executor bound to a registry.
func NewExecutor(registry *ontology.Registry, logger *zap.Logger) *Executor {
	return &Executor{
		registry: registry,
		logger:   logger.Named("guard"),
	}
}

// Evaluate runs the gate. An illegal state transition short-circuits
// before any constraint is evaluated; the first ERROR constraint
// short-circuits the rest. WARNING constraints never block.
func (e *Executor) Evaluate(in Input) models.GuardResult {
	result := models.GuardResult{Allowed: true}

	// State-machine legality first. A failed transition means no
	// constraint is worth evaluating.
	if in.CurrentState != "" && in.TargetState != "" {
		if machine := e.registry.GetStateMachine(in.Entity); machine != nil {
			if !machine.CanTransition(in.CurrentState, in.TargetState, in.Action) {
				result.Allowed = false
				result.Violations = append(result.Violations, models.GuardViolation{
					ConstraintID: "state_machine_" + in.Entity,
					Name:         "state machine transition",
					Severity:     models.SeverityError,
					Message: "transition from " + in.CurrentState + " to " + in.TargetState +
						" is not allowed for " + in.Entity,
					ValidAlternatives: machine.TransitionsFrom(in.CurrentState),
				})
				e.logger.Debug("Blocked illegal state transition",
					zap.String("entity", in.Entity),
					zap.String("action", in.Action),
					zap.String("from", in.CurrentState),
					zap.String("to", in.TargetState))
				return result
			}
		}
	}

	env := exprlang.Env{
		State: in.EntityState,
		Param: in.Params,
		User: map[string]any{
			"id":   in.User.ID,
			"role": in.User.Role,
		},
	}

	for _, constraint := range e.registry.GetConstraints(in.Entity, in.Action) {
		// Declarative-only constraints are informational.
		if constraint.ConditionCode == "" {
			continue
		}

		holds, err := exprlang.EvalBool(constraint.ConditionCode, env)
		if err != nil {
			// A broken or hostile expression is a failed ERROR-severity
			// constraint, never a crash.
			sandboxErr := apperrors.Wrap(apperrors.KindSandbox,
				"constraint expression could not be evaluated: "+err.Error(), err)
			result.Allowed = false
			result.Violations = append(result.Violations, models.GuardViolation{
				ConstraintID: constraint.ID,
				Name:         constraint.Name,
				Severity:     models.SeverityError,
				Message:      sandboxErr.Error(),
			})
			if constraint.SuggestionMessage != "" {
				result.Suggestions = append(result.Suggestions, constraint.SuggestionMessage)
			}
			e.logger.Warn("Constraint expression failed to evaluate",
				zap.String("constraint", constraint.ID),
				zap.String("entity", in.Entity),
				zap.Error(err))
			return result
		}
		if holds {
			continue
		}

		violation := models.GuardViolation{
			ConstraintID: constraint.ID,
			Name:         constraint.Name,
			Severity:     constraint.Severity,
			Message:      violationMessage(constraint),
		}
		if constraint.SuggestionMessage != "" {
			result.Suggestions = append(result.Suggestions, constraint.SuggestionMessage)
		}

		if constraint.Severity == models.SeverityError {
			result.Allowed = false
			result.Violations = append(result.Violations, violation)
			return result
		}
		result.Warnings = append(result.Warnings, violation)
	}

	return result
}

func violationMessage(c models.ConstraintMetadata) string {
	if c.ErrorMessage != "" {
		return c.ErrorMessage
	}
	if c.ConditionText != "" {
		return c.ConditionText
	}
	return "constraint " + c.Name + " failed"
}
