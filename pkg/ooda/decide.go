package ooda

import (
	"context"

	"go.uber.org/zap"

	"github.com/ontoflow-ai/ontoflow/pkg/actions"
	"github.com/ontoflow-ai/ontoflow/pkg/hitl"
	"github.com/ontoflow-ai/ontoflow/pkg/models"
	"github.com/ontoflow-ai/ontoflow/pkg/ontology"
)

// DecisionRule maps an orientation to an action invocation. Rules are
// consulted in registration order; the first match wins.
type DecisionRule interface {
	Name() string
	Matches(o models.Orientation) bool
	ActionFor(o models.Orientation) (actionType string, params map[string]any)
}

// IntentRule matches orientations whose recognized action equals Action.
type IntentRule struct {
	Action string
}

func (r IntentRule) Name() string { return "intent:" + r.Action }

func (r IntentRule) Matches(o models.Orientation) bool {
	return o.Intent != nil && o.Intent.ActionType == r.Action
}

func (r IntentRule) ActionFor(o models.Orientation) (string, map[string]any) {
	return o.Intent.ActionType, o.Intent.Entities
}

// DefaultRule matches any orientation that carries an intent. Placed
// last, it makes every recognized intent decidable.
type DefaultRule struct{}

func (DefaultRule) Name() string { return "default" }

func (DefaultRule) Matches(o models.Orientation) bool { return o.Intent != nil }

func (DefaultRule) ActionFor(o models.Orientation) (string, map[string]any) {
	return o.Intent.ActionType, o.Intent.Entities
}

// Decider runs the rule chain and produces decisions.
type Decider struct {
	registry *ontology.Registry
	rules    []DecisionRule
	strategy hitl.Strategy
	logger   *zap.Logger
}

// NewDecider creates a decider. rules may be empty, in which case only
// DefaultRule applies; strategy may be nil to rely on the built-in
// confirmation conditions alone.
func NewDecider(registry *ontology.Registry, rules []DecisionRule, strategy hitl.Strategy, logger *zap.Logger) *Decider {
	return &Decider{
		registry: registry,
		rules:    append(append([]DecisionRule{}, rules...), DefaultRule{}),
		strategy: strategy,
		logger:   logger.Named("ooda.decide"),
	}
}

// Decide consults the rule chain for the orientation and computes
// missing fields, confirmation and confidence for the matched action.
func (d *Decider) Decide(o models.Orientation) models.Decision {
	rule := d.match(o)
	if rule == nil {
		return models.Decision{Error: "No decision rule matched"}
	}

	actionType, params := rule.ActionFor(o)
	action := d.registry.GetActionByName(actionType)
	if action == nil {
		return models.Decision{
			ActionType: actionType,
			Error:      "action " + actionType + " is not registered",
		}
	}
	if params == nil {
		params = map[string]any{}
	}

	missing := actions.MissingFields(action, params)
	required := len(action.UIRequiredFields)
	provided := required - len(missing)

	decision := models.Decision{
		ActionType:    actionType,
		ActionParams:  params,
		MissingFields: missing,
		IsValid:       len(missing) == 0,
	}

	decision.RequiresConfirmation = action.RiskLevel.AtLeast(models.RiskHigh) ||
		action.IsFinancial ||
		len(missing) > 0
	if o.Intent != nil && o.Intent.RequiresConfirmation {
		decision.RequiresConfirmation = true
	}
	if d.strategy != nil {
		verdict := d.strategy.RequiresConfirmation(hitl.Query{
			Action: action,
			Params: params,
		})
		if verdict.Confirm {
			decision.RequiresConfirmation = true
		}
	}

	intentConfidence := 0.0
	if o.Intent != nil {
		intentConfidence = o.Intent.Confidence
	}
	denominator := required
	if denominator < 1 {
		denominator = 1
	}
	decision.Confidence = intentConfidence * float64(provided) / float64(denominator)
	if required == 0 {
		decision.Confidence = intentConfidence
	}

	d.logger.Debug("Decision made",
		zap.String("rule", rule.Name()),
		zap.String("action", actionType),
		zap.Bool("requires_confirmation", decision.RequiresConfirmation),
		zap.Int("missing_fields", len(missing)))
	return decision
}

func (d *Decider) match(o models.Orientation) DecisionRule {
	for _, rule := range d.rules {
		if rule.Matches(o) {
			return rule
		}
	}
	return nil
}

// Stack wires the three phases into one call.
type Stack struct {
	orienter *Orienter
	decider  *Decider
}

// NewStack composes an orienter and decider.
func NewStack(orienter *Orienter, decider *Decider) *Stack {
	return &Stack{orienter: orienter, decider: decider}
}

// Run observes, orients and decides one raw input turn. Invalid input
// short-circuits with the observation's validation errors.
func (s *Stack) Run(ctx context.Context, rawInput string) (models.Decision, models.Orientation) {
	obs := Observe(rawInput)
	orientation := s.orienter.Orient(ctx, obs)
	if !obs.IsValid {
		errMsg := "input is invalid"
		if len(obs.ValidationErrors) > 0 {
			errMsg = obs.ValidationErrors[0]
		}
		return models.Decision{Error: errMsg}, orientation
	}
	return s.decider.Decide(orientation), orientation
}
