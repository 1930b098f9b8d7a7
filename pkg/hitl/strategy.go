// Package hitl answers one question: does this action, with these
// parameters, in this user's hands, require human confirmation? All
// domain knowledge enters via registry metadata or constructor
// arguments.
package hitl

import (
	"fmt"

	"github.com/ontoflow-ai/ontoflow/pkg/models"
)

// Query is one confirmation question.
type Query struct {
	Action *models.ActionMetadata
	Params map[string]any
	User   models.UserContext
}

// Verdict is a strategy's answer.
type Verdict struct {
	Confirm       bool             `json:"confirm"`
	Risk          models.RiskLevel `json:"risk"`
	Reason        string           `json:"reason,omitempty"`
	RequireReason bool             `json:"require_reason,omitempty"`
}

// Strategy decides whether an action needs human confirmation.
type Strategy interface {
	RequiresConfirmation(q Query) Verdict
}

// ============================================================================
// ConfirmAlways
// ============================================================================

// ConfirmAlways demands confirmation for everything, at medium risk.
type ConfirmAlways struct{}

func (ConfirmAlways) RequiresConfirmation(Query) Verdict {
	return Verdict{Confirm: true, Risk: models.RiskMedium, Reason: "confirmation is always required"}
}

// ============================================================================
// ConfirmByRisk
// ============================================================================

// ConfirmByRisk confirms actions at or above a minimum risk level. The
// level comes from the registry's risk_level field unless overridden.
type ConfirmByRisk struct {
	// MinLevel defaults to medium when empty.
	MinLevel models.RiskLevel
	// Overrides maps action names to risk levels that replace the
	// registered one.
	Overrides map[string]models.RiskLevel
}

func (s ConfirmByRisk) RequiresConfirmation(q Query) Verdict {
	min := s.MinLevel
	if min == "" {
		min = models.RiskMedium
	}
	risk := models.RiskNone
	if q.Action != nil {
		risk = q.Action.RiskLevel
		if override, ok := s.Overrides[q.Action.Name]; ok {
			risk = override
		}
	}
	if risk.AtLeast(min) {
		return Verdict{
			Confirm: true,
			Risk:    risk,
			Reason:  fmt.Sprintf("risk level %s is at or above %s", risk, min),
		}
	}
	return Verdict{Risk: risk}
}

// ============================================================================
// ConfirmByThreshold
// ============================================================================

// amountParams are the parameter names inspected for financial amounts.
var amountParams = []string{"amount", "adjustment_amount"}

// batchParams are the parameter names inspected for batch sizes.
var batchParams = []string{"batch_count", "count", "room_numbers", "ids"}

// ConfirmByThreshold confirms financial actions whose amount exceeds a
// configured threshold, and any action whose batch size exceeds the
// batch threshold. Zero-valued thresholds disable the corresponding
// check.
type ConfirmByThreshold struct {
	AmountThreshold float64
	BatchThreshold  int
}

func (s ConfirmByThreshold) RequiresConfirmation(q Query) Verdict {
	if s.AmountThreshold > 0 && q.Action != nil && q.Action.IsFinancial {
		for _, name := range amountParams {
			if amount, ok := asFloat(q.Params[name]); ok && amount > s.AmountThreshold {
				return Verdict{
					Confirm: true,
					Risk:    models.RiskHigh,
					Reason:  fmt.Sprintf("%s %.2f exceeds threshold %.2f", name, amount, s.AmountThreshold),
				}
			}
		}
	}
	if s.BatchThreshold > 0 {
		for _, name := range batchParams {
			if size, ok := batchSize(q.Params[name]); ok && size > s.BatchThreshold {
				return Verdict{
					Confirm: true,
					Risk:    models.RiskMedium,
					Reason:  fmt.Sprintf("batch size %d exceeds threshold %d", size, s.BatchThreshold),
				}
			}
		}
	}
	return Verdict{Risk: models.RiskNone}
}

func asFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func batchSize(v any) (int, bool) {
	switch v := v.(type) {
	case []any:
		return len(v), true
	case []string:
		return len(v), true
	default:
		if f, ok := asFloat(v); ok {
			return int(f), true
		}
		return 0, false
	}
}

// ============================================================================
// Composite
// ============================================================================

// Composite confirms when any child strategy confirms; risk is the
// maximum across all children.
type Composite struct {
	children []Strategy
}

// NewComposite builds a composite over the given strategies.
func NewComposite(children ...Strategy) *Composite {
	return &Composite{children: children}
}

func (c *Composite) RequiresConfirmation(q Query) Verdict {
	out := Verdict{Risk: models.RiskNone}
	for _, child := range c.children {
		v := child.RequiresConfirmation(q)
		out.Risk = models.MaxRisk(out.Risk, v.Risk)
		if v.Confirm && !out.Confirm {
			out.Confirm = true
			out.Reason = v.Reason
		}
		if v.RequireReason {
			out.RequireReason = true
		}
	}
	return out
}
