package models

import "context"

// ============================================================================
// Action Category / Risk
// ============================================================================

// ActionCategory splits actions into mutations (guarded) and queries.
type ActionCategory string

const (
	ActionCategoryMutation ActionCategory = "mutation"
	ActionCategoryQuery    ActionCategory = "query"
)

// RiskLevel grades how dangerous an action is when executed.
type RiskLevel string

const (
	RiskNone     RiskLevel = "none"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskOrder = map[RiskLevel]int{
	RiskNone:     0,
	RiskLow:      1,
	RiskMedium:   2,
	RiskHigh:     3,
	RiskCritical: 4,
}

// AtLeast reports whether l is at or above the given level.
func (l RiskLevel) AtLeast(min RiskLevel) bool {
	return riskOrder[l] >= riskOrder[min]
}

// MaxRisk returns the higher of two risk levels.
func MaxRisk(a, b RiskLevel) RiskLevel {
	if riskOrder[a] >= riskOrder[b] {
		return a
	}
	return b
}

// ============================================================================
// Handler Contract
// ============================================================================

// UserContext is the authenticated caller identity. Authentication itself
// is external; the framework only consumes identity and role.
type UserContext struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// HandlerDeps carries the collaborators injected into every handler call.
// Session is the per-call persistence transaction scope; handlers must not
// open sibling transactions.
type HandlerDeps struct {
	Session       any
	User          UserContext
	Collaborators map[string]any
}

// Collaborator returns a named collaborator, or nil.
func (d HandlerDeps) Collaborator(name string) any {
	if d.Collaborators == nil {
		return nil
	}
	return d.Collaborators[name]
}

// ActionResult is the dictionary a handler returns. It carries at least
// "success" and "message"; other fields are opaque to the framework.
type ActionResult map[string]any

// Success reports whether the handler declared success.
func (r ActionResult) Success() bool {
	ok, _ := r["success"].(bool)
	return ok
}

// Message returns the handler's message, or "".
func (r ActionResult) Message() string {
	msg, _ := r["message"].(string)
	return msg
}

// Failure builds a failed result with the given message. Handler internal
// errors are expected to be reported this way rather than as Go errors.
func Failure(message string) ActionResult {
	return ActionResult{"success": false, "message": message}
}

// Succeed builds a successful result with the given message and extra fields.
func Succeed(message string, fields map[string]any) ActionResult {
	r := ActionResult{"success": true, "message": message}
	for k, v := range fields {
		r[k] = v
	}
	return r
}

// ActionHandler executes one action with validated parameters. params is
// the value produced by the action's ParamsModel after validation.
type ActionHandler func(ctx context.Context, params any, deps HandlerDeps) (ActionResult, error)

// ============================================================================
// Glossary Examples
// ============================================================================

// GlossaryExample is a correct/incorrect extraction pair used to teach the
// intent extractor to separate parameters from trigger keywords.
type GlossaryExample struct {
	Correct   string `json:"correct"`
	Incorrect string `json:"incorrect"`
}

// ============================================================================
// Action Metadata
// ============================================================================

// ActionMetadata describes one registered action. Names are unique across
// the whole registry, not per entity.
type ActionMetadata struct {
	Name                 string            `json:"name"`
	Entity               string            `json:"entity"`
	Category             ActionCategory    `json:"category"`
	Description          string            `json:"description,omitempty"`
	RequiresConfirmation bool              `json:"requires_confirmation,omitempty"`
	Undoable             bool              `json:"undoable,omitempty"`
	AllowedRoles         []string          `json:"allowed_roles,omitempty"`
	SideEffects          []string          `json:"side_effects,omitempty"`
	SearchKeywords       []string          `json:"search_keywords,omitempty"`
	SemanticCategory     string            `json:"semantic_category,omitempty"`
	GlossaryExamples     []GlossaryExample `json:"glossary_examples,omitempty"`
	UIRequiredFields     []string          `json:"ui_required_fields,omitempty"`
	RiskLevel            RiskLevel         `json:"risk_level,omitempty"`
	IsFinancial          bool              `json:"is_financial,omitempty"`

	// Handler and ParamsModel are callable references; excluded from
	// schema export.
	Handler     ActionHandler `json:"-"`
	ParamsModel func() any    `json:"-"`
}

// IsMutation reports whether the action belongs to the mutation category.
func (a *ActionMetadata) IsMutation() bool {
	return a.Category == ActionCategoryMutation
}

// RoleAllowed reports whether the given role may invoke this action.
// An empty AllowedRoles list denies by default.
func (a *ActionMetadata) RoleAllowed(role string) bool {
	for _, r := range a.AllowedRoles {
		if r == role {
			return true
		}
	}
	return false
}
