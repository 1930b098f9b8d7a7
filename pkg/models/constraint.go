package models

// ============================================================================
// Constraint Metadata
// ============================================================================

// ConstraintType classifies what aspect of the domain a constraint protects.
type ConstraintType string

const (
	ConstraintTypeState        ConstraintType = "STATE"
	ConstraintTypeBusinessRule ConstraintType = "BUSINESS_RULE"
	ConstraintTypeProperty     ConstraintType = "PROPERTY"
	ConstraintTypeUniqueness   ConstraintType = "UNIQUENESS"
)

// Severity decides whether a failed constraint blocks the action.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// WildcardAction applies a constraint to every action of its entity.
const WildcardAction = "*"

// ConstraintMetadata is a declarative guard condition. ConditionCode is a
// sandboxed boolean expression over state.*, param.* and user.*; when it
// is empty the constraint is informational and skipped at evaluation.
type ConstraintMetadata struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Description       string         `json:"description,omitempty"`
	ConstraintType    ConstraintType `json:"constraint_type"`
	Severity          Severity       `json:"severity"`
	Entity            string         `json:"entity"`
	Action            string         `json:"action"`
	ConditionText     string         `json:"condition_text,omitempty"`
	ConditionCode     string         `json:"condition_code,omitempty"`
	ErrorMessage      string         `json:"error_message,omitempty"`
	SuggestionMessage string         `json:"suggestion_message,omitempty"`
}

// AppliesToAllActions reports whether this is a wildcard constraint.
func (c *ConstraintMetadata) AppliesToAllActions() bool {
	return c.Action == WildcardAction
}

// ============================================================================
// Guard Results
// ============================================================================

// GuardViolation records one failed constraint or illegal transition.
type GuardViolation struct {
	ConstraintID string   `json:"constraint_id"`
	Name         string   `json:"name,omitempty"`
	Severity     Severity `json:"severity"`
	Message      string   `json:"message"`

	// ValidAlternatives lists reachable target states when the violation
	// came from the state machine.
	ValidAlternatives []string `json:"valid_alternatives,omitempty"`
}

// GuardResult is the outcome of the pre-dispatch gate.
type GuardResult struct {
	Allowed     bool             `json:"allowed"`
	Violations  []GuardViolation `json:"violations,omitempty"`
	Warnings    []GuardViolation `json:"warnings,omitempty"`
	Suggestions []string         `json:"suggestions,omitempty"`
}
