package models

import "github.com/google/uuid"

// ============================================================================
// Plan Status
// ============================================================================

// PlanStatus is the execution status of a whole plan.
type PlanStatus string

const (
	PlanStatusPending   PlanStatus = "pending"
	PlanStatusExecuting PlanStatus = "executing"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusFailed    PlanStatus = "failed"
)

// StepStatus is the execution status of one planning step.
type StepStatus string

const (
	StepStatusPending    StepStatus = "pending"
	StepStatusInProgress StepStatus = "in_progress"
	StepStatusCompleted  StepStatus = "completed"
	StepStatusFailed     StepStatus = "failed"
	StepStatusSkipped    StepStatus = "skipped"
)

// IsTerminal returns true if the step status is terminal.
func (s StepStatus) IsTerminal() bool {
	return s == StepStatusCompleted || s == StepStatusFailed || s == StepStatusSkipped
}

// RollbackStatus summarizes the compensation outcome after a failed plan.
type RollbackStatus string

const (
	RollbackSuccess RollbackStatus = "success"
	RollbackPartial RollbackStatus = "partial"

	// RollbackNotAttempted is the zero value, reported when no snapshot
	// engine was attached.
	RollbackNotAttempted RollbackStatus = ""
)

// ============================================================================
// Planning Steps
// ============================================================================

// PlanningStep is one action invocation inside an execution plan. A step
// is ready when every dependency has completed.
type PlanningStep struct {
	StepID       string         `json:"step_id"`
	ActionType   string         `json:"action_type"`
	Description  string         `json:"description,omitempty"`
	Params       map[string]any `json:"params,omitempty"`
	Dependencies []string       `json:"dependencies,omitempty"`
	Status       StepStatus     `json:"status"`
	Result       ActionResult   `json:"result,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`

	// SnapshotID is set when a snapshot engine captured pre-execution
	// state for this step.
	SnapshotID string `json:"snapshot_id,omitempty"`
}

// ExecutionPlan is a dependency-ordered set of steps working toward one
// goal. A plan is owned by the executor for the duration of one run.
type ExecutionPlan struct {
	PlanID uuid.UUID      `json:"plan_id"`
	Goal   string         `json:"goal,omitempty"`
	Steps  []PlanningStep `json:"steps"`
	Status PlanStatus     `json:"status"`
}

// Step returns the step with the given id, or nil.
func (p *ExecutionPlan) Step(stepID string) *PlanningStep {
	for i := range p.Steps {
		if p.Steps[i].StepID == stepID {
			return &p.Steps[i]
		}
	}
	return nil
}

// ExecutionResult is the final outcome of one plan execution.
type ExecutionResult struct {
	Success        bool                    `json:"success"`
	PlanID         uuid.UUID               `json:"plan_id"`
	StepResults    map[string]ActionResult `json:"step_results,omitempty"`
	FailedStep     string                  `json:"failed_step,omitempty"`
	Error          string                  `json:"error,omitempty"`
	RollbackStatus RollbackStatus          `json:"rollback_status,omitempty"`
}
