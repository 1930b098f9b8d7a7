package dag

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ontoflow-ai/ontoflow/pkg/actions"
	"github.com/ontoflow-ai/ontoflow/pkg/apperrors"
	"github.com/ontoflow-ai/ontoflow/pkg/models"
)

// ActionDispatcher is the slice of the dispatcher the executor needs.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, actionName string, rawParams map[string]any, dc actions.DispatchContext) (models.ActionResult, error)
}

// SnapshotContext describes the side-effect scope of a step about to
// run, so a snapshot engine can capture before-state.
type SnapshotContext struct {
	PlanID     string
	StepID     string
	ActionType string
	Params     map[string]any
}

// SnapshotEngine captures pre-execution state and reverts it during
// rollback. Implementations typically record before/after state for the
// entity touched by one action.
type SnapshotEngine interface {
	CreateSnapshot(ctx context.Context, sc SnapshotContext) (string, error)
	MarkExecuted(ctx context.Context, snapshotID string, outcome models.ActionResult) error
	Undo(ctx context.Context, snapshotID string) (bool, error)
}

// Executor runs execution plans sequentially in topological order.
// Sequential scheduling is the conservative default; step handlers may
// not rely on any ordering within a dependency layer. The executor owns
// one plan per call and serializes status updates under a per-plan
// mutex.
type Executor struct {
	dispatcher ActionDispatcher
	snapshots  SnapshotEngine
	logger     *zap.Logger
}

// NewExecutor creates a plan executor. snapshots may be nil, in which
// case failed plans report rollback as not attempted.
func NewExecutor(dispatcher ActionDispatcher, snapshots SnapshotEngine, logger *zap.Logger) *Executor {
	return &Executor{
		dispatcher: dispatcher,
		snapshots:  snapshots,
		logger:     logger.Named("dag"),
	}
}

// Execute runs the plan to completion or first failure. Structural
// problems (cycles, unknown dependencies) fail before any step runs;
// step failures are reported in the result, with completed steps rolled
// back in reverse completion order.
func (e *Executor) Execute(ctx context.Context, plan *models.ExecutionPlan, dc actions.DispatchContext) (*models.ExecutionResult, error) {
	order, err := topologicalOrder(plan)
	if err != nil {
		plan.Status = models.PlanStatusFailed
		return nil, err
	}

	var mu sync.Mutex
	plan.Status = models.PlanStatusExecuting
	result := &models.ExecutionResult{
		PlanID:      plan.PlanID,
		StepResults: make(map[string]models.ActionResult, len(plan.Steps)),
	}
	var completed []string

	for _, stepID := range order {
		step := plan.Step(stepID)

		if ctx.Err() != nil {
			e.failStep(&mu, step, "execution canceled: "+ctx.Err().Error())
			e.abort(ctx, plan, result, step, &mu, completed)
			return result, nil
		}

		if e.snapshots != nil {
			snapshotID, err := e.snapshots.CreateSnapshot(ctx, SnapshotContext{
				PlanID:     plan.PlanID.String(),
				StepID:     step.StepID,
				ActionType: step.ActionType,
				Params:     step.Params,
			})
			if err != nil {
				e.failStep(&mu, step, "snapshot failed: "+err.Error())
				e.abort(ctx, plan, result, step, &mu, completed)
				return result, nil
			}
			mu.Lock()
			step.SnapshotID = snapshotID
			mu.Unlock()
		}

		mu.Lock()
		step.Status = models.StepStatusInProgress
		mu.Unlock()

		stepResult, err := e.dispatcher.Dispatch(ctx, step.ActionType, step.Params, dc)
		if err != nil {
			e.failStep(&mu, step, err.Error())
			e.abort(ctx, plan, result, step, &mu, completed)
			return result, nil
		}
		if !stepResult.Success() {
			mu.Lock()
			step.Result = stepResult
			mu.Unlock()
			e.failStep(&mu, step, stepResult.Message())
			result.StepResults[step.StepID] = stepResult
			e.abort(ctx, plan, result, step, &mu, completed)
			return result, nil
		}

		mu.Lock()
		step.Status = models.StepStatusCompleted
		step.Result = stepResult
		mu.Unlock()
		result.StepResults[step.StepID] = stepResult
		completed = append(completed, step.StepID)

		if e.snapshots != nil && step.SnapshotID != "" {
			if err := e.snapshots.MarkExecuted(ctx, step.SnapshotID, stepResult); err != nil {
				e.logger.Warn("Failed to mark snapshot executed",
					zap.String("plan_id", plan.PlanID.String()),
					zap.String("step", step.StepID),
					zap.Error(err))
			}
		}

		e.logger.Debug("Step completed",
			zap.String("plan_id", plan.PlanID.String()),
			zap.String("step", step.StepID),
			zap.String("action", step.ActionType))
	}

	plan.Status = models.PlanStatusCompleted
	result.Success = true
	return result, nil
}

// failStep records a step failure under the plan mutex.
func (e *Executor) failStep(mu *sync.Mutex, step *models.PlanningStep, message string) {
	mu.Lock()
	step.Status = models.StepStatusFailed
	step.ErrorMessage = message
	mu.Unlock()
	e.logger.Error("Step failed",
		zap.String("step", step.StepID),
		zap.String("action", step.ActionType),
		zap.String("error", message))
}

// abort finalizes a failed run: remaining pending steps become skipped,
// completed steps are rolled back in reverse completion order.
func (e *Executor) abort(ctx context.Context, plan *models.ExecutionPlan, result *models.ExecutionResult, failed *models.PlanningStep, mu *sync.Mutex, completed []string) {
	mu.Lock()
	for i := range plan.Steps {
		if plan.Steps[i].Status == models.StepStatusPending {
			plan.Steps[i].Status = models.StepStatusSkipped
		}
	}
	plan.Status = models.PlanStatusFailed
	mu.Unlock()

	result.Success = false
	result.FailedStep = failed.StepID
	result.Error = failed.ErrorMessage
	result.RollbackStatus = e.rollback(ctx, plan, completed)
}

// FailureError converts a failed execution result into the framework
// error surface, carrying the full result as structured detail. Returns
// nil for nil or successful results.
func FailureError(result *models.ExecutionResult) error {
	if result == nil || result.Success {
		return nil
	}
	err := apperrors.Newf(apperrors.KindPlanExecutionFailed,
		"plan %s failed at step %s: %s", result.PlanID, result.FailedStep, result.Error)
	err.Details = result
	return err
}

// rollback undoes completed steps newest-first. Returns success when
// every undo succeeds, partial when any fails, and not-attempted when no
// snapshot engine is attached.
func (e *Executor) rollback(ctx context.Context, plan *models.ExecutionPlan, completed []string) models.RollbackStatus {
	if e.snapshots == nil {
		return models.RollbackNotAttempted
	}

	status := models.RollbackSuccess
	for i := len(completed) - 1; i >= 0; i-- {
		step := plan.Step(completed[i])
		if step == nil || step.SnapshotID == "" {
			status = models.RollbackPartial
			continue
		}
		ok, err := e.snapshots.Undo(ctx, step.SnapshotID)
		if err != nil || !ok {
			status = models.RollbackPartial
			e.logger.Error("Undo failed",
				zap.String("plan_id", plan.PlanID.String()),
				zap.String("step", step.StepID),
				zap.String("snapshot_id", step.SnapshotID),
				zap.Error(err))
			continue
		}
		e.logger.Info("Rolled back step",
			zap.String("plan_id", plan.PlanID.String()),
			zap.String("step", step.StepID))
	}
	return status
}
