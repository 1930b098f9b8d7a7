// Package actions resolves actions by name, validates their parameters
// against the action's typed parameter model, enforces roles and the
// guard gate, and invokes the registered handler.
package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ontoflow-ai/ontoflow/pkg/apperrors"
	"github.com/ontoflow-ai/ontoflow/pkg/events"
	"github.com/ontoflow-ai/ontoflow/pkg/guard"
	"github.com/ontoflow-ai/ontoflow/pkg/logging"
	"github.com/ontoflow-ai/ontoflow/pkg/models"
	"github.com/ontoflow-ai/ontoflow/pkg/ontology"
)

// Lifecycle topics published by the dispatcher.
const (
	TopicActionDispatched = "action.dispatched"
	TopicActionBlocked    = "action.blocked"
)

// GuardGate is the slice of the guard executor the dispatcher needs.
// Mutations are gated; query actions are exempt.
type GuardGate interface {
	Evaluate(in guard.Input) models.GuardResult
}

// DispatchContext carries the per-call collaborators and entity state.
// Session is the persistence transaction scope for this dispatch; the
// dispatcher never retains it between calls.
type DispatchContext struct {
	User          models.UserContext
	Session       any
	Collaborators map[string]any

	// EntityState, CurrentState and TargetState feed the guard gate.
	EntityState  map[string]any
	CurrentState string
	TargetState  string
}

// Dispatcher invokes registered actions. Stateless; safe for concurrent
// use from many request workers.
type Dispatcher struct {
	registry *ontology.Registry
	gate     GuardGate
	bus      *events.Bus
	validate *validator.Validate
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher bound to a registry and guard gate.
// A nil bus disables lifecycle events.
func NewDispatcher(registry *ontology.Registry, gate GuardGate, bus *events.Bus, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		gate:     gate,
		bus:      bus,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.Named("dispatch"),
	}
}

// Dispatch resolves, validates, guards and runs one action. The handler
// result dictionary is forwarded unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, actionName string, rawParams map[string]any, dc DispatchContext) (models.ActionResult, error) {
	action := d.registry.GetActionByName(actionName)
	if action == nil {
		return nil, apperrors.Newf(apperrors.KindUnknownAction, "action %q is not registered", actionName)
	}

	if !action.RoleAllowed(dc.User.Role) {
		d.logger.Warn("Permission denied",
			zap.String("action", actionName),
			zap.String("role", dc.User.Role))
		return nil, apperrors.Newf(apperrors.KindPermissionDenied,
			"role %q may not invoke %q", dc.User.Role, actionName)
	}

	params, err := d.parseParams(action, rawParams)
	if err != nil {
		return nil, err
	}

	// Query actions skip the guard; every mutation goes through it.
	if action.IsMutation() && d.gate != nil {
		result := d.gate.Evaluate(guard.Input{
			Entity:       action.Entity,
			Action:       action.Name,
			Params:       rawParams,
			EntityState:  dc.EntityState,
			CurrentState: dc.CurrentState,
			TargetState:  dc.TargetState,
			User:         dc.User,
		})
		if !result.Allowed {
			d.publish(TopicActionBlocked, map[string]any{
				"action":     actionName,
				"entity":     action.Entity,
				"violations": len(result.Violations),
			})
			guardErr := apperrors.Newf(apperrors.KindGuardViolation,
				"action %q blocked by %d violation(s)", actionName, len(result.Violations))
			guardErr.Details = result
			return nil, guardErr
		}
		for _, w := range result.Warnings {
			d.logger.Info("Guard warning",
				zap.String("action", actionName),
				zap.String("constraint", w.ConstraintID),
				zap.String("message", w.Message))
		}
	}

	if action.Handler == nil {
		return nil, apperrors.Newf(apperrors.KindDispatch, "action %q has no handler", actionName)
	}

	deps := models.HandlerDeps{
		Session:       dc.Session,
		User:          dc.User,
		Collaborators: dc.Collaborators,
	}

	result, err := d.invoke(ctx, action, params, deps)
	if err != nil {
		return nil, err
	}

	d.publish(TopicActionDispatched, map[string]any{
		"action":  actionName,
		"entity":  action.Entity,
		"success": result.Success(),
	})
	d.logger.Debug("Dispatched action",
		zap.String("action", actionName),
		zap.String("entity", action.Entity),
		zap.Bool("success", result.Success()),
		zap.Any("params", logging.MaskParams(d.registry.GetEntity(action.Entity), rawParams)))
	return result, nil
}

// publish emits a lifecycle event when a bus is attached. Delivery is
// synchronous; subscribers see the event before Dispatch returns.
func (d *Dispatcher) publish(topic string, payload map[string]any) {
	if d.bus == nil {
		return
	}
	d.bus.Publish(events.NewEvent(topic, payload))
}

// Continuation builds the stateless follow-up descriptor for an action
// whose required parameters are not all present. Returns nil when the
// action is ready to dispatch.
func (d *Dispatcher) Continuation(actionName string, provided map[string]any) (*models.Continuation, error) {
	action := d.registry.GetActionByName(actionName)
	if action == nil {
		return nil, apperrors.Newf(apperrors.KindUnknownAction, "action %q is not registered", actionName)
	}
	missing := MissingFields(action, provided)
	if len(missing) == 0 {
		return nil, nil
	}
	return &models.Continuation{
		ActionType:      actionName,
		CollectedFields: provided,
		MissingFields:   missing,
	}, nil
}

// MissingFields returns the ui_required_fields of an action that are
// absent or null in the provided parameter map, in declaration order.
func MissingFields(action *models.ActionMetadata, provided map[string]any) []string {
	var missing []string
	for _, field := range action.UIRequiredFields {
		v, ok := provided[field]
		if !ok || v == nil || v == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// parseParams decodes raw parameters through the action's params model
// and validates them. An action without a params model receives the raw
// map as-is.
func (d *Dispatcher) parseParams(action *models.ActionMetadata, rawParams map[string]any) (any, error) {
	if action.ParamsModel == nil {
		return rawParams, nil
	}

	model := action.ParamsModel()
	raw, err := json.Marshal(rawParams)
	if err != nil {
		return nil, apperrors.NewValidation("parameters are not JSON-encodable", nil)
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(model); err != nil {
		return nil, apperrors.NewValidation(
			fmt.Sprintf("parameters do not match the %s schema: %s", action.Name, err.Error()), nil)
	}

	if err := d.validate.Struct(model); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = validationMessage(fe)
			}
			return nil, apperrors.NewValidation("parameter validation failed", fields)
		}
		return nil, apperrors.NewValidation(err.Error(), nil)
	}

	return model, nil
}

// invoke runs the handler, converting panics and handler errors into
// DispatchError without leaking internals.
func (d *Dispatcher) invoke(ctx context.Context, action *models.ActionMetadata, params any, deps models.HandlerDeps) (result models.ActionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Handler panicked",
				zap.String("action", action.Name),
				zap.Any("panic", r),
				zap.Stack("stack"))
			result = nil
			err = apperrors.Newf(apperrors.KindDispatch, "handler for %q failed unexpectedly", action.Name)
		}
	}()

	result, handlerErr := action.Handler(ctx, params, deps)
	if handlerErr != nil {
		d.logger.Error("Handler returned error",
			zap.String("action", action.Name),
			zap.Error(handlerErr))
		return nil, apperrors.Wrap(apperrors.KindDispatch,
			fmt.Sprintf("handler for %q failed", action.Name), handlerErr)
	}
	return result, nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
