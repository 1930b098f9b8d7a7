package actions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ontoflow-ai/ontoflow/pkg/apperrors"
	"github.com/ontoflow-ai/ontoflow/pkg/events"
	"github.com/ontoflow-ai/ontoflow/pkg/guard"
	"github.com/ontoflow-ai/ontoflow/pkg/models"
	"github.com/ontoflow-ai/ontoflow/pkg/ontology"
)

type checkInParams struct {
	RoomNumber string `json:"room_number" validate:"required"`
	GuestName  string `json:"guest_name" validate:"required"`
	Phone      string `json:"phone" validate:"omitempty,len=11"`
}

func newDispatchFixture(t *testing.T) (*ontology.Registry, *Dispatcher) {
	t.Helper()
	registry := ontology.NewRegistry(zap.NewNop())
	registry.RegisterEntity(models.EntityMetadata{Name: "Room"})
	gate := guard.NewExecutor(registry, zap.NewNop())
	return registry, NewDispatcher(registry, gate, nil, zap.NewNop())
}

func registerCheckIn(t *testing.T, registry *ontology.Registry, handler models.ActionHandler) {
	t.Helper()
	require.NoError(t, registry.RegisterAction("Room", models.ActionMetadata{
		Name:             "check_in",
		Category:         models.ActionCategoryMutation,
		AllowedRoles:     []string{"receptionist", "manager"},
		UIRequiredFields: []string{"room_number", "guest_name"},
		Handler:          handler,
		ParamsModel:      func() any { return &checkInParams{} },
	}))
}

func TestDispatchUnknownAction(t *testing.T) {
	_, d := newDispatchFixture(t)

	_, err := d.Dispatch(context.Background(), "teleport", nil, DispatchContext{})
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnknownAction))
}

func TestDispatchPermissionDenied(t *testing.T) {
	registry, d := newDispatchFixture(t)
	registerCheckIn(t, registry, nil)

	_, err := d.Dispatch(context.Background(), "check_in", nil, DispatchContext{
		User: models.UserContext{ID: "u-1", Role: "guest"},
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermissionDenied))

	// No roles declared means nobody gets in.
	require.NoError(t, registry.RegisterAction("Room", models.ActionMetadata{
		Name: "demolish", Category: models.ActionCategoryMutation,
	}))
	_, err = d.Dispatch(context.Background(), "demolish", nil, DispatchContext{
		User: models.UserContext{ID: "u-1", Role: "manager"},
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermissionDenied))
}

func TestDispatchParamValidation(t *testing.T) {
	registry, d := newDispatchFixture(t)
	registerCheckIn(t, registry, func(ctx context.Context, params any, deps models.HandlerDeps) (models.ActionResult, error) {
		return models.Succeed("checked in", nil), nil
	})
	user := models.UserContext{ID: "u-1", Role: "receptionist"}

	t.Run("missing required field", func(t *testing.T) {
		_, err := d.Dispatch(context.Background(), "check_in", map[string]any{
			"room_number": "301",
		}, DispatchContext{User: user})
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
		assert.Contains(t, err.Error(), "GuestName")
	})

	t.Run("phone length enforced", func(t *testing.T) {
		_, err := d.Dispatch(context.Background(), "check_in", map[string]any{
			"room_number": "301",
			"guest_name":  "张三",
			"phone":       "123",
		}, DispatchContext{User: user})
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
		assert.Contains(t, err.Error(), "must have length 11")
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		_, err := d.Dispatch(context.Background(), "check_in", map[string]any{
			"room_number": "301",
			"guest_name":  "张三",
			"minibar":     true,
		}, DispatchContext{User: user})
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})

	t.Run("valid params reach the handler", func(t *testing.T) {
		result, err := d.Dispatch(context.Background(), "check_in", map[string]any{
			"room_number": "301",
			"guest_name":  "张三",
			"phone":       "13912345678",
		}, DispatchContext{User: user})
		require.NoError(t, err)
		assert.True(t, result.Success())
	})
}

func TestDispatchGuardBlocksMutation(t *testing.T) {
	registry, d := newDispatchFixture(t)
	handlerCalled := false
	registerCheckIn(t, registry, func(ctx context.Context, params any, deps models.HandlerDeps) (models.ActionResult, error) {
		handlerCalled = true
		return models.Succeed("checked in", nil), nil
	})
	registry.RegisterConstraint(models.ConstraintMetadata{
		ID: "room-vacant", Entity: "Room", Action: "check_in",
		Severity:      models.SeverityError,
		ConditionCode: `state.status != "occupied"`,
		ErrorMessage:  "room is occupied",
	})

	_, err := d.Dispatch(context.Background(), "check_in", map[string]any{
		"room_number": "301",
		"guest_name":  "张三",
	}, DispatchContext{
		User:        models.UserContext{ID: "u-1", Role: "receptionist"},
		EntityState: map[string]any{"status": "occupied"},
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindGuardViolation))
	assert.False(t, handlerCalled)

	// The guard result rides along for callers that render alternatives.
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	guardResult, ok := appErr.Details.(models.GuardResult)
	require.True(t, ok)
	require.Len(t, guardResult.Violations, 1)
	assert.Equal(t, "room is occupied", guardResult.Violations[0].Message)
}

func TestDispatchQuerySkipsGuard(t *testing.T) {
	registry, d := newDispatchFixture(t)
	// A wildcard ERROR constraint that always fails.
	registry.RegisterConstraint(models.ConstraintMetadata{
		ID: "always-blocked", Entity: "Room", Action: models.WildcardAction,
		Severity:      models.SeverityError,
		ConditionCode: `false`,
	})
	require.NoError(t, registry.RegisterAction("Room", models.ActionMetadata{
		Name:         "list_rooms",
		Category:     models.ActionCategoryQuery,
		AllowedRoles: []string{"receptionist"},
		Handler: func(ctx context.Context, params any, deps models.HandlerDeps) (models.ActionResult, error) {
			return models.Succeed("ok", map[string]any{"rooms": []string{"301"}}), nil
		},
	}))

	result, err := d.Dispatch(context.Background(), "list_rooms", nil, DispatchContext{
		User: models.UserContext{ID: "u-1", Role: "receptionist"},
	})
	require.NoError(t, err)
	assert.True(t, result.Success())
}

func TestDispatchHandlerPanicBecomesDispatchError(t *testing.T) {
	registry, d := newDispatchFixture(t)
	registerCheckIn(t, registry, func(ctx context.Context, params any, deps models.HandlerDeps) (models.ActionResult, error) {
		panic("nil map write")
	})

	_, err := d.Dispatch(context.Background(), "check_in", map[string]any{
		"room_number": "301",
		"guest_name":  "张三",
	}, DispatchContext{User: models.UserContext{ID: "u-1", Role: "receptionist"}})

	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindDispatch))
	// Panic content stays out of the surfaced message.
	assert.NotContains(t, err.Error(), "nil map write")
}

func TestDispatchHandlerErrorWrapped(t *testing.T) {
	registry, d := newDispatchFixture(t)
	registerCheckIn(t, registry, func(ctx context.Context, params any, deps models.HandlerDeps) (models.ActionResult, error) {
		return nil, context.DeadlineExceeded
	})

	_, err := d.Dispatch(context.Background(), "check_in", map[string]any{
		"room_number": "301",
		"guest_name":  "张三",
	}, DispatchContext{User: models.UserContext{ID: "u-1", Role: "receptionist"}})

	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindDispatch))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestContinuation(t *testing.T) {
	registry, d := newDispatchFixture(t)
	registerCheckIn(t, registry, nil)

	t.Run("missing fields produce a continuation", func(t *testing.T) {
		cont, err := d.Continuation("check_in", map[string]any{"room_number": "301"})
		require.NoError(t, err)
		require.NotNil(t, cont)
		assert.Equal(t, "check_in", cont.ActionType)
		assert.Equal(t, []string{"guest_name"}, cont.MissingFields)
		assert.Equal(t, map[string]any{"room_number": "301"}, cont.CollectedFields)
	})

	t.Run("empty string counts as missing", func(t *testing.T) {
		cont, err := d.Continuation("check_in", map[string]any{
			"room_number": "301",
			"guest_name":  "",
		})
		require.NoError(t, err)
		require.NotNil(t, cont)
		assert.Equal(t, []string{"guest_name"}, cont.MissingFields)
	})

	t.Run("complete parameters need no continuation", func(t *testing.T) {
		cont, err := d.Continuation("check_in", map[string]any{
			"room_number": "301",
			"guest_name":  "张三",
		})
		require.NoError(t, err)
		assert.Nil(t, cont)
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := d.Continuation("teleport", nil)
		assert.True(t, apperrors.IsKind(err, apperrors.KindUnknownAction))
	})
}

func TestDispatchPublishesLifecycleEvents(t *testing.T) {
	registry := ontology.NewRegistry(zap.NewNop())
	registry.RegisterEntity(models.EntityMetadata{Name: "Room"})
	gate := guard.NewExecutor(registry, zap.NewNop())
	bus := events.NewBus(zap.NewNop())
	d := NewDispatcher(registry, gate, bus, zap.NewNop())
	registerCheckIn(t, registry, func(ctx context.Context, params any, deps models.HandlerDeps) (models.ActionResult, error) {
		return models.Succeed("checked in", nil), nil
	})

	var dispatched []events.Event
	bus.Subscribe(TopicActionDispatched, func(e events.Event) {
		dispatched = append(dispatched, e)
	})
	var blocked []events.Event
	bus.Subscribe(TopicActionBlocked, func(e events.Event) {
		blocked = append(blocked, e)
	})

	user := models.UserContext{ID: "u-1", Role: "receptionist"}
	params := map[string]any{"room_number": "301", "guest_name": "张三"}

	// Delivery is synchronous, so the event is visible as soon as
	// Dispatch returns.
	_, err := d.Dispatch(context.Background(), "check_in", params, DispatchContext{User: user})
	require.NoError(t, err)
	require.Len(t, dispatched, 1)
	assert.Equal(t, "check_in", dispatched[0].Payload["action"])
	assert.Equal(t, "Room", dispatched[0].Payload["entity"])
	assert.Equal(t, true, dispatched[0].Payload["success"])
	assert.Empty(t, blocked)

	registry.RegisterConstraint(models.ConstraintMetadata{
		ID:            "no_checkins_today",
		Entity:        "Room",
		Action:        "check_in",
		ConditionCode: "1 == 2",
		Severity:      models.SeverityError,
		ErrorMessage:  "check-ins are suspended",
	})

	_, err = d.Dispatch(context.Background(), "check_in", params, DispatchContext{User: user})
	require.Error(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, "check_in", blocked[0].Payload["action"])
	assert.EqualValues(t, 1, blocked[0].Payload["violations"])
	assert.Len(t, dispatched, 1)
}
