package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := Newf(KindUnknownAction, "action %q is not registered", "check_in")
	assert.Equal(t, `UnknownAction: action "check_in" is not registered`, err.Error())
}

func TestErrorFieldsSorted(t *testing.T) {
	err := NewValidation("parameter validation failed", map[string]string{
		"phone": "must have length 11",
		"name":  "is required",
	})
	assert.Equal(t,
		"ValidationError: parameter validation failed (name: is required; phone: must have length 11)",
		err.Error())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindDispatch, "handler failed", cause)

	require.ErrorIs(t, err, cause)
	// Cause stays out of the surfaced message.
	assert.Equal(t, "DispatchError: handler failed", err.Error())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"direct", New(KindGuardViolation, "blocked"), KindGuardViolation},
		{"wrapped in fmt", fmt.Errorf("outer: %w", New(KindCyclicPlan, "cycle")), KindCyclicPlan},
		{"plain error", errors.New("boom"), Kind("")},
		{"nil", nil, Kind("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIsKind(t *testing.T) {
	err := Newf(KindPermissionDenied, "role %q may not invoke %q", "guest", "delete_room")
	assert.True(t, IsKind(err, KindPermissionDenied))
	assert.False(t, IsKind(err, KindValidation))
}
