package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRiskLevelAtLeast(t *testing.T) {
	assert.True(t, RiskHigh.AtLeast(RiskMedium))
	assert.True(t, RiskMedium.AtLeast(RiskMedium))
	assert.False(t, RiskLow.AtLeast(RiskHigh))
	// Unknown levels rank below none.
	assert.True(t, RiskNone.AtLeast(RiskLevel("mystery")))
}

func TestMaxRisk(t *testing.T) {
	assert.Equal(t, RiskCritical, MaxRisk(RiskLow, RiskCritical))
	assert.Equal(t, RiskHigh, MaxRisk(RiskHigh, RiskMedium))
	assert.Equal(t, RiskNone, MaxRisk(RiskNone, RiskNone))
}

func TestRoleAllowed(t *testing.T) {
	action := ActionMetadata{
		Name:         "check_in",
		AllowedRoles: []string{"receptionist", "manager"},
	}
	assert.True(t, action.RoleAllowed("manager"))
	assert.False(t, action.RoleAllowed("guest"))

	// Empty role list denies everyone.
	open := ActionMetadata{Name: "noop"}
	assert.False(t, open.RoleAllowed("manager"))
}

func TestActionResultHelpers(t *testing.T) {
	ok := Succeed("checked in", map[string]any{"room_number": "301"})
	assert.True(t, ok.Success())
	assert.Equal(t, "checked in", ok.Message())
	assert.Equal(t, "301", ok["room_number"])

	fail := Failure("room is occupied")
	assert.False(t, fail.Success())
	assert.Equal(t, "room is occupied", fail.Message())

	// Missing or mistyped fields degrade gracefully.
	assert.False(t, ActionResult{"success": "yes"}.Success())
	assert.Empty(t, ActionResult{}.Message())
}
