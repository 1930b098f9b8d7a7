package ooda

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObserveNormalizes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims and collapses whitespace", "  check in   301  ", "check in 301"},
		{"strips control characters", "check\x00 in\x07 301", "check in 301"},
		{"tabs and newlines collapse", "check\tin\n301", "check in 301"},
		{"unicode preserved", "  给张三办理入住  ", "给张三办理入住"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := Observe(tt.in)
			assert.True(t, obs.IsValid)
			assert.Equal(t, tt.want, obs.NormalizedInput)
			assert.Equal(t, tt.in, obs.RawInput)
		})
	}
}

func TestObserveRejectsInvalidInput(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		obs := Observe("   \t\n ")
		assert.False(t, obs.IsValid)
		assert.Contains(t, obs.ValidationErrors, "input is empty")
	})

	t.Run("oversized", func(t *testing.T) {
		obs := Observe(strings.Repeat("a", maxObservationLen+1))
		assert.False(t, obs.IsValid)
		assert.Contains(t, obs.ValidationErrors, "input exceeds maximum length")
	})
}
