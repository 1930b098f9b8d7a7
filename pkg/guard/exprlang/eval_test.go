package exprlang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hotelEnv() Env {
	return Env{
		State: map[string]any{
			"status": "occupied",
			"floor":  3,
			"tags":   []any{"vip", "smoking"},
		},
		Param: map[string]any{
			"phone":  "13912345678",
			"amount": 250.0,
			"nights": 2,
		},
		User: map[string]any{
			"id":   "u-1",
			"role": "receptionist",
		},
	}
}

func TestEvalBool(t *testing.T) {
	env := hotelEnv()

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"equality", `state.status == "occupied"`, true},
		{"inequality", `state.status != "occupied"`, false},
		{"numeric coercion", `param.nights == 2.0`, true},
		{"comparison", `param.amount > 100`, true},
		{"string comparison", `state.status < "vacant"`, true},
		{"and short circuit", `state.status == "vacant" and param.amount / 0 > 1`, false},
		{"or short circuit", `state.status == "occupied" or param.amount / 0 > 1`, true},
		{"not", `not (param.nights > 5)`, true},
		{"in list literal", `state.status in ["occupied", "maintenance"]`, true},
		{"in state list", `"vip" in state.tags`, true},
		{"in string", `"139" in param.phone`, true},
		{"len of string counts runes", `len(param.phone) == 11`, true},
		{"len of list", `len(state.tags) == 2`, true},
		{"missing field reads as null", `state.ghost == null`, true},
		{"arithmetic", `param.amount * param.nights >= 500`, true},
		{"modulo", `state.floor % 2 == 1`, true},
		{"user role", `user.role == "receptionist"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvalBool(tt.expr, env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalBoolUnicodeLen(t *testing.T) {
	got, err := EvalBool(`len(param.name) == 2`, Env{
		Param: map[string]any{"name": "张三"},
	})
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvalErrors(t *testing.T) {
	env := hotelEnv()

	tests := []struct {
		name    string
		expr    string
		errPart string
	}{
		{"undeclared root", `os.env == "x"`, "undeclared symbol"},
		{"unknown function", `exec("rm")`, "unknown function"},
		{"non-boolean result", `param.amount + 1`, "did not evaluate to a boolean"},
		{"division by zero", `param.amount / 0 > 1`, "division by zero"},
		{"type mismatch", `param.phone > 5`, "cannot compare string and non-string"},
		{"field on scalar", `param.phone.length == 1`, "non-object"},
		{"boolean op on number", `param.amount and true`, "boolean operands"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EvalBool(tt.expr, env)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		`state.status ==`,
		`(param.amount > 1`,
		`state..status`,
		``,
	}
	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			_, err := Parse(expr)
			assert.Error(t, err)
		})
	}
}

func TestNilEnvReadsAsEmpty(t *testing.T) {
	got, err := EvalBool(`state.status == null and len(param.x) == 0`, Env{})
	require.NoError(t, err)
	assert.True(t, got)
}
