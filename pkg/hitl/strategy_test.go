package hitl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ontoflow-ai/ontoflow/pkg/models"
)

func actionQuery(name string, risk models.RiskLevel, financial bool, params map[string]any) Query {
	return Query{
		Action: &models.ActionMetadata{Name: name, RiskLevel: risk, IsFinancial: financial},
		Params: params,
	}
}

func TestConfirmAlways(t *testing.T) {
	v := ConfirmAlways{}.RequiresConfirmation(Query{})
	assert.True(t, v.Confirm)
	assert.Equal(t, models.RiskMedium, v.Risk)
}

func TestConfirmByRisk(t *testing.T) {
	tests := []struct {
		name     string
		strategy ConfirmByRisk
		query    Query
		confirm  bool
	}{
		{"at default minimum", ConfirmByRisk{}, actionQuery("check_in", models.RiskMedium, false, nil), true},
		{"below default minimum", ConfirmByRisk{}, actionQuery("list_rooms", models.RiskLow, false, nil), false},
		{"raised minimum", ConfirmByRisk{MinLevel: models.RiskHigh}, actionQuery("check_in", models.RiskMedium, false, nil), false},
		{"override escalates", ConfirmByRisk{Overrides: map[string]models.RiskLevel{"list_rooms": models.RiskHigh}},
			actionQuery("list_rooms", models.RiskLow, false, nil), true},
		{"nil action", ConfirmByRisk{}, Query{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.confirm, tt.strategy.RequiresConfirmation(tt.query).Confirm)
		})
	}
}

func TestConfirmByThreshold(t *testing.T) {
	s := ConfirmByThreshold{AmountThreshold: 500, BatchThreshold: 3}

	t.Run("large financial amount", func(t *testing.T) {
		v := s.RequiresConfirmation(actionQuery("refund_deposit", models.RiskLow, true,
			map[string]any{"amount": 800.0}))
		assert.True(t, v.Confirm)
		assert.Equal(t, models.RiskHigh, v.Risk)
	})

	t.Run("amount at threshold passes", func(t *testing.T) {
		v := s.RequiresConfirmation(actionQuery("refund_deposit", models.RiskLow, true,
			map[string]any{"amount": 500.0}))
		assert.False(t, v.Confirm)
	})

	t.Run("non-financial action ignores amount", func(t *testing.T) {
		v := s.RequiresConfirmation(actionQuery("check_in", models.RiskLow, false,
			map[string]any{"amount": 9999.0}))
		assert.False(t, v.Confirm)
	})

	t.Run("adjustment_amount also counts", func(t *testing.T) {
		v := s.RequiresConfirmation(actionQuery("adjust_bill", models.RiskLow, true,
			map[string]any{"adjustment_amount": 501}))
		assert.True(t, v.Confirm)
	})

	t.Run("batch list size", func(t *testing.T) {
		v := s.RequiresConfirmation(actionQuery("clean_rooms", models.RiskLow, false,
			map[string]any{"room_numbers": []any{"301", "302", "303", "304"}}))
		assert.True(t, v.Confirm)
		assert.Equal(t, models.RiskMedium, v.Risk)
	})

	t.Run("numeric batch count", func(t *testing.T) {
		v := s.RequiresConfirmation(actionQuery("clean_rooms", models.RiskLow, false,
			map[string]any{"count": 10}))
		assert.True(t, v.Confirm)
	})

	t.Run("zero thresholds disable checks", func(t *testing.T) {
		v := ConfirmByThreshold{}.RequiresConfirmation(actionQuery("refund_deposit", models.RiskLow, true,
			map[string]any{"amount": 1e9, "ids": make([]any, 100)}))
		assert.False(t, v.Confirm)
	})
}

func TestCompositeTakesMaxRiskAndFirstReason(t *testing.T) {
	c := NewComposite(
		ConfirmByRisk{MinLevel: models.RiskHigh},
		ConfirmByThreshold{AmountThreshold: 100},
		ConfirmAlways{},
	)

	v := c.RequiresConfirmation(actionQuery("refund_deposit", models.RiskCritical, true,
		map[string]any{"amount": 200.0}))

	assert.True(t, v.Confirm)
	assert.Equal(t, models.RiskCritical, v.Risk)
	// The first confirming child supplies the reason.
	assert.Contains(t, v.Reason, "risk level critical")
}

func TestCompositeEmptyNeverConfirms(t *testing.T) {
	v := NewComposite().RequiresConfirmation(actionQuery("check_in", models.RiskCritical, false, nil))
	assert.False(t, v.Confirm)
	assert.Equal(t, models.RiskNone, v.Risk)
}
