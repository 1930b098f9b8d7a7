package semquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ontoflow-ai/ontoflow/pkg/apperrors"
	"github.com/ontoflow-ai/ontoflow/pkg/models"
)

func compileAndRender(t *testing.T, q models.SemanticQuery) (string, []any) {
	t.Helper()
	registry := newHotelRegistry(t)
	plan, err := NewCompiler(registry, nil, zap.NewNop()).Compile(q)
	require.NoError(t, err)
	sql, args, err := NewRenderer(registry).Render(plan)
	require.NoError(t, err)
	return sql, args
}

func TestRenderSimpleQuery(t *testing.T) {
	sql, args := compileAndRender(t, models.SemanticQuery{
		RootObject: "StayRecord",
		Fields:     []string{"status"},
		Filters: []models.SemanticFilter{
			{Path: "status", Operator: models.OpEq, Value: "active"},
		},
		Limit: 10,
	})

	assert.Equal(t,
		`SELECT "stay_records"."status" FROM "stay_records" WHERE "stay_records"."status" = $1 LIMIT $2`,
		sql)
	assert.Equal(t, []any{"active", 10}, args)
}

func TestRenderJoinOnDeclaredForeignKey(t *testing.T) {
	sql, _ := compileAndRender(t, models.SemanticQuery{
		RootObject: "StayRecord",
		Fields:     []string{"guest.name"},
	})

	assert.Equal(t,
		`SELECT "guests"."name" FROM "stay_records" JOIN "guests" ON "stay_records"."guest_id" = "guests"."id"`,
		sql)
}

func TestRenderOneToManyDefaultsForeignKeyToTarget(t *testing.T) {
	// Guest.stays declares no foreign key; the renderer derives guest_id
	// on the many side and joins it to the guest primary key.
	sql, _ := compileAndRender(t, models.SemanticQuery{
		RootObject: "Guest",
		Fields:     []string{"name", "stays.status"},
	})

	assert.Equal(t,
		`SELECT "guests"."name", "stay_records"."status" FROM "guests" JOIN "stay_records" ON "stay_records"."guest_id" = "guests"."id"`,
		sql)
}

func TestRenderOperators(t *testing.T) {
	t.Run("in renders as ANY", func(t *testing.T) {
		sql, args := compileAndRender(t, models.SemanticQuery{
			RootObject: "Room",
			Fields:     []string{"room_number"},
			Filters: []models.SemanticFilter{
				{Path: "status", Operator: models.OpIn, Value: []any{"vacant_clean", "vacant_dirty"}},
			},
		})
		assert.Contains(t, sql, `"rooms"."status" = ANY($1)`)
		require.Len(t, args, 1)
	})

	t.Run("between consumes two parameters", func(t *testing.T) {
		sql, args := compileAndRender(t, models.SemanticQuery{
			RootObject: "StayRecord",
			Fields:     []string{"id"},
			Filters: []models.SemanticFilter{
				{Path: "check_in_date", Operator: models.OpBetween, Value: []any{"2026-08-01", "2026-08-24"}},
			},
		})
		assert.Contains(t, sql, `BETWEEN $1 AND $2`)
		assert.Equal(t, []any{"2026-08-01", "2026-08-24"}, args)
	})

	t.Run("like renders case-insensitively", func(t *testing.T) {
		sql, _ := compileAndRender(t, models.SemanticQuery{
			RootObject: "Guest",
			Fields:     []string{"name"},
			Filters: []models.SemanticFilter{
				{Path: "name", Operator: models.OpLike, Value: "张%"},
			},
		})
		assert.Contains(t, sql, `"guests"."name" ILIKE $1`)
	})

	t.Run("unary operators take no parameter", func(t *testing.T) {
		sql, args := compileAndRender(t, models.SemanticQuery{
			RootObject: "StayRecord",
			Fields:     []string{"id"},
			Filters: []models.SemanticFilter{
				{Path: "check_in_date", Operator: models.OpIsNotNull},
			},
		})
		assert.Contains(t, sql, `"stay_records"."check_in_date" IS NOT NULL`)
		assert.Empty(t, args)
	})
}

func TestRenderOrderDistinctOffset(t *testing.T) {
	sql, args := compileAndRender(t, models.SemanticQuery{
		RootObject: "Room",
		Fields:     []string{"room_number"},
		OrderBy:    []models.OrderBy{{Path: "floor", Descending: true}, {Path: "room_number"}},
		Distinct:   true,
		Limit:      5,
		Offset:     10,
	})

	assert.Equal(t,
		`SELECT DISTINCT "rooms"."room_number" FROM "rooms" ORDER BY "rooms"."floor" DESC, "rooms"."room_number" LIMIT $1 OFFSET $2`,
		sql)
	assert.Equal(t, []any{5, 10}, args)
}

func TestRenderHonorsModelBinding(t *testing.T) {
	registry := newHotelRegistry(t)
	require.NoError(t, registry.RegisterModel("Guest", &ModelBinding{
		Table:   "hotel_guests",
		Columns: map[string]string{"name": "full_name"},
	}))

	plan, err := NewCompiler(registry, nil, zap.NewNop()).Compile(models.SemanticQuery{
		RootObject: "Guest",
		Fields:     []string{"name"},
	})
	require.NoError(t, err)
	sql, _, err := NewRenderer(registry).Render(plan)
	require.NoError(t, err)

	assert.Equal(t, `SELECT "hotel_guests"."full_name" FROM "hotel_guests"`, sql)
}

func TestRenderScreensInjectionFingerprints(t *testing.T) {
	registry := newHotelRegistry(t)
	plan := &CompiledPlan{
		RootEntity:  "Guest",
		Projections: []Projection{{Entity: "Guest", Property: "name", Path: "name"}},
		Filters: []CompiledFilter{
			{Entity: "Guest", Property: "name", Operator: models.OpEq, Value: "x' OR '1'='1", Path: "name"},
		},
	}

	_, _, err := NewRenderer(registry).Render(plan)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidFilterValue))
}

func TestRenderRejectsUnsafeIdentifiers(t *testing.T) {
	registry := newHotelRegistry(t)
	plan := &CompiledPlan{
		RootEntity: "Guest",
		Projections: []Projection{
			{Entity: "Guest", Property: `name"; DROP TABLE guests; --`, Path: "name"},
		},
	}

	_, _, err := NewRenderer(registry).Render(plan)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}
