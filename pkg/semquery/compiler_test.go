package semquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ontoflow-ai/ontoflow/pkg/apperrors"
	"github.com/ontoflow-ai/ontoflow/pkg/models"
	"github.com/ontoflow-ai/ontoflow/pkg/ontology"
)

// newHotelRegistry builds the Guest -> StayRecord -> Room graph the
// query tests traverse.
func newHotelRegistry(t *testing.T) *ontology.Registry {
	t.Helper()
	registry := ontology.NewRegistry(zap.NewNop())

	registry.RegisterEntity(models.EntityMetadata{
		Name:        "Guest",
		Description: "A registered hotel guest",
		Properties: map[string]models.PropertyMetadata{
			"id":    {Name: "id", Type: models.PropertyTypeString, IsPrimaryKey: true},
			"name":  {Name: "name", Type: models.PropertyTypeString, DisplayName: "姓名"},
			"phone": {Name: "phone", Type: models.PropertyTypeString},
		},
	})
	registry.RegisterEntity(models.EntityMetadata{
		Name: "StayRecord",
		Properties: map[string]models.PropertyMetadata{
			"id":            {Name: "id", Type: models.PropertyTypeString, IsPrimaryKey: true},
			"status":        {Name: "status", Type: models.PropertyTypeString},
			"check_in_date": {Name: "check_in_date", Type: models.PropertyTypeDate},
			"guest_id":      {Name: "guest_id", Type: models.PropertyTypeString, IsForeignKey: true},
			"room_number":   {Name: "room_number", Type: models.PropertyTypeString, IsForeignKey: true},
		},
	})
	registry.RegisterEntity(models.EntityMetadata{
		Name: "Room",
		Properties: map[string]models.PropertyMetadata{
			"room_number": {Name: "room_number", Type: models.PropertyTypeString, IsPrimaryKey: true},
			"status":      {Name: "status", Type: models.PropertyTypeString},
			"floor":       {Name: "floor", Type: models.PropertyTypeInteger},
		},
	})

	require.NoError(t, registry.RegisterRelationship("Guest", models.RelationshipMetadata{
		Name: "stays", TargetEntity: "StayRecord", Cardinality: models.CardinalityOneToMany,
	}))
	require.NoError(t, registry.RegisterRelationship("StayRecord", models.RelationshipMetadata{
		Name: "guest", TargetEntity: "Guest", Cardinality: models.CardinalityManyToOne, ForeignKey: "guest_id",
	}))
	require.NoError(t, registry.RegisterRelationship("StayRecord", models.RelationshipMetadata{
		Name: "room", TargetEntity: "Room", Cardinality: models.CardinalityManyToOne, ForeignKey: "room_number",
	}))
	return registry
}

func newTestCompiler(t *testing.T, applicator RuleApplicator) *Compiler {
	t.Helper()
	return NewCompiler(newHotelRegistry(t), applicator, zap.NewNop())
}

func TestCompileUnknownEntity(t *testing.T) {
	c := newTestCompiler(t, nil)
	_, err := c.Compile(models.SemanticQuery{RootObject: "Spaceship"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnknownEntity))
}

func TestCompileDefaultProjection(t *testing.T) {
	c := newTestCompiler(t, nil)
	plan, err := c.Compile(models.SemanticQuery{RootObject: "Room"})
	require.NoError(t, err)

	// Primary key first, remaining properties in name order.
	var paths []string
	for _, p := range plan.Projections {
		paths = append(paths, p.Path)
	}
	assert.Equal(t, []string{"room_number", "floor", "status"}, paths)
}

func TestCompileMultiHopJoins(t *testing.T) {
	c := newTestCompiler(t, nil)
	plan, err := c.Compile(models.SemanticQuery{
		RootObject: "Guest",
		Fields:     []string{"name", "stays.status"},
		Filters: []models.SemanticFilter{
			{Path: "stays.room.status", Operator: models.OpEq, Value: "occupied"},
		},
	})
	require.NoError(t, err)

	require.Len(t, plan.Joins, 2)
	assert.Equal(t, "stays", plan.Joins[0].Relationship)
	assert.Equal(t, "Guest", plan.Joins[0].SourceEntity)
	assert.Equal(t, "room", plan.Joins[1].Relationship)
	assert.Equal(t, "StayRecord", plan.Joins[1].SourceEntity)

	require.Len(t, plan.Filters, 1)
	assert.Equal(t, "Room", plan.Filters[0].Entity)
	assert.Equal(t, "status", plan.Filters[0].Property)
}

func TestCompileRelationProjectionExpands(t *testing.T) {
	c := newTestCompiler(t, nil)
	plan, err := c.Compile(models.SemanticQuery{
		RootObject: "StayRecord",
		Fields:     []string{"room"},
	})
	require.NoError(t, err)

	var paths []string
	for _, p := range plan.Projections {
		paths = append(paths, p.Path)
	}
	assert.Equal(t, []string{"room.room_number", "room.floor", "room.status"}, paths)
	require.Len(t, plan.Joins, 1)
	assert.Equal(t, "room", plan.Joins[0].Relationship)
}

func TestCompileUnresolvedPaths(t *testing.T) {
	c := newTestCompiler(t, nil)

	tests := []struct {
		name    string
		query   models.SemanticQuery
		errPart string
	}{
		{
			"unknown segment",
			models.SemanticQuery{RootObject: "Guest", Fields: []string{"zodiac"}},
			"neither a property nor a relationship",
		},
		{
			"property mid-path",
			models.SemanticQuery{RootObject: "Guest", Fields: []string{"name.length"}},
			"only the final segment may be a property",
		},
		{
			"filter ends on relationship",
			models.SemanticQuery{
				RootObject: "Guest",
				Fields:     []string{"name"},
				Filters:    []models.SemanticFilter{{Path: "stays", Operator: models.OpEq, Value: 1}},
			},
			"filters must end on a property",
		},
		{
			"order_by ends on relationship",
			models.SemanticQuery{
				RootObject: "Guest",
				Fields:     []string{"name"},
				OrderBy:    []models.OrderBy{{Path: "stays"}},
			},
			"ordering requires a property",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compile(tt.query)
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindUnresolvedPath))
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestCompileFilterValueArity(t *testing.T) {
	c := newTestCompiler(t, nil)

	tests := []struct {
		name   string
		filter models.SemanticFilter
	}{
		{"in requires a list", models.SemanticFilter{Path: "status", Operator: models.OpIn, Value: "active"}},
		{"in rejects empty list", models.SemanticFilter{Path: "status", Operator: models.OpIn, Value: []any{}}},
		{"between needs two values", models.SemanticFilter{Path: "check_in_date", Operator: models.OpBetween, Value: []any{"2026-01-01"}}},
		{"eq rejects a list", models.SemanticFilter{Path: "status", Operator: models.OpEq, Value: []any{"active"}}},
		{"eq rejects null", models.SemanticFilter{Path: "status", Operator: models.OpEq, Value: nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compile(models.SemanticQuery{
				RootObject: "StayRecord",
				Fields:     []string{"id"},
				Filters:    []models.SemanticFilter{tt.filter},
			})
			assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidFilterValue))
		})
	}

	t.Run("is_null takes no value", func(t *testing.T) {
		plan, err := c.Compile(models.SemanticQuery{
			RootObject: "StayRecord",
			Fields:     []string{"id"},
			Filters:    []models.SemanticFilter{{Path: "check_in_date", Operator: models.OpIsNull}},
		})
		require.NoError(t, err)
		require.Len(t, plan.Filters, 1)
	})
}

func TestCompileAppliesRulesToFilterValues(t *testing.T) {
	applicator := func(entityName, field string, value any) any {
		if entityName == "Room" && field == "status" && value == "dirty" {
			return "vacant_dirty"
		}
		return value
	}
	c := newTestCompiler(t, applicator)

	t.Run("scalar value rewritten", func(t *testing.T) {
		plan, err := c.Compile(models.SemanticQuery{
			RootObject: "Room",
			Fields:     []string{"room_number"},
			Filters:    []models.SemanticFilter{{Path: "status", Operator: models.OpEq, Value: "dirty"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "vacant_dirty", plan.Filters[0].Value)
	})

	t.Run("list values rewritten element-wise", func(t *testing.T) {
		plan, err := c.Compile(models.SemanticQuery{
			RootObject: "Room",
			Fields:     []string{"room_number"},
			Filters: []models.SemanticFilter{
				{Path: "status", Operator: models.OpIn, Value: []any{"dirty", "occupied"}},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, []any{"vacant_dirty", "occupied"}, plan.Filters[0].Value)
	})

	t.Run("projections untouched", func(t *testing.T) {
		plan, err := c.Compile(models.SemanticQuery{
			RootObject: "Room",
			Fields:     []string{"status"},
		})
		require.NoError(t, err)
		assert.Equal(t, "status", plan.Projections[0].Property)
	})
}
