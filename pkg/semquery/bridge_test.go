package semquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ontoflow-ai/ontoflow/pkg/models"
)

func newBridge(t *testing.T) *OntologyQueryCompiler {
	t.Helper()
	registry := newHotelRegistry(t)
	compiler := NewCompiler(registry, nil, zap.NewNop())
	return NewOntologyQueryCompiler(registry, compiler, zap.NewNop())
}

func TestCompileExtractedConfidence(t *testing.T) {
	b := newBridge(t)

	t.Run("all hints resolve", func(t *testing.T) {
		result := b.CompileExtracted(models.ExtractedQuery{
			TargetEntityHint: "guest",
			TargetFieldHints: []string{"name"},
			Conditions: []models.ExtractedCondition{
				{Field: "phone", Operator: models.OpEq, Value: "13912345678"},
			},
		})
		assert.InDelta(t, 0.9, result.Confidence, 0.001)
		assert.False(t, result.FallbackNeeded)
		assert.Empty(t, result.UnresolvedFields)
		require.NotNil(t, result.Plan)
		assert.Equal(t, "Guest", result.Plan.RootEntity)
	})

	t.Run("some hints resolve", func(t *testing.T) {
		result := b.CompileExtracted(models.ExtractedQuery{
			TargetEntityHint: "Guest",
			TargetFieldHints: []string{"name", "zodiac"},
		})
		assert.InDelta(t, 0.7, result.Confidence, 0.001)
		assert.False(t, result.FallbackNeeded)
		assert.Equal(t, []string{"zodiac"}, result.UnresolvedFields)
	})

	t.Run("entity only", func(t *testing.T) {
		result := b.CompileExtracted(models.ExtractedQuery{TargetEntityHint: "Guest"})
		assert.InDelta(t, 0.5, result.Confidence, 0.001)
		assert.False(t, result.FallbackNeeded)
		// Zero field hints still compile to the default projection.
		require.NotNil(t, result.Plan)
		assert.NotEmpty(t, result.Plan.Projections)
	})

	t.Run("entity unresolved", func(t *testing.T) {
		result := b.CompileExtracted(models.ExtractedQuery{
			TargetEntityHint: "spaceship",
			TargetFieldHints: []string{"thrust"},
		})
		assert.Zero(t, result.Confidence)
		assert.True(t, result.FallbackNeeded)
		assert.Equal(t, []string{"spaceship", "thrust"}, result.UnresolvedFields)
		assert.Nil(t, result.Plan)
	})

	t.Run("compile failure forces fallback", func(t *testing.T) {
		result := b.CompileExtracted(models.ExtractedQuery{
			TargetEntityHint: "Guest",
			Conditions: []models.ExtractedCondition{
				// Resolves to a property but between needs two values.
				{Field: "phone", Operator: models.OpBetween, Value: "139"},
			},
		})
		assert.Zero(t, result.Confidence)
		assert.True(t, result.FallbackNeeded)
		assert.Nil(t, result.Plan)
	})
}

func TestResolveEntityLooseMatching(t *testing.T) {
	b := newBridge(t)

	t.Run("case-insensitive name", func(t *testing.T) {
		result := b.CompileExtracted(models.ExtractedQuery{TargetEntityHint: "GUEST"})
		require.NotNil(t, result.Query)
		assert.Equal(t, "Guest", result.Query.RootObject)
	})

	t.Run("table name", func(t *testing.T) {
		result := b.CompileExtracted(models.ExtractedQuery{TargetEntityHint: "stay_records"})
		require.NotNil(t, result.Query)
		assert.Equal(t, "StayRecord", result.Query.RootObject)
	})

	t.Run("description substring", func(t *testing.T) {
		result := b.CompileExtracted(models.ExtractedQuery{TargetEntityHint: "hotel guest"})
		require.NotNil(t, result.Query)
		assert.Equal(t, "Guest", result.Query.RootObject)
	})
}

func TestResolveFieldMatching(t *testing.T) {
	b := newBridge(t)

	t.Run("display name", func(t *testing.T) {
		result := b.CompileExtracted(models.ExtractedQuery{
			TargetEntityHint: "Guest",
			TargetFieldHints: []string{"姓名"},
		})
		require.NotNil(t, result.Query)
		assert.Equal(t, []string{"name"}, result.Query.Fields)
	})

	t.Run("relationship name", func(t *testing.T) {
		result := b.CompileExtracted(models.ExtractedQuery{
			TargetEntityHint: "Guest",
			TargetFieldHints: []string{"stays"},
		})
		require.NotNil(t, result.Query)
		assert.Equal(t, []string{"stays"}, result.Query.Fields)
	})

	t.Run("dotted path", func(t *testing.T) {
		result := b.CompileExtracted(models.ExtractedQuery{
			TargetEntityHint: "Guest",
			TargetFieldHints: []string{"stays.room.status"},
		})
		require.NotNil(t, result.Query)
		assert.Equal(t, []string{"stays.room.status"}, result.Query.Fields)
		assert.InDelta(t, 0.9, result.Confidence, 0.001)
	})
}
