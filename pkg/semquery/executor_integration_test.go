package semquery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ontoflow-ai/ontoflow/pkg/models"
	"github.com/ontoflow-ai/ontoflow/pkg/testhelpers"
)

const hotelSchema = `
DROP TABLE IF EXISTS stay_records;
DROP TABLE IF EXISTS guests;
DROP TABLE IF EXISTS rooms;
CREATE TABLE guests (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	phone TEXT
);
CREATE TABLE rooms (
	room_number TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	floor INT NOT NULL
);
CREATE TABLE stay_records (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	check_in_date DATE,
	guest_id TEXT REFERENCES guests(id),
	room_number TEXT REFERENCES rooms(room_number)
);
INSERT INTO guests VALUES ('g1', '张三', '13912345678'), ('g2', 'Alice', '13800000000');
INSERT INTO rooms VALUES ('301', 'occupied', 3), ('302', 'vacant_clean', 3), ('401', 'occupied', 4);
INSERT INTO stay_records VALUES
	('s1', 'active', '2026-08-20', 'g1', '301'),
	('s2', 'active', '2026-08-22', 'g2', '401'),
	('s3', 'closed', '2026-07-01', 'g1', '302');
`

func TestExecuteAgainstPostgres(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	ctx := context.Background()
	_, err := db.Pool.Exec(ctx, hotelSchema)
	require.NoError(t, err)

	registry := newHotelRegistry(t)
	exec := NewExecutor(registry, nil, db.Pool, zap.NewNop())

	t.Run("simple filter", func(t *testing.T) {
		rows, err := exec.Execute(ctx, models.SemanticQuery{
			RootObject: "StayRecord",
			Fields:     []string{"id", "status"},
			Filters: []models.SemanticFilter{
				{Path: "status", Operator: models.OpEq, Value: "active"},
			},
			OrderBy: []models.OrderBy{{Path: "id"}},
		})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "s1", rows[0]["id"])
		assert.Equal(t, "s2", rows[1]["id"])
	})

	t.Run("multi-hop join keyed by dot-path", func(t *testing.T) {
		rows, err := exec.Execute(ctx, models.SemanticQuery{
			RootObject: "Guest",
			Fields:     []string{"name", "stays.room.floor"},
			Filters: []models.SemanticFilter{
				{Path: "stays.room.status", Operator: models.OpEq, Value: "occupied"},
				{Path: "stays.status", Operator: models.OpEq, Value: "active"},
			},
			OrderBy: []models.OrderBy{{Path: "name"}},
		})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Alice", rows[0]["name"])
		assert.EqualValues(t, 4, rows[0]["stays.room.floor"])
		assert.Equal(t, "张三", rows[1]["name"])
	})

	t.Run("in and limit", func(t *testing.T) {
		rows, err := exec.Execute(ctx, models.SemanticQuery{
			RootObject: "Room",
			Fields:     []string{"room_number"},
			Filters: []models.SemanticFilter{
				{Path: "status", Operator: models.OpIn, Value: []any{"occupied"}},
			},
			OrderBy: []models.OrderBy{{Path: "room_number"}},
			Limit:   1,
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "301", rows[0]["room_number"])
	})

	t.Run("no rows", func(t *testing.T) {
		rows, err := exec.Execute(ctx, models.SemanticQuery{
			RootObject: "Guest",
			Fields:     []string{"name"},
			Filters: []models.SemanticFilter{
				{Path: "phone", Operator: models.OpIsNull},
			},
		})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}
