// Package retrieval answers "what minimal slice of the schema is
// relevant to this text?" by embedding schema items into a vector store
// and expanding hits one relationship hop outward.
package retrieval

import (
	"context"

	"github.com/ontoflow-ai/ontoflow/pkg/models"
)

// StoreStats describes the state of a vector store.
type StoreStats struct {
	ItemCount  int    `json:"item_count"`
	Collection string `json:"collection"`
}

// VectorStore indexes schema items and retrieves them by similarity.
// The embedding model is the store's concern; callers see only items.
type VectorStore interface {
	IndexItems(ctx context.Context, items []models.SchemaItem) error
	Search(ctx context.Context, queryText string, limit int) ([]models.SchemaItem, error)
	GetStats() StoreStats
	ListItems(ctx context.Context) ([]models.SchemaItem, error)
	Close() error
}
