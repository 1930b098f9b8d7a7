package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/ontoflow-ai/ontoflow/pkg/llm"
	"github.com/ontoflow-ai/ontoflow/pkg/models"
)

const schemaCollection = "schema_items"

// ChromemStore is an embedded vector store over chromem-go. Pure Go and
// in-memory, which fits the boot-time reindex model: the index is
// rebuilt from the registry on every start.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   llm.Embedder
	logger     *zap.Logger

	mu    sync.RWMutex
	items map[string]models.SchemaItem
}

var _ VectorStore = (*ChromemStore)(nil)

// NewChromemStore creates an in-memory store using the given embedder.
func NewChromemStore(embedder llm.Embedder, logger *zap.Logger) (*ChromemStore, error) {
	db := chromem.NewDB()

	// Vectors are computed through the Embedder; chromem never embeds.
	identity := func(ctx context.Context, text string) ([]float32, error) {
		return nil, fmt.Errorf("embedding must be pre-computed")
	}
	collection, err := db.GetOrCreateCollection(schemaCollection, nil, identity)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{
		db:         db,
		collection: collection,
		embedder:   embedder,
		logger:     logger.Named("retrieval.store"),
		items:      make(map[string]models.SchemaItem),
	}, nil
}

// IndexItems embeds and stores a batch of schema items. Re-indexing an
// existing id replaces it.
func (s *ChromemStore) IndexItems(ctx context.Context, items []models.SchemaItem) error {
	if len(items) == 0 {
		return nil
	}

	texts := make([]string, len(items))
	for i := range items {
		texts[i] = items[i].EmbeddingText()
	}
	embeddings, err := s.embedder.CreateEmbeddings(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed schema items: %w", err)
	}

	docs := make([]chromem.Document, len(items))
	for i, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encode schema item %q: %w", item.ID, err)
		}
		docs[i] = chromem.Document{
			ID:      item.ID,
			Content: string(raw),
			Metadata: map[string]string{
				"type":   string(item.Type),
				"entity": item.Entity,
			},
			Embedding: embeddings[i],
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("store schema items: %w", err)
	}

	s.mu.Lock()
	for _, item := range items {
		s.items[item.ID] = item
	}
	s.mu.Unlock()

	s.logger.Debug("Indexed schema items", zap.Int("count", len(items)))
	return nil
}

// Search embeds the query and returns the top-limit items by cosine
// similarity.
func (s *ChromemStore) Search(ctx context.Context, queryText string, limit int) ([]models.SchemaItem, error) {
	s.mu.RLock()
	indexed := len(s.items)
	s.mu.RUnlock()
	if indexed == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > indexed {
		limit = indexed
	}

	embedding, err := s.embedder.CreateEmbedding(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.collection.QueryEmbedding(ctx, embedding, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	out := make([]models.SchemaItem, 0, len(results))
	for _, r := range results {
		var item models.SchemaItem
		if err := json.Unmarshal([]byte(r.Content), &item); err != nil {
			s.logger.Warn("Skipping undecodable schema item", zap.String("id", r.ID), zap.Error(err))
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// GetStats reports the indexed item count.
func (s *ChromemStore) GetStats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreStats{ItemCount: len(s.items), Collection: schemaCollection}
}

// ListItems returns every indexed item.
func (s *ChromemStore) ListItems(context.Context) ([]models.SchemaItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SchemaItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	return out, nil
}

// Close releases the store. In-memory, so nothing to flush.
func (s *ChromemStore) Close() error {
	return nil
}
