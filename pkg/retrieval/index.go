package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ontoflow-ai/ontoflow/pkg/models"
	"github.com/ontoflow-ai/ontoflow/pkg/ontology"
)

// SchemaIndexService enumerates the registry into schema items and
// keeps the vector store in sync. The index is rebuilt at boot after
// all adapters have registered.
type SchemaIndexService struct {
	registry *ontology.Registry
	store    VectorStore
	logger   *zap.Logger
}

// NewSchemaIndexService creates an index service.
func NewSchemaIndexService(registry *ontology.Registry, store VectorStore, logger *zap.Logger) *SchemaIndexService {
	return &SchemaIndexService{
		registry: registry,
		store:    store,
		logger:   logger.Named("retrieval.index"),
	}
}

// BuildItems emits one item per entity, property and action currently
// registered. Synonyms come from registration metadata: display names
// for properties, search keywords for actions.
func (s *SchemaIndexService) BuildItems() []models.SchemaItem {
	var items []models.SchemaItem

	for _, entity := range s.registry.GetEntities() {
		items = append(items, models.SchemaItem{
			ID:          "entity:" + entity.Name,
			Type:        models.SchemaItemEntity,
			Entity:      entity.Name,
			Name:        entity.Name,
			Description: entity.Description,
		})
		for name, prop := range entity.Properties {
			item := models.SchemaItem{
				ID:          fmt.Sprintf("property:%s.%s", entity.Name, name),
				Type:        models.SchemaItemProperty,
				Entity:      entity.Name,
				Name:        name,
				Description: prop.Description,
			}
			if prop.DisplayName != "" && prop.DisplayName != name {
				item.Synonyms = append(item.Synonyms, prop.DisplayName)
			}
			items = append(items, item)
		}
	}

	for _, action := range s.registry.GetActions() {
		items = append(items, models.SchemaItem{
			ID:          "action:" + action.Name,
			Type:        models.SchemaItemAction,
			Entity:      action.Entity,
			Name:        action.Name,
			Description: action.Description,
			Synonyms:    action.SearchKeywords,
		})
	}

	return items
}

// Reindex rebuilds the vector store from the registry.
func (s *SchemaIndexService) Reindex(ctx context.Context) error {
	items := s.BuildItems()
	if err := s.store.IndexItems(ctx, items); err != nil {
		return fmt.Errorf("reindex schema: %w", err)
	}
	s.logger.Info("Schema index rebuilt", zap.Int("items", len(items)))
	return nil
}
