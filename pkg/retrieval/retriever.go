package retrieval

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ontoflow-ai/ontoflow/pkg/models"
	"github.com/ontoflow-ai/ontoflow/pkg/ontology"
)

// defaultTopK bounds similarity search when the caller passes no limit.
const defaultTopK = 10

// Retriever assembles the minimal schema slice relevant to free text:
// vector hits plus one relationship hop outward.
type Retriever struct {
	registry *ontology.Registry
	store    VectorStore
	logger   *zap.Logger
}

// NewRetriever creates a retriever over an indexed store.
func NewRetriever(registry *ontology.Registry, store VectorStore, logger *zap.Logger) *Retriever {
	return &Retriever{
		registry: registry,
		store:    store,
		logger:   logger.Named("retrieval"),
	}
}

// Retrieve searches the index for the text and builds the restricted
// schema. topK <= 0 uses the default.
func (r *Retriever) Retrieve(ctx context.Context, text string, topK int) (*models.RetrievalResult, error) {
	if topK <= 0 {
		topK = defaultTopK
	}
	items, err := r.store.Search(ctx, text, topK)
	if err != nil {
		return nil, fmt.Errorf("schema search: %w", err)
	}

	selected := make(map[string]bool)
	matchedProps := make(map[string]map[string]bool)
	var fields []string

	for _, item := range items {
		if item.Entity == "" {
			continue
		}
		selected[item.Entity] = true
		if item.Type == models.SchemaItemProperty {
			if matchedProps[item.Entity] == nil {
				matchedProps[item.Entity] = make(map[string]bool)
			}
			matchedProps[item.Entity][item.Name] = true
			fields = append(fields, item.Entity+"."+item.Name)
		}
	}

	reasons := r.expandOneHop(selected)
	result := r.buildResult(selected, matchedProps, fields, reasons)
	result.SearchMetadata.Message = fmt.Sprintf("%d item(s) matched, %d entit(ies) selected",
		len(items), len(result.Entities))

	r.logger.Debug("Retrieved schema slice",
		zap.Int("matched_items", len(items)),
		zap.Int("entities", len(result.Entities)))
	return result, nil
}

// RetrieveByEntity bypasses embedding and returns the slice for the
// named entities directly. Unknown names are reported in the metadata
// message rather than failing the call.
func (r *Retriever) RetrieveByEntity(names []string) *models.RetrievalResult {
	selected := make(map[string]bool)
	var unknown []string
	for _, name := range names {
		if r.registry.GetEntity(name) != nil {
			selected[name] = true
		} else {
			unknown = append(unknown, name)
		}
	}

	reasons := r.expandOneHop(selected)
	result := r.buildResult(selected, nil, nil, reasons)
	if len(unknown) > 0 {
		result.SearchMetadata.Message = fmt.Sprintf("unknown entities skipped: %v", unknown)
	}
	return result
}

// expandOneHop adds every entity directly related to a selected one.
// Depth is fixed at one; the visited set is the selection itself, so
// cyclic relationship graphs cannot loop.
func (r *Retriever) expandOneHop(selected map[string]bool) []string {
	var reasons []string
	seeds := make([]string, 0, len(selected))
	for name := range selected {
		seeds = append(seeds, name)
	}
	sort.Strings(seeds)

	for _, name := range seeds {
		for _, rel := range r.registry.GetRelationships(name) {
			if selected[rel.TargetEntity] {
				continue
			}
			if r.registry.GetEntity(rel.TargetEntity) == nil {
				continue
			}
			selected[rel.TargetEntity] = true
			reasons = append(reasons, fmt.Sprintf("%s -> %s (%s)", name, rel.TargetEntity, rel.Cardinality))
		}
	}
	return reasons
}

// buildResult renders the restricted schema_json. Entities whose
// properties were individually matched expose only those; entities
// selected as a whole (entity hits, expansion, explicit retrieval)
// expose every property. Relationships always come along.
func (r *Retriever) buildResult(selected map[string]bool, matchedProps map[string]map[string]bool, fields, reasons []string) *models.RetrievalResult {
	entities := make([]string, 0, len(selected))
	for name := range selected {
		entities = append(entities, name)
	}
	sort.Strings(entities)

	schema := make(map[string]any, len(entities))
	for _, name := range entities {
		entity := r.registry.GetEntity(name)
		if entity == nil {
			continue
		}

		props := make(map[string]any)
		for propName, prop := range entity.Properties {
			if matched := matchedProps[name]; matched != nil && !matched[propName] {
				continue
			}
			props[propName] = map[string]any{
				"type":        string(prop.Type),
				"description": prop.Description,
			}
		}

		var rels []map[string]any
		for _, rel := range entity.Relationships {
			rels = append(rels, map[string]any{
				"name":          rel.Name,
				"target_entity": rel.TargetEntity,
				"cardinality":   string(rel.Cardinality),
			})
		}

		schema[name] = map[string]any{
			"description":   entity.Description,
			"properties":    props,
			"relationships": rels,
		}
	}

	return &models.RetrievalResult{
		Entities:   entities,
		Fields:     fields,
		SchemaJSON: schema,
		SearchMetadata: models.SearchMetadata{
			SelectedCount:    len(entities),
			ExpansionReasons: reasons,
		},
	}
}
