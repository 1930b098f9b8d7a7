package models

// ============================================================================
// Schema Retrieval
// ============================================================================

// SchemaItemType classifies one element of the retrieval index.
type SchemaItemType string

const (
	SchemaItemEntity   SchemaItemType = "entity"
	SchemaItemProperty SchemaItemType = "property"
	SchemaItemAction   SchemaItemType = "action"
)

// SchemaItem is one indexable element of the ontology. The vector store
// embeds name + description + synonyms for each item.
type SchemaItem struct {
	ID          string         `json:"id"`
	Type        SchemaItemType `json:"type"`
	Entity      string         `json:"entity"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Synonyms    []string       `json:"synonyms,omitempty"`
}

// EmbeddingText returns the text embedded for this item.
func (i *SchemaItem) EmbeddingText() string {
	text := i.Name
	if i.Description != "" {
		text += " " + i.Description
	}
	for _, s := range i.Synonyms {
		text += " " + s
	}
	return text
}

// SearchMetadata describes how a retrieval result was assembled.
type SearchMetadata struct {
	SelectedCount    int      `json:"selected_count"`
	ExpansionReasons []string `json:"expansion_reasons,omitempty"`
	Message          string   `json:"message,omitempty"`
}

// RetrievalResult is the minimal slice of the ontology relevant to a
// request: the selected entities, the fields that matched, and a
// JSON-ready schema restricted to that entity set.
type RetrievalResult struct {
	Entities       []string       `json:"entities"`
	Fields         []string       `json:"fields"`
	SchemaJSON     map[string]any `json:"schema_json"`
	SearchMetadata SearchMetadata `json:"search_metadata"`
}
