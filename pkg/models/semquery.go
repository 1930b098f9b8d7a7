package models

// ============================================================================
// Semantic Queries
// ============================================================================

// FilterOperator is the comparison applied by a semantic filter.
type FilterOperator string

const (
	OpEq        FilterOperator = "eq"
	OpNe        FilterOperator = "ne"
	OpGt        FilterOperator = "gt"
	OpGte       FilterOperator = "gte"
	OpLt        FilterOperator = "lt"
	OpLte       FilterOperator = "lte"
	OpIn        FilterOperator = "in"
	OpNotIn     FilterOperator = "not_in"
	OpLike      FilterOperator = "like"
	OpNotLike   FilterOperator = "not_like"
	OpBetween   FilterOperator = "between"
	OpIsNull    FilterOperator = "is_null"
	OpIsNotNull FilterOperator = "is_not_null"
)

// RequiresListValue reports whether the operator needs a list/tuple value.
func (op FilterOperator) RequiresListValue() bool {
	return op == OpIn || op == OpNotIn || op == OpBetween
}

// IsUnary reports whether the operator takes no value.
func (op FilterOperator) IsUnary() bool {
	return op == OpIsNull || op == OpIsNotNull
}

// SemanticFilter is one dot-path condition. The path's first segment is a
// relationship or property of the query's root entity.
type SemanticFilter struct {
	Path     string         `json:"path"`
	Operator FilterOperator `json:"operator"`
	Value    any            `json:"value,omitempty"`
}

// OrderBy is one ordering term of a semantic query.
type OrderBy struct {
	Path       string `json:"path"`
	Descending bool   `json:"descending,omitempty"`
}

// SemanticQuery is the LLM-friendly query shape: a root entity, dot-path
// projections and dot-path filters. Empty fields means the entity's
// default projection.
type SemanticQuery struct {
	RootObject string           `json:"root_object"`
	Fields     []string         `json:"fields,omitempty"`
	Filters    []SemanticFilter `json:"filters,omitempty"`
	OrderBy    []OrderBy        `json:"order_by,omitempty"`
	Limit      int              `json:"limit,omitempty"`
	Offset     int              `json:"offset,omitempty"`
	Distinct   bool             `json:"distinct,omitempty"`
}

// ============================================================================
// Extractor Bridge
// ============================================================================

// ExtractedCondition is a raw condition emitted by a free-text extractor.
type ExtractedCondition struct {
	Field    string         `json:"field"`
	Operator FilterOperator `json:"operator"`
	Value    any            `json:"value,omitempty"`
}

// ExtractedQuery is the output of a free-text extractor before its hints
// are resolved against the registry.
type ExtractedQuery struct {
	TargetEntityHint string               `json:"target_entity"`
	TargetFieldHints []string             `json:"target_fields,omitempty"`
	Conditions       []ExtractedCondition `json:"conditions,omitempty"`
}
