// Package semquery compiles LLM-friendly dot-path queries into
// executable relational plans: joins derived from registered
// relationships, filters and projections on registered properties.
package semquery

import "github.com/ontoflow-ai/ontoflow/pkg/models"

// Join is one relationship traversal required by a query.
type Join struct {
	SourceEntity string `json:"source_entity"`
	TargetEntity string `json:"target_entity"`
	Relationship string `json:"relationship"`
	ForeignKey   string `json:"foreign_key,omitempty"`
	// ForeignKeyEntity names the side that holds the foreign key column.
	ForeignKeyEntity string             `json:"foreign_key_entity,omitempty"`
	Cardinality      models.Cardinality `json:"cardinality,omitempty"`
}

// Projection is one resolved output column.
type Projection struct {
	Entity   string `json:"entity"`
	Property string `json:"property"`
	// Path is the original dot-path, kept for result labeling.
	Path string `json:"path"`
}

// CompiledFilter is one resolved filter condition.
type CompiledFilter struct {
	Entity   string                `json:"entity"`
	Property string                `json:"property"`
	Operator models.FilterOperator `json:"operator"`
	Value    any                   `json:"value,omitempty"`
	Path     string                `json:"path"`
}

// CompiledOrder is one resolved ordering term.
type CompiledOrder struct {
	Entity     string `json:"entity"`
	Property   string `json:"property"`
	Descending bool   `json:"descending,omitempty"`
}

// CompiledPlan is the executable form of a semantic query. The compiler
// never runs it; a query executor issues it against the persistence
// layer bound via RegisterModel.
type CompiledPlan struct {
	RootEntity  string           `json:"root_entity"`
	Joins       []Join           `json:"joins,omitempty"`
	Projections []Projection     `json:"projections"`
	Filters     []CompiledFilter `json:"filters,omitempty"`
	OrderBy     []CompiledOrder  `json:"order_by,omitempty"`
	Limit       int              `json:"limit,omitempty"`
	Offset      int              `json:"offset,omitempty"`
	Distinct    bool             `json:"distinct,omitempty"`
}

// HasJoin reports whether the plan already contains a join for the given
// relationship between two entities.
func (p *CompiledPlan) HasJoin(source, relationship string) bool {
	for _, j := range p.Joins {
		if j.SourceEntity == source && j.Relationship == relationship {
			return true
		}
	}
	return false
}

// RuleApplicator rewrites filter values before resolution, substituting
// domain aliases for normalized stored values. Field projections are
// never rewritten.
type RuleApplicator func(entityName, field string, value any) any
