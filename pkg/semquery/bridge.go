package semquery

import (
	"strings"

	"go.uber.org/zap"

	"github.com/ontoflow-ai/ontoflow/pkg/models"
	"github.com/ontoflow-ai/ontoflow/pkg/ontology"
)

// CompilationResult is the bridge's verdict on one extracted query. When
// FallbackNeeded is true the caller should route the request to a
// generic search path instead of executing the plan.
type CompilationResult struct {
	Query            *models.SemanticQuery `json:"query,omitempty"`
	Plan             *CompiledPlan         `json:"plan,omitempty"`
	Confidence       float64               `json:"confidence"`
	FallbackNeeded   bool                  `json:"fallback_needed"`
	UnresolvedFields []string              `json:"unresolved_fields,omitempty"`
}

// fallbackThreshold marks the confidence below which a compiled plan is
// not trusted for execution.
const fallbackThreshold = 0.3

// OntologyQueryCompiler resolves the fuzzy hints of a free-text
// extractor against the registry and compiles the result. Confidence
// reflects how much of the extractor's output found a home in the
// schema: 0.9 with every field hint resolved, 0.7 with some, 0.5 with
// the entity alone, 0.0 when even the entity is unknown.
type OntologyQueryCompiler struct {
	registry *ontology.Registry
	compiler *Compiler
	logger   *zap.Logger
}

// NewOntologyQueryCompiler creates the extractor bridge.
func NewOntologyQueryCompiler(registry *ontology.Registry, compiler *Compiler, logger *zap.Logger) *OntologyQueryCompiler {
	return &OntologyQueryCompiler{
		registry: registry,
		compiler: compiler,
		logger:   logger.Named("semquery.bridge"),
	}
}

// CompileExtracted resolves and compiles one extracted query. Never
// returns an error for resolution misses; those lower confidence and
// populate UnresolvedFields instead.
func (b *OntologyQueryCompiler) CompileExtracted(eq models.ExtractedQuery) CompilationResult {
	entity := b.resolveEntity(eq.TargetEntityHint)
	if entity == nil {
		return CompilationResult{
			Confidence:     0.0,
			FallbackNeeded: true,
			UnresolvedFields: append([]string{eq.TargetEntityHint},
				eq.TargetFieldHints...),
		}
	}

	query := &models.SemanticQuery{RootObject: entity.Name}
	var unresolved []string

	for _, hint := range eq.TargetFieldHints {
		if prop := b.resolveField(entity, hint); prop != "" {
			query.Fields = append(query.Fields, prop)
		} else {
			unresolved = append(unresolved, hint)
		}
	}

	for _, cond := range eq.Conditions {
		if prop := b.resolveField(entity, cond.Field); prop != "" {
			query.Filters = append(query.Filters, models.SemanticFilter{
				Path:     prop,
				Operator: cond.Operator,
				Value:    cond.Value,
			})
		} else {
			unresolved = append(unresolved, cond.Field)
		}
	}

	confidence := b.score(eq, unresolved)
	result := CompilationResult{
		Query:            query,
		Confidence:       confidence,
		FallbackNeeded:   confidence < fallbackThreshold,
		UnresolvedFields: unresolved,
	}

	plan, err := b.compiler.Compile(*query)
	if err != nil {
		b.logger.Debug("Extracted query did not compile",
			zap.String("entity", entity.Name),
			zap.Error(err))
		result.FallbackNeeded = true
		result.Confidence = 0.0
		return result
	}
	result.Plan = plan
	return result
}

func (b *OntologyQueryCompiler) score(eq models.ExtractedQuery, unresolved []string) float64 {
	hints := len(eq.TargetFieldHints) + len(eq.Conditions)
	switch {
	case hints == 0:
		return 0.5
	case len(unresolved) == 0:
		return 0.9
	case len(unresolved) < hints:
		return 0.7
	default:
		return 0.5
	}
}

// resolveEntity matches a hint against entity names case-insensitively,
// then against display categories and descriptions as a looser pass.
func (b *OntologyQueryCompiler) resolveEntity(hint string) *models.EntityMetadata {
	needle := strings.ToLower(strings.TrimSpace(hint))
	if needle == "" {
		return nil
	}
	entities := b.registry.GetEntities()
	for _, e := range entities {
		if strings.ToLower(e.Name) == needle {
			return e
		}
	}
	for _, e := range entities {
		if strings.ToLower(e.TableName) == needle {
			return e
		}
	}
	for _, e := range entities {
		if e.Description != "" && strings.Contains(strings.ToLower(e.Description), needle) {
			return e
		}
	}
	return nil
}

// resolveField matches a hint against property names, then display
// names, then single-hop relationship names. Returns the resolved path
// or "" when nothing matches.
func (b *OntologyQueryCompiler) resolveField(entity *models.EntityMetadata, hint string) string {
	needle := strings.ToLower(strings.TrimSpace(hint))
	if needle == "" {
		return ""
	}
	for name := range entity.Properties {
		if strings.ToLower(name) == needle {
			return name
		}
	}
	for name, prop := range entity.Properties {
		if prop.DisplayName != "" && strings.ToLower(prop.DisplayName) == needle {
			return name
		}
	}
	for _, rel := range entity.Relationships {
		if strings.ToLower(rel.Name) == needle {
			return rel.Name
		}
	}
	// Dotted hints resolve when every segment resolves.
	if strings.Contains(hint, ".") {
		if _, err := b.compiler.resolve(entity, hint); err == nil {
			return hint
		}
	}
	return ""
}
