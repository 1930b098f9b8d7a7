package semquery

import (
	"reflect"
	"sort"

	"go.uber.org/zap"

	"github.com/ontoflow-ai/ontoflow/pkg/apperrors"
	"github.com/ontoflow-ai/ontoflow/pkg/models"
	"github.com/ontoflow-ai/ontoflow/pkg/ontology"
)

// Compiler resolves semantic queries against the registry and produces
// executable plans. Pure function of registry state; safe for concurrent
// use.
type Compiler struct {
	registry   *ontology.Registry
	applicator RuleApplicator
	logger     *zap.Logger
}

// NewCompiler creates a compiler bound to a registry. applicator may be
// nil when the domain declares no value aliases.
func NewCompiler(registry *ontology.Registry, applicator RuleApplicator, logger *zap.Logger) *Compiler {
	return &Compiler{
		registry:   registry,
		applicator: applicator,
		logger:     logger.Named("semquery"),
	}
}

// Compile turns a semantic query into a compiled plan. Every dot-path is
// resolved against registered properties and relationships; an unknown
// segment fails with UnresolvedPath naming the segment and its entity.
func (c *Compiler) Compile(q models.SemanticQuery) (*CompiledPlan, error) {
	root := c.registry.GetEntity(q.RootObject)
	if root == nil {
		return nil, apperrors.Newf(apperrors.KindUnknownEntity,
			"entity %q is not registered", q.RootObject)
	}

	plan := &CompiledPlan{
		RootEntity: root.Name,
		Limit:      q.Limit,
		Offset:     q.Offset,
		Distinct:   q.Distinct,
	}

	fields := q.Fields
	if len(fields) == 0 {
		fields = defaultProjection(root)
	}
	for _, path := range fields {
		res, err := c.resolve(root, path)
		if err != nil {
			return nil, err
		}
		c.mergeJoins(plan, res.joins)
		if res.relationship != nil {
			// Relation projection expands to the target's default columns.
			target := c.registry.GetEntity(res.relationship.TargetEntity)
			if target == nil {
				return nil, apperrors.Newf(apperrors.KindUnresolvedPath,
					"relationship %q of %q points at unregistered entity %q",
					res.relationship.Name, res.entity.Name, res.relationship.TargetEntity)
			}
			c.mergeJoins(plan, []Join{joinFor(res.entity, res.relationship)})
			for _, prop := range defaultProjection(target) {
				plan.Projections = append(plan.Projections, Projection{
					Entity:   target.Name,
					Property: prop,
					Path:     path + "." + prop,
				})
			}
			continue
		}
		plan.Projections = append(plan.Projections, Projection{
			Entity:   res.entity.Name,
			Property: res.property.Name,
			Path:     path,
		})
	}

	for _, f := range q.Filters {
		res, err := c.resolve(root, f.Path)
		if err != nil {
			return nil, err
		}
		if res.relationship != nil {
			return nil, apperrors.Newf(apperrors.KindUnresolvedPath,
				"filter path %q ends on relationship %q; filters must end on a property",
				f.Path, res.relationship.Name)
		}
		value := f.Value
		if c.applicator != nil && !f.Operator.IsUnary() {
			value = applyRules(c.applicator, res.entity.Name, res.property.Name, f.Operator, value)
		}
		if err := checkFilterValue(f.Operator, value, f.Path); err != nil {
			return nil, err
		}
		c.mergeJoins(plan, res.joins)
		plan.Filters = append(plan.Filters, CompiledFilter{
			Entity:   res.entity.Name,
			Property: res.property.Name,
			Operator: f.Operator,
			Value:    value,
			Path:     f.Path,
		})
	}

	for _, o := range q.OrderBy {
		res, err := c.resolve(root, o.Path)
		if err != nil {
			return nil, err
		}
		if res.relationship != nil {
			return nil, apperrors.Newf(apperrors.KindUnresolvedPath,
				"order_by path %q ends on relationship %q; ordering requires a property",
				o.Path, res.relationship.Name)
		}
		c.mergeJoins(plan, res.joins)
		plan.OrderBy = append(plan.OrderBy, CompiledOrder{
			Entity:     res.entity.Name,
			Property:   res.property.Name,
			Descending: o.Descending,
		})
	}

	c.logger.Debug("Compiled semantic query",
		zap.String("root", plan.RootEntity),
		zap.Int("joins", len(plan.Joins)),
		zap.Int("filters", len(plan.Filters)))
	return plan, nil
}

// mergeJoins appends joins not already present, preserving traversal
// order so SQL rendering emits them root-outward.
func (c *Compiler) mergeJoins(plan *CompiledPlan, joins []Join) {
	for _, j := range joins {
		if !plan.HasJoin(j.SourceEntity, j.Relationship) {
			plan.Joins = append(plan.Joins, j)
		}
	}
}

// applyRules runs the alias applicator over a filter value, descending
// into list values element-wise so "in" filters get the same rewrite.
func applyRules(applicator RuleApplicator, entity, property string, op models.FilterOperator, value any) any {
	if op.RequiresListValue() {
		if list, ok := asList(value); ok {
			out := make([]any, len(list))
			for i, el := range list {
				out[i] = applicator(entity, property, el)
			}
			return out
		}
		return value
	}
	return applicator(entity, property, value)
}

// checkFilterValue enforces operator/value arity before the plan is
// accepted: list operators need lists, between needs exactly two
// elements, scalar operators reject lists.
func checkFilterValue(op models.FilterOperator, value any, path string) error {
	if op.IsUnary() {
		return nil
	}
	list, isList := asList(value)
	if op.RequiresListValue() {
		if !isList {
			return apperrors.Newf(apperrors.KindInvalidFilterValue,
				"operator %q on %q requires a list value", op, path)
		}
		if op == models.OpBetween && len(list) != 2 {
			return apperrors.Newf(apperrors.KindInvalidFilterValue,
				"operator between on %q requires exactly two values, got %d", path, len(list))
		}
		if len(list) == 0 {
			return apperrors.Newf(apperrors.KindInvalidFilterValue,
				"operator %q on %q requires a non-empty list", op, path)
		}
		return nil
	}
	if isList {
		return apperrors.Newf(apperrors.KindInvalidFilterValue,
			"operator %q on %q does not accept a list value", op, path)
	}
	if value == nil {
		return apperrors.Newf(apperrors.KindInvalidFilterValue,
			"operator %q on %q requires a value; use is_null for null checks", op, path)
	}
	return nil
}

func asList(value any) ([]any, bool) {
	if list, ok := value.([]any); ok {
		return list, true
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// defaultProjection is the column set used when a query names no fields:
// every declared property, primary key first, the rest in name order.
func defaultProjection(entity *models.EntityMetadata) []string {
	var pk string
	names := make([]string, 0, len(entity.Properties))
	for name, prop := range entity.Properties {
		if prop.IsPrimaryKey && pk == "" {
			pk = name
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if pk != "" {
		return append([]string{pk}, names...)
	}
	return names
}
