package semquery

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/ontoflow-ai/ontoflow/pkg/apperrors"
	"github.com/ontoflow-ai/ontoflow/pkg/models"
	"github.com/ontoflow-ai/ontoflow/pkg/ontology"
)

// ModelBinding maps a registered entity onto its physical table. Bound
// via Registry.RegisterModel; entities without a binding fall back to
// their declared table name with columns named after properties.
type ModelBinding struct {
	Table string
	// Columns maps property names to column names where they differ.
	Columns map[string]string
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Renderer turns compiled plans into parameterized PostgreSQL. All
// values travel as bind parameters; identifiers are validated and
// quoted, never interpolated from user input.
type Renderer struct {
	registry *ontology.Registry
}

// NewRenderer creates a renderer bound to a registry.
func NewRenderer(registry *ontology.Registry) *Renderer {
	return &Renderer{registry: registry}
}

// Render produces SQL and its positional arguments for a plan. Filter
// values are screened for injection fingerprints before rendering.
func (r *Renderer) Render(plan *CompiledPlan) (string, []any, error) {
	if err := screenFilterValues(plan); err != nil {
		return "", nil, err
	}

	root := r.registry.GetEntity(plan.RootEntity)
	if root == nil {
		return "", nil, apperrors.Newf(apperrors.KindUnknownEntity,
			"entity %q is not registered", plan.RootEntity)
	}

	var b strings.Builder
	var args []any

	b.WriteString("SELECT ")
	if plan.Distinct {
		b.WriteString("DISTINCT ")
	}
	if len(plan.Projections) == 0 {
		return "", nil, apperrors.New(apperrors.KindValidation, "plan has no projections")
	}
	for i, p := range plan.Projections {
		if i > 0 {
			b.WriteString(", ")
		}
		col, err := r.columnRef(p.Entity, p.Property)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(col)
	}

	rootTable, err := r.tableFor(plan.RootEntity)
	if err != nil {
		return "", nil, err
	}
	b.WriteString(" FROM ")
	b.WriteString(quoteIdent(rootTable))

	for _, j := range plan.Joins {
		clause, err := r.joinClause(j)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(clause)
	}

	for i, f := range plan.Filters {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		clause, err := r.filterClause(f, &args)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(clause)
	}

	for i, o := range plan.OrderBy {
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		col, err := r.columnRef(o.Entity, o.Property)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(col)
		if o.Descending {
			b.WriteString(" DESC")
		}
	}

	if plan.Limit > 0 {
		args = append(args, plan.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if plan.Offset > 0 {
		args = append(args, plan.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}

	return b.String(), args, nil
}

func (r *Renderer) joinClause(j Join) (string, error) {
	sourceTable, err := r.tableFor(j.SourceEntity)
	if err != nil {
		return "", err
	}
	targetTable, err := r.tableFor(j.TargetEntity)
	if err != nil {
		return "", err
	}

	// The foreign key lives on one side; the other side joins on its
	// primary key. many_to_one and one_to_one default to the source.
	fkEntity := j.ForeignKeyEntity
	if fkEntity == "" {
		if j.Cardinality == models.CardinalityOneToMany {
			fkEntity = j.TargetEntity
		} else {
			fkEntity = j.SourceEntity
		}
	}

	var fkTable, pkTable, pkEntity string
	if fkEntity == j.SourceEntity {
		fkTable, pkTable, pkEntity = sourceTable, targetTable, j.TargetEntity
	} else {
		fkTable, pkTable, pkEntity = targetTable, sourceTable, j.SourceEntity
	}

	fk := j.ForeignKey
	if fk == "" {
		fk = inflection.Singular(pkTable) + "_id"
	}
	pk := r.primaryKeyColumn(pkEntity)

	for _, ident := range []string{fkTable, pkTable, fk, pk, targetTable} {
		if !identPattern.MatchString(ident) {
			return "", apperrors.Newf(apperrors.KindValidation, "unsafe identifier %q", ident)
		}
	}

	return fmt.Sprintf(" JOIN %s ON %s.%s = %s.%s",
		quoteIdent(targetTable),
		quoteIdent(fkTable), quoteIdent(fk),
		quoteIdent(pkTable), quoteIdent(pk)), nil
}

func (r *Renderer) filterClause(f CompiledFilter, args *[]any) (string, error) {
	col, err := r.columnRef(f.Entity, f.Property)
	if err != nil {
		return "", err
	}

	switch f.Operator {
	case models.OpIsNull:
		return col + " IS NULL", nil
	case models.OpIsNotNull:
		return col + " IS NOT NULL", nil
	case models.OpIn:
		*args = append(*args, f.Value)
		return fmt.Sprintf("%s = ANY($%d)", col, len(*args)), nil
	case models.OpNotIn:
		*args = append(*args, f.Value)
		return fmt.Sprintf("%s <> ALL($%d)", col, len(*args)), nil
	case models.OpBetween:
		list, ok := asList(f.Value)
		if !ok || len(list) != 2 {
			return "", apperrors.Newf(apperrors.KindInvalidFilterValue,
				"between on %q requires exactly two values", f.Path)
		}
		*args = append(*args, list[0], list[1])
		return fmt.Sprintf("%s BETWEEN $%d AND $%d", col, len(*args)-1, len(*args)), nil
	}

	op, ok := sqlOperators[f.Operator]
	if !ok {
		return "", apperrors.Newf(apperrors.KindInvalidFilterValue,
			"operator %q is not supported", f.Operator)
	}
	*args = append(*args, f.Value)
	return fmt.Sprintf("%s %s $%d", col, op, len(*args)), nil
}

var sqlOperators = map[models.FilterOperator]string{
	models.OpEq:      "=",
	models.OpNe:      "<>",
	models.OpGt:      ">",
	models.OpGte:     ">=",
	models.OpLt:      "<",
	models.OpLte:     "<=",
	models.OpLike:    "ILIKE",
	models.OpNotLike: "NOT ILIKE",
}

func (r *Renderer) columnRef(entityName, property string) (string, error) {
	table, err := r.tableFor(entityName)
	if err != nil {
		return "", err
	}
	column := property
	if binding, ok := r.registry.GetModel(entityName).(*ModelBinding); ok && binding.Columns != nil {
		if mapped, ok := binding.Columns[property]; ok {
			column = mapped
		}
	}
	if !identPattern.MatchString(table) || !identPattern.MatchString(column) {
		return "", apperrors.Newf(apperrors.KindValidation,
			"unsafe identifier %q.%q", table, column)
	}
	return quoteIdent(table) + "." + quoteIdent(column), nil
}

func (r *Renderer) tableFor(entityName string) (string, error) {
	if binding, ok := r.registry.GetModel(entityName).(*ModelBinding); ok && binding.Table != "" {
		return binding.Table, nil
	}
	entity := r.registry.GetEntity(entityName)
	if entity == nil {
		return "", apperrors.Newf(apperrors.KindUnknownEntity,
			"entity %q is not registered", entityName)
	}
	if entity.TableName != "" {
		return entity.TableName, nil
	}
	return ontology.DefaultTableName(entityName), nil
}

func (r *Renderer) primaryKeyColumn(entityName string) string {
	entity := r.registry.GetEntity(entityName)
	if entity == nil {
		return "id"
	}
	pk := entity.PrimaryKey()
	if pk == nil {
		return "id"
	}
	if binding, ok := r.registry.GetModel(entityName).(*ModelBinding); ok && binding.Columns != nil {
		if mapped, ok := binding.Columns[pk.Name]; ok {
			return mapped
		}
	}
	return pk.Name
}

func quoteIdent(ident string) string {
	return `"` + ident + `"`
}
