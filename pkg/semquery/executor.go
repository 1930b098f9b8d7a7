package semquery

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ontoflow-ai/ontoflow/pkg/apperrors"
	"github.com/ontoflow-ai/ontoflow/pkg/models"
	"github.com/ontoflow-ai/ontoflow/pkg/ontology"
)

// Executor compiles, renders and runs semantic queries against a
// PostgreSQL pool. Result rows are keyed by the projection's original
// dot-path so callers see the paths they asked for.
type Executor struct {
	compiler *Compiler
	renderer *Renderer
	pool     *pgxpool.Pool
	logger   *zap.Logger
}

// NewExecutor creates a query executor over a connection pool.
func NewExecutor(registry *ontology.Registry, applicator RuleApplicator, pool *pgxpool.Pool, logger *zap.Logger) *Executor {
	return &Executor{
		compiler: NewCompiler(registry, applicator, logger),
		renderer: NewRenderer(registry),
		pool:     pool,
		logger:   logger.Named("semquery.exec"),
	}
}

// Compiler exposes the executor's compiler for callers that only need a
// plan, such as the dry-run MCP tool.
func (e *Executor) Compiler() *Compiler {
	return e.compiler
}

// Execute runs one semantic query end to end.
func (e *Executor) Execute(ctx context.Context, q models.SemanticQuery) ([]map[string]any, error) {
	plan, err := e.compiler.Compile(q)
	if err != nil {
		return nil, err
	}
	return e.ExecutePlan(ctx, plan)
}

// ExecutePlan runs an already compiled plan.
func (e *Executor) ExecutePlan(ctx context.Context, plan *CompiledPlan) ([]map[string]any, error) {
	query, args, err := e.renderer.Render(plan)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Executing compiled query",
		zap.String("root", plan.RootEntity),
		zap.String("sql", query),
		zap.Int("args", len(args)))

	rows, err := e.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindDispatch, "query execution failed", err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindDispatch, "row scan failed", err)
		}
		row := make(map[string]any, len(plan.Projections))
		for i, p := range plan.Projections {
			if i < len(values) {
				row[p.Path] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindDispatch, "row iteration failed", err)
	}
	return out, nil
}
