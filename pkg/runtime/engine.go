// Package runtime assembles the framework: registry, guard,
// dispatcher, query executor, retriever, decision stack and event bus,
// wired from configuration and populated by domain adapters.
package runtime

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ontoflow-ai/ontoflow/pkg/actions"
	"github.com/ontoflow-ai/ontoflow/pkg/config"
	"github.com/ontoflow-ai/ontoflow/pkg/dag"
	"github.com/ontoflow-ai/ontoflow/pkg/events"
	"github.com/ontoflow-ai/ontoflow/pkg/guard"
	"github.com/ontoflow-ai/ontoflow/pkg/hitl"
	"github.com/ontoflow-ai/ontoflow/pkg/llm"
	"github.com/ontoflow-ai/ontoflow/pkg/logging"
	"github.com/ontoflow-ai/ontoflow/pkg/models"
	"github.com/ontoflow-ai/ontoflow/pkg/ontology"
	"github.com/ontoflow-ai/ontoflow/pkg/ooda"
	"github.com/ontoflow-ai/ontoflow/pkg/retrieval"
	"github.com/ontoflow-ai/ontoflow/pkg/semquery"
)

// Adapter is the domain integration contract. An adapter registers its
// entities, actions, relationships, constraints, state machines and
// models against the registry at boot.
type Adapter interface {
	Name() string
	RegisterOntology(registry *ontology.Registry) error
}

// Options tune engine assembly beyond what config covers.
type Options struct {
	// Applicator rewrites filter values during query compilation.
	Applicator semquery.RuleApplicator
	// Snapshots enables DAG rollback when set.
	Snapshots dag.SnapshotEngine
	// Recognizer overrides the default oracle-backed intent recognizer.
	Recognizer ooda.IntentRecognizer
	// ContextProviders feed the orient phase.
	ContextProviders []ooda.ContextProvider
	// DecisionRules precede the default rule in the decide phase.
	DecisionRules []ooda.DecisionRule
}

// Engine is the assembled framework.
type Engine struct {
	Registry   *ontology.Registry
	Guard      *guard.Executor
	Dispatcher *actions.Dispatcher
	Queries    *semquery.Executor
	Plans      *dag.Executor
	Stack      *ooda.Stack
	Retriever  *retrieval.Retriever
	Index      *retrieval.SchemaIndexService
	Bus        *events.Bus
	Strategy   hitl.Strategy

	pool   *pgxpool.Pool
	store  retrieval.VectorStore
	logger *zap.Logger
}

// New assembles an engine from configuration. The pool and vector store
// are owned by the engine; Close releases them.
func New(ctx context.Context, cfg *config.Config, opts Options, logger *zap.Logger) (*Engine, error) {
	registry := ontology.NewRegistry(logger)
	guardExec := guard.NewExecutor(registry, logger)
	bus := events.NewBus(logger)
	dispatcher := actions.NewDispatcher(registry, guardExec, bus, logger)

	connStr := cfg.Database.ConnectionString()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}
	logger.Info("Database pool created",
		zap.String("dsn", logging.SanitizeConnectionString(connStr)))

	queries := semquery.NewExecutor(registry, opts.Applicator, pool, logger)
	plans := dag.NewExecutor(dispatcher, opts.Snapshots, logger)

	oracle, err := llm.NewOracle(cfg.LLM, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("create oracle: %w", err)
	}
	embedder, err := llm.NewEmbedder(cfg.LLM, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	store, err := retrieval.NewChromemStore(embedder, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("create vector store: %w", err)
	}
	index := retrieval.NewSchemaIndexService(registry, store, logger)
	retriever := retrieval.NewRetriever(registry, store, logger)

	strategy, err := buildStrategy(cfg.HITL)
	if err != nil {
		pool.Close()
		return nil, err
	}

	recognizer := opts.Recognizer
	if recognizer == nil {
		recognizer = ooda.NewLLMRecognizer(registry, oracle, logger)
	}
	orienter := ooda.NewOrienter(recognizer, opts.ContextProviders, logger)
	decider := ooda.NewDecider(registry, opts.DecisionRules, strategy, logger)

	return &Engine{
		Registry:   registry,
		Guard:      guardExec,
		Dispatcher: dispatcher,
		Queries:    queries,
		Plans:      plans,
		Stack:      ooda.NewStack(orienter, decider),
		Retriever:  retriever,
		Index:      index,
		Bus:        bus,
		Strategy:   strategy,
		pool:       pool,
		store:      store,
		logger:     logger.Named("runtime"),
	}, nil
}

// buildStrategy composes the configured confirmation strategies.
func buildStrategy(cfg config.HITLConfig) (hitl.Strategy, error) {
	var children []hitl.Strategy

	children = append(children, hitl.ConfirmByRisk{
		MinLevel: models.RiskLevel(cfg.MinRiskLevel),
	})
	if cfg.AmountThreshold > 0 || cfg.BatchThreshold > 0 {
		children = append(children, hitl.ConfirmByThreshold{
			AmountThreshold: cfg.AmountThreshold,
			BatchThreshold:  cfg.BatchThreshold,
		})
	}
	if cfg.PolicyPath != "" {
		policy, err := hitl.LoadPolicy(cfg.PolicyPath)
		if err != nil {
			return nil, fmt.Errorf("load hitl policy: %w", err)
		}
		children = append(children, hitl.ConfirmByPolicy{Policy: policy})
	}
	return hitl.NewComposite(children...), nil
}

// RegisterAdapters runs each adapter against the registry, then
// rebuilds the retrieval index and verifies interface claims.
func (e *Engine) RegisterAdapters(ctx context.Context, adapters ...Adapter) error {
	for _, adapter := range adapters {
		if err := adapter.RegisterOntology(e.Registry); err != nil {
			return fmt.Errorf("adapter %s: %w", adapter.Name(), err)
		}
		e.logger.Info("Registered adapter", zap.String("adapter", adapter.Name()))
	}

	if problems := e.Registry.CheckInterfaces(); len(problems) > 0 {
		for _, p := range problems {
			e.logger.Warn("Interface claim not satisfied", zap.String("problem", p))
		}
	}

	if err := e.Index.Reindex(ctx); err != nil {
		return err
	}
	return nil
}

// Pool exposes the database pool for handlers that need a session.
func (e *Engine) Pool() *pgxpool.Pool {
	return e.pool
}

// Close releases the engine's owned resources.
func (e *Engine) Close() error {
	e.pool.Close()
	return e.store.Close()
}
