package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/ontoflow-ai/ontoflow/pkg/actions"
	"github.com/ontoflow-ai/ontoflow/pkg/apperrors"
	"github.com/ontoflow-ai/ontoflow/pkg/dag"
	"github.com/ontoflow-ai/ontoflow/pkg/models"
	"github.com/ontoflow-ai/ontoflow/pkg/ontology"
	"github.com/ontoflow-ai/ontoflow/pkg/retrieval"
	"github.com/ontoflow-ai/ontoflow/pkg/semquery"
)

// ToolDeps carries the framework services the tools call into.
type ToolDeps struct {
	Registry   *ontology.Registry
	Dispatcher *actions.Dispatcher
	Executor   *semquery.Executor
	Plans      *dag.Executor
	Retriever  *retrieval.Retriever

	// User identifies the agent principal for dispatches through MCP.
	User models.UserContext

	Logger *zap.Logger
}

// RegisterTools adds the framework tool surface to the server.
func RegisterTools(s *Server, deps *ToolDeps) {
	registerDispatchActionTool(s, deps)
	registerSemanticQueryTool(s, deps)
	registerExecutePlanTool(s, deps)
	registerRetrieveSchemaTool(s, deps)
	registerExportSchemaTool(s, deps)
}

// errorResult renders a framework error as a JSON tool result so the
// calling model can see the kind and react, instead of a raw protocol
// error.
func errorResult(err error) *mcp.CallToolResult {
	kind := apperrors.KindOf(err)
	if kind == "" {
		kind = "InternalError"
	}
	payload, _ := json.Marshal(map[string]any{
		"error":   string(kind),
		"message": err.Error(),
	})
	return mcp.NewToolResultText(string(payload))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func registerDispatchActionTool(s *Server, deps *ToolDeps) {
	tool := mcp.NewTool(
		"dispatch_action",
		mcp.WithDescription(
			"Dispatch a registered action by name with JSON parameters. "+
				"Mutations are validated, role-checked and guarded before execution. "+
				"Use export_schema to discover registered actions.",
		),
		mcp.WithString(
			"action",
			mcp.Required(),
			mcp.Description("Registered action name"),
		),
		mcp.WithString(
			"params",
			mcp.Description("Action parameters as a JSON object"),
		),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.RegisterTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		actionName, err := req.RequireString("action")
		if err != nil {
			return nil, err
		}

		params := map[string]any{}
		if rawParams := req.GetString("params", ""); rawParams != "" {
			if err := json.Unmarshal([]byte(rawParams), &params); err != nil {
				return errorResult(apperrors.NewValidation("params is not a JSON object", nil)), nil
			}
		}

		result, err := deps.Dispatcher.Dispatch(ctx, actionName, params, actions.DispatchContext{
			User: deps.User,
		})
		if err != nil {
			deps.Logger.Warn("MCP dispatch failed",
				zap.String("action", actionName),
				zap.Error(err))
			return errorResult(err), nil
		}
		return jsonResult(result)
	})
}

func registerSemanticQueryTool(s *Server, deps *ToolDeps) {
	tool := mcp.NewTool(
		"semantic_query",
		mcp.WithDescription(
			"Run a semantic query: a root entity with dot-path fields and filters. "+
				"Paths traverse registered relationships, e.g. \"reservation.guest.name\". "+
				"Set dry_run to compile without executing.",
		),
		mcp.WithString(
			"query",
			mcp.Required(),
			mcp.Description("SemanticQuery JSON: {root_object, fields, filters, order_by, limit}"),
		),
		mcp.WithBoolean(
			"dry_run",
			mcp.Description("Compile only; return the plan instead of rows"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.RegisterTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rawQuery, err := req.RequireString("query")
		if err != nil {
			return nil, err
		}

		var query models.SemanticQuery
		if err := json.Unmarshal([]byte(rawQuery), &query); err != nil {
			return errorResult(apperrors.NewValidation("query is not valid SemanticQuery JSON", nil)), nil
		}

		if req.GetBool("dry_run", false) {
			plan, err := deps.Executor.Compiler().Compile(query)
			if err != nil {
				return errorResult(err), nil
			}
			return jsonResult(plan)
		}

		rows, err := deps.Executor.Execute(ctx, query)
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(map[string]any{"rows": rows, "count": len(rows)})
	})
}

func registerExecutePlanTool(s *Server, deps *ToolDeps) {
	tool := mcp.NewTool(
		"execute_plan",
		mcp.WithDescription(
			"Execute a multi-step plan of registered actions in dependency order. "+
				"Steps declare dependencies by step_id; completed steps are rolled "+
				"back when a later step fails.",
		),
		mcp.WithString(
			"plan",
			mcp.Required(),
			mcp.Description("ExecutionPlan JSON: {goal, steps: [{step_id, action_type, params, dependencies}]}"),
		),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.RegisterTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rawPlan, err := req.RequireString("plan")
		if err != nil {
			return nil, err
		}

		var plan models.ExecutionPlan
		if err := json.Unmarshal([]byte(rawPlan), &plan); err != nil {
			return errorResult(apperrors.NewValidation("plan is not valid ExecutionPlan JSON", nil)), nil
		}
		if plan.PlanID == uuid.Nil {
			plan.PlanID = uuid.New()
		}

		result, err := deps.Plans.Execute(ctx, &plan, actions.DispatchContext{
			User: deps.User,
		})
		if err != nil {
			return errorResult(err), nil
		}
		if failErr := dag.FailureError(result); failErr != nil {
			deps.Logger.Warn("MCP plan execution failed",
				zap.String("plan_id", plan.PlanID.String()),
				zap.Error(failErr))
			return errorResult(failErr), nil
		}
		return jsonResult(result)
	})
}

func registerRetrieveSchemaTool(s *Server, deps *ToolDeps) {
	tool := mcp.NewTool(
		"retrieve_schema",
		mcp.WithDescription(
			"Retrieve the minimal schema slice relevant to free text, using "+
				"vector search plus one-hop relationship expansion. Pass entities "+
				"to bypass search and fetch named entities directly.",
		),
		mcp.WithString(
			"text",
			mcp.Description("Free text to match against the schema index"),
		),
		mcp.WithString(
			"entities",
			mcp.Description("Comma-separated entity names to fetch directly"),
		),
		mcp.WithNumber(
			"top_k",
			mcp.Description("Maximum vector hits to consider"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.RegisterTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if names := req.GetString("entities", ""); names != "" {
			return jsonResult(deps.Retriever.RetrieveByEntity(splitComma(names)))
		}

		text := req.GetString("text", "")
		if text == "" {
			return errorResult(apperrors.NewValidation("either text or entities is required", nil)), nil
		}
		result, err := deps.Retriever.Retrieve(ctx, text, req.GetInt("top_k", 0))
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(result)
	})
}

func registerExportSchemaTool(s *Server, deps *ToolDeps) {
	tool := mcp.NewTool(
		"export_schema",
		mcp.WithDescription(
			"Export the full registered ontology: entities, actions, constraints, "+
				"state machines and interface claims.",
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.RegisterTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		schema, err := deps.Registry.ExportSchema()
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(schema)
	})
}

func splitComma(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}
