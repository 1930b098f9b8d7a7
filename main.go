package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ontoflow-ai/ontoflow/pkg/config"
	"github.com/ontoflow-ai/ontoflow/pkg/logging"
	"github.com/ontoflow-ai/ontoflow/pkg/mcp"
	"github.com/ontoflow-ai/ontoflow/pkg/models"
	"github.com/ontoflow-ai/ontoflow/pkg/runtime"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := runtime.New(ctx, cfg, runtime.Options{}, logger)
	if err != nil {
		logger.Fatal("Failed to assemble engine", zap.Error(err))
	}
	defer func() { _ = engine.Close() }()

	logger.Info("Engine assembled",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version))

	// Domain adapters are linked in by the host binary; the bare engine
	// still serves schema export and query tooling over MCP.
	if !cfg.MCP.Enabled {
		logger.Info("MCP disabled; nothing to serve")
		return
	}

	server := mcp.NewServer(cfg.MCP.Name, cfg.Version, logger)
	mcp.RegisterTools(server, &mcp.ToolDeps{
		Registry:   engine.Registry,
		Dispatcher: engine.Dispatcher,
		Executor:   engine.Queries,
		Plans:      engine.Plans,
		Retriever:  engine.Retriever,
		User:       models.UserContext{ID: "mcp", Role: "agent"},
		Logger:     logger,
	})

	logger.Info("Serving MCP over stdio", zap.String("name", cfg.MCP.Name))
	if err := server.ServeStdio(); err != nil {
		logger.Fatal("MCP server failed", zap.Error(err))
	}
}
