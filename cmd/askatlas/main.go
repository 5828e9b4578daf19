// Ask Atlas server. Answers natural-language questions about the
// Atlas of Economic Complexity trade data through an LLM agent with
// SQL, GraphQL, and documentation tool pipelines.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/agent"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/api"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/checkpoint"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/config"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/conversations"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/database"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/docspipeline"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/graph"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/graphqlpipeline"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/llm"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/sqlpipeline"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/warehouse"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", err)
	}

	ctx := context.Background()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	// Startup artifacts: table catalog, entity catalog, docs manifest.
	// All are loaded once and immutable afterwards.
	tableCatalog, err := warehouse.LoadTableCatalog(cfg.TableCatalogPath)
	if err != nil {
		slog.Error("Failed to load table catalog", "error", err)
		os.Exit(1)
	}
	entityCatalog, err := graphqlpipeline.LoadEntityCatalog(cfg.EntityCatalogPath)
	if err != nil {
		slog.Error("Failed to load entity catalog", "error", err)
		os.Exit(1)
	}
	manifest, err := docspipeline.LoadManifest(cfg.DocsDir)
	if err != nil {
		slog.Error("Failed to load docs manifest", "error", err)
		os.Exit(1)
	}
	slog.Info("Startup artifacts loaded",
		"docs", len(manifest.Docs), "countries", len(entityCatalog.Countries))

	registry, err := llm.NewRegistry(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize LLM providers", "error", err)
		os.Exit(1)
	}

	warehouseExec, err := warehouse.NewExecutor(ctx, cfg.Warehouse)
	if err != nil {
		slog.Error("Failed to connect to warehouse", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := warehouseExec.Close(); err != nil {
			slog.Error("Error closing warehouse connection", "error", err)
		}
	}()

	// Durable stores with in-memory fallback: a failed SQL
	// initialization logs and degrades rather than aborting startup.
	var dbClient *database.Client
	var checkpointStore checkpoint.Store = checkpoint.NewMemoryStore()
	var conversationStore conversations.Store = conversations.NewMemoryStore()
	if cfg.CheckpointDSN != "" {
		client, err := database.NewClient(ctx, cfg.CheckpointDSN)
		if err != nil {
			slog.Warn("Checkpoint database unavailable, falling back to in-memory store", "error", err)
		} else {
			dbClient = client
			checkpointStore = checkpoint.NewPostgresStore(client.DB())
			conversationStore = conversations.NewPostgresStore(client.DB())
			defer func() {
				if err := client.Close(); err != nil {
					slog.Error("Error closing database client", "error", err)
				}
			}()
			slog.Info("Connected to PostgreSQL database")
		}
	}

	graphqlClient := graphqlpipeline.NewClient(cfg.GraphQL)
	budget := graphqlpipeline.NewBudgetTracker(cfg.GraphQL.MaxRequests)

	sqlPipe := sqlpipeline.New(registry, warehouseExec, tableCatalog, cfg)
	graphqlPipe := graphqlpipeline.New(registry, graphqlClient, entityCatalog, budget, cfg)
	docsPipe := docspipeline.New(registry, manifest, cfg)
	agentNode := agent.New(registry, cfg, budget)

	executor := graph.NewExecutor(
		agentNode.Node(),
		agent.LimitNode(cfg.MaxQueriesPerTurn),
		[]*graph.Pipeline{sqlPipe.Graph(), graphqlPipe.Graph(), docsPipe.Graph()},
		checkpointStore,
		cfg.MaxQueriesPerTurn,
	)

	server := api.NewServer(executor, conversationStore, dbClient, cfg)
	httpServer := server.HTTPServer()

	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", "error", err)
	}
	slog.Info("Shutdown complete")
}
