package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Initialize loads, merges and validates configuration.
//
// Steps performed:
//  1. Start from compiled-in defaults
//  2. Merge askatlas.yaml from configDir (if present)
//  3. Apply environment-variable overrides
//  4. Resolve provider API keys from the environment
//  5. Validate the result
func Initialize(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg := DefaultConfig()

	path := filepath.Join(configDir, "askatlas.yaml")
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if err := mergo.Merge(cfg, &fileCfg, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge config: %w", err)
		}
	case os.IsNotExist(err):
		log.Info("No askatlas.yaml found, using defaults with env overrides")
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	resolveAPIKeys(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("Configuration initialized",
		"agent_mode", cfg.AgentMode,
		"frontier", cfg.Frontier.Model,
		"lightweight", cfg.Lightweight.Model,
		"max_queries_per_turn", cfg.MaxQueriesPerTurn)
	return cfg, nil
}

// applyEnvOverrides maps well-known environment variables onto config
// fields. Unset or unparsable values leave the field unchanged.
func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			} else {
				slog.Warn("Ignoring unparsable env override", "key", key, "value", v)
			}
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			} else {
				slog.Warn("Ignoring unparsable env override", "key", key, "value", v)
			}
		}
	}

	if v := os.Getenv("AGENT_MODE"); v != "" {
		cfg.AgentMode = AgentMode(v)
	}
	setInt("MAX_QUERIES_PER_TURN", &cfg.MaxQueriesPerTurn)
	setInt("MAX_ROWS_PER_QUERY", &cfg.MaxRowsPerQuery)
	setInt("MAX_DOCS_PER_SELECTION", &cfg.MaxDocsPerSelection)
	setString("FRONTIER_MODEL", &cfg.Frontier.Model)
	setString("LIGHTWEIGHT_MODEL", &cfg.Lightweight.Model)
	if v := os.Getenv("FRONTIER_PROVIDER"); v != "" {
		cfg.Frontier.Provider = ProviderType(v)
	}
	if v := os.Getenv("LIGHTWEIGHT_PROVIDER"); v != "" {
		cfg.Lightweight.Provider = ProviderType(v)
	}
	setString("WAREHOUSE_DSN", &cfg.Warehouse.DSN)
	setDuration("WAREHOUSE_QUERY_TIMEOUT", &cfg.Warehouse.QueryTimeout)
	setString("CHECKPOINT_DSN", &cfg.CheckpointDSN)
	setString("APP_DSN", &cfg.AppDSN)
	setString("GRAPHQL_ENDPOINT", &cfg.GraphQL.Endpoint)
	setInt("GRAPHQL_MAX_REQUESTS", &cfg.GraphQL.MaxRequests)
	setString("DOCS_DIR", &cfg.DocsDir)
	setString("TABLE_CATALOG_PATH", &cfg.TableCatalogPath)
	setString("ENTITY_CATALOG_PATH", &cfg.EntityCatalogPath)
	setInt("SQL_MAX_YEAR", &cfg.SQLMaxYear)
	setInt("GRAPHQL_MAX_YEAR", &cfg.GraphQLMaxYear)
	setString("HTTP_PORT", &cfg.HTTPPort)
}

// resolveAPIKeys reads provider API keys from the environment.
func resolveAPIKeys(cfg *Config) {
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
}
