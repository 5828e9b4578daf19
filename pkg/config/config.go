// Package config loads and validates Ask Atlas configuration from YAML
// files and environment variables. Environment variables override
// file-provided values, which override compiled-in defaults.
package config

import (
	"fmt"
	"time"
)

// ModelConfig names a concrete model on a concrete provider.
type ModelConfig struct {
	Provider ProviderType `yaml:"provider"`
	Model    string       `yaml:"model"`
}

// GraphQLConfig configures access to the remote Atlas GraphQL API.
type GraphQLConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxConcurrency int64         `yaml:"max_concurrency"`
	ReleaseDelay   time.Duration `yaml:"release_delay"`
	MaxRequests    int           `yaml:"max_requests"` // process-wide budget; 0 = unlimited
}

// WarehouseConfig configures the read-only trade warehouse connection.
type WarehouseConfig struct {
	DSN          string        `yaml:"dsn"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	MaxAttempts  int           `yaml:"max_attempts"`
	RetryBase    time.Duration `yaml:"retry_base"`
	RetryMax     time.Duration `yaml:"retry_max"`
}

// Config is the resolved, validated runtime configuration.
type Config struct {
	AgentMode           AgentMode `yaml:"agent_mode"`
	MaxQueriesPerTurn   int       `yaml:"max_queries_per_turn"`
	MaxRowsPerQuery     int       `yaml:"max_rows_per_query"`
	MaxDocsPerSelection int       `yaml:"max_docs_per_selection"`

	Frontier    ModelConfig `yaml:"frontier"`
	Lightweight ModelConfig `yaml:"lightweight"`

	// PromptAssignments maps each named prompt to a tier.
	PromptAssignments map[string]ModelTier `yaml:"prompt_assignments"`

	// API keys per provider. The loader resolves the values from the
	// environment; they never come from YAML.
	OpenAIAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`
	GoogleAPIKey    string `yaml:"-"`

	Warehouse WarehouseConfig `yaml:"warehouse"`
	GraphQL   GraphQLConfig   `yaml:"graphql"`

	// CheckpointDSN and AppDSN point at the durable stores. Either may
	// be empty, in which case the in-memory implementation is used.
	CheckpointDSN string `yaml:"checkpoint_dsn"`
	AppDSN        string `yaml:"app_dsn"`

	DocsDir           string `yaml:"docs_dir"`
	TableCatalogPath  string `yaml:"table_catalog_path"`
	EntityCatalogPath string `yaml:"entity_catalog_path"`

	// Data-year coverage bounds injected into the agent system prompt.
	SQLMaxYear     int `yaml:"sql_max_year"`
	GraphQLMaxYear int `yaml:"graphql_max_year"`

	CORSOrigins []string `yaml:"cors_origins"`
	HTTPPort    string   `yaml:"http_port"`
}

// Validate performs comprehensive validation on the resolved config.
func (c *Config) Validate() error {
	if err := c.AgentMode.Validate(); err != nil {
		return err
	}
	if c.MaxQueriesPerTurn <= 0 {
		return fmt.Errorf("max_queries_per_turn must be positive, got %d", c.MaxQueriesPerTurn)
	}
	if c.MaxRowsPerQuery <= 0 {
		return fmt.Errorf("max_rows_per_query must be positive, got %d", c.MaxRowsPerQuery)
	}
	if c.MaxDocsPerSelection <= 0 {
		return fmt.Errorf("max_docs_per_selection must be positive, got %d", c.MaxDocsPerSelection)
	}
	for _, mc := range []struct {
		name string
		cfg  ModelConfig
	}{{"frontier", c.Frontier}, {"lightweight", c.Lightweight}} {
		if err := mc.cfg.Provider.Validate(); err != nil {
			return fmt.Errorf("%s: %w", mc.name, err)
		}
		if mc.cfg.Model == "" {
			return fmt.Errorf("%s: model is required", mc.name)
		}
	}
	known := make(map[string]bool, len(KnownPrompts))
	for _, p := range KnownPrompts {
		known[p] = true
	}
	for prompt, tier := range c.PromptAssignments {
		if !known[prompt] {
			return fmt.Errorf("unknown prompt in assignments: %q", prompt)
		}
		if err := tier.Validate(); err != nil {
			return fmt.Errorf("prompt %q: %w", prompt, err)
		}
	}
	return nil
}

// TierFor resolves the tier assigned to a named prompt, defaulting to
// lightweight for unassigned prompts.
func (c *Config) TierFor(prompt string) ModelTier {
	if tier, ok := c.PromptAssignments[prompt]; ok {
		return tier
	}
	return TierLightweight
}

// ModelFor resolves the concrete model config for a named prompt.
func (c *Config) ModelFor(prompt string) ModelConfig {
	if c.TierFor(prompt) == TierFrontier {
		return c.Frontier
	}
	return c.Lightweight
}
