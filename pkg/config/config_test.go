package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsBadAgentMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AgentMode = "turbo"
	assert.ErrorContains(t, cfg.Validate(), "invalid agent mode")
}

func TestValidateRejectsNonPositiveLimits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxQueriesPerTurn = 0
	assert.ErrorContains(t, cfg.Validate(), "max_queries_per_turn")

	cfg = DefaultConfig()
	cfg.MaxRowsPerQuery = -1
	assert.ErrorContains(t, cfg.Validate(), "max_rows_per_query")
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Frontier.Provider = "cohere"
	assert.ErrorContains(t, cfg.Validate(), "invalid llm provider")
}

func TestValidateRejectsMissingModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lightweight.Model = ""
	assert.ErrorContains(t, cfg.Validate(), "model is required")
}

func TestValidateRejectsUnknownPromptAssignment(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PromptAssignments["mystery_prompt"] = TierFrontier
	assert.ErrorContains(t, cfg.Validate(), "unknown prompt")
}

func TestTierForDefaultsToLightweight(t *testing.T) {
	cfg := DefaultConfig()
	delete(cfg.PromptAssignments, PromptDocumentSelection)

	assert.Equal(t, TierLightweight, cfg.TierFor(PromptDocumentSelection))
	assert.Equal(t, TierFrontier, cfg.TierFor(PromptSQLGeneration))
}

func TestModelFor(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, cfg.Frontier, cfg.ModelFor(PromptAgentSystem))
	assert.Equal(t, cfg.Lightweight, cfg.ModelFor(PromptProductExtraction))
}

func TestInitializeMergesYAMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `agent_mode: sql_only
max_queries_per_turn: 7
warehouse:
  dsn: postgres://localhost/atlas
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "askatlas.yaml"), []byte(content), 0600))

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, AgentModeSQLOnly, cfg.AgentMode)
	assert.Equal(t, 7, cfg.MaxQueriesPerTurn)
	assert.Equal(t, "postgres://localhost/atlas", cfg.Warehouse.DSN)
	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultMaxRowsPerQuery, cfg.MaxRowsPerQuery)
}

func TestInitializeWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Initialize(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, AgentModeAuto, cfg.AgentMode)
}

func TestInitializeAppliesEnvOverrides(t *testing.T) {
	t.Setenv("AGENT_MODE", "graphql_only")
	t.Setenv("MAX_QUERIES_PER_TURN", "2")
	t.Setenv("SQL_MAX_YEAR", "2024")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Initialize(context.Background(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, AgentModeGraphQLOnly, cfg.AgentMode)
	assert.Equal(t, 2, cfg.MaxQueriesPerTurn)
	assert.Equal(t, 2024, cfg.SQLMaxYear)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
}

func TestInitializeIgnoresUnparsableEnvOverride(t *testing.T) {
	t.Setenv("MAX_QUERIES_PER_TURN", "many")

	cfg, err := Initialize(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxQueriesPerTurn, cfg.MaxQueriesPerTurn)
}

func TestInitializeRejectsInvalidMergedConfig(t *testing.T) {
	t.Setenv("AGENT_MODE", "bogus")

	_, err := Initialize(context.Background(), t.TempDir())
	assert.ErrorContains(t, err, "invalid agent mode")
}
