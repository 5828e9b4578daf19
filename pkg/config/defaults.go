package config

import "time"

// Default limits.
const (
	DefaultMaxQueriesPerTurn   = 5
	DefaultMaxRowsPerQuery     = 25
	DefaultMaxDocsPerSelection = 2
)

// DefaultConfig returns the compiled-in defaults. YAML and environment
// overrides are merged on top by the loader.
func DefaultConfig() *Config {
	return &Config{
		AgentMode:           AgentModeAuto,
		MaxQueriesPerTurn:   DefaultMaxQueriesPerTurn,
		MaxRowsPerQuery:     DefaultMaxRowsPerQuery,
		MaxDocsPerSelection: DefaultMaxDocsPerSelection,
		Frontier: ModelConfig{
			Provider: ProviderAnthropic,
			Model:    "claude-sonnet-4-20250514",
		},
		Lightweight: ModelConfig{
			Provider: ProviderOpenAI,
			Model:    "gpt-4o-mini",
		},
		PromptAssignments: map[string]ModelTier{
			PromptSQLGeneration:          TierFrontier,
			PromptAgentSystem:            TierFrontier,
			PromptGraphQLClassification:  TierLightweight,
			PromptGraphQLEntityExtract:   TierLightweight,
			PromptIDResolutionSelection:  TierLightweight,
			PromptProductExtraction:      TierLightweight,
			PromptProductCodeSelection:   TierLightweight,
			PromptDocumentSelection:      TierLightweight,
			PromptDocumentationSynthesis: TierLightweight,
		},
		Warehouse: WarehouseConfig{
			QueryTimeout: 30 * time.Second,
			MaxAttempts:  3,
			RetryBase:    2 * time.Second,
			RetryMax:     10 * time.Second,
		},
		GraphQL: GraphQLConfig{
			Endpoint:       "https://atlas.hks.harvard.edu/api/graphql",
			Timeout:        30 * time.Second,
			MaxConcurrency: 2,
			ReleaseDelay:   500 * time.Millisecond,
		},
		DocsDir:           "./docs/methodology",
		TableCatalogPath:  "./config/table_catalog.yaml",
		EntityCatalogPath: "./config/entity_catalog.yaml",
		SQLMaxYear:        2023,
		GraphQLMaxYear:    2022,
		CORSOrigins:       []string{"http://localhost:5173"},
		HTTPPort:          "8080",
	}
}
