package config

import "fmt"

// AgentMode controls which tools the agent may offer the LLM.
type AgentMode string

const (
	AgentModeAuto        AgentMode = "auto"
	AgentModeGraphQLSQL  AgentMode = "graphql_sql"
	AgentModeSQLOnly     AgentMode = "sql_only"
	AgentModeGraphQLOnly AgentMode = "graphql_only"
)

// Validate checks that the mode is one of the known values.
func (m AgentMode) Validate() error {
	switch m {
	case AgentModeAuto, AgentModeGraphQLSQL, AgentModeSQLOnly, AgentModeGraphQLOnly:
		return nil
	}
	return fmt.Errorf("invalid agent mode: %q", m)
}

// ModelTier selects between the two configured LLM tiers.
type ModelTier string

const (
	// TierFrontier handles complex reasoning, orchestration and SQL writing.
	TierFrontier ModelTier = "frontier"
	// TierLightweight handles extraction, classification and selection.
	TierLightweight ModelTier = "lightweight"
)

// Validate checks that the tier is one of the known values.
func (t ModelTier) Validate() error {
	switch t {
	case TierFrontier, TierLightweight:
		return nil
	}
	return fmt.Errorf("invalid model tier: %q", t)
}

// ProviderType identifies an LLM provider backend.
type ProviderType string

const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderGoogle    ProviderType = "google"
)

// Validate checks that the provider is one of the known values.
func (p ProviderType) Validate() error {
	switch p {
	case ProviderOpenAI, ProviderAnthropic, ProviderGoogle:
		return nil
	}
	return fmt.Errorf("invalid llm provider: %q", p)
}

// Prompt names recognized by the model-assignment registry.
const (
	PromptSQLGeneration          = "sql_generation"
	PromptGraphQLClassification  = "graphql_classification"
	PromptGraphQLEntityExtract   = "graphql_entity_extraction"
	PromptIDResolutionSelection  = "id_resolution_selection"
	PromptProductExtraction      = "product_extraction"
	PromptProductCodeSelection   = "product_code_selection"
	PromptDocumentSelection      = "document_selection"
	PromptDocumentationSynthesis = "documentation_synthesis"
	PromptAgentSystem            = "agent_system_prompt"
)

// KnownPrompts lists every prompt name the registry accepts.
var KnownPrompts = []string{
	PromptSQLGeneration,
	PromptGraphQLClassification,
	PromptGraphQLEntityExtract,
	PromptIDResolutionSelection,
	PromptProductExtraction,
	PromptProductCodeSelection,
	PromptDocumentSelection,
	PromptDocumentationSynthesis,
	PromptAgentSystem,
}
