package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAgentSystemDualTool(t *testing.T) {
	out := AgentSystem(AgentSystemParams{
		DualTool:        true,
		IncludeDocs:     true,
		BudgetRemaining: 7,
		BudgetMax:       10,
		SQLMaxYear:      2023,
		GraphQLMaxYear:  2022,
	})

	assert.Contains(t, out, "atlas_graphql(question, context?)")
	assert.Contains(t, out, "query_tool(question, context?)")
	assert.Contains(t, out, "docs_tool(question, context?)")
	assert.Contains(t, out, "API budget: 7 of 10 atlas_graphql requests remaining.")
	assert.Contains(t, out, "2023")
	assert.Contains(t, out, "2022")
}

func TestAgentSystemDualToolBudgetExhausted(t *testing.T) {
	out := AgentSystem(AgentSystemParams{
		DualTool:        true,
		BudgetExhausted: true,
	})
	assert.Contains(t, out, "API budget: exhausted.")
	assert.NotContains(t, out, "requests remaining")
}

func TestAgentSystemSQLOnly(t *testing.T) {
	out := AgentSystem(AgentSystemParams{SQLOnly: true, IncludeDocs: true})

	assert.Contains(t, out, "query_tool(question, context?)")
	assert.NotContains(t, out, "atlas_graphql(question, context?)")
	assert.Contains(t, out, "docs_tool")
}

func TestAgentSystemGraphQLOnly(t *testing.T) {
	out := AgentSystem(AgentSystemParams{GraphQLOnly: true})

	assert.Contains(t, out, "atlas_graphql(question, context?)")
	assert.NotContains(t, out, "query_tool(question, context?)")
	assert.NotContains(t, out, "docs_tool")
}

func TestProductExtractionContextBlock(t *testing.T) {
	with := ProductExtraction("What does Chile export?", "HS92 4-digit")
	assert.Contains(t, with, "Question: What does Chile export?")
	assert.Contains(t, with, "Context: HS92 4-digit")

	without := ProductExtraction("What does Chile export?", "")
	assert.NotContains(t, without, "Context:")
}

func TestSQLGenerationOptionalBlocks(t *testing.T) {
	full := SQLGeneration(SQLGenerationParams{
		Question:     "Top copper exporters",
		TopK:         25,
		TableInfo:    "CREATE TABLE hs92.country_product_year_4 (...)",
		ProductCodes: "2603: Copper ore",
		Direction:    "exports",
		Mode:         "goods",
		Context:      "Use 4-digit codes",
		SQLMaxYear:   2023,
	})
	assert.Contains(t, full, "Top copper exporters")
	assert.Contains(t, full, "2603: Copper ore")
	assert.Contains(t, full, "analyze exports only")
	assert.Contains(t, full, "analyze goods trade only")
	assert.Contains(t, full, "Use 4-digit codes")

	minimal := SQLGeneration(SQLGenerationParams{
		Question:   "Top exporters",
		TopK:       25,
		TableInfo:  "tables",
		SQLMaxYear: 2023,
	})
	assert.NotContains(t, minimal, "Verified product codes")
	assert.NotContains(t, minimal, "Constraint:")
	assert.NotContains(t, minimal, "Additional context")
}

func TestGraphQLEntityExtractionServicesCatalog(t *testing.T) {
	with := GraphQLEntityExtraction("ICT exports of India", "treemap_products", "", "- ICT services")
	assert.Contains(t, with, "Services categories:")
	assert.Contains(t, with, "- ICT services")

	without := GraphQLEntityExtraction("Copper exports of Chile", "treemap_products", "", "")
	assert.NotContains(t, without, "Services categories:")
}

func TestDocumentSelectionEmbedsLimitAndManifest(t *testing.T) {
	out := DocumentSelection("What is ECI?", "", "0. Economic Complexity Index", 2)
	assert.Contains(t, out, "at most 2")
	assert.Contains(t, out, "0. Economic Complexity Index")
}

func TestIDResolutionSelection(t *testing.T) {
	out := IDResolutionSelection("country", "korea", "What does Korea export?", "118: South Korea\n119: North Korea")
	assert.Contains(t, out, "Entity type: country")
	assert.Contains(t, out, "Extracted name: korea")
	assert.Contains(t, out, "118: South Korea")
}
