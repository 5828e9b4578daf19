package prompts

import (
	"fmt"
	"strings"
)

// AgentSystemParams configures the agent system prompt.
type AgentSystemParams struct {
	// DualTool selects the extension describing both data tools.
	// When false, exactly one of SQLOnly / GraphQLOnly applies.
	DualTool    bool
	SQLOnly     bool
	GraphQLOnly bool
	// IncludeDocs adds the docs_tool section.
	IncludeDocs bool

	BudgetRemaining int
	BudgetMax       int
	BudgetExhausted bool

	SQLMaxYear     int
	GraphQLMaxYear int
}

// AgentSystem assembles the agent system prompt from the base template
// plus the tool sections matching the current mode and budget.
func AgentSystem(p AgentSystemParams) string {
	var sb strings.Builder
	sb.WriteString(agentSystemBase)
	sb.WriteString("\n\n")

	switch {
	case p.DualTool:
		budget := fmt.Sprintf(budgetAvailableTemplate, p.BudgetRemaining, p.BudgetMax)
		if p.BudgetExhausted {
			budget = budgetExhausted
		}
		sb.WriteString(fmt.Sprintf(agentDualToolTemplate, budget, p.SQLMaxYear, p.GraphQLMaxYear))
	case p.SQLOnly:
		sb.WriteString(agentSQLToolSection)
	case p.GraphQLOnly:
		sb.WriteString(agentGraphQLToolSection)
	}

	if p.IncludeDocs {
		sb.WriteString("\n\n")
		sb.WriteString(agentDocsToolSection)
	}
	return sb.String()
}

// ProductExtraction builds the schema-and-product extraction prompt.
func ProductExtraction(question, context string) string {
	return fmt.Sprintf(productExtractionTemplate, question, contextBlock(context))
}

// ProductCodeSelection builds the final code selection prompt.
// candidates is a pre-formatted listing of verified candidate codes.
func ProductCodeSelection(question, candidates string) string {
	return fmt.Sprintf(productCodeSelectionTemplate, question, candidates)
}

// SQLGenerationParams configures the SQL writing prompt.
type SQLGenerationParams struct {
	Question  string
	TopK      int
	TableInfo string
	// ProductCodes is a pre-formatted code listing; empty omits the block.
	ProductCodes string
	// Direction pins "exports" or "imports"; empty omits the constraint.
	Direction string
	// Mode pins "goods" or "services"; empty omits the constraint.
	Mode       string
	Context    string
	SQLMaxYear int
}

// SQLGeneration builds the frontier-tier SQL writing prompt.
func SQLGeneration(p SQLGenerationParams) string {
	var codes, constraints, context string
	if p.ProductCodes != "" {
		codes = fmt.Sprintf(sqlProductCodesTemplate, p.ProductCodes)
	}
	if p.Direction != "" {
		constraints += fmt.Sprintf(sqlDirectionConstraintTemplate, p.Direction)
	}
	if p.Mode != "" {
		constraints += fmt.Sprintf(sqlModeConstraintTemplate, p.Mode)
	}
	if p.Context != "" {
		context = fmt.Sprintf(sqlContextTemplate, p.Context)
	}
	return fmt.Sprintf(sqlGenerationTemplate,
		p.Question, p.TopK, p.SQLMaxYear, p.TableInfo, codes, constraints, context)
}

// GraphQLClassification builds the query-type classification prompt.
func GraphQLClassification(question, context string) string {
	return fmt.Sprintf(graphqlClassificationTemplate, question, contextBlock(context))
}

// GraphQLEntityExtraction builds the entity extraction prompt.
// servicesCatalog is a pre-formatted category listing; empty omits it.
func GraphQLEntityExtraction(question, queryType, context, servicesCatalog string) string {
	var catalog string
	if servicesCatalog != "" {
		catalog = fmt.Sprintf(servicesCatalogTemplate, servicesCatalog)
	}
	return fmt.Sprintf(graphqlEntityExtractionTemplate,
		question, queryType, contextBlock(context), catalog)
}

// IDResolutionSelection builds the candidate disambiguation prompt.
// candidates is a pre-formatted "id: name" listing.
func IDResolutionSelection(entityType, extractedName, question, candidates string) string {
	return fmt.Sprintf(idResolutionSelectionTemplate, entityType, extractedName, question, candidates)
}

// DocumentSelection builds the manifest selection prompt.
// manifest is a pre-formatted numbered listing.
func DocumentSelection(question, context, manifest string, maxDocs int) string {
	return fmt.Sprintf(documentSelectionTemplate, maxDocs, question, contextBlock(context), manifest)
}

// DocumentationSynthesis builds the synthesis prompt over the selected
// document bodies.
func DocumentationSynthesis(question, context, docs string) string {
	return fmt.Sprintf(documentationSynthesisTemplate, question, contextBlock(context), docs)
}

func contextBlock(context string) string {
	if context == "" {
		return ""
	}
	return fmt.Sprintf(contextTemplate, context)
}
