// Package tools defines the tool surface the agent exposes to the LLM:
// names, schemas, descriptions, and budget classification.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/llm"
)

// Tool names, also used as pipeline identifiers in stream events and
// usage records.
const (
	QueryTool    = "query_tool"
	AtlasGraphQL = "atlas_graphql"
	DocsTool     = "docs_tool"
)

// Args is the argument shape shared by all three tools.
type Args struct {
	Question string `json:"question" jsonschema:"description=Natural-language question to answer with this tool"`
	Context  string `json:"context,omitempty" jsonschema:"description=Optional technical context from earlier conversation turns"`
}

// ParseArgs decodes tool call arguments.
func ParseArgs(raw json.RawMessage) (Args, error) {
	var args Args
	if err := json.Unmarshal(raw, &args); err != nil {
		return Args{}, fmt.Errorf("invalid tool arguments: %w", err)
	}
	if args.Question == "" {
		return Args{}, fmt.Errorf("tool arguments missing required question")
	}
	return args, nil
}

// CountsAgainstBudget reports whether a call to the named tool
// increments queries_executed. Docs calls are free.
func CountsAgainstBudget(name string) bool {
	return name == QueryTool || name == AtlasGraphQL
}

// IsKnown reports whether name is one of the three tools.
func IsKnown(name string) bool {
	return name == QueryTool || name == AtlasGraphQL || name == DocsTool
}

var argsSchema = llm.SchemaFor[Args]()

// QueryToolDefinition describes the SQL warehouse tool.
func QueryToolDefinition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name: QueryTool,
		Description: "Answer a trade data question by querying the data warehouse with SQL. " +
			"Handles rankings, time series, bilateral flows, product-level detail, and custom aggregations.",
		ParametersSchema: argsSchema,
	}
}

// AtlasGraphQLDefinition describes the Atlas API tool.
func AtlasGraphQLDefinition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name: AtlasGraphQL,
		Description: "Answer a question via the public Atlas API. " +
			"Handles country profiles, export composition, top partners, new products, growth projections, and product-space RCA.",
		ParametersSchema: argsSchema,
	}
}

// DocsToolDefinition describes the methodology documentation tool.
func DocsToolDefinition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name: DocsTool,
		Description: "Answer a question about Atlas methodology from the documentation: " +
			"metric definitions, data caveats, classification systems, and how visualizations are computed. Returns no trade figures.",
		ParametersSchema: argsSchema,
	}
}
