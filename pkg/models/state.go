package models

import "encoding/json"

// ExtractedProduct is a product mentioned in the question, as identified
// by the product-extraction LLM call. CandidateCodes are the model's own
// guesses, verified against the classification tables before use.
type ExtractedProduct struct {
	Name                 string   `json:"name"`
	ClassificationSchema string   `json:"classification_schema"`
	CandidateCodes       []string `json:"candidate_codes,omitempty"`
}

// ResolvedProductCodes is the final code selection for one product.
type ResolvedProductCodes struct {
	ProductName          string   `json:"product_name"`
	ClassificationSchema string   `json:"classification_schema"`
	Codes                []string `json:"codes"`
}

// SQLScratch holds the SQL pipeline's per-turn working fields.
// Zero-valued whenever the SQL pipeline is not the active pipeline.
type SQLScratch struct {
	Question        string                 `json:"question,omitempty"`
	Context         string                 `json:"context,omitempty"`
	Schemas         []string               `json:"schemas,omitempty"`
	Products        []ExtractedProduct     `json:"products,omitempty"`
	RequiresLookup  bool                   `json:"requires_lookup,omitempty"`
	Codes           []ResolvedProductCodes `json:"codes,omitempty"`
	TableInfo       string                 `json:"table_info,omitempty"`
	SQL             string                 `json:"sql,omitempty"`
	Result          string                 `json:"result,omitempty"`
	ResultRows      [][]string             `json:"result_rows,omitempty"`
	ResultColumns   []string               `json:"result_columns,omitempty"`
	RowCount        int                    `json:"row_count,omitempty"`
	Tables          []string               `json:"tables,omitempty"`
	ExecutionTimeMS int64                  `json:"execution_time_ms,omitempty"`
}

// GraphQLEntities are the named entities extracted from a GraphQL-bound
// question. Empty fields mean the entity was not mentioned.
type GraphQLEntities struct {
	Country          string `json:"country,omitempty"`
	PartnerCountry   string `json:"partner_country,omitempty"`
	Product          string `json:"product,omitempty"`
	Year             int    `json:"year,omitempty"`
	Direction        string `json:"direction,omitempty"`
	ServicesCategory string `json:"services_category,omitempty"`
}

// AtlasLink is a deep link into the public Atlas visualization site.
type AtlasLink struct {
	URL      string `json:"url"`
	Label    string `json:"label"`
	LinkType string `json:"link_type"`
}

// GraphQLScratch holds the GraphQL pipeline's per-turn working fields.
type GraphQLScratch struct {
	Question        string            `json:"question,omitempty"`
	Context         string            `json:"context,omitempty"`
	QueryType       string            `json:"query_type,omitempty"`
	Rejected        bool              `json:"rejected,omitempty"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	Entities        *GraphQLEntities  `json:"entities,omitempty"`
	ResolvedIDs     map[string]string `json:"resolved_ids,omitempty"`
	APITarget       string            `json:"api_target,omitempty"`
	Response        json.RawMessage   `json:"response,omitempty"`
	Formatted       string            `json:"formatted,omitempty"`
	AtlasLinks      []AtlasLink       `json:"atlas_links,omitempty"`
	ExecutionTimeMS int64             `json:"execution_time_ms,omitempty"`
	Success         bool              `json:"success,omitempty"`
}

// DocsScratch holds the docs pipeline's per-turn working fields.
type DocsScratch struct {
	Question      string   `json:"question,omitempty"`
	Context       string   `json:"context,omitempty"`
	SelectedFiles []string `json:"selected_files,omitempty"`
	Synthesis     string   `json:"synthesis,omitempty"`
}

// TurnState is the shared state threaded through the graph for one turn.
// It is re-hydrated from the latest checkpoint at turn start, mutated by
// node updates, and re-checkpointed after every node.
type TurnState struct {
	Messages        []Message `json:"messages"`
	QueriesExecuted int       `json:"queries_executed"`
	LastError       string    `json:"last_error,omitempty"`
	RetryCount      int       `json:"retry_count,omitempty"`

	SQL     SQLScratch     `json:"sql,omitempty"`
	GraphQL GraphQLScratch `json:"graphql,omitempty"`
	Docs    DocsScratch    `json:"docs,omitempty"`

	// Caller-supplied constraints pinning SQL generation.
	OverrideSchema    string `json:"override_schema,omitempty"`
	OverrideDirection string `json:"override_direction,omitempty"`
	OverrideMode      string `json:"override_mode,omitempty"`

	TokenUsage []UsageRecord  `json:"token_usage,omitempty"`
	StepTiming []TimingRecord `json:"step_timing,omitempty"`
}

// StateUpdate is a partial update returned by a node. Nil pointer fields
// and empty slices leave the corresponding state untouched; Messages,
// TokenUsage and StepTiming are append-only.
type StateUpdate struct {
	AppendMessages []Message
	QueriesDelta   int
	LastError      *string
	RetryCount     *int
	SQL            *SQLScratch
	GraphQL        *GraphQLScratch
	Docs           *DocsScratch
	TokenUsage     []UsageRecord
	StepTiming     []TimingRecord
}

// Apply merges a node's partial update into the state.
func (s *TurnState) Apply(u *StateUpdate) {
	if u == nil {
		return
	}
	s.Messages = append(s.Messages, u.AppendMessages...)
	s.QueriesExecuted += u.QueriesDelta
	if u.LastError != nil {
		s.LastError = *u.LastError
	}
	if u.RetryCount != nil {
		s.RetryCount = *u.RetryCount
	}
	if u.SQL != nil {
		s.SQL = *u.SQL
	}
	if u.GraphQL != nil {
		s.GraphQL = *u.GraphQL
	}
	if u.Docs != nil {
		s.Docs = *u.Docs
	}
	s.TokenUsage = append(s.TokenUsage, u.TokenUsage...)
	s.StepTiming = append(s.StepTiming, u.StepTiming...)
}

// LastAIMessage returns the most recent assistant message, or nil.
func (s *TurnState) LastAIMessage() *Message {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return &s.Messages[i]
		}
	}
	return nil
}

// LastHumanMessage returns the most recent human message, or nil.
func (s *TurnState) LastHumanMessage() *Message {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleHuman {
			return &s.Messages[i]
		}
	}
	return nil
}

// ErrString is a convenience for building *string update fields.
func ErrString(s string) *string { return &s }
