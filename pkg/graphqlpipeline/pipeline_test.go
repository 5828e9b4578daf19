package graphqlpipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/events"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/graph"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/tools"
)

func TestFormatResultsRejectedCountsAgainstTurnBudget(t *testing.T) {
	p := &Pipeline{}
	ai := models.NewAIMessage("", []models.ToolCall{
		{ID: "call_1", Name: tools.AtlasGraphQL, Args: []byte(`{"question":"q"}`)},
	}, nil)
	state := &models.TurnState{
		Messages: []models.Message{models.NewHumanMessage("q"), ai},
		GraphQL: models.GraphQLScratch{
			Rejected:        true,
			RejectionReason: "Bilateral product detail needs the warehouse.",
		},
	}
	rt := &graph.Runtime{State: state, Emit: func(events.StreamData) {}}

	update, payload, err := p.formatResults(context.Background(), rt)
	require.NoError(t, err)

	// A rejected question still spends one per-turn slot: the tool was
	// invoked, and a free refusal would let the model loop on it.
	assert.Equal(t, 1, update.QueriesDelta)
	require.Len(t, update.AppendMessages, 1)
	msg := update.AppendMessages[0]
	assert.Equal(t, models.RoleTool, msg.Role)
	assert.Equal(t, "call_1", msg.ToolCallID)
	assert.Contains(t, msg.Content, "cannot be answered")
	assert.Contains(t, msg.Content, "query_tool")
	assert.Equal(t, false, payload["success"])
}
