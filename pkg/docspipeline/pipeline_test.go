package docspipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/accounting"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/config"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/events"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/graph"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/llm"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/tools"
)

func TestSelectDocsFallsBackWhenNoClientAvailable(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Frontier = config.ModelConfig{Provider: config.ProviderOpenAI, Model: "gpt-4o"}
	cfg.Lightweight = config.ModelConfig{Provider: config.ProviderOpenAI, Model: "gpt-4o-mini"}
	cfg.OpenAIAPIKey = "test-key"
	registry, err := llm.NewRegistry(context.Background(), cfg)
	require.NoError(t, err)

	// Point the selection prompt at a provider the registry never
	// built a client for. The lookup failure must select all docs
	// instead of failing the turn.
	cfg.Frontier.Provider = config.ProviderAnthropic
	cfg.PromptAssignments[config.PromptDocumentSelection] = config.TierFrontier

	manifest, err := LoadManifest(writeDocsDir(t))
	require.NoError(t, err)

	p := New(registry, manifest, cfg)
	rt := &graph.Runtime{
		State: &models.TurnState{Docs: models.DocsScratch{Question: "what is eci"}},
		Emit:  func(events.StreamData) {},
		Timer: accounting.StartNodeTimer("select_docs", tools.DocsTool),
	}

	update, payload, err := p.selectDocs(context.Background(), rt)
	require.NoError(t, err)
	require.NotNil(t, update.Docs)
	assert.Len(t, update.Docs.SelectedFiles, len(manifest.Docs))
	assert.Empty(t, update.TokenUsage)
	assert.Equal(t, update.Docs.SelectedFiles, payload["selected_files"])
}
