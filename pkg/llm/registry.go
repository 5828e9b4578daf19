package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/config"
)

// Registry resolves prompt names to a concrete client and model via
// the tier assignments in configuration. Clients are constructed once
// per provider and shared.
type Registry struct {
	cfg     *config.Config
	clients map[config.ProviderType]Client
}

// NewRegistry builds clients for every provider referenced by the
// configured model tiers.
func NewRegistry(ctx context.Context, cfg *config.Config) (*Registry, error) {
	r := &Registry{
		cfg:     cfg,
		clients: make(map[config.ProviderType]Client),
	}
	for _, mc := range []config.ModelConfig{cfg.Frontier, cfg.Lightweight} {
		if _, ok := r.clients[mc.Provider]; ok {
			continue
		}
		client, err := newClient(ctx, cfg, mc.Provider)
		if err != nil {
			return nil, err
		}
		r.clients[mc.Provider] = client
		slog.Info("LLM provider initialized", "provider", mc.Provider)
	}
	return r, nil
}

func newClient(ctx context.Context, cfg *config.Config, provider config.ProviderType) (Client, error) {
	switch provider {
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.OpenAIAPIKey)
	case config.ProviderAnthropic:
		return NewAnthropicClient(cfg.AnthropicAPIKey)
	case config.ProviderGoogle:
		return NewGoogleClient(ctx, cfg.GoogleAPIKey)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", provider)
	}
}

// ClientFor returns the client and model name assigned to a prompt.
// Prompts without an explicit assignment use the lightweight tier.
func (r *Registry) ClientFor(prompt string) (Client, string, error) {
	mc := r.cfg.ModelFor(prompt)
	client, ok := r.clients[mc.Provider]
	if !ok {
		return nil, "", fmt.Errorf("no client for provider %s", mc.Provider)
	}
	return client, mc.Model, nil
}

// Frontier returns the client and model for the frontier tier.
func (r *Registry) Frontier() (Client, string, error) {
	client, ok := r.clients[r.cfg.Frontier.Provider]
	if !ok {
		return nil, "", fmt.Errorf("no client for provider %s", r.cfg.Frontier.Provider)
	}
	return client, r.cfg.Frontier.Model, nil
}
