package ai

import (
	"context"
	"log/slog"

	"github.com/hoanghai1803/herald/internal/config"
	"github.com/hoanghai1803/herald/internal/models"
)

// Provider names, recorded in results so operators can see which tier
// produced a given summary or title.
const (
	ProviderGitHubModels = "github-models"
	ProviderOpenAI       = "openai"
	ProviderBasic        = "basic"
	ProviderEntryTitle   = "entry-title"
)

// Provider is a single summarization tier. Implementations must be
// self-contained: a failed or timed-out call returns an error and must not
// affect later tiers.
type Provider interface {
	// Name identifies the provider in results and logs.
	Name() string

	// Summarize produces a short bulleted summary of the entry.
	Summarize(ctx context.Context, entry models.Entry) (string, error)

	// ThreadTitle produces a short thread title for the entry.
	ThreadTitle(ctx context.Context, entry models.Entry) (string, error)
}

// Chain tries providers in order and falls back to deterministic local
// strategies, so it always yields exactly one result. Provider errors are
// absorbed here; they are logged and never propagate to the caller.
type Chain struct {
	providers []Provider
}

// NewChain builds the provider chain from configuration: GitHub Models
// first when its token is set, then OpenAI when its key is set. An empty
// chain is valid; every result then comes from the basic fallback.
func NewChain(cfg config.AIConfig) *Chain {
	var providers []Provider
	if cfg.GitHubToken != "" {
		providers = append(providers, NewGitHubModelsProvider(cfg))
	}
	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, NewOpenAIProvider(cfg))
	}
	return &Chain{providers: providers}
}

// Summarize returns a summary for the entry, falling back through the
// configured tiers to the markup-stripped basic summary, which always
// succeeds. Degraded is true whenever the preferred tier did not produce
// the text.
func (c *Chain) Summarize(ctx context.Context, entry models.Entry) models.SummaryResult {
	for _, p := range c.providers {
		text, err := p.Summarize(ctx, entry)
		if err != nil {
			slog.Warn("summary provider failed",
				"provider", p.Name(),
				"entry", entry.ID,
				"error", err,
			)
			continue
		}
		return models.SummaryResult{
			Text:       text,
			ProducedBy: p.Name(),
			Degraded:   p.Name() != ProviderGitHubModels,
		}
	}

	return models.SummaryResult{
		Text:       BasicSummary(entry, maxSummaryLen),
		ProducedBy: ProviderBasic,
		Degraded:   true,
	}
}

// ThreadTitle returns a thread title for the entry. After the provider
// tiers it falls back to the entry's own sanitized title, then to a prefix
// of the basic summary, and finally to a fixed title, so it always
// succeeds.
func (c *Chain) ThreadTitle(ctx context.Context, entry models.Entry) models.TitleResult {
	for _, p := range c.providers {
		text, err := p.ThreadTitle(ctx, entry)
		if err != nil {
			slog.Warn("title provider failed",
				"provider", p.Name(),
				"entry", entry.ID,
				"error", err,
			)
			continue
		}
		return models.TitleResult{
			Text:       text,
			ProducedBy: p.Name(),
			Degraded:   p.Name() != ProviderGitHubModels,
		}
	}

	return models.TitleResult{
		Text:       FallbackTitle(entry),
		ProducedBy: ProviderEntryTitle,
		Degraded:   true,
	}
}
