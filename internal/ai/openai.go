package ai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hoanghai1803/herald/internal/config"
	"github.com/hoanghai1803/herald/internal/models"
)

// Compile-time interface check.
var _ Provider = (*OpenAIProvider)(nil)

// OpenAIProvider is the secondary summarization tier, attempted when
// GitHub Models is unconfigured or failed.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates an OpenAIProvider with a bounded per-request
// timeout from configuration.
func NewOpenAIProvider(cfg config.AIConfig) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	clientCfg.HTTPClient = &http.Client{
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.OpenAIModel,
	}
}

// Name identifies this provider in results and logs.
func (p *OpenAIProvider) Name() string { return ProviderOpenAI }

// Summarize produces a bulleted summary of the entry via the OpenAI Chat
// Completions API.
func (p *OpenAIProvider) Summarize(ctx context.Context, entry models.Entry) (string, error) {
	systemPrompt, userPrompt := SummaryPrompt(entry)

	text, err := p.complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", fmt.Errorf("openai summarize: %w", err)
	}

	bullets, ok := clampBullets(text)
	if !ok {
		return "", fmt.Errorf("openai summarize: empty completion")
	}
	return bullets, nil
}

// ThreadTitle produces a short thread title for the entry via the OpenAI
// Chat Completions API.
func (p *OpenAIProvider) ThreadTitle(ctx context.Context, entry models.Entry) (string, error) {
	systemPrompt, userPrompt := TitlePrompt(entry)

	text, err := p.complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", fmt.Errorf("openai title: %w", err)
	}

	title := CleanTitle(text)
	if title == "" {
		return "", fmt.Errorf("openai title: empty completion")
	}
	return title, nil
}

// complete runs one chat completion and returns the first choice's text.
func (p *OpenAIProvider) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	slog.Debug("calling OpenAI API", "model", p.model)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response: no choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}
