package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hoanghai1803/herald/internal/config"
	"github.com/hoanghai1803/herald/internal/models"
)

// Compile-time interface check.
var _ Provider = (*GitHubModelsProvider)(nil)

// GitHubModelsProvider is the preferred summarization tier. It talks to
// the GitHub Models chat-completions endpoint, which speaks the
// OpenAI-compatible dialect but requires its own auth header and API
// version header.
type GitHubModelsProvider struct {
	token  string
	model  string
	apiURL string
	client *http.Client
}

// NewGitHubModelsProvider creates a GitHubModelsProvider with a bounded
// per-request timeout from configuration.
func NewGitHubModelsProvider(cfg config.AIConfig) *GitHubModelsProvider {
	return &GitHubModelsProvider{
		token:  cfg.GitHubToken,
		model:  cfg.GitHubModel,
		apiURL: cfg.GitHubAPIURL,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// Name identifies this provider in results and logs.
func (p *GitHubModelsProvider) Name() string { return ProviderGitHubModels }

// chatRequest is the request body for the chat-completions endpoint.
type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

// chatMessage is a single message in the chat request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the response body from the chat-completions endpoint.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Summarize produces a bulleted summary of the entry via GitHub Models.
func (p *GitHubModelsProvider) Summarize(ctx context.Context, entry models.Entry) (string, error) {
	systemPrompt, userPrompt := SummaryPrompt(entry)

	text, err := p.callAPI(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", fmt.Errorf("github models summarize: %w", err)
	}

	bullets, ok := clampBullets(text)
	if !ok {
		return "", fmt.Errorf("github models summarize: empty completion")
	}
	return bullets, nil
}

// ThreadTitle produces a short thread title for the entry via GitHub
// Models.
func (p *GitHubModelsProvider) ThreadTitle(ctx context.Context, entry models.Entry) (string, error) {
	systemPrompt, userPrompt := TitlePrompt(entry)

	text, err := p.callAPI(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", fmt.Errorf("github models title: %w", err)
	}

	title := CleanTitle(text)
	if title == "" {
		return "", fmt.Errorf("github models title: empty completion")
	}
	return title, nil
}

// callAPI makes an HTTP request to the GitHub Models endpoint and returns
// the text content of the first choice.
func (p *GitHubModelsProvider) callAPI(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := chatRequest{
		Model:       p.model,
		Temperature: 0.2,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Api-Version", "2024-07-01")

	slog.Debug("calling GitHub Models API", "model", p.model)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("parsing response (status %d): %w", resp.StatusCode, err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, apiResp.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("empty response: no choices returned")
	}

	return apiResp.Choices[0].Message.Content, nil
}
