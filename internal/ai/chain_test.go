package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/hoanghai1803/herald/internal/config"
	"github.com/hoanghai1803/herald/internal/models"
)

// fakeProvider is a scriptable Provider for chain tests.
type fakeProvider struct {
	name     string
	summary  string
	title    string
	err      error
	calls    int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Summarize(ctx context.Context, entry models.Entry) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

func (f *fakeProvider) ThreadTitle(ctx context.Context, entry models.Entry) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.title, nil
}

func TestNewChain_ProviderSelection(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.AIConfig
		want int
	}{
		{"no credentials", config.AIConfig{TimeoutSeconds: 20}, 0},
		{"github only", config.AIConfig{GitHubToken: "t", TimeoutSeconds: 20}, 1},
		{"openai only", config.AIConfig{OpenAIAPIKey: "k", TimeoutSeconds: 20}, 1},
		{"both tiers", config.AIConfig{GitHubToken: "t", OpenAIAPIKey: "k", TimeoutSeconds: 20}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := NewChain(tt.cfg)
			if got := len(chain.providers); got != tt.want {
				t.Errorf("chain has %d providers, want %d", got, tt.want)
			}
		})
	}
}

func TestNewChain_PreferredTierFirst(t *testing.T) {
	chain := NewChain(config.AIConfig{GitHubToken: "t", OpenAIAPIKey: "k", TimeoutSeconds: 20})
	if len(chain.providers) != 2 {
		t.Fatalf("chain has %d providers, want 2", len(chain.providers))
	}
	if chain.providers[0].Name() != ProviderGitHubModels {
		t.Errorf("first tier = %q, want %q", chain.providers[0].Name(), ProviderGitHubModels)
	}
	if chain.providers[1].Name() != ProviderOpenAI {
		t.Errorf("second tier = %q, want %q", chain.providers[1].Name(), ProviderOpenAI)
	}
}

func TestChain_Summarize_PreferredSucceeds(t *testing.T) {
	preferred := &fakeProvider{name: ProviderGitHubModels, summary: "- bullet"}
	secondary := &fakeProvider{name: ProviderOpenAI, summary: "- other"}
	chain := &Chain{providers: []Provider{preferred, secondary}}

	got := chain.Summarize(context.Background(), models.Entry{ID: "e1"})
	if got.Text != "- bullet" {
		t.Errorf("Text = %q, want preferred output", got.Text)
	}
	if got.ProducedBy != ProviderGitHubModels {
		t.Errorf("ProducedBy = %q, want %q", got.ProducedBy, ProviderGitHubModels)
	}
	if got.Degraded {
		t.Error("Degraded = true for a preferred-tier result")
	}
	if secondary.calls != 0 {
		t.Error("secondary tier was called although the preferred tier succeeded")
	}
}

func TestChain_Summarize_FallsBackToSecondary(t *testing.T) {
	preferred := &fakeProvider{name: ProviderGitHubModels, err: errors.New("timeout")}
	secondary := &fakeProvider{name: ProviderOpenAI, summary: "- other"}
	chain := &Chain{providers: []Provider{preferred, secondary}}

	got := chain.Summarize(context.Background(), models.Entry{ID: "e1"})
	if got.Text != "- other" {
		t.Errorf("Text = %q, want secondary output", got.Text)
	}
	if got.ProducedBy != ProviderOpenAI {
		t.Errorf("ProducedBy = %q, want %q", got.ProducedBy, ProviderOpenAI)
	}
	if !got.Degraded {
		t.Error("Degraded = false although the preferred tier failed")
	}
}

func TestChain_Summarize_BasicFallbackAlwaysSucceeds(t *testing.T) {
	tests := []struct {
		name  string
		chain *Chain
	}{
		{"empty chain", &Chain{}},
		{"all tiers fail", &Chain{providers: []Provider{
			&fakeProvider{name: ProviderGitHubModels, err: errors.New("500")},
			&fakeProvider{name: ProviderOpenAI, err: errors.New("503")},
		}}},
	}

	entry := models.Entry{ID: "e1", RawBody: "<p>Copilot shipped a thing.</p>"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.chain.Summarize(context.Background(), entry)
			if got.Text != "Copilot shipped a thing." {
				t.Errorf("Text = %q, want the basic fallback", got.Text)
			}
			if got.ProducedBy != ProviderBasic {
				t.Errorf("ProducedBy = %q, want %q", got.ProducedBy, ProviderBasic)
			}
			if !got.Degraded {
				t.Error("Degraded = false for a basic-fallback result")
			}
		})
	}
}

func TestChain_ThreadTitle_FallsBackToEntryTitle(t *testing.T) {
	chain := &Chain{providers: []Provider{
		&fakeProvider{name: ProviderGitHubModels, err: errors.New("down")},
	}}

	entry := models.Entry{ID: "e1", Title: "Copilot autofix ships", RawBody: "body"}
	got := chain.ThreadTitle(context.Background(), entry)
	if got.Text != "Copilot autofix ships" {
		t.Errorf("Text = %q, want the sanitized entry title", got.Text)
	}
	if got.ProducedBy != ProviderEntryTitle {
		t.Errorf("ProducedBy = %q, want %q", got.ProducedBy, ProviderEntryTitle)
	}
	if !got.Degraded {
		t.Error("Degraded = false for the local fallback")
	}
}

func TestChain_ThreadTitle_ProviderOrder(t *testing.T) {
	preferred := &fakeProvider{name: ProviderGitHubModels, title: "From preferred"}
	secondary := &fakeProvider{name: ProviderOpenAI, title: "From secondary"}
	chain := &Chain{providers: []Provider{preferred, secondary}}

	got := chain.ThreadTitle(context.Background(), models.Entry{ID: "e1"})
	if got.Text != "From preferred" || got.Degraded {
		t.Errorf("got %+v, want an undegraded preferred-tier title", got)
	}
}
