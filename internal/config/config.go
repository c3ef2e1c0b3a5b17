package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all pipeline configuration. It is constructed once at run
// start and passed explicitly to every component; nothing reads ambient
// globals after Load returns.
type Config struct {
	Discord DiscordConfig `toml:"discord"`
	Feed    FeedConfig    `toml:"feed"`
	AI      AIConfig      `toml:"ai"`
	State   StateConfig   `toml:"state"`

	// Force bypasses the seen store: nothing is treated as already
	// delivered and nothing is recorded. Set via flag or FORCE_POST.
	Force bool `toml:"-"`
	// DryRun logs payloads instead of calling the webhook.
	DryRun bool `toml:"-"`
}

// DiscordConfig holds webhook destination settings.
type DiscordConfig struct {
	WebhookURL string `toml:"webhook_url"`
	ThreadID   string `toml:"thread_id"`
	ThreadName string `toml:"thread_name"`
	// ForumMode is one of "auto", "per-item", "single", "off". It only
	// applies when neither ThreadID nor ThreadName is set.
	ForumMode string `toml:"forum_mode"`
}

// FeedConfig holds changelog feed settings.
type FeedConfig struct {
	URLs             []string `toml:"urls"`
	Tag              string   `toml:"tag"`
	MaxItemsPerRun   int      `toml:"max_items_per_run"`
	FetchFullContent bool     `toml:"fetch_full_content"`
}

// AIConfig holds summarization provider settings. Either provider is
// enabled only when its credential is non-empty.
type AIConfig struct {
	GitHubToken  string `toml:"github_token"`
	GitHubModel  string `toml:"github_model"`
	GitHubAPIURL string `toml:"github_api_url"`

	OpenAIAPIKey string `toml:"openai_api_key"`
	OpenAIModel  string `toml:"openai_model"`

	TimeoutSeconds int `toml:"timeout_seconds"`
}

// StateConfig holds persistence settings.
type StateConfig struct {
	// Path is the seen-file location: a JSON mapping of delivered entry
	// ids. Missing or corrupt content is treated as empty.
	Path string `toml:"path"`
	// ArchivePath, when non-empty, enables the SQLite delivery archive.
	ArchivePath string `toml:"archive_path"`
}

const defaultConfigContent = `[discord]
webhook_url = ""                  # Required (or set DISCORD_WEBHOOK_URL env var)
thread_id = ""                    # Existing forum thread to post into (optional)
thread_name = ""                  # Forum thread to create (optional)
forum_mode = "auto"               # "auto", "per-item", "single", or "off"

[feed]
urls = ["https://github.blog/changelog/feed/"]
tag = "copilot"
max_items_per_run = 5
fetch_full_content = false

[ai]
github_token = ""                 # GitHub Models token (or GITHUB_TOKEN env var)
github_model = "openai/gpt-5-mini"
openai_api_key = ""               # OpenAI fallback key (or OPENAI_API_KEY env var)
openai_model = "gpt-4o-mini"
timeout_seconds = 20

[state]
path = "seen.json"
archive_path = ""                 # Optional SQLite delivery archive
`

// ForumModes lists the accepted values for discord.forum_mode.
var ForumModes = []string{"auto", "per-item", "single", "off"}

// Load reads and parses the TOML config from the given path. If the file
// does not exist, it creates a default config file at that path.
// Environment variables override values from the file with highest
// priority.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
		slog.Info("created default config file", "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// createDefault writes the default config content to the given path,
// creating any parent directories as needed.
func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// applyDefaults sets default values for any zero-valued fields.
func applyDefaults(cfg *Config) {
	if cfg.Discord.ForumMode == "" {
		cfg.Discord.ForumMode = "auto"
	}
	if len(cfg.Feed.URLs) == 0 {
		cfg.Feed.URLs = []string{"https://github.blog/changelog/feed/"}
	}
	if cfg.Feed.Tag == "" {
		cfg.Feed.Tag = "copilot"
	}
	if cfg.Feed.MaxItemsPerRun == 0 {
		cfg.Feed.MaxItemsPerRun = 5
	}
	if cfg.AI.GitHubModel == "" {
		cfg.AI.GitHubModel = "openai/gpt-5-mini"
	}
	if cfg.AI.GitHubAPIURL == "" {
		cfg.AI.GitHubAPIURL = "https://api.githubcopilot.com/v1/chat/completions"
	}
	if cfg.AI.OpenAIModel == "" {
		cfg.AI.OpenAIModel = "gpt-4o-mini"
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 20
	}
	if cfg.State.Path == "" {
		cfg.State.Path = "seen.json"
	}
}

// applyEnvOverrides applies environment variable overrides. Environment
// variables take highest priority over config file values.
//
// Priority for ai.github_token:
//  1. GITHUB_MODELS_TOKEN (specific, highest)
//  2. GITHUB_TOKEN
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Discord.WebhookURL = v
	}
	if v := os.Getenv("DISCORD_THREAD_ID"); v != "" {
		cfg.Discord.ThreadID = v
	}
	if v := os.Getenv("DISCORD_THREAD_NAME"); v != "" {
		cfg.Discord.ThreadName = v
	}
	if v := os.Getenv("DISCORD_FORUM_MODE"); v != "" {
		cfg.Discord.ForumMode = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.AI.GitHubToken = v
	}
	if v := os.Getenv("GITHUB_MODELS_TOKEN"); v != "" {
		cfg.AI.GitHubToken = v
	}
	if v := os.Getenv("GITHUB_MODELS_MODEL"); v != "" {
		cfg.AI.GitHubModel = v
	}
	if v := os.Getenv("GITHUB_MODELS_API_URL"); v != "" {
		cfg.AI.GitHubAPIURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.AI.OpenAIAPIKey = v
	}

	if v := os.Getenv("SUMMARY_HTTP_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.AI.TimeoutSeconds = secs
		} else {
			slog.Warn("ignoring invalid SUMMARY_HTTP_TIMEOUT", "value", v)
		}
	}

	if envBool("FORCE_POST") {
		cfg.Force = true
	}
	if envBool("DRY_RUN") {
		cfg.DryRun = true
	}
}

// envBool reports whether the named environment variable is set to a
// truthy value. Empty, "0", and "false" (any case) are falsy.
func envBool(name string) bool {
	v := strings.TrimSpace(os.Getenv(name))
	switch strings.ToLower(v) {
	case "", "0", "false":
		return false
	}
	return true
}

// validate checks that configuration values are within acceptable ranges.
// A missing webhook URL is the one fatal configuration error: without a
// destination there is nothing the pipeline can do.
func validate(cfg *Config) error {
	if cfg.Discord.WebhookURL == "" {
		return fmt.Errorf("discord.webhook_url is required: set it in the config file or via DISCORD_WEBHOOK_URL environment variable")
	}

	valid := false
	for _, m := range ForumModes {
		if cfg.Discord.ForumMode == m {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid discord.forum_mode %q: must be one of %s", cfg.Discord.ForumMode, strings.Join(ForumModes, ", "))
	}

	if cfg.Feed.MaxItemsPerRun < 1 {
		return fmt.Errorf("invalid feed.max_items_per_run %d: must be >= 1", cfg.Feed.MaxItemsPerRun)
	}

	if cfg.AI.GitHubToken == "" && cfg.AI.OpenAIAPIKey == "" {
		slog.Warn("no AI credentials configured, summaries will use the basic fallback")
	}

	return nil
}
