// Command herald runs one pass of the changelog-to-Discord pipeline:
// fetch the configured feeds, pick tagged entries that have not been
// delivered yet, summarize them, and post them to the webhook. Scheduling
// is external; run it from cron or a workflow.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/hoanghai1803/herald/internal/ai"
	"github.com/hoanghai1803/herald/internal/config"
	"github.com/hoanghai1803/herald/internal/discord"
	"github.com/hoanghai1803/herald/internal/feeds"
	"github.com/hoanghai1803/herald/internal/pipeline"
	"github.com/hoanghai1803/herald/internal/state"
	"github.com/hoanghai1803/herald/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	force := flag.Bool("force", false, "re-broadcast regardless of seen state, without recording")
	dryRun := flag.Bool("dry-run", false, "log payloads instead of posting to the webhook")
	flag.Parse()

	// A .env file in the working directory supplies env overrides, which
	// is how deployments typically carry the webhook URL and AI tokens.
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	// Load configuration (auto-creates default if missing). A config
	// error is the only fatal outcome; everything past this point
	// degrades instead of failing.
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *force {
		cfg.Force = true
	}
	if *dryRun {
		cfg.DryRun = true
	}

	// Seen store: corrupt or missing state never blocks a run.
	seen := state.Open(cfg.State.Path, cfg.Force)

	// Optional delivery archive.
	var archive *storage.Archive
	if cfg.State.ArchivePath != "" {
		db, err := storage.OpenDatabase(cfg.State.ArchivePath)
		if err != nil {
			slog.Warn("could not open delivery archive, continuing without it", "error", err)
		} else if err := storage.RunMigrations(db); err != nil {
			slog.Warn("could not migrate delivery archive, continuing without it", "error", err)
			db.Close()
		} else {
			archive = storage.NewArchive(db)
			defer archive.Close()
		}
	}

	fetcher := feeds.NewFetcher()
	chain := ai.NewChain(cfg.AI)
	webhook := discord.NewClient(cfg.Discord.WebhookURL, 20*time.Second, cfg.DryRun)

	runner := pipeline.NewRunner(cfg, fetcher, fetcher, seen, chain, webhook, archive)

	stats := runner.Run(context.Background())
	slog.Info("run complete",
		"fetched", stats.Fetched,
		"matched", stats.Matched,
		"selected", stats.Selected,
		"delivered", stats.Delivered,
		"failed_units", stats.FailedUnits,
	)
}
