package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hoanghai1803/herald/internal/ai"
	"github.com/hoanghai1803/herald/internal/config"
	"github.com/hoanghai1803/herald/internal/discord"
	"github.com/hoanghai1803/herald/internal/feeds"
	"github.com/hoanghai1803/herald/internal/models"
	"github.com/hoanghai1803/herald/internal/state"
	"github.com/hoanghai1803/herald/internal/storage"
)

// thinBodyChars is the body length below which the runner tries to fetch
// the full article text before summarization (when enabled).
const thinBodyChars = 280

// FeedSource fetches the configured feeds into raw entries.
type FeedSource interface {
	FetchAll(ctx context.Context, urls []string) *feeds.FetchResult
}

// Extractor fetches the full readable text behind an entry link.
type Extractor interface {
	ExtractArticle(articleURL string) (string, error)
}

// Summarizer is the text-producing chain: both calls always yield a
// result, degrading through fallback tiers internally.
type Summarizer interface {
	Summarize(ctx context.Context, entry models.Entry) models.SummaryResult
	ThreadTitle(ctx context.Context, entry models.Entry) models.TitleResult
}

// Deliverer sends one batch of embeds to the destination.
type Deliverer interface {
	Send(ctx context.Context, embeds []discord.Embed, threadID, threadName string) error
}

// Stats summarizes one run for logging. Delivery failures are not run
// failures: the affected entries stay unseen and the next scheduled run
// retries them.
type Stats struct {
	Fetched     int
	Matched     int
	Selected    int
	Delivered   int
	FailedUnits int
}

// Runner sequences one pipeline run: fetch, filter, dedup, batch,
// summarize, deliver, commit.
type Runner struct {
	cfg       *config.Config
	source    FeedSource
	extractor Extractor
	filter    *feeds.TagFilter
	seen      *state.SeenStore
	chain     Summarizer
	deliverer Deliverer
	archive   *storage.Archive // nil when the archive is disabled
}

// NewRunner wires a Runner from its collaborators. extractor and archive
// may be nil.
func NewRunner(cfg *config.Config, source FeedSource, extractor Extractor, seen *state.SeenStore, chain Summarizer, deliverer Deliverer, archive *storage.Archive) *Runner {
	return &Runner{
		cfg:       cfg,
		source:    source,
		extractor: extractor,
		filter:    feeds.NewTagFilter(cfg.Feed.Tag),
		seen:      seen,
		chain:     chain,
		deliverer: deliverer,
		archive:   archive,
	}
}

// preparedEntry pairs an entry with its summarization outcome so the auto
// fallback can re-send without re-summarizing.
type preparedEntry struct {
	entry   models.Entry
	summary models.SummaryResult
}

// Run executes the pipeline once. Every external failure short of a
// configuration error is absorbed: fetch failures empty the candidate
// set, provider failures degrade the text, and delivery failures leave
// the affected entries unseen for the next run.
func (r *Runner) Run(ctx context.Context) Stats {
	var stats Stats

	result := r.source.FetchAll(ctx, r.cfg.Feed.URLs)
	stats.Fetched = len(result.Entries)
	if len(result.Entries) == 0 {
		slog.Info("no feed entries fetched, nothing to do")
		return stats
	}

	var candidates []models.Entry
	for _, e := range result.Entries {
		if e.ID == "" || !r.filter.Matches(e) {
			continue
		}
		stats.Matched++
		if r.seen.IsSeen(e.ID) {
			continue
		}
		candidates = append(candidates, e)
	}

	batch := SelectBatch(candidates, r.cfg.Feed.MaxItemsPerRun)
	stats.Selected = len(batch)
	if len(batch) == 0 {
		slog.Info("no new tagged entries", "matched", stats.Matched, "seen", r.seen.Len())
		return stats
	}

	mode := ResolveMode(r.cfg.Discord)
	slog.Info("delivering entries",
		"selected", len(batch),
		"pending", len(candidates)-len(batch),
		"mode", mode.String(),
	)

	r.enrichBodies(batch)

	for _, unit := range Partition(batch, mode, r.cfg.Discord) {
		prepared := r.prepare(ctx, unit.Entries)

		if mode.NeedsDerivedTitle() {
			title := r.chain.ThreadTitle(ctx, unit.Entries[0])
			if title.Degraded {
				slog.Debug("thread title degraded", "produced_by", title.ProducedBy)
			}
			unit.ThreadName = title.Text
		}

		err := r.deliverUnit(ctx, unit, prepared)
		if err == nil {
			stats.Delivered += len(unit.Entries)
			continue
		}

		if mode == ModeAuto && isGroupingFailure(err) {
			slog.Warn("single-unit delivery rejected by grouping, falling back to per-item", "error", err)
			delivered, failed := r.deliverIndividually(ctx, prepared)
			stats.Delivered += delivered
			stats.FailedUnits += failed
			continue
		}

		slog.Error("delivery failed, entries left for next run",
			"entries", len(unit.Entries),
			"error", err,
		)
		stats.FailedUnits++
	}

	return stats
}

// enrichBodies replaces thin entry bodies with the full article text when
// full-content fetching is enabled. Extraction failures keep the feed
// body.
func (r *Runner) enrichBodies(batch []models.Entry) {
	if !r.cfg.Feed.FetchFullContent || r.extractor == nil {
		return
	}
	for i := range batch {
		if len([]rune(ai.StripMarkup(batch[i].RawBody))) >= thinBodyChars {
			continue
		}
		text, err := r.extractor.ExtractArticle(batch[i].Link)
		if err != nil {
			slog.Warn("full-content extraction failed, using feed body",
				"link", batch[i].Link,
				"error", err,
			)
			continue
		}
		batch[i].RawBody = text
	}
}

// prepare summarizes each entry in the unit exactly once.
func (r *Runner) prepare(ctx context.Context, entries []models.Entry) []preparedEntry {
	prepared := make([]preparedEntry, 0, len(entries))
	for _, e := range entries {
		sum := r.chain.Summarize(ctx, e)
		if sum.Degraded {
			slog.Debug("summary degraded", "entry", e.ID, "produced_by", sum.ProducedBy)
		}
		prepared = append(prepared, preparedEntry{entry: e, summary: sum})
	}
	return prepared
}

// deliverUnit sends one unit and, on success, immediately commits its
// entry ids so a crash mid-run preserves partial progress.
func (r *Runner) deliverUnit(ctx context.Context, unit models.DeliveryUnit, prepared []preparedEntry) error {
	embeds := make([]discord.Embed, 0, len(prepared))
	for _, p := range prepared {
		embeds = append(embeds, discord.NewEmbed(p.entry, p.summary.Text))
	}

	if err := r.deliverer.Send(ctx, embeds, unit.ThreadID, unit.ThreadName); err != nil {
		return err
	}

	r.commit(ctx, prepared, unit.ThreadName)
	return nil
}

// deliverIndividually is the auto-mode fallback: one untitled unit per
// entry. Entries whose send fails stay uncommitted.
func (r *Runner) deliverIndividually(ctx context.Context, prepared []preparedEntry) (delivered, failed int) {
	for _, p := range prepared {
		unit := models.DeliveryUnit{Entries: []models.Entry{p.entry}}
		if err := r.deliverUnit(ctx, unit, []preparedEntry{p}); err != nil {
			slog.Error("per-item delivery failed, entry left for next run",
				"entry", p.entry.ID,
				"error", err,
			)
			failed++
			continue
		}
		delivered++
	}
	return delivered, failed
}

// commit marks the unit's entries as seen and archives them. Persistence
// failures are logged, never propagated: the delivery already happened,
// and the worst outcome of a lost commit is a re-delivery next run.
func (r *Runner) commit(ctx context.Context, prepared []preparedEntry, threadName string) {
	if r.cfg.DryRun {
		return
	}

	now := time.Now().UTC()

	ids := make([]string, 0, len(prepared))
	for _, p := range prepared {
		ids = append(ids, p.entry.ID)
	}
	if err := r.seen.Commit(ids, now); err != nil {
		slog.Error("could not persist seen state, next run may re-deliver", "error", err)
	}

	if r.archive == nil {
		return
	}
	for _, p := range prepared {
		rec := &models.DeliveryRecord{
			EntryID:    p.entry.ID,
			Title:      p.entry.Title,
			Link:       p.entry.Link,
			Summary:    p.summary.Text,
			Provider:   p.summary.ProducedBy,
			ThreadName: threadName,
			PostedAt:   now,
		}
		if err := r.archive.RecordDelivery(ctx, rec); err != nil {
			slog.Warn("could not archive delivery", "entry", p.entry.ID, "error", err)
		}
	}
}

// isGroupingFailure reports whether a delivery error is attributable to
// the grouping itself (the destination demands thread routing) rather
// than a transient transport problem.
func isGroupingFailure(err error) bool {
	var sendErr *discord.SendError
	return errors.As(err, &sendErr) && sendErr.ThreadRequired()
}
