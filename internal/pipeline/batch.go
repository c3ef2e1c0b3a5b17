package pipeline

import (
	"sort"

	"github.com/hoanghai1803/herald/internal/config"
	"github.com/hoanghai1803/herald/internal/models"
)

// SelectBatch picks the run's working set from the filtered, not-yet-seen
// candidates: duplicates (same id) collapse to their first occurrence, the
// rest are ordered oldest-published-first with ties broken by id for
// determinism, and at most max entries are kept. Entries beyond the cap
// are left untouched for a future run.
func SelectBatch(candidates []models.Entry, max int) []models.Entry {
	seen := make(map[string]bool, len(candidates))
	batch := make([]models.Entry, 0, len(candidates))
	for _, e := range candidates {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		batch = append(batch, e)
	}

	sort.Slice(batch, func(i, j int) bool {
		if !batch[i].PublishedAt.Equal(batch[j].PublishedAt) {
			return batch[i].PublishedAt.Before(batch[j].PublishedAt)
		}
		return batch[i].ID < batch[j].ID
	})

	if len(batch) > max {
		batch = batch[:max]
	}
	return batch
}

// Partition splits the batch into delivery units according to the
// resolved mode. Units never overlap and preserve the batch order.
// Derived thread names for the title-bearing modes are filled in later by
// the runner; explicit thread routing is applied here.
func Partition(batch []models.Entry, mode Mode, cfg config.DiscordConfig) []models.DeliveryUnit {
	if len(batch) == 0 {
		return nil
	}

	switch mode {
	case ModeFixedThread:
		return []models.DeliveryUnit{{Entries: batch, ThreadID: cfg.ThreadID}}
	case ModeNamedThread:
		return []models.DeliveryUnit{{Entries: batch, ThreadName: cfg.ThreadName}}
	case ModePerItem:
		units := make([]models.DeliveryUnit, 0, len(batch))
		for _, e := range batch {
			units = append(units, models.DeliveryUnit{Entries: []models.Entry{e}})
		}
		return units
	default: // ModeAuto, ModeSingle, ModeOff
		return []models.DeliveryUnit{{Entries: batch}}
	}
}
