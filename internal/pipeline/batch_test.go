package pipeline

import (
	"testing"
	"time"

	"github.com/hoanghai1803/herald/internal/config"
	"github.com/hoanghai1803/herald/internal/models"
)

func entryAt(id string, t time.Time) models.Entry {
	return models.Entry{ID: id, Title: "Entry " + id, Link: "https://example.com/" + id, PublishedAt: t}
}

func TestSelectBatch_CapsOldestFirst(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	// Seven candidates, newest first in the input, cap of five.
	var candidates []models.Entry
	for i := 6; i >= 0; i-- {
		candidates = append(candidates, entryAt(string(rune('a'+i)), base.Add(time.Duration(i)*time.Hour)))
	}

	batch := SelectBatch(candidates, 5)
	if len(batch) != 5 {
		t.Fatalf("len(batch) = %d, want 5", len(batch))
	}

	// The five oldest, in oldest-to-newest order.
	want := []string{"a", "b", "c", "d", "e"}
	for i, id := range want {
		if batch[i].ID != id {
			t.Errorf("batch[%d].ID = %q, want %q", i, batch[i].ID, id)
		}
	}
}

func TestSelectBatch_TieBrokenByID(t *testing.T) {
	ts := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	candidates := []models.Entry{entryAt("b", ts), entryAt("a", ts), entryAt("c", ts)}

	batch := SelectBatch(candidates, 10)
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if batch[i].ID != id {
			t.Errorf("batch[%d].ID = %q, want %q", i, batch[i].ID, id)
		}
	}
}

func TestSelectBatch_CollapsesDuplicateIDs(t *testing.T) {
	ts := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	candidates := []models.Entry{entryAt("a", ts), entryAt("a", ts.Add(time.Hour))}

	batch := SelectBatch(candidates, 10)
	if len(batch) != 1 {
		t.Fatalf("len(batch) = %d, want 1 after dedup", len(batch))
	}
}

func TestSelectBatch_Empty(t *testing.T) {
	if batch := SelectBatch(nil, 5); len(batch) != 0 {
		t.Errorf("SelectBatch(nil) = %v, want empty", batch)
	}
}

func TestPartition(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	batch := []models.Entry{
		entryAt("a", base),
		entryAt("b", base.Add(time.Hour)),
		entryAt("c", base.Add(2*time.Hour)),
	}
	cfg := config.DiscordConfig{ThreadID: "999", ThreadName: "Weekly notes"}

	tests := []struct {
		name      string
		mode      Mode
		wantUnits int
	}{
		{"fixed thread is one unit", ModeFixedThread, 1},
		{"named thread is one unit", ModeNamedThread, 1},
		{"auto is one unit", ModeAuto, 1},
		{"single is one unit", ModeSingle, 1},
		{"off is one unit", ModeOff, 1},
		{"per-item is one unit per entry", ModePerItem, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units := Partition(batch, tt.mode, cfg)
			if len(units) != tt.wantUnits {
				t.Fatalf("len(units) = %d, want %d", len(units), tt.wantUnits)
			}

			// Units must cover the batch exactly, in order.
			var flat []models.Entry
			for _, u := range units {
				flat = append(flat, u.Entries...)
			}
			if len(flat) != len(batch) {
				t.Fatalf("units cover %d entries, want %d", len(flat), len(batch))
			}
			for i := range batch {
				if flat[i].ID != batch[i].ID {
					t.Errorf("entry %d = %q, want %q", i, flat[i].ID, batch[i].ID)
				}
			}
		})
	}
}

func TestPartition_ThreadRouting(t *testing.T) {
	batch := []models.Entry{entryAt("a", time.Now())}
	cfg := config.DiscordConfig{ThreadID: "999", ThreadName: "Weekly notes"}

	fixed := Partition(batch, ModeFixedThread, cfg)
	if fixed[0].ThreadID != "999" || fixed[0].ThreadName != "" {
		t.Errorf("fixed-thread unit = %+v, want thread id only", fixed[0])
	}

	named := Partition(batch, ModeNamedThread, cfg)
	if named[0].ThreadName != "Weekly notes" || named[0].ThreadID != "" {
		t.Errorf("named-thread unit = %+v, want thread name only", named[0])
	}

	off := Partition(batch, ModeOff, cfg)
	if off[0].ThreadID != "" || off[0].ThreadName != "" {
		t.Errorf("off unit = %+v, want no thread routing", off[0])
	}
}

func TestPartition_EmptyBatch(t *testing.T) {
	if units := Partition(nil, ModeAuto, config.DiscordConfig{}); units != nil {
		t.Errorf("Partition(nil) = %v, want nil", units)
	}
}
