package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hoanghai1803/herald/internal/models"
)

func statePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "seen.json")
}

func TestOpen_MissingFileIsEmpty(t *testing.T) {
	s := Open(statePath(t), false)
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0 for a missing file", s.Len())
	}
	if s.IsSeen("anything") {
		t.Error("IsSeen() = true on an empty store")
	}
}

func TestOpen_CorruptFileIsEmpty(t *testing.T) {
	path := statePath(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	s := Open(path, false)
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0 for a corrupt file", s.Len())
	}

	// The store must stay usable: a later commit replaces the bad file.
	if err := s.Commit([]string{"a"}, time.Now()); err != nil {
		t.Fatalf("Commit() after corrupt load: %v", err)
	}
	if !Open(path, false).IsSeen("a") {
		t.Error("commit after corrupt load did not persist")
	}
}

func TestOpen_LegacyListFormat(t *testing.T) {
	path := statePath(t)
	if err := os.WriteFile(path, []byte(`["id-1", "id-2"]`), 0o644); err != nil {
		t.Fatalf("writing legacy file: %v", err)
	}

	s := Open(path, false)
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 from legacy list", s.Len())
	}
	if !s.IsSeen("id-1") || !s.IsSeen("id-2") {
		t.Error("legacy ids not visible through IsSeen")
	}
}

func TestCommit_PersistsAndMerges(t *testing.T) {
	path := statePath(t)
	postedAt := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	s := Open(path, false)
	if err := s.Commit([]string{"a", "b"}, postedAt); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if err := s.Commit([]string{"c"}, postedAt.Add(time.Hour)); err != nil {
		t.Fatalf("second Commit() error: %v", err)
	}

	reopened := Open(path, false)
	for _, id := range []string{"a", "b", "c"} {
		if !reopened.IsSeen(id) {
			t.Errorf("IsSeen(%q) = false after reopen", id)
		}
	}

	// The file is the documented mapping form with timestamps.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading state file: %v", err)
	}
	var records map[string]models.SeenRecord
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("state file is not a JSON mapping: %v", err)
	}
	if !records["a"].PostedAt.Equal(postedAt) {
		t.Errorf("records[a].PostedAt = %v, want %v", records["a"].PostedAt, postedAt)
	}
}

func TestCommit_LeavesNoTempFiles(t *testing.T) {
	path := statePath(t)
	s := Open(path, false)
	if err := s.Commit([]string{"a"}, time.Now()); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("reading state dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "seen.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("state dir contents = %v, want only seen.json", names)
	}
}

func TestForceMode(t *testing.T) {
	path := statePath(t)

	// Seed the store with a delivered id.
	if err := Open(path, false).Commit([]string{"a"}, time.Now()); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	forced := Open(path, true)
	if forced.IsSeen("a") {
		t.Error("IsSeen() = true in force mode")
	}
	if err := forced.Commit([]string{"b"}, time.Now()); err != nil {
		t.Fatalf("Commit() in force mode: %v", err)
	}

	// Force-mode commits must not mutate history.
	normal := Open(path, false)
	if normal.IsSeen("b") {
		t.Error("force-mode commit mutated the state file")
	}
	if !normal.IsSeen("a") {
		t.Error("force-mode run damaged existing state")
	}
}

func TestCommit_EmptyIdsIsNoop(t *testing.T) {
	path := statePath(t)
	s := Open(path, false)
	if err := s.Commit(nil, time.Now()); err != nil {
		t.Fatalf("Commit(nil) error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("empty commit should not create the state file")
	}
}
