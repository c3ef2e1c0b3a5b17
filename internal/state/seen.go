// Package state persists the set of entry ids that have already been
// delivered, so repeated runs against an unchanged feed deliver nothing.
//
// The on-disk format is a single JSON object mapping entry id to its
// delivery record. The file is the pipeline's only durable state; a
// missing or corrupt file is never fatal and simply reads as empty, at
// worst causing an already-delivered entry to be delivered again.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hoanghai1803/herald/internal/models"
)

// SeenStore is a file-backed record of delivered entry ids. It is loaded
// once per run and owned exclusively by that run; commits replace the file
// atomically so a reader never observes a partial write.
type SeenStore struct {
	path    string
	force   bool
	records map[string]models.SeenRecord
}

// Open loads the seen store at path. Missing, empty, or unparseable
// content yields an empty store with a warning; Open never fails the run.
//
// When force is true, the store reports every id as unseen and commits
// become no-ops, so a manual re-broadcast does not mutate history.
func Open(path string, force bool) *SeenStore {
	return &SeenStore{
		path:    path,
		force:   force,
		records: load(path),
	}
}

// load reads and parses the state file, tolerating every failure mode.
func load(path string) map[string]models.SeenRecord {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("could not read state file, starting fresh", "path", path, "error", err)
		}
		return map[string]models.SeenRecord{}
	}

	var records map[string]models.SeenRecord
	if err := json.Unmarshal(data, &records); err == nil && records != nil {
		return records
	}

	// Earlier versions stored a bare JSON array of ids. Accept it and
	// upgrade to the mapping form on the next commit.
	var legacy []string
	if err := json.Unmarshal(data, &legacy); err == nil {
		records = make(map[string]models.SeenRecord, len(legacy))
		for _, id := range legacy {
			records[id] = models.SeenRecord{}
		}
		slog.Info("loaded legacy state file format", "path", path, "ids", len(legacy))
		return records
	}

	slog.Warn("state file is corrupt, starting fresh", "path", path)
	return map[string]models.SeenRecord{}
}

// IsSeen reports whether the entry id was delivered by a previous run.
// Always false in force mode.
func (s *SeenStore) IsSeen(id string) bool {
	if s.force {
		return false
	}
	_, ok := s.records[id]
	return ok
}

// Len returns the number of recorded ids.
func (s *SeenStore) Len() int {
	return len(s.records)
}

// Commit records the given ids as delivered at postedAt and persists the
// store atomically (write to a temp file in the same directory, then
// rename). It must only be called after the corresponding delivery has
// been confirmed. In force mode it is a no-op.
//
// A persistence failure does not undo the delivery; the caller logs it and
// accepts that the next run may deliver the same entries again.
func (s *SeenStore) Commit(ids []string, postedAt time.Time) error {
	if s.force || len(ids) == 0 {
		return nil
	}

	for _, id := range ids {
		s.records[id] = models.SeenRecord{PostedAt: postedAt.UTC()}
	}

	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".seen-*.json")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp state file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing state file: %w", err)
	}

	return nil
}
