package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hoanghai1803/herald/internal/models"
)

// RecordDelivery inserts one delivered entry into the archive. A repeated
// entry id updates the existing row; forced re-broadcasts would otherwise
// fail the unique constraint.
func (a *Archive) RecordDelivery(ctx context.Context, rec *models.DeliveryRecord) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO deliveries (entry_id, title, link, summary, provider, thread_name, posted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(entry_id) DO UPDATE SET
			summary     = excluded.summary,
			provider    = excluded.provider,
			thread_name = excluded.thread_name,
			posted_at   = excluded.posted_at`,
		rec.EntryID, rec.Title, rec.Link, rec.Summary, rec.Provider, rec.ThreadName,
		rec.PostedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording delivery: %w", err)
	}
	return nil
}

// GetDelivery returns the archived delivery for the given entry id.
// Returns nil, ErrNotFound if no matching row exists.
func (a *Archive) GetDelivery(ctx context.Context, entryID string) (*models.DeliveryRecord, error) {
	var (
		rec      models.DeliveryRecord
		postedAt string
	)
	err := a.db.QueryRowContext(ctx,
		`SELECT entry_id, title, link, summary, provider, thread_name, posted_at
		 FROM deliveries WHERE entry_id = ?`, entryID,
	).Scan(&rec.EntryID, &rec.Title, &rec.Link, &rec.Summary, &rec.Provider, &rec.ThreadName, &postedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting delivery by entry id: %w", err)
	}
	rec.PostedAt = parseTime(postedAt)
	return &rec, nil
}

// ListRecentDeliveries returns up to limit deliveries, most recent first.
func (a *Archive) ListRecentDeliveries(ctx context.Context, limit int) ([]models.DeliveryRecord, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT entry_id, title, link, summary, provider, thread_name, posted_at
		 FROM deliveries ORDER BY posted_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing deliveries: %w", err)
	}
	defer rows.Close()

	var recs []models.DeliveryRecord
	for rows.Next() {
		var (
			rec      models.DeliveryRecord
			postedAt string
		)
		if err := rows.Scan(&rec.EntryID, &rec.Title, &rec.Link, &rec.Summary, &rec.Provider, &rec.ThreadName, &postedAt); err != nil {
			return nil, fmt.Errorf("scanning delivery row: %w", err)
		}
		rec.PostedAt = parseTime(postedAt)
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating delivery rows: %w", err)
	}

	return recs, nil
}
