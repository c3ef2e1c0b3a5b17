package models

import "time"

// Entry represents a single changelog feed item.
type Entry struct {
	// ID is a stable identifier for the entry: the feed's native GUID when
	// present, else a hash derived from link and title. It must not change
	// across runs for the same logical item.
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	RawBody     string    `json:"raw_body,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Tags        []string  `json:"tags,omitempty"`
}

// SeenRecord marks an entry as delivered in a previous run.
type SeenRecord struct {
	PostedAt time.Time `json:"posted_at"`
}

// SummaryResult is the outcome of the summarization chain for one entry.
type SummaryResult struct {
	Text       string `json:"text"`
	ProducedBy string `json:"produced_by"`
	// Degraded is true when the preferred provider was skipped or failed
	// and a lower tier produced the text.
	Degraded bool `json:"degraded"`
}

// TitleResult is the outcome of the thread-title derivation chain.
type TitleResult struct {
	Text       string `json:"text"`
	ProducedBy string `json:"produced_by"`
	Degraded   bool   `json:"degraded"`
}

// DeliveryUnit is one grouped send to the destination. Entries are ordered
// oldest to newest and never overlap between units within a run.
type DeliveryUnit struct {
	Entries []Entry

	// ThreadID targets an existing destination thread when set.
	ThreadID string
	// ThreadName creates a destination thread with that name when set and
	// ThreadID is empty.
	ThreadName string
}

// DeliveryRecord is one archived delivery, kept in the optional archive
// database for operator inspection.
type DeliveryRecord struct {
	EntryID    string    `json:"entry_id"`
	Title      string    `json:"title"`
	Link       string    `json:"link"`
	Summary    string    `json:"summary"`
	Provider   string    `json:"provider"`
	ThreadName string    `json:"thread_name,omitempty"`
	PostedAt   time.Time `json:"posted_at"`
}
