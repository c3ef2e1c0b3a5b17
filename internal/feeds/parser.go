package feeds

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/hoanghai1803/herald/internal/models"
	"github.com/mmcdole/gofeed"
)

// parseFeedItems converts gofeed items into Entry models. Items with both
// an empty title and an empty link are skipped because no stable
// fingerprint can be derived for them.
func parseFeedItems(feed *gofeed.Feed) []models.Entry {
	var entries []models.Entry
	for _, item := range feed.Items {
		if item.Title == "" && item.Link == "" {
			continue
		}

		entries = append(entries, models.Entry{
			ID:          Fingerprint(item),
			Title:       item.Title,
			Link:        item.Link,
			RawBody:     itemBody(item),
			PublishedAt: entryTime(item),
			Tags:        item.Categories,
		})
	}

	return entries
}

// Fingerprint returns a stable identifier for a feed item. The feed's
// native GUID is preferred; items without one get a hash of link and
// title, which is stable across runs for the same logical item.
func Fingerprint(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	return computeHash(item.Link + "\n" + item.Title)
}

// itemBody returns the richest body text the item carries. Some feeds put
// the full HTML in Content and a teaser in Description; others only set
// Description.
func itemBody(item *gofeed.Item) string {
	if item.Content != "" {
		return item.Content
	}
	return item.Description
}

// entryTime returns the item's publication time in UTC. Items without a
// parseable published date fall back to the updated date, then to the
// current time, so ordering never has to handle a zero timestamp.
func entryTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC()
	}
	return time.Now().UTC()
}

// computeHash returns the SHA-256 hex digest of the given string.
func computeHash(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)
}
