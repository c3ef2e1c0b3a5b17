package feeds

import (
	"strings"

	"github.com/hoanghai1803/herald/internal/models"
)

// TagFilter selects entries carrying a specific feed category tag.
// Matching is a pure predicate over the entry's tag set: it never inspects
// titles or bodies, so an untagged entry never matches.
type TagFilter struct {
	tag string
}

// NewTagFilter creates a TagFilter for the given target tag.
func NewTagFilter(tag string) *TagFilter {
	return &TagFilter{tag: tag}
}

// Matches reports whether any of the entry's tags equals the target tag,
// case-insensitively.
func (f *TagFilter) Matches(entry models.Entry) bool {
	for _, t := range entry.Tags {
		if strings.EqualFold(t, f.tag) {
			return true
		}
	}
	return false
}
