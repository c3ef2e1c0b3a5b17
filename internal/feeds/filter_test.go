package feeds

import (
	"testing"

	"github.com/hoanghai1803/herald/internal/models"
)

func TestTagFilter_Matches(t *testing.T) {
	filter := NewTagFilter("copilot")

	tests := []struct {
		name  string
		tags  []string
		want  bool
	}{
		{"exact match", []string{"copilot"}, true},
		{"case-insensitive match", []string{"CoPilot"}, true},
		{"match among others", []string{"actions", "Copilot", "security"}, true},
		{"no match", []string{"actions", "packages"}, false},
		{"substring does not match", []string{"github copilot"}, false},
		{"no tags never matches", nil, false},
		{"empty tag slice never matches", []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := models.Entry{ID: "x", Title: "copilot in the title", Tags: tt.tags}
			if got := filter.Matches(entry); got != tt.want {
				t.Errorf("Matches(%v) = %v, want %v", tt.tags, got, tt.want)
			}
		})
	}
}

func TestTagFilter_IgnoresTitleAndBody(t *testing.T) {
	filter := NewTagFilter("copilot")

	// Only the tag set participates in matching; title and body mentions
	// must not.
	entry := models.Entry{
		ID:      "x",
		Title:   "Copilot everywhere",
		RawBody: "copilot copilot copilot",
		Tags:    []string{"actions"},
	}
	if filter.Matches(entry) {
		t.Error("Matches() = true for an entry whose tags do not include the target")
	}
}
