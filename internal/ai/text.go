package ai

import (
	"html"
	"regexp"
	"strings"

	"github.com/hoanghai1803/herald/internal/models"
)

const (
	// maxSummaryLen is the character budget of the basic fallback summary.
	maxSummaryLen = 420
	// maxTitleLen is the hard cap on derived thread titles.
	maxTitleLen = 90
	// maxBullets caps model-produced summaries to a Discord-friendly size.
	maxBullets = 4

	// defaultTitle is the last-resort thread title when an entry has no
	// usable title and no usable body.
	defaultTitle = "GitHub Copilot Changelog"
)

var (
	markupTagPattern    = regexp.MustCompile("<[^>]*>")
	trailingPunctuation = regexp.MustCompile(`[\s\-–—:.,;!?#]+$`)
	sentenceBoundary    = regexp.MustCompile(`[.!?]\s|\n`)
)

// StripMarkup removes HTML tags from s, unescapes HTML entities, and
// collapses runs of whitespace into single spaces.
func StripMarkup(s string) string {
	clean := markupTagPattern.ReplaceAllString(s, " ")
	clean = html.UnescapeString(clean)
	return strings.Join(strings.Fields(clean), " ")
}

// BasicSummary produces the always-available fallback summary: the entry
// body with markup stripped, truncated to maxLen characters with a
// trailing ellipsis.
func BasicSummary(entry models.Entry, maxLen int) string {
	clean := StripMarkup(entry.RawBody)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	return strings.TrimRight(string(runes[:maxLen-1]), " ") + "…"
}

// CleanTitle sanitizes a raw (possibly model-produced) title: markup
// stripped, whitespace collapsed, surrounding quotes removed, trailing
// punctuation trimmed, capped at maxTitleLen characters. The result can be
// empty when the input carried no usable text.
func CleanTitle(raw string) string {
	s := StripMarkup(raw)
	s = strings.Trim(s, `'" `)
	s = trailingPunctuation.ReplaceAllString(s, "")
	runes := []rune(s)
	if len(runes) > maxTitleLen {
		s = strings.TrimRight(string(runes[:maxTitleLen]), " ")
	}
	return s
}

// FallbackTitle derives a thread title without calling any provider:
// the entry's own sanitized title, else the first sentence (at most ten
// words) of the basic summary, else a fixed title.
func FallbackTitle(entry models.Entry) string {
	if t := CleanTitle(entry.Title); t != "" {
		return t
	}

	bs := BasicSummary(entry, maxTitleLen)
	first := sentenceBoundary.Split(bs, 2)[0]
	words := strings.Fields(first)
	if len(words) > 10 {
		first = strings.Join(words[:10], " ")
	}
	if t := CleanTitle(first); t != "" {
		return t
	}
	return defaultTitle
}

// clampBullets trims a model summary to at most maxBullets non-empty
// lines. Models occasionally ignore the bullet-count instruction.
func clampBullets(s string) (string, bool) {
	var lines []string
	for _, ln := range strings.Split(strings.TrimSpace(s), "\n") {
		ln = strings.TrimSpace(ln)
		if ln != "" {
			lines = append(lines, ln)
		}
	}
	if len(lines) == 0 {
		return "", false
	}
	if len(lines) > maxBullets {
		lines = lines[:maxBullets]
	}
	return strings.Join(lines, "\n"), true
}
