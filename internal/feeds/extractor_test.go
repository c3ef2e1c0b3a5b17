package feeds

import (
	"strings"
	"testing"
)

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWords int
		want     string
	}{
		{"short text unchanged", "one two three", 5, "one two three"},
		{"exact limit unchanged", "one two three", 3, "one two three"},
		{"long text truncated", "one two three four five", 3, "one two three"},
		{"empty text", "", 3, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateWords(tt.input, tt.maxWords); got != tt.want {
				t.Errorf("truncateWords(%q, %d) = %q, want %q", tt.input, tt.maxWords, got, tt.want)
			}
		})
	}
}

func TestTruncateWords_LargeInput(t *testing.T) {
	input := strings.Repeat("word ", 6000)
	got := truncateWords(input, maxWords)
	if n := len(strings.Fields(got)); n != maxWords {
		t.Errorf("truncated word count = %d, want %d", n, maxWords)
	}
}
