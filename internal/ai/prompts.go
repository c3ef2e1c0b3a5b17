package ai

import (
	"fmt"
	"strings"

	"github.com/hoanghai1803/herald/internal/models"
)

const summarySystemPrompt = `You are a concise release note summarizer.`

const titleSystemPrompt = `You are a helpful assistant that writes brief titles.`

// SummaryPrompt builds the system and user prompts for summarizing one
// changelog entry into a few Discord-ready bullet points.
func SummaryPrompt(entry models.Entry) (systemPrompt string, userPrompt string) {
	content := StripMarkup(entry.RawBody)

	var b strings.Builder
	b.WriteString("Summarize the following changelog item into 2-4 concise bullet points ")
	b.WriteString("suitable for a Discord embed. Be factual and brief.\n\n")
	fmt.Fprintf(&b, "Title: %s\n\n", entry.Title)
	fmt.Fprintf(&b, "Content: %s\n\n", content)
	b.WriteString("Respond with only the bullets, each starting with '- '.")

	return summarySystemPrompt, b.String()
}

// TitlePrompt builds the system and user prompts for deriving a short
// forum thread title from one changelog entry.
//
// Constraints given to the model:
//   - 4-10 words
//   - no surrounding quotes or trailing punctuation
//   - max ~90 characters
func TitlePrompt(entry models.Entry) (systemPrompt string, userPrompt string) {
	content := StripMarkup(entry.RawBody)

	var b strings.Builder
	b.WriteString("Create a concise forum thread title for the following changelog item.\n")
	b.WriteString("- 4 to 10 words\n- Avoid quotes and ending punctuation\n- Max 90 characters\n")
	b.WriteString("Respond with ONLY the title text.\n\n")
	fmt.Fprintf(&b, "Original Title: %s\n\n", entry.Title)
	fmt.Fprintf(&b, "Content: %s\n", content)

	return titleSystemPrompt, b.String()
}
