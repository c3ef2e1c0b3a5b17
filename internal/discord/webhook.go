// Package discord delivers embed batches to a Discord webhook, including
// forum-channel thread routing and splitting of oversized batches.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hoanghai1803/herald/internal/models"
)

const (
	// maxEmbedsPerMessage is Discord's per-message embed limit. Larger
	// batches are split into sequential sends preserving order.
	maxEmbedsPerMessage = 10

	// codeThreadRequired is Discord's error code when a webhook targets a
	// forum channel but the request names no thread. It is the one
	// rejection attributable to grouping rather than transport.
	codeThreadRequired = 220001

	footerPrefix = "GitHub Copilot Changelog"
)

// Embed is one visual card in a webhook message.
type Embed struct {
	Title       string
	URL         string
	Description string
	Timestamp   time.Time
}

// NewEmbed builds the embed for one entry and its summary text.
func NewEmbed(entry models.Entry, summary string) Embed {
	return Embed{
		Title:       entry.Title,
		URL:         entry.Link,
		Description: summary,
		Timestamp:   entry.PublishedAt.UTC(),
	}
}

// SendError is a webhook rejection. It carries Discord's error code so
// callers can distinguish grouping failures from transport failures.
type SendError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *SendError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("discord webhook rejected request: status %d, code %d: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("discord webhook rejected request: status %d: %s", e.StatusCode, e.Message)
}

// ThreadRequired reports whether the rejection means the webhook targets a
// forum channel and a thread id or thread name must be supplied.
func (e *SendError) ThreadRequired() bool {
	return e.Code == codeThreadRequired
}

// Client posts embed batches to a single Discord webhook URL.
type Client struct {
	webhookURL string
	client     *http.Client
	dryRun     bool
}

// NewClient creates a webhook client with a bounded per-request timeout.
// In dry-run mode Send logs the payload and reports success without any
// network call.
func NewClient(webhookURL string, timeout time.Duration, dryRun bool) *Client {
	return &Client{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
		dryRun:     dryRun,
	}
}

// payloadEmbed is the wire form of one embed.
type payloadEmbed struct {
	Title       string        `json:"title"`
	URL         string        `json:"url"`
	Description string        `json:"description"`
	Timestamp   string        `json:"timestamp"`
	Footer      payloadFooter `json:"footer"`
}

type payloadFooter struct {
	Text string `json:"text"`
}

// webhookPayload is the wire form of one webhook execution. Content is an
// explicit null so the message consists of embeds only.
type webhookPayload struct {
	Content    *string        `json:"content"`
	Embeds     []payloadEmbed `json:"embeds"`
	ThreadName string         `json:"thread_name,omitempty"`
}

// webhookResponse is the (partial) message object Discord returns when the
// request carries wait=true. ChannelID identifies the thread a
// thread_name request created.
type webhookResponse struct {
	ChannelID string `json:"channel_id"`
}

// errorResponse is Discord's rejection body.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send posts the embeds to the webhook. threadID targets an existing
// thread; threadName, when threadID is empty, creates a forum thread.
// Batches above the embed limit are split into sequential messages in
// order; follow-up messages reuse the thread the first one created.
//
// Send performs no retries. Any failure, including a timeout, is returned
// as-is for the caller to classify.
func (c *Client) Send(ctx context.Context, embeds []Embed, threadID, threadName string) error {
	if len(embeds) == 0 {
		return nil
	}

	for start := 0; start < len(embeds); start += maxEmbedsPerMessage {
		end := min(start+maxEmbedsPerMessage, len(embeds))

		name := ""
		if start == 0 && threadID == "" {
			name = threadName
		}

		createdThread, err := c.sendOne(ctx, embeds[start:end], threadID, name)
		if err != nil {
			return err
		}

		// Later chunks must land in the thread the first chunk created,
		// not spawn threads of their own.
		if name != "" && createdThread != "" {
			threadID = createdThread
		}
	}

	return nil
}

// sendOne executes the webhook once. It returns the id of the thread the
// message was posted into when one was created via threadName.
func (c *Client) sendOne(ctx context.Context, embeds []Embed, threadID, threadName string) (string, error) {
	payload := webhookPayload{
		Content:    nil,
		Embeds:     make([]payloadEmbed, 0, len(embeds)),
		ThreadName: threadName,
	}
	for _, e := range embeds {
		ts := e.Timestamp.UTC()
		payload.Embeds = append(payload.Embeds, payloadEmbed{
			Title:       e.Title,
			URL:         e.URL,
			Description: e.Description,
			Timestamp:   ts.Format(time.RFC3339),
			Footer: payloadFooter{
				Text: fmt.Sprintf("%s • %s", footerPrefix, ts.Format("2006-01-02 15:04 UTC")),
			},
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling webhook payload: %w", err)
	}

	url := c.webhookURL + "?wait=true"
	if threadID != "" {
		url += "&thread_id=" + threadID
	}

	if c.dryRun {
		slog.Info("dry run: skipping webhook post",
			"url", url,
			"thread_name", threadName,
			"payload", string(body),
		)
		return "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending webhook request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading webhook response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		sendErr := &SendError{StatusCode: resp.StatusCode, Message: string(respBody)}
		var apiErr errorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Code != 0 {
			sendErr.Code = apiErr.Code
			sendErr.Message = apiErr.Message
		}
		if sendErr.ThreadRequired() {
			slog.Warn("webhook targets a forum channel: set discord.thread_id (existing thread) or discord.thread_name (to create one)")
		}
		return "", sendErr
	}

	var msg webhookResponse
	if err := json.Unmarshal(respBody, &msg); err != nil {
		// A 2xx with an unparseable body is still a delivery.
		return "", nil
	}
	return msg.ChannelID, nil
}
