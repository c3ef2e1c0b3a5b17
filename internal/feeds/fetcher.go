package feeds

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/hoanghai1803/herald/internal/models"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
)

const (
	httpTimeout    = 30 * time.Second
	maxConcurrent  = 4
	rateLimitDelay = 1 * time.Second
	maxWords       = 5000
)

// FailedFeed records a feed URL that could not be fetched this run.
type FailedFeed struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// FetchResult contains the successfully fetched entries and any failures.
// A failure is never fatal: a run with every feed unreachable simply has an
// empty candidate set.
type FetchResult struct {
	Entries []models.Entry
	Failed  []FailedFeed
}

// Fetcher retrieves changelog feeds with per-domain rate limiting and
// bounded concurrency.
type Fetcher struct {
	client      *http.Client
	rateLimiter map[string]time.Time // per-domain last request time
	mu          sync.Mutex           // protects rateLimiter
}

// NewFetcher creates a Fetcher with a custom HTTP client configured with a
// 30-second timeout and browser-like request headers.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: httpTimeout,
			Transport: &userAgentTransport{
				base: http.DefaultTransport,
			},
		},
		rateLimiter: make(map[string]time.Time),
	}
}

// userAgentTransport wraps an http.RoundTripper to inject a custom
// User-Agent header on every request.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	// Use a browser-like User-Agent to avoid bot detection on some sites.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	return t.base.RoundTrip(req)
}

// FetchAll fetches all configured feed URLs with bounded concurrency.
// Individual feed failures are collected in FetchResult.Failed and logged
// rather than failing the batch; the caller always gets a usable (possibly
// empty) candidate set.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) *FetchResult {
	var (
		result FetchResult
		mu     sync.Mutex
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for _, feedURL := range urls {
		g.Go(func() error {
			entries, err := f.fetchSingleFeed(ctx, feedURL)
			if err != nil {
				slog.Warn("failed to fetch feed",
					"url", feedURL,
					"error", err,
				)

				mu.Lock()
				result.Failed = append(result.Failed, FailedFeed{
					URL:   feedURL,
					Error: err.Error(),
				})
				mu.Unlock()

				return nil // skip failures, don't fail the batch
			}

			mu.Lock()
			result.Entries = append(result.Entries, entries...)
			mu.Unlock()

			slog.Info("fetched feed",
				"url", feedURL,
				"items", len(entries),
			)
			return nil
		})
	}

	// Goroutines only return nil; Wait just synchronizes.
	_ = g.Wait()

	return &result
}

// fetchSingleFeed retrieves and parses one feed URL.
func (f *Fetcher) fetchSingleFeed(ctx context.Context, feedURL string) ([]models.Entry, error) {
	domain := extractDomain(feedURL)
	f.waitForRateLimit(domain)

	fp := gofeed.NewParser()
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	return parseFeedItems(feed), nil
}

// waitForRateLimit enforces a minimum delay of 1 second between requests to
// the same domain. It blocks until the delay has elapsed.
func (f *Fetcher) waitForRateLimit(domain string) {
	f.mu.Lock()
	lastReq, ok := f.rateLimiter[domain]
	if ok {
		elapsed := time.Since(lastReq)
		if elapsed < rateLimitDelay {
			f.mu.Unlock()
			time.Sleep(rateLimitDelay - elapsed)
			f.mu.Lock()
		}
	}
	f.rateLimiter[domain] = time.Now()
	f.mu.Unlock()
}

// extractDomain parses a URL and returns its hostname. If parsing fails,
// it returns the raw URL as a fallback key.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
