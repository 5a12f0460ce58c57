package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// PageFetcher retrieves the raw HTML of a channel listing page.
type PageFetcher interface {
	Fetch(ctx context.Context, channelURL string) (string, error)
}

// FetchError reports a non-2xx response from the channel page. It is fatal
// for the whole ingestion run: a dead or blocked channel page cannot be
// salvaged by retrying, so the fetcher never retries.
type FetchError struct {
	Status int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("channel page returned status %d", e.Status)
}

// HTTPFetcher fetches the listing page with a plain GET and browser-like
// headers.
type HTTPFetcher struct {
	UserAgent      string
	AcceptLanguage string
	ListingPath    string
	Client         *http.Client
}

func NewHTTPFetcher(userAgent, acceptLanguage, listingPath string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		UserAgent:      userAgent,
		AcceptLanguage: acceptLanguage,
		ListingPath:    listingPath,
		Client:         &http.Client{Timeout: timeout},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, channelURL string) (string, error) {
	target := NormalizeChannelURL(channelURL, f.ListingPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	if f.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", f.AcceptLanguage)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch channel page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &FetchError{Status: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read channel page: %w", err)
	}
	return string(body), nil
}

// NormalizeChannelURL strips trailing slashes and appends the listing path
// suffix when the URL does not already end with it.
func NormalizeChannelURL(raw, listingPath string) string {
	if listingPath == "" {
		listingPath = "/videos"
	}
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	if !strings.HasSuffix(u, listingPath) {
		u += listingPath
	}
	return u
}
