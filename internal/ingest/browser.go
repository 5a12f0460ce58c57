package ingest

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserFetcher renders the listing page in headless Chrome. It exists for
// deployments where the plain HTTP fetcher gets blocked by bot detection; the
// embedded data blob is read from the rendered DOM instead.
type BrowserFetcher struct {
	UserAgent   string
	ListingPath string
	Timeout     time.Duration
}

func NewBrowserFetcher(userAgent, listingPath string, timeout time.Duration) *BrowserFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BrowserFetcher{UserAgent: userAgent, ListingPath: listingPath, Timeout: timeout}
}

func (f *BrowserFetcher) Fetch(ctx context.Context, channelURL string) (string, error) {
	target := NormalizeChannelURL(channelURL, f.ListingPath)

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(f.UserAgent),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}
