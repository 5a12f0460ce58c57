package agent

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-shiori/go-readability"
)

// ChromePageReader renders a page in headless Chrome and runs readability
// extraction over the result. It backs the fetch_webpage tool.
type ChromePageReader struct {
	UserAgent string
	Timeout   time.Duration
	MaxChars  int
}

func NewChromePageReader(userAgent string, timeout time.Duration) *ChromePageReader {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ChromePageReader{UserAgent: userAgent, Timeout: timeout, MaxChars: 20000}
}

func (r *ChromePageReader) ReadPage(ctx context.Context, rawURL string) (PageExtract, error) {
	if strings.TrimSpace(rawURL) == "" {
		return PageExtract{}, errors.New("invalid url")
	}
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(r.UserAgent),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return PageExtract{}, err
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		parsed = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return PageExtract{URL: rawURL}, nil
	}
	text := article.TextContent
	if r.MaxChars > 0 && len(text) > r.MaxChars {
		text = text[:r.MaxChars]
	}
	return PageExtract{
		URL:   rawURL,
		Title: strings.TrimSpace(article.Title),
		Text:  strings.TrimSpace(text),
	}, nil
}
