// Package fetcher implements the per-URL fetch pipeline and its
// colly-backed transport.
package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"

	"fastwebsearch/internal/search"
)

// CollyTransport implements search.Transport using a colly collector.
// Robots handling is disabled at this layer; the pipeline consults its
// own policy checker before any transport call.
type CollyTransport struct {
	userAgent string
	base      *colly.Collector
}

// NewCollyTransport builds a transport with the given User-Agent.
func NewCollyTransport(userAgent string) *CollyTransport {
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.AllowURLRevisit = true
	return &CollyTransport{
		userAgent: userAgent,
		base:      c,
	}
}

// Get fetches rawURL once through the optional proxy, bounded by
// timeout, and returns the response body.
func (t *CollyTransport) Get(ctx context.Context, rawURL string, proxy *search.Proxy, timeout time.Duration) (string, error) {
	collector := t.base.Clone()
	collector.IgnoreRobotsTxt = true
	collector.AllowURLRevisit = true
	if t.userAgent != "" {
		collector.UserAgent = t.userAgent
	}
	collector.SetRequestTimeout(timeout)
	if proxy != nil {
		if err := collector.SetProxy(proxy.URL().String()); err != nil {
			return "", fmt.Errorf("set proxy %s: %w", proxy, err)
		}
	}

	var (
		body     string
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})
	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("fetch %s: %w", rawURL, err)
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("fetch %s: %w", rawURL, ctx.Err())
	case visitErr := <-done:
		if fetchErr != nil {
			return "", fetchErr
		}
		if visitErr != nil {
			return "", fmt.Errorf("fetch %s: %w", rawURL, visitErr)
		}
		return body, nil
	}
}
