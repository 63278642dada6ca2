// Package robots enforces crawl-exclusion rules per origin.
package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// DocumentFetcher retrieves the robots.txt document for an origin.
type DocumentFetcher interface {
	Fetch(ctx context.Context, origin string) (status int, body []byte, err error)
}

// Checker caches parsed rulesets per origin for the process lifetime.
// Fetch or parse failures are cached as "no restriction" so each
// origin's document is requested at most once per run.
type Checker struct {
	fetcher DocumentFetcher
	cache   sync.Map // origin -> *robotstxt.RobotsData (nil entry = fail open)
	logger  *zap.Logger
}

// NewChecker builds a Checker. A nil fetcher gets a default HTTP client.
func NewChecker(fetcher DocumentFetcher, logger *zap.Logger) *Checker {
	if fetcher == nil {
		fetcher = &httpFetcher{
			client: &http.Client{Timeout: 10 * time.Second},
		}
	}
	return &Checker{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Allowed reports whether agent may fetch rawURL per the origin's
// cached crawl-exclusion rules.
func (c *Checker) Allowed(ctx context.Context, rawURL, agent string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	origin := parsed.Scheme + "://" + parsed.Host
	data := c.load(ctx, origin)
	if data == nil {
		return true
	}
	group := data.FindGroup(agent)
	if group == nil {
		return true
	}
	return group.Test(parsed.Path)
}

type cachedRules struct {
	data *robotstxt.RobotsData
}

func (c *Checker) load(ctx context.Context, origin string) *robotstxt.RobotsData {
	if v, ok := c.cache.Load(origin); ok {
		return v.(*cachedRules).data
	}

	data, err := c.fetchAndParse(ctx, origin)
	if err != nil {
		c.logger.Warn("robots fetch failed; allowing access",
			zap.String("origin", origin), zap.Error(err))
		data = nil
	}
	// Concurrent loaders may race on the same origin; the first stored
	// ruleset wins and later ones are discarded.
	actual, _ := c.cache.LoadOrStore(origin, &cachedRules{data: data})
	return actual.(*cachedRules).data
}

func (c *Checker) fetchAndParse(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	status, body, err := c.fetcher.Fetch(ctx, origin)
	if err != nil {
		return nil, fmt.Errorf("fetch robots: %w", err)
	}
	data, err := robotstxt.FromStatusAndBytes(status, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots: %w", err)
	}
	return data, nil
}

type httpFetcher struct {
	client *http.Client
}

func (f *httpFetcher) Fetch(ctx context.Context, origin string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return 0, nil, fmt.Errorf("new robots request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("robots request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("read robots body: %w", err)
	}
	return resp.StatusCode, body, nil
}
