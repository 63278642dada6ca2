package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fastwebsearch/internal/cache"
	"fastwebsearch/internal/gate"
	"fastwebsearch/internal/metrics"
	"fastwebsearch/internal/proxypool"
	"fastwebsearch/internal/search"
)

// Error strings reported in ScrapeResult for the two terminal
// failure modes of the retrying fetch path.
const (
	ErrTextDisallowed = "disallowed by robots.txt"
	ErrTextExhausted  = "failed after retries"
)

// Policy decides whether a URL may be fetched at all.
type Policy interface {
	Allowed(ctx context.Context, rawURL, agent string) bool
}

// ProxySource supplies scored proxies for the single-request path.
type ProxySource interface {
	GetProxy(ctx context.Context) (search.Proxy, error)
	MarkSuccess(p search.Proxy)
	MarkFailed(p search.Proxy)
}

// Config controls pipeline behavior.
type Config struct {
	MaxRetries  int
	Timeout     time.Duration
	BackoffBase time.Duration
	UserAgent   string
}

// Pipeline runs the full fetch lifecycle for a URL: policy check,
// proxy selection, bounded GET, retry with backoff, and content
// caching for the single-page path.
type Pipeline struct {
	policy    Policy
	transport search.Transport
	gate      *gate.Gate
	pool      ProxySource
	rotation  *proxypool.Rotation
	cache     *cache.Cache
	extractor search.Extractor
	clock     search.Clock
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Pipeline. The rotation feeds the retrying batch
// path; the pool feeds the cached single-page path.
func New(
	policy Policy,
	transport search.Transport,
	g *gate.Gate,
	pool ProxySource,
	rotation *proxypool.Rotation,
	contentCache *cache.Cache,
	extractor search.Extractor,
	clock search.Clock,
	cfg Config,
	logger *zap.Logger,
) *Pipeline {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	return &Pipeline{
		policy:    policy,
		transport: transport,
		gate:      g,
		pool:      pool,
		rotation:  rotation,
		cache:     contentCache,
		extractor: extractor,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// Fetch runs the retrying fetch for a single URL. Failures are
// reported in the result's Error field, never as a Go error: a policy
// denial is terminal, transport failures are retried with doubling
// backoff until the attempt budget is spent.
func (p *Pipeline) Fetch(ctx context.Context, rawURL string) search.ScrapeResult {
	if !p.policy.Allowed(ctx, rawURL, p.cfg.UserAgent) {
		metrics.IncFetchAttempt("disallowed")
		return search.ScrapeResult{
			URL:       rawURL,
			Error:     ErrTextDisallowed,
			Timestamp: p.clock.Now(),
		}
	}

	if err := p.gate.Acquire(ctx); err != nil {
		return search.ScrapeResult{
			URL:       rawURL,
			Error:     err.Error(),
			Timestamp: p.clock.Now(),
		}
	}
	defer p.gate.Release()

	backoff := p.cfg.BackoffBase
	for attempt := 1; attempt <= p.cfg.MaxRetries; attempt++ {
		proxy := p.nextRotationProxy()

		start := time.Now()
		body, err := p.transport.Get(ctx, rawURL, proxy, p.cfg.Timeout)
		if err == nil {
			metrics.IncFetchAttempt("success")
			metrics.ObserveFetchDuration(time.Since(start))
			return search.ScrapeResult{
				URL:       rawURL,
				Content:   body,
				Timestamp: p.clock.Now(),
			}
		}

		metrics.IncFetchAttempt("error")
		p.logger.Warn("fetch attempt failed",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt < p.cfg.MaxRetries {
			if !p.sleep(ctx, backoff) {
				break
			}
			backoff *= 2
		}
	}

	return search.ScrapeResult{
		URL:       rawURL,
		Error:     ErrTextExhausted,
		Timestamp: p.clock.Now(),
	}
}

// FetchAll scrapes every URL concurrently, each with its own retry
// budget, and returns results in input order. One URL's failure never
// affects its siblings.
func (p *Pipeline) FetchAll(ctx context.Context, urls []string) []search.ScrapeResult {
	batchID := uuid.NewString()
	p.logger.Info("scrape batch started",
		zap.String("batch_id", batchID),
		zap.Int("urls", len(urls)),
	)

	results := make([]search.ScrapeResult, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			results[i] = p.Fetch(ctx, u)
		}(i, u)
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	p.logger.Info("scrape batch finished",
		zap.String("batch_id", batchID),
		zap.Int("failed", failed),
	)
	return results
}

// PageContent is the cache-first, fail-fast variant: a hit within the
// TTL short-circuits everything, a miss performs exactly one transport
// attempt. Retries belong to Fetch, not here. An explicit proxy takes
// precedence; otherwise the scored pool is consulted when available.
func (p *Pipeline) PageContent(ctx context.Context, rawURL string, proxy *search.Proxy) (string, error) {
	if content, ok := p.cache.Get(rawURL); ok {
		metrics.IncCacheLookup("hit")
		return content, nil
	}
	metrics.IncCacheLookup("miss")

	if err := p.gate.Acquire(ctx); err != nil {
		return "", err
	}
	defer p.gate.Release()

	fromPool := false
	if proxy == nil && p.pool != nil {
		selected, err := p.pool.GetProxy(ctx)
		switch {
		case err == nil:
			proxy = &selected
			fromPool = true
		case errors.Is(err, proxypool.ErrNoProxy):
			// Fall through to a direct fetch.
		default:
			return "", fmt.Errorf("select proxy: %w", err)
		}
	}

	body, err := p.transport.Get(ctx, rawURL, proxy, p.cfg.Timeout)
	if err != nil {
		if fromPool {
			p.pool.MarkFailed(*proxy)
		}
		metrics.IncFetchAttempt("error")
		return "", fmt.Errorf("get page content: %w", err)
	}
	if fromPool {
		p.pool.MarkSuccess(*proxy)
	}
	metrics.IncFetchAttempt("success")

	content := body
	if p.extractor != nil {
		extracted, err := p.extractor.Extract(body)
		if err != nil {
			return "", fmt.Errorf("extract content: %w", err)
		}
		content = extracted
	}

	p.cache.Set(rawURL, content)
	return content, nil
}

// ClearCache drops all cached page content.
func (p *Pipeline) ClearCache() {
	p.cache.Clear()
}

func (p *Pipeline) nextRotationProxy() *search.Proxy {
	if p.rotation == nil {
		return nil
	}
	proxy, ok := p.rotation.Next()
	if !ok {
		return nil
	}
	return &proxy
}

// sleep waits for d or until the context is done, reporting whether
// the full backoff elapsed.
func (p *Pipeline) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
