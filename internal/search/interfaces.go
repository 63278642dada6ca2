package search

import (
	"context"
	"time"
)

// Provider abstracts a search backend that can return ranked results
// for a query. Implementations may use official APIs or scraping; the
// orchestrator only cares about the results-or-error contract.
type Provider interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// Transport issues a single HTTP GET, optionally through a proxy, and
// returns the response body. A nil proxy means a direct connection.
type Transport interface {
	Get(ctx context.Context, rawURL string, proxy *Proxy, timeout time.Duration) (string, error)
}

// Extractor strips markup from fetched HTML before it is cached.
type Extractor interface {
	Extract(html string) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
