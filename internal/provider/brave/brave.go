// Package brave implements search.Provider against the Brave Search API.
package brave

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"fastwebsearch/internal/search"
)

const defaultBaseURL = "https://api.search.brave.com/res/v1/web/search"

// Provider calls the Brave web search endpoint.
type Provider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	clock   search.Clock
}

// Option customizes a Provider.
type Option func(*Provider)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(p *Provider) { p.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.client = c }
}

// New constructs a Provider authenticated with apiKey.
func New(apiKey string, clock search.Clock, opts ...Option) *Provider {
	p := &Provider{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		clock:   clock,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type webResult struct {
	Title          string `json:"title"`
	URL            string `json:"url"`
	Description    string `json:"description"`
	Age            string `json:"age"`
	Language       string `json:"language"`
	FamilyFriendly bool   `json:"family_friendly"`
}

type apiResponse struct {
	Web struct {
		Results []webResult `json:"results"`
	} `json:"web"`
}

// Search implements search.Provider. Non-200 responses and malformed
// bodies are provider errors; the orchestrator decides what to do
// with them.
func (p *Provider) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new brave request: %w", err)
	}
	q := req.URL.Query()
	q.Set("q", query)
	q.Set("count", strconv.Itoa(maxResults))
	q.Set("search_lang", "en")
	q.Set("result_filter", "web")
	q.Set("text_format", "plain")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("brave api: status %d: %s", resp.StatusCode, body)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode brave response: %w", err)
	}

	now := p.clock.Now()
	results := make([]search.Result, 0, len(payload.Web.Results))
	for _, r := range payload.Web.Results {
		results = append(results, search.Result{
			Title:     r.Title,
			URL:       r.URL,
			Snippet:   r.Description,
			Timestamp: now,
			Source:    "brave",
			Metadata: map[string]any{
				"age":             r.Age,
				"language":        r.Language,
				"family_friendly": r.FamilyFriendly,
			},
		})
	}
	return results, nil
}
