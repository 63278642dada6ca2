package robots

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func TestAllowedAgainstLiveServer(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			fmt.Fprintln(w, "User-agent: *\nDisallow: /blocked")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	checker := NewChecker(nil, zap.NewNop())
	ctx := context.Background()

	if !checker.Allowed(ctx, srv.URL+"/allowed", "test-agent") {
		t.Fatal("expected allowed path to pass robots")
	}
	if checker.Allowed(ctx, srv.URL+"/blocked", "test-agent") {
		t.Fatal("expected blocked path to be denied")
	}
}

type countingFetcher struct {
	calls int32
	body  string
	err   error
}

func (f *countingFetcher) Fetch(context.Context, string) (int, []byte, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return 0, nil, f.err
	}
	return http.StatusOK, []byte(f.body), nil
}

func TestRulesetFetchedOncePerOrigin(t *testing.T) {
	t.Parallel()

	fetcher := &countingFetcher{body: "User-agent: *\nDisallow: /private"}
	checker := NewChecker(fetcher, zap.NewNop())
	ctx := context.Background()

	if checker.Allowed(ctx, "https://example.com/private/data", "bot") {
		t.Fatal("expected denial for disallowed path")
	}
	if checker.Allowed(ctx, "https://example.com/private/other", "bot") {
		t.Fatal("expected denial on second lookup")
	}
	if !checker.Allowed(ctx, "https://example.com/public", "bot") {
		t.Fatal("expected public path allowed")
	}

	if got := atomic.LoadInt32(&fetcher.calls); got != 1 {
		t.Fatalf("expected a single robots fetch for the origin, got %d", got)
	}
}

func TestFailOpenOnFetchError(t *testing.T) {
	t.Parallel()

	fetcher := &countingFetcher{err: errors.New("connection refused")}
	checker := NewChecker(fetcher, zap.NewNop())
	ctx := context.Background()

	if !checker.Allowed(ctx, "https://down.example.com/page", "bot") {
		t.Fatal("fetch failure must fail open")
	}
	// The failure is cached too; no second fetch for the origin.
	if !checker.Allowed(ctx, "https://down.example.com/other", "bot") {
		t.Fatal("cached failure must still allow")
	}
	if got := atomic.LoadInt32(&fetcher.calls); got != 1 {
		t.Fatalf("expected one fetch attempt, got %d", got)
	}
}

func TestMalformedURLDenied(t *testing.T) {
	t.Parallel()

	checker := NewChecker(&countingFetcher{body: ""}, zap.NewNop())
	if checker.Allowed(context.Background(), "://not-a-url", "bot") {
		t.Fatal("unparseable URL must be denied")
	}
}

func TestDistinctOriginsCachedSeparately(t *testing.T) {
	t.Parallel()

	fetcher := &countingFetcher{body: "User-agent: *\nDisallow:"}
	checker := NewChecker(fetcher, zap.NewNop())
	ctx := context.Background()

	checker.Allowed(ctx, "https://a.example.com/x", "bot")
	checker.Allowed(ctx, "https://b.example.com/x", "bot")
	checker.Allowed(ctx, "http://a.example.com/x", "bot") // scheme is part of origin

	if got := atomic.LoadInt32(&fetcher.calls); got != 3 {
		t.Fatalf("expected three fetches for three origins, got %d", got)
	}
}
