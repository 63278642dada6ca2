package cache

import (
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestGetWithinTTL(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{now: time.Unix(1000, 0)}
	c := New(time.Minute, clk)

	c.Set("https://example.com", "body")
	got, ok := c.Get("https://example.com")
	if !ok || got != "body" {
		t.Fatalf("expected fresh hit, got %q ok=%v", got, ok)
	}

	clk.Advance(59 * time.Second)
	if _, ok := c.Get("https://example.com"); !ok {
		t.Fatal("expected hit just inside TTL")
	}
}

func TestExpiredEntryIsAbsent(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{now: time.Unix(1000, 0)}
	c := New(time.Minute, clk)

	c.Set("https://example.com", "body")
	clk.Advance(time.Minute)
	if _, ok := c.Get("https://example.com"); ok {
		t.Fatal("expected miss at exactly TTL")
	}
	// Lazy expiry keeps the stale entry until overwritten.
	if c.Len() != 1 {
		t.Fatalf("expected stale entry retained, len=%d", c.Len())
	}
}

func TestZeroTTLNeverHits(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{now: time.Unix(1000, 0)}
	c := New(0, clk)
	c.Set("u", "v")
	if _, ok := c.Get("u"); ok {
		t.Fatal("zero TTL must never produce a hit")
	}
}

func TestInvalidateAndClear(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{now: time.Unix(1000, 0)}
	c := New(time.Hour, clk)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected a to be invalidated")
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatal("expected b to survive")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after Clear, len=%d", c.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{now: time.Unix(1000, 0)}
	c := New(time.Hour, clk)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set("shared", "content")
				c.Get("shared")
			}
		}()
	}
	wg.Wait()

	if got, ok := c.Get("shared"); !ok || got != "content" {
		t.Fatalf("expected shared entry after concurrent writes, got %q ok=%v", got, ok)
	}
}
