package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *clock) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute})
	t.Cleanup(rl.Stop)
	c := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl.now = c.now
	return rl, c
}

func TestAllowWindow(t *testing.T) {
	rl, c := newTestLimiter(t, 2)

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatalf("first two requests must pass")
	}
	if rl.Allow("a") {
		t.Fatalf("third request must be refused")
	}
	if !rl.Allow("b") {
		t.Fatalf("clients are limited independently")
	}

	c.t = c.t.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatalf("window should have reset")
	}
	if rl.Rejected() != 1 {
		t.Fatalf("rejected = %d", rl.Rejected())
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, c := newTestLimiter(t, 5)
	rl.Allow("a")
	c.t = c.t.Add(5 * time.Minute)
	rl.Allow("b")
	c.t = c.t.Add(6 * time.Minute)

	rl.cleanupStaleEntries()
	if rl.ActiveClients() != 1 {
		t.Fatalf("active = %d", rl.ActiveClients())
	}
}

func TestMiddleware(t *testing.T) {
	rl, c := newTestLimiter(t, 1)
	ip := func(*http.Request) string { return "1.2.3.4" }
	h := rl.Middleware(ip, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("first status = %d", rr.Code)
	}

	c.t = c.t.Add(20 * time.Second)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "40" {
		t.Fatalf("Retry-After = %q", got)
	}
}
