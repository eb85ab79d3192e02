package trace

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "salesdash/internal/log"
)

func newTestLogger(buf *bytes.Buffer) *applog.Logger {
	return applog.New(applog.Config{Level: applog.ParseLevel("debug"), Format: "json", Output: buf})
}

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(newTestLogger(&buf), func(*http.Request) string { return "10.0.0.1" })

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/report", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("request id = %q", seen)
	}
	if rr.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("response header %q, context %q", rr.Header().Get(HeaderRequestID), seen)
	}
	out := buf.String()
	for _, want := range []string{"HTTP request started", "HTTP request completed", `"status_code":418`, `"client_ip":"10.0.0.1"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %s:\n%s", want, out)
		}
	}
	if m.TotalRequests() != 1 {
		t.Fatalf("total = %d", m.TotalRequests())
	}
}

func TestMiddlewareInboundRequestID(t *testing.T) {
	m := NewMiddleware(newTestLogger(&bytes.Buffer{}), nil)
	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	cases := []struct {
		name    string
		inbound string
		keep    bool
	}{
		{"valid", "abc-123", true},
		{"with spaces", "abc 123", false},
		{"too long", strings.Repeat("a", 65), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(HeaderRequestID, tc.inbound)
			h.ServeHTTP(httptest.NewRecorder(), req)
			if (seen == tc.inbound) != tc.keep {
				t.Fatalf("inbound %q, used %q", tc.inbound, seen)
			}
		})
	}
}

func TestGetRequestIDEmpty(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Fatalf("got %q", got)
	}
}
