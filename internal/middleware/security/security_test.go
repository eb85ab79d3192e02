package security

import (
	"bytes"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "salesdash/internal/log"
)

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()
	cases := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct public peer ignores headers", "203.0.113.9:4000", "198.51.100.1", "", "203.0.113.9"},
		{"trusted proxy uses first forwarded", "10.0.0.2:4000", "198.51.100.1, 10.0.0.5", "", "198.51.100.1"},
		{"trusted proxy falls back to real ip", "127.0.0.1:4000", "garbage", "198.51.100.7", "198.51.100.7"},
		{"trusted proxy without headers", "192.168.1.1:80", "", "", "192.168.1.1"},
		{"unparseable remote", "pipe", "", "", "pipe"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remote
			if tc.xff != "" {
				r.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xri != "" {
				r.Header.Set("X-Real-IP", tc.xri)
			}
			if got := d.ExtractClientIP(r); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	d := NewDetector()
	cases := []struct {
		method string
		target string
		agent  string
		want   bool
	}{
		{http.MethodGet, "/api/report?category=Books", "Mozilla/5.0", false},
		{http.MethodGet, "/../../etc/passwd", "", true},
		{http.MethodGet, "/api/report?q=union+select", "", true},
		{http.MethodGet, "/api/report?q=union%20select", "", true},
		{http.MethodGet, "/", "sqlmap/1.0", true},
		{"TRACE", "/", "", true},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(tc.method, tc.target, nil)
		r.Header.Set("User-Agent", tc.agent)
		if got := d.DetectSuspiciousRequest(r); got != tc.want {
			t.Errorf("%s %s (%s): got %v", tc.method, tc.target, tc.agent, got)
		}
	}
}

func TestDetectorMiddleware(t *testing.T) {
	var buf bytes.Buffer
	d := NewDetector()
	logger := applog.New(applog.Config{Format: "json", Output: &buf})
	h := d.Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("TRACE", "/", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/.env", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if d.SuspiciousRequests() != 2 || !strings.Contains(buf.String(), "Suspicious request") {
		t.Fatalf("count %d, log %s", d.SuspiciousRequests(), buf.String())
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" || rr.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("headers = %v", rr.Header())
	}
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS must not be sent over plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Fatalf("HSTS = %q", got)
	}
}
