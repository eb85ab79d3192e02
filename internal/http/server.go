package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "salesdash/internal/log"
	"salesdash/internal/middleware/ratelimit"
	"salesdash/internal/middleware/security"
	"salesdash/internal/middleware/trace"
)

// Options tune the server. Zero values pick defaults.
type Options struct {
	Logger          *applog.Logger
	ReloadPerMinute int
	TrustedProxies  []string
}

type Server struct {
	http.Server
	svc      ReportService
	logger   *applog.Logger
	slog     *applog.StructuredLogger
	detector *security.Detector
	limiter  *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer builds the JSON API on addr. The reload endpoint is rate
// limited per client.
func NewServer(addr string, svc ReportService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", applog.FieldError, err.Error())
		}
	}

	s := &Server{
		svc:      svc,
		logger:   logger,
		slog:     applog.NewStructuredLogger(logger),
		detector: detector,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.ReloadPerMinute}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/report", s.handleReport)
	mux.HandleFunc("GET /api/filters", s.handleFilters)
	mux.Handle("POST /api/reload",
		s.limiter.Middleware(detector.ExtractClientIP, s.handleRateLimited)(http.HandlerFunc(s.handleReload)))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	var h http.Handler = mux
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = detector.Middleware(logger)(h)
	h = trace.NewMiddleware(logger, detector.ExtractClientIP).Middleware(h)
	h = applog.Middleware(logger)(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops background work and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(s.limiter.Stop)
	return s.Server.Shutdown(ctx)
}

// Close stops background work and closes listeners immediately.
func (s *Server) Close() error {
	s.shutdownOnce.Do(s.limiter.Stop)
	return s.Server.Close()
}
