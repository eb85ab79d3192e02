package http

import (
	"context"
	"errors"
	"net/http"

	applog "salesdash/internal/log"
	"salesdash/internal/middleware/trace"
	"salesdash/internal/pipeline"
	"salesdash/internal/services"
)

// ReportService is what the handlers need from the service layer.
type ReportService interface {
	Report(ctx context.Context, sel pipeline.Selection, topN int) (services.ReportResult, error)
	FilterOptions(ctx context.Context) (services.FilterResult, error)
	Reload(ctx context.Context) (services.DatasetInfo, error)
	Ready(ctx context.Context) error
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	q, err := ParseReportQuery(r.URL.Query())
	if err != nil {
		s.writeServiceError(w, r, err, applog.OpReport)
		return
	}
	res, err := s.svc.Report(r.Context(), q.Selection, q.TopN)
	if err != nil {
		s.writeServiceError(w, r, err, applog.OpReport)
		return
	}
	writeJSON(w, http.StatusOK, newReportResponse(res))
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.FilterOptions(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, applog.OpFilters)
		return
	}
	writeJSON(w, http.StatusOK, newFiltersResponse(res))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	info, err := s.svc.Reload(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, applog.OpReload)
		return
	}
	writeJSON(w, http.StatusOK, ReloadResponse{Reloaded: true, Dataset: newDatasetDTO(info)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ready(r.Context()); err != nil {
		_, kind := statusFor(err)
		writeError(w, r, http.StatusServiceUnavailable, kind, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Reload rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r))
	writeError(w, r, http.StatusTooManyRequests, KindRateLimited, "rate limit exceeded, try again later")
}

// writeServiceError answers with the status matching err. Server side
// failures are logged; their causes stay out of the body.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	status, kind := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusBadGateway:
		s.slog.LogError(r.Context(), "Data source unreadable", err, applog.ComponentSource, op,
			applog.NewFields().WithErrorType(applog.ErrorTypeUnreadable))
	case http.StatusServiceUnavailable:
		s.slog.LogError(r.Context(), "Request cancelled", err, applog.ComponentHTTP, op,
			applog.NewFields().WithErrorType(applog.ErrorTypeTimeout))
		msg = http.StatusText(status)
	case http.StatusInternalServerError:
		s.slog.LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, op,
			applog.NewFields().WithErrorType(applog.ErrorTypeInternal))
		msg = http.StatusText(status)
	}

	resp := ErrorResponse{Error: msg, Kind: kind, RequestID: trace.GetRequestID(r.Context())}
	var perr *ParamError
	if errors.As(err, &perr) {
		resp.Param = perr.Param
	}
	writeJSON(w, status, resp)
}
