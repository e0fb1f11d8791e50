package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/domain"
	domcat "github.com/kailas-cloud/facetdex/internal/domain/catalog"
	"github.com/kailas-cloud/facetdex/internal/domain/query"
	"github.com/kailas-cloud/facetdex/internal/domain/taxonomy"
	"github.com/kailas-cloud/facetdex/internal/metrics"
	cataloguc "github.com/kailas-cloud/facetdex/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/facetdex/internal/usecase/health"
)

// seqParam carries the caller's request sequence number, echoed back so
// clients can drop responses that arrive out of order.
const seqParam = "seq"

// catalogService is the consumer interface for the catalog use case (ISP).
type catalogService interface {
	SearchValues(ctx context.Context, v url.Values) (cataloguc.Response, error)
	Entry(ctx context.Context, id string) (domcat.Entry, error)
	Taxonomy(ctx context.Context, d taxonomy.Dimension) ([]taxonomy.Term, error)
	Refresh(ctx context.Context) (cataloguc.Info, error)
}

type healthService interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the catalog HTTP API.
type Server struct {
	catalog       catalogService
	health        healthService
	logger        *zap.Logger
	queryTimeout  time.Duration
	errorHandlers []errorHandler
}

// Option configures a Server.
type Option func(*Server)

// WithQueryTimeout bounds the time spent evaluating one search.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Server) { s.queryTimeout = d }
}

// NewServer creates an HTTP API server.
func NewServer(catalog catalogService, health healthService, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		catalog: catalog,
		health:  health,
		logger:  logger,
	}
	for _, o := range opts {
		o(s)
	}
	s.errorHandlers = []errorHandler{
		cursorMismatchHandler,
		sentinelHandler(domain.ErrInvalidCursor, http.StatusBadRequest, CodeInvalidCursor),
		sentinelHandler(domain.ErrEntryNotFound, http.StatusNotFound, CodeEntryNotFound),
		sentinelHandler(domain.ErrUnknownDimension, http.StatusNotFound, CodeUnknownDimension),
		sentinelHandler(domain.ErrSourceUnavailable, http.StatusServiceUnavailable, CodeSourceUnavailable),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, CodeTimeout),
	}
	return s
}

// Handler builds the chi router with the standard middleware chain.
// apiKeys guard the admin routes; an empty list disables auth.
func (s *Server) Handler(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(Recoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEvent(s.logger))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/catalog/search", s.Search)
		r.Get("/catalog/entries/{id}", s.GetEntry)
		r.Get("/taxonomy/{dimension}", s.GetTaxonomy)

		r.Group(func(r chi.Router) {
			r.Use(BearerAuthMiddleware(apiKeys))
			r.Post("/admin/refresh", s.Refresh)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}

// Search handles GET /api/v1/catalog/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	values := r.URL.Query()
	seq, seqWarn := parseSeq(values)
	values.Del(seqParam)

	resp, err := s.catalog.SearchValues(ctx, values)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if seqWarn != nil {
		resp.Warnings = append(resp.Warnings, *seqWarn)
	}

	writeJSON(w, http.StatusOK, NewSearchResponse(&resp, seq))
}

// GetEntry handles GET /api/v1/catalog/entries/{id}.
func (s *Server) GetEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.catalog.Entry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entryToResponse(&e))
}

// GetTaxonomy handles GET /api/v1/taxonomy/{dimension}.
func (s *Server) GetTaxonomy(w http.ResponseWriter, r *http.Request) {
	d := taxonomy.Dimension(chi.URLParam(r, "dimension"))
	terms, err := s.catalog.Taxonomy(r.Context(), d)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	list := make([]TermResponse, len(terms))
	for i, t := range terms {
		list[i] = termToResponse(t)
	}
	writeJSON(w, http.StatusOK, TaxonomyResponse{Dimension: string(d), Multi: d.IsMulti(), Terms: list})
}

// Refresh handles POST /api/v1/admin/refresh.
func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	info, err := s.catalog.Refresh(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RefreshResponse{Version: info.Version, Entries: info.Entries, BuiltAt: info.BuiltAt})
}

// HealthCheck handles GET /health. A stale snapshot still serves traffic.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:          string(report.Status),
		Checks:          checks,
		SnapshotVersion: report.SnapshotVersion,
		SnapshotAgeSec:  report.SnapshotAge.Seconds(),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// parseSeq reads the optional sequence number. A malformed value is dropped
// with a warning rather than failing the search.
func parseSeq(v url.Values) (*int64, *query.Warning) {
	raw := v.Get(seqParam)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, &query.Warning{Field: seqParam, Value: raw, Reason: "invalid sequence number, not echoed"}
	}
	return &n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidCursor,
		domain.ErrEntryNotFound,
		domain.ErrUnknownDimension,
		domain.ErrSourceUnavailable,
		context.DeadlineExceeded,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func cursorMismatchHandler(w http.ResponseWriter, err error, _ string) bool {
	var cme *domain.CursorMismatchError
	if !errors.As(err, &cme) {
		if errors.Is(err, domain.ErrCursorMismatch) {
			writeError(w, http.StatusConflict, CodeCursorMismatch, domain.ErrCursorMismatch.Error())
			return true
		}
		return false
	}
	writeJSON(w, http.StatusConflict, map[string]any{
		"code":            CodeCursorMismatch,
		"message":         cme.Error(),
		"cursor_sort":     cme.CursorSort,
		"query_sort":      cme.QuerySort,
		"filters_changed": cme.Filters,
	})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
