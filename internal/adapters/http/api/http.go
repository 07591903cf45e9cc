// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"

	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/adapters/snapshot"
	"github.com/okian/podium/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Read operations expose the dashboard views.
	CountryMedals(ctx context.Context, topN int, desc bool) ([]model.CountryMedalSummary, error)
	TopCountries(ctx context.Context, n int) ([]model.CountryTotal, error)
	DailyMatrix(ctx context.Context, n int) (model.DailyMatrix, error)
	CategoryBreakdown(ctx context.Context, country string, topK int) ([]model.CategoryBreakdownEntry, error)

	// Cache control.
	Reload(ctx context.Context) (repository.Info, error)
	ClearCache()
	Info() (repository.Info, bool)
}

// SnapshotReader serves previously persisted views.
type SnapshotReader interface {
	Latest(ctx context.Context, view string) (snapshot.Snapshot, error)
}

// Defaults are the view parameters used when a request omits them.
type Defaults struct {
	BarTopN       int
	StreamTopN    int
	WaffleCountry string
	WaffleTopK    int
}

// Option configures the Server.
type Option func(*Server)

// WithDefaults sets the view parameters used when a request omits them.
func WithDefaults(d Defaults) Option {
	return func(s *Server) {
		s.defaults = d
	}
}

// WithMaxLimit caps every top/limit query parameter.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithSnapshots exposes stored snapshots under /v1/snapshots/.
func WithSnapshots(r SnapshotReader) Option {
	return func(s *Server) {
		s.snapshots = r
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps      Dependencies
	stats     StatsProvider
	snapshots SnapshotReader
	defaults  Defaults
	maxLimit  int
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:  deps,
		stats: statsProvider,
		defaults: Defaults{
			BarTopN:       12,
			StreamTopN:    8,
			WaffleCountry: "United States",
			WaffleTopK:    12,
		},
		maxLimit: 250,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	views := &viewsHandler{deps: s.deps, defaults: s.defaults, maxLimit: s.maxLimit}
	cache := &cacheHandler{deps: s.deps}

	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(NewHealthHandler().HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(NewStatsHandler(s.stats).HandleStats, "stats"))
	mux.HandleFunc("/v1/countries/totals", MetricsMiddleware(views.HandleTotals, "totals"))
	mux.HandleFunc("/v1/countries", MetricsMiddleware(views.HandleCountries, "countries"))
	mux.HandleFunc("/v1/daily", MetricsMiddleware(views.HandleDaily, "daily"))
	mux.HandleFunc("/v1/disciplines", MetricsMiddleware(views.HandleDisciplines, "disciplines"))
	mux.HandleFunc("/v1/cache/clear", MetricsMiddleware(cache.HandleClear, "cache_clear"))
	mux.HandleFunc("/v1/cache/reload", MetricsMiddleware(cache.HandleReload, "cache_reload"))
	if s.snapshots != nil {
		snaps := &snapshotHandler{reader: s.snapshots}
		mux.HandleFunc("/v1/snapshots/", MetricsMiddleware(snaps.HandleGetSnapshot, "snapshots"))
	}
}

type errorResponse struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// wantsYAML reports whether the client asked for YAML instead of JSON.
func wantsYAML(r *http.Request) bool {
	accept := strings.ToLower(r.Header.Get("Accept"))
	return strings.Contains(accept, "application/yaml") ||
		strings.Contains(accept, "application/x-yaml") ||
		strings.Contains(accept, "text/yaml")
}

// writeBody encodes v as JSON, or as YAML when the request accepts it.
func writeBody(w http.ResponseWriter, r *http.Request, status int, v any) {
	var (
		body        []byte
		err         error
		contentType = "application/json; charset=utf-8"
	)
	if r != nil && wantsYAML(r) {
		contentType = "application/yaml; charset=utf-8"
		body, err = yaml.Marshal(v)
	} else {
		body, err = sonic.Marshal(v)
		if err == nil {
			body = append(body, '\n')
		}
	}
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeBody(w, r, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps an error to its status code and writes it.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrBadRequest):
		writeError(w, r, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not_found", err)
	case errors.Is(err, ErrUpstream), errors.Is(err, repository.ErrLoad):
		writeError(w, r, http.StatusBadGateway, "upstream_error", err)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusGatewayTimeout, "timeout", err)
	default:
		writeError(w, r, http.StatusInternalServerError, "internal_error", err)
	}
}
