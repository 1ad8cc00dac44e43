// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/okian/arcade/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PackingDependencies
	RouteDependencies
	LineupDependencies
}

// Server wires HTTP routes for the solving API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	packingHandler   *PackingHandler
	routeHandler     *RouteHandler
	lineupHandler    *LineupHandler
	dashboardHandler *dashboardHandler

	maxBodyBytes int64
	logger       logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		maxBodyBytes: defaultMaxBodyBytes,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	b := base{maxBodyBytes: s.maxBodyBytes, logger: s.logger}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.packingHandler = &PackingHandler{base: b, deps: deps}
	s.routeHandler = &RouteHandler{base: b, deps: deps}
	s.lineupHandler = &LineupHandler{base: b, deps: deps}
	s.dashboardHandler = newDashboardHandler()
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/api/packing/solve", MetricsMiddleware(s.packingHandler.HandleSolve, "packing_solve"))
	mux.HandleFunc("/api/packing/compare", MetricsMiddleware(s.packingHandler.HandleCompare, "packing_compare"))
	mux.HandleFunc("/api/route/solve", MetricsMiddleware(s.routeHandler.HandleSolve, "route_solve"))
	mux.HandleFunc("/api/route/compare", MetricsMiddleware(s.routeHandler.HandleCompare, "route_compare"))
	mux.HandleFunc("/api/lineup/solve", MetricsMiddleware(s.lineupHandler.HandleSolve, "lineup_solve"))
}

// base holds what every solve handler needs to read requests and report
// failures.
type base struct {
	maxBodyBytes int64
	logger       logger.Logger
}

// decode reads a JSON body of at most maxBodyBytes into v.
func (b base) decode(w http.ResponseWriter, r *http.Request, op string, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || mt != "application/json" {
			return WrapKind(op, ErrUnsupportedType, fmt.Errorf("got %q", ct))
		}
	}
	body := http.MaxBytesReader(w, r.Body, b.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return WrapKind(op, ErrBodyTooLarge, err)
		}
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}

// fail writes err with the status it maps to and logs server side failures.
func (b base) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		b.logger.Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.String("request_id", RequestID(r.Context())),
			logger.Int("status", status),
			logger.Error(err))
	}
	writeError(w, status, code, err)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
