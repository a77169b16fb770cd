package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/couchcryptid/checkin-geofence-service/internal/checkin"
	"github.com/couchcryptid/checkin-geofence-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Validator produces a check-in decision for a request.
type Validator interface {
	Validate(ctx context.Context, req checkin.Request) domain.Decision
}

// Server exposes the check-in validation endpoint plus health, readiness,
// and metrics routes.
type Server struct {
	httpServer   *http.Server
	validator    Validator
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewServer creates an HTTP server. The validation handler is mounted at
// /validate and at /.netlify/functions/validate for existing clients.
func NewServer(addr string, validator Validator, ready sharedobs.ReadinessChecker, maxBodyBytes int64, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      Chain(mux, Logging(logger)),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		validator:    validator,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}

	// Method-less patterns: non-POST requests get a use_post decision, not a 405.
	mux.HandleFunc("/validate", s.handleValidate)
	mux.HandleFunc("/.netlify/functions/validate", s.handleValidate)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleValidate always answers 200; failures are reported in the decision.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if err := recover(); err != nil {
			s.logger.Error("panic recovered",
				"error", err,
				"stack", string(debug.Stack()),
			)
			writeDecision(w, domain.Reject(domain.ReasonServerError))
		}
	}()

	req := checkin.Request{
		Method: r.Method,
		Token:  r.URL.Query().Get("token"),
	}
	if r.Body != nil {
		req.Body, req.BodyErr = io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	}

	writeDecision(w, s.validator.Validate(r.Context(), req))
}

func writeDecision(w http.ResponseWriter, d domain.Decision) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(d) //nolint:errcheck // client went away; nothing left to report
}
