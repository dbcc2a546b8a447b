// Package server exposes the resolution pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz            liveness and build version
//	POST /v1/resolve         scene document in, plan (and artifacts) out
//	POST /v1/resolve/batch   many documents, resolved by a bounded worker pool
//	POST /v1/extract         prompt in, sanitized scene document out
//
// Every response carries an X-Request-ID header. Errors are JSON objects
// with the machine-readable code from pkg/errors.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/blockout/pkg/buildinfo"
	"github.com/matzehuels/blockout/pkg/config"
	"github.com/matzehuels/blockout/pkg/errors"
	"github.com/matzehuels/blockout/pkg/extract"
	"github.com/matzehuels/blockout/pkg/pipeline"
)

// RequestIDHeader carries the request id on requests and responses.
const RequestIDHeader = "X-Request-ID"

// Server is the HTTP front end of a pipeline runner.
type Server struct {
	runner    *pipeline.Runner
	extractor extract.Extractor
	cfg       config.Config
	logger    *log.Logger
	router    chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithExtractor enables POST /v1/extract.
func WithExtractor(e extract.Extractor) Option { return func(s *Server) { s.extractor = e } }

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// New returns a server resolving documents with runner under cfg.
func New(runner *pipeline.Runner, cfg config.Config, opts ...Option) *Server {
	s := &Server{runner: runner, cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Use(s.limitBody)
		r.Post("/resolve", s.handleResolve)
		r.Post("/resolve/batch", s.handleBatch)
		r.Post("/extract", s.handleExtract)
	})
	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on cfg.Server.Addr until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", s.cfg.Server.Addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"id", w.Header().Get(RequestIDHeader),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n := s.cfg.Server.MaxBodyBytes; n > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, n)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

type errorBody struct {
	Code     errors.Code `json:"code"`
	Message  string      `json:"message"`
	Subjects []string    `json:"subjects,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "id", w.Header().Get(RequestIDHeader), "path", r.URL.Path, "err", err)
		msg = "internal error"
	}
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: msg, Subjects: errors.Subjects(err)}})
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeSchema, errors.ErrCodeDuplicateID, errors.ErrCodeDanglingParent, errors.ErrCodeCyclicAttachment:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errors.ErrCodeNetwork, errors.ErrCodeTimeout, errors.ErrCodeRateLimited, errors.ErrCodeUnauthorized:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
