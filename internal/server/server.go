// Package server exposes the project lifecycle over HTTP: project creation,
// file and message listing, sandbox control, the streaming chat endpoint,
// and a zip export.
package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"spawn/internal/llm"
	"spawn/internal/sandbox"
	"spawn/internal/search"
	"spawn/internal/store"
)

// Server holds the wired dependencies behind the HTTP surface.
type Server struct {
	store            *store.Store
	sandboxes        *sandbox.Manager
	model            llm.Client
	searcher         search.Provider
	maxIterations    int
	maxSearchResults int
	logger           *zap.Logger

	// chatLocks holds one entry per project with an in-flight chat turn.
	// A second chat for the same project is rejected rather than queued.
	chatLocks sync.Map
}

// Options carries the tunables the handlers need from configuration.
type Options struct {
	MaxIterations    int
	MaxSearchResults int
}

// New wires a Server. All dependencies are required except logger, which
// defaults to a nop logger.
func New(st *store.Store, sandboxes *sandbox.Manager, model llm.Client, searcher search.Provider, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 32
	}
	if opts.MaxSearchResults <= 0 {
		opts.MaxSearchResults = 5
	}
	return &Server{
		store:            st,
		sandboxes:        sandboxes,
		model:            model,
		searcher:         searcher,
		maxIterations:    opts.MaxIterations,
		maxSearchResults: opts.MaxSearchResults,
		logger:           logger,
	}
}

// Router builds the chi router with all project routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Post("/project", s.createProject)
	r.Route("/project/{projectID}", func(r chi.Router) {
		r.Get("/", s.getProject)
		r.Post("/startSandbox", s.startSandbox)
		r.Post("/heartbeat", s.heartbeat)
		r.Get("/files", s.listFiles)
		r.Get("/messages", s.listMessages)
		r.Post("/chat", s.chat)
		r.Get("/download", s.download)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "error": message})
}
