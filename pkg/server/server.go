// Package server exposes the question-answering chain over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/nodewee/docrag/pkg/logger"
	"github.com/nodewee/docrag/pkg/rag"
	"github.com/nodewee/docrag/pkg/utils"
)

// Asker answers one question
type Asker interface {
	Ask(ctx context.Context, question string) (*rag.Answer, error)
}

// AskRequest is the body of POST /ask
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is returned by a successful POST /ask
type AskResponse struct {
	Answer           string   `json:"answer"`
	RetrievedSources []string `json:"retrieved_sources"`
}

// ErrorResponse is returned on failure
type ErrorResponse struct {
	Detail string `json:"detail"`
}

const maxRequestBytes = 1 << 20

// Server routes HTTP requests to an Asker
type Server struct {
	asker  Asker
	router *mux.Router
	log    *logger.Logger
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(log *logger.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// New creates a server answering questions with asker
func New(asker Asker, opts ...Option) *Server {
	s := &Server{
		asker:  asker,
		router: mux.NewRouter(),
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	s.router.Use(c.Handler)
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/ask", s.handleAsk).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	preflight := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
	s.router.HandleFunc("/ask", preflight).Methods(http.MethodOptions)
}

// Run serves on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.ProgressAlways("🌐", "Listening on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return utils.WrapError(err, utils.ErrorTypeNetwork, "server stopped")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "question must not be empty"})
		return
	}

	ans, err := s.asker.Ask(r.Context(), req.Question)
	if err != nil {
		s.log.Error("ask failed: %v", err)
		status := http.StatusInternalServerError
		if utils.GetErrorType(err) == utils.ErrorTypeValidation {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, ErrorResponse{Detail: err.Error()})
		return
	}

	sources := ans.Sources
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, AskResponse{Answer: ans.Text, RetrievedSources: sources})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
