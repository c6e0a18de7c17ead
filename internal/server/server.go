// Package server exposes the classifier over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Digital-Shane/shirarium/internal/core"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// ParseRequest is the body of POST /v1/parse-filename.
type ParseRequest struct {
	Path string `json:"path"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	OllamaEnabled string `json:"ollama_enabled"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server routes classification requests to a core.Classifier.
type Server struct {
	classifier *core.Classifier
	logger     zerolog.Logger
	router     chi.Router
}

// New builds the server and its routes. A nil classifier uses the heuristic
// engine alone.
func New(classifier *core.Classifier, logger zerolog.Logger) *Server {
	if classifier == nil {
		classifier = core.NewClassifier(core.ClassifierConfig{})
	}
	s := &Server{classifier: classifier, logger: logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Get("/health", s.health)
	r.Post("/v1/parse-filename", s.parseFilename)
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("server: listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info().Msg("server: shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		OllamaEnabled: strconv.FormatBool(s.classifier.ExternalEnabled()),
	})
}

func (s *Server) parseFilename(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE", "request body exceeds 1 MiB")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "MALFORMED_JSON", "request body is empty")
		default:
			writeError(w, http.StatusBadRequest, "MALFORMED_JSON", "request body is not valid JSON")
		}
		return
	}

	if strings.TrimSpace(req.Path) == "" {
		writeError(w, http.StatusUnprocessableEntity, "INVALID_REQUEST", "path is required")
		return
	}

	res := s.classifier.Classify(r.Context(), req.Path)
	writeJSON(w, http.StatusOK, res.Record())
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}
