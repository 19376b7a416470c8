// Package api exposes quoting sessions over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"
	goerrors "github.com/goliatone/go-errors"

	"salesdesk/internal/chat"
	"salesdesk/internal/logging"
)

type Config struct {
	UploadDir   string
	MaxUploadMB int64
	Title       string
}

type Server struct {
	router     chi.Router
	chat       *chat.Service
	cfg        Config
	logger     logging.Logger
	transcript *transcriptRenderer
}

func NewServer(svc *chat.Service, cfg Config, logger logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if strings.TrimSpace(cfg.UploadDir) == "" {
		cfg.UploadDir = filepath.Join(os.TempDir(), "salesdesk_uploads")
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 32
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "create upload dir")
	}

	srv := &Server{
		router:     chi.NewRouter(),
		chat:       svc,
		cfg:        cfg,
		logger:     logger,
		transcript: newTranscriptRenderer(cfg.Title),
	}
	srv.routes()
	logger.Info("api: server ready", "upload_dir", cfg.UploadDir)
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Get("/sessions", s.handleListSessions)
	s.router.Post("/sessions", s.handleCreateSession)
	s.router.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.handleTranscript)
		r.Delete("/", s.handleReset)
		r.Get("/messages", s.handleHistory)
		r.Post("/messages", s.handleAsk)
		r.Get("/documents", s.handleDocuments)
		r.Post("/documents/{kind}", s.handleAttach)
		r.Get("/export", s.handleExport)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps the error category to a status code and writes the
// go-errors response envelope.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var e *goerrors.Error
	if !goerrors.As(err, &e) {
		e = goerrors.Wrap(err, goerrors.CategoryInternal, "internal error")
	}
	status := statusFor(e.Category)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	} else {
		s.logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, e.ToErrorResponse(false, nil))
}

func statusFor(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return http.StatusBadRequest
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
