package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"
	goerrors "github.com/goliatone/go-errors"

	"salesdesk/internal/chat"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := chat.NewSessionID()
	s.logger.Info("api: session created", "session", id)
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: id})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.chat.Sessions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]sessionSummaryResponse, 0, len(sessions))
	for _, ss := range sessions {
		out = append(out, sessionSummaryResponse{
			SessionID:    ss.SessionID,
			Messages:     ss.Messages,
			LastActivity: ss.LastActivity,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	history, err := s.chat.History(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := historyResponse{SessionID: id, Messages: make([]messageResponse, 0, len(history))}
	for i, m := range history {
		resp.Messages = append(resp.Messages, toMessage(i, m))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	history, err := s.chat.History(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	docs, err := s.chat.Documents(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := s.transcript.Render(&buf, id, history, docs); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req askRequest
	if err := decodeJSON(r.Body, askSchema, &req); err != nil {
		s.writeError(w, err)
		return
	}

	reply, err := s.chat.Ask(r.Context(), chat.AskCommand{SessionID: id, Prompt: req.Prompt})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessage(reply.Index, reply.Message))
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.chat.Documents(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocument(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAttach(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	kind := chi.URLParam(r, "kind")

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadMB<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		s.writeError(w, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse upload form").WithTextCode("BAD_UPLOAD"))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, goerrors.Wrap(err, goerrors.CategoryBadInput, "missing file field").WithTextCode("BAD_UPLOAD"))
		return
	}
	defer file.Close()

	dir, err := os.MkdirTemp(s.cfg.UploadDir, "upload-")
	if err != nil {
		s.writeError(w, fmt.Errorf("create upload dir: %w", err))
		return
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn("api: cleanup upload failed", "dir", dir, "error", err)
		}
	}()

	name := filepath.Base(header.Filename)
	path := filepath.Join(dir, name)
	if err := saveUpload(path, file); err != nil {
		s.writeError(w, err)
		return
	}

	doc, err := s.chat.Attach(r.Context(), chat.AttachCommand{
		SessionID:   id,
		Kind:        kind,
		Path:        path,
		DisplayName: name,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDocument(doc))
}

func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.chat.Reset(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	index := -1
	if raw := strings.TrimSpace(r.URL.Query().Get("index")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, goerrors.New(fmt.Sprintf("invalid index %q", raw), goerrors.CategoryBadInput).WithTextCode("BAD_INDEX"))
			return
		}
		index = n
	}

	out, err := s.chat.Export(r.Context(), chat.ExportCommand{SessionID: chi.URLParam(r, "id"), Index: index})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", out.FileName))
	http.ServeContent(w, r, out.FileName, time.Time{}, out.Reader())
}
