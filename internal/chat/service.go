// Package chat runs quoting sessions: it keeps the conversation log, sends
// each request to the language model together with the session's reference
// documents, and turns answers into Word offers.
package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"salesdesk/internal/ingest"
	"salesdesk/internal/logging"
	"salesdesk/internal/offerdoc"
	"salesdesk/internal/provider"
	"salesdesk/internal/storage"
)

const exportNameLayout = "oferta_20060102_1504.docx"

var ErrNoProvider = errors.New("no language model provider connected")

// Config holds the conversation settings of a Service.
type Config struct {
	SystemInstruction string
	HistoryTurns      int
	InlineDocuments   bool
}

// Reply is the assistant answer to one Ask call. Index is the position of
// the answer in the session history.
type Reply struct {
	Message storage.Message
	Index   int
}

// Export is a rendered offer ready to be saved or downloaded.
type Export struct {
	FileName    string
	ContentType string
	Data        []byte
	Source      storage.Message
	Index       int
}

type Option func(*Service)

func WithLogger(logger logging.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithConverter(c *offerdoc.Converter) Option {
	return func(s *Service) {
		if c != nil {
			s.converter = c
		}
	}
}

// Service is safe for concurrent use as long as the store and client are.
type Service struct {
	store     storage.Store
	client    provider.Client
	converter *offerdoc.Converter
	cfg       Config
	logger    logging.Logger
	now       func() time.Time
}

// NewService wires a session service. client may be nil, in which case only
// history, reset and export work.
func NewService(store storage.Store, client provider.Client, cfg Config, opts ...Option) *Service {
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = 5
	}
	s := &Service{
		store:     store,
		client:    client,
		converter: offerdoc.New(),
		cfg:       cfg,
		logger:    logging.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Attach validates a local file, hands it to the provider (or extracts its
// text when documents are inlined) and records it for the session. A failed
// upload leaves the session untouched.
func (s *Service) Attach(ctx context.Context, cmd AttachCommand) (storage.Document, error) {
	if err := goerrors.ValidateWithOzzo(cmd.Validate, "invalid attachment"); err != nil {
		return storage.Document{}, err
	}
	kind, err := ingest.ParseKind(cmd.Kind)
	if err != nil {
		return storage.Document{}, err
	}
	mimeType, err := ingest.Accepts(kind, cmd.Path)
	if err != nil {
		return storage.Document{}, err
	}

	name := strings.TrimSpace(cmd.DisplayName)
	if name == "" {
		name = filepath.Base(cmd.Path)
	}
	doc := storage.Document{
		SessionID:   cmd.SessionID,
		Kind:        string(kind),
		DisplayName: name,
		MIMEType:    mimeType,
	}
	logger := s.logger.WithFields(map[string]any{"session": cmd.SessionID, "kind": kind, "file": name})

	inline := s.cfg.InlineDocuments || !ingest.Uploadable(mimeType)
	if !inline {
		if s.client == nil {
			return storage.Document{}, goerrors.Wrap(ErrNoProvider, goerrors.CategoryAuth, "cannot upload document").
				WithTextCode("PROVIDER_MISSING")
		}
		att, err := s.client.Upload(ctx, cmd.Path, name, mimeType)
		switch {
		case err == nil:
			doc.Handle = att.Handle
			doc.MIMEType = att.MIMEType
		case errors.Is(err, provider.ErrFilesUnsupported):
			logger.Info("provider has no file api, inlining document")
			inline = true
		default:
			logger.Error("document upload failed", "error", err)
			return storage.Document{}, goerrors.Wrap(err, goerrors.CategoryExternal, fmt.Sprintf("failed to upload %s", name)).
				WithTextCode("UPLOAD_FAILED")
		}
	}
	if inline {
		text, err := ingest.ExtractText(cmd.Path)
		if err != nil {
			return storage.Document{}, err
		}
		doc.InlineText = text
	}

	doc.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return storage.Document{}, err
	}
	logger.Info("document attached", "inline", inline)
	return doc, nil
}

// Ask records the prompt, asks the model and records the answer. The prompt
// stays in the log even when generation fails.
func (s *Service) Ask(ctx context.Context, cmd AskCommand) (Reply, error) {
	if err := goerrors.ValidateWithOzzo(cmd.Validate, "invalid question"); err != nil {
		return Reply{}, err
	}
	if s.client == nil {
		return Reply{}, goerrors.Wrap(ErrNoProvider, goerrors.CategoryAuth, "cannot answer").
			WithTextCode("PROVIDER_MISSING")
	}
	logger := s.logger.WithContext(ctx).WithFields(map[string]any{"session": cmd.SessionID})

	if _, err := s.store.Append(ctx, cmd.SessionID, storage.RoleUser, cmd.Prompt); err != nil {
		return Reply{}, err
	}

	req, err := s.buildRequest(ctx, cmd.SessionID, cmd.Prompt)
	if err != nil {
		return Reply{}, err
	}

	start := s.now()
	answer, err := s.client.Generate(ctx, req)
	if err != nil {
		logger.Error("generation failed", "provider", s.client.Name(), "error", err)
		return Reply{}, goerrors.Wrap(err, goerrors.CategoryExternal, "the model could not answer").
			WithTextCode("GENERATION_FAILED")
	}
	logger.Info("answer generated", "provider", s.client.Name(), "documents", len(req.Documents), "elapsed", s.now().Sub(start))

	msg, err := s.store.Append(ctx, cmd.SessionID, storage.RoleAssistant, answer)
	if err != nil {
		return Reply{}, err
	}
	history, err := s.store.History(ctx, cmd.SessionID)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Message: msg, Index: indexOf(history, msg.ID)}, nil
}

func (s *Service) buildRequest(ctx context.Context, sessionID, prompt string) (provider.Request, error) {
	history, err := s.store.History(ctx, sessionID)
	if err != nil {
		return provider.Request{}, err
	}
	turns := make([]provider.Turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, provider.Turn{Role: string(m.Role), Content: m.Content})
	}

	docs, err := s.store.Documents(ctx, sessionID)
	if err != nil {
		return provider.Request{}, err
	}
	attachments := make([]provider.Attachment, 0, len(docs))
	for _, d := range docs {
		attachments = append(attachments, provider.Attachment{
			Label:      provider.DocumentLabel(d.Kind),
			Handle:     d.Handle,
			MIMEType:   d.MIMEType,
			InlineText: d.InlineText,
		})
	}

	return provider.Request{
		System:    s.cfg.SystemInstruction,
		Documents: attachments,
		History:   provider.FormatHistory(turns, s.cfg.HistoryTurns),
		Prompt:    prompt,
	}, nil
}

func (s *Service) History(ctx context.Context, sessionID string) ([]storage.Message, error) {
	return s.store.History(ctx, sessionID)
}

func (s *Service) Documents(ctx context.Context, sessionID string) ([]storage.Document, error) {
	return s.store.Documents(ctx, sessionID)
}

func (s *Service) Sessions(ctx context.Context) ([]storage.SessionSummary, error) {
	return s.store.Sessions(ctx)
}

// Reset forgets the session's messages and documents.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	if err := s.store.Clear(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Info("session reset", "session", sessionID)
	return nil
}

// Export renders one assistant answer as a Word document.
func (s *Service) Export(ctx context.Context, cmd ExportCommand) (Export, error) {
	if err := goerrors.ValidateWithOzzo(cmd.Validate, "invalid export"); err != nil {
		return Export{}, err
	}
	history, err := s.store.History(ctx, cmd.SessionID)
	if err != nil {
		return Export{}, err
	}

	index := cmd.Index
	if index < 0 {
		index = latestAnswer(history)
		if index < 0 {
			return Export{}, goerrors.New("session has no answer to export", goerrors.CategoryNotFound).
				WithTextCode("EXPORT_NO_ANSWER")
		}
	}
	if index >= len(history) {
		return Export{}, goerrors.New(fmt.Sprintf("no message at index %d", index), goerrors.CategoryNotFound).
			WithTextCode("EXPORT_NO_MESSAGE")
	}
	msg := history[index]
	if msg.Role != storage.RoleAssistant {
		return Export{}, goerrors.New(fmt.Sprintf("message %d is not an answer", index), goerrors.CategoryValidation).
			WithTextCode("EXPORT_NOT_ANSWER")
	}

	r, err := s.converter.Convert(msg.Content)
	if err != nil {
		return Export{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Export{}, err
	}

	out := Export{
		FileName:    s.now().Format(exportNameLayout),
		ContentType: offerdoc.ContentType,
		Data:        data,
		Source:      msg,
		Index:       index,
	}
	s.logger.Info("offer exported", "session", cmd.SessionID, "index", index, "file", out.FileName, "bytes", len(data))
	return out, nil
}

// Reader returns the document bytes as a fresh reader.
func (e Export) Reader() *bytes.Reader {
	return bytes.NewReader(e.Data)
}

func latestAnswer(history []storage.Message) int {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == storage.RoleAssistant {
			return i
		}
	}
	return -1
}

func indexOf(history []storage.Message, id int64) int {
	for i, m := range history {
		if m.ID == id {
			return i
		}
	}
	return len(history) - 1
}
