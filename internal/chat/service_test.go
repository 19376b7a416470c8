package chat

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdesk/internal/offerdoc"
	"salesdesk/internal/provider"
	"salesdesk/internal/storage"
)

type fakeClient struct {
	mu        sync.Mutex
	answer    string
	genErr    error
	uploadErr error
	requests  []provider.Request
	uploads   []string
}

func (f *fakeClient) Name() string                   { return "fake" }
func (f *fakeClient) Ping(ctx context.Context) error { return nil }

func (f *fakeClient) Generate(ctx context.Context, req provider.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.genErr != nil {
		return "", f.genErr
	}
	return f.answer, nil
}

func (f *fakeClient) Upload(ctx context.Context, path, displayName, mimeType string) (provider.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, displayName)
	if f.uploadErr != nil {
		return provider.Attachment{}, f.uploadErr
	}
	return provider.Attachment{Handle: "https://files/" + displayName, MIMEType: mimeType}, nil
}

func newTestService(t *testing.T, client provider.Client, cfg Config) *Service {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	stamp := time.Date(2026, 5, 4, 16, 7, 0, 0, time.UTC)
	return NewService(store, client, cfg, WithClock(func() time.Time { return stamp }))
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func writeDocx(t *testing.T, name, markdown string) string {
	t.Helper()
	r, err := offerdoc.Convert(markdown)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestNewSessionID_Unique(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestAsk_RecordsBothTurns(t *testing.T) {
	client := &fakeClient{answer: "# Offer\n| A |\n| 1 |"}
	svc := newTestService(t, client, Config{SystemInstruction: "be a sales agent"})
	ctx := context.Background()

	reply, err := svc.Ask(ctx, AskCommand{SessionID: "s1", Prompt: "I need 10 laptops"})
	require.NoError(t, err)
	assert.Equal(t, 1, reply.Index)
	assert.Equal(t, storage.RoleAssistant, reply.Message.Role)

	history, err := svc.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "I need 10 laptops", history[0].Content)
	assert.Equal(t, client.answer, history[1].Content)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "be a sales agent", req.System)
	assert.Equal(t, "I need 10 laptops", req.Prompt)
	assert.Equal(t, "USER: I need 10 laptops", req.History)
}

func TestAsk_HistoryWindow(t *testing.T) {
	client := &fakeClient{answer: "ok"}
	svc := newTestService(t, client, Config{HistoryTurns: 3})
	ctx := context.Background()

	for _, p := range []string{"one", "two", "three"} {
		_, err := svc.Ask(ctx, AskCommand{SessionID: "s1", Prompt: p})
		require.NoError(t, err)
	}

	last := client.requests[len(client.requests)-1]
	assert.Equal(t, "USER: two\nASSISTANT: ok\nUSER: three", last.History)
}

func TestAsk_BlankPromptRejected(t *testing.T) {
	client := &fakeClient{answer: "ok"}
	svc := newTestService(t, client, Config{})

	_, err := svc.Ask(context.Background(), AskCommand{SessionID: "s1", Prompt: "   "})
	require.Error(t, err)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryValidation))
	assert.Empty(t, client.requests)

	history, err := svc.History(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAsk_GenerationFailureKeepsPrompt(t *testing.T) {
	client := &fakeClient{genErr: errors.New("quota exceeded")}
	svc := newTestService(t, client, Config{})
	ctx := context.Background()

	_, err := svc.Ask(ctx, AskCommand{SessionID: "s1", Prompt: "offer please"})
	require.Error(t, err)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryExternal))

	history, err := svc.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, storage.RoleUser, history[0].Role)
}

func TestAsk_WithoutProvider(t *testing.T) {
	svc := newTestService(t, nil, Config{})

	_, err := svc.Ask(context.Background(), AskCommand{SessionID: "s1", Prompt: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoProvider)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryAuth))
}

func TestAttach_UploadsAndSendsDocuments(t *testing.T) {
	client := &fakeClient{answer: "ok"}
	svc := newTestService(t, client, Config{})
	ctx := context.Background()
	path := writeFile(t, "prices.csv", "Laptop,4500")

	doc, err := svc.Attach(ctx, AttachCommand{SessionID: "s1", Kind: "catalog", Path: path})
	require.NoError(t, err)
	assert.Equal(t, "https://files/prices.csv", doc.Handle)
	assert.Equal(t, "text/csv", doc.MIMEType)
	assert.Empty(t, doc.InlineText)

	_, err = svc.Ask(ctx, AskCommand{SessionID: "s1", Prompt: "quote"})
	require.NoError(t, err)

	req := client.requests[0]
	require.Len(t, req.Documents, 1)
	assert.Equal(t, provider.DocumentLabel("catalog"), req.Documents[0].Label)
	assert.Equal(t, "https://files/prices.csv", req.Documents[0].Handle)
}

func TestAttach_InlineMode(t *testing.T) {
	client := &fakeClient{answer: "ok"}
	svc := newTestService(t, client, Config{InlineDocuments: true})
	path := writeFile(t, "brief.md", "  10 laptops for the sales team \n")

	doc, err := svc.Attach(context.Background(), AttachCommand{SessionID: "s1", Kind: "requirements", Path: path, DisplayName: "Brief"})
	require.NoError(t, err)
	assert.Equal(t, "10 laptops for the sales team", doc.InlineText)
	assert.Equal(t, "Brief", doc.DisplayName)
	assert.Empty(t, client.uploads)
}

func TestAttach_FallsBackToInlineWithoutFileAPI(t *testing.T) {
	client := &fakeClient{uploadErr: provider.ErrFilesUnsupported}
	svc := newTestService(t, client, Config{})
	path := writeFile(t, "prices.txt", "NAS 3200")

	doc, err := svc.Attach(context.Background(), AttachCommand{SessionID: "s1", Kind: "catalog", Path: path})
	require.NoError(t, err)
	assert.Equal(t, "NAS 3200", doc.InlineText)
	assert.Empty(t, doc.Handle)
}

func TestAttach_OfficeFilesAreInlined(t *testing.T) {
	client := &fakeClient{answer: "ok"}
	svc := newTestService(t, client, Config{})
	ctx := context.Background()

	path := writeDocx(t, "company.docx", "# About us\n- Dell partner since 2010")

	doc, err := svc.Attach(ctx, AttachCommand{SessionID: "s1", Kind: "portfolio", Path: path})
	require.NoError(t, err)
	assert.Empty(t, client.uploads)
	assert.Empty(t, doc.Handle)
	assert.Contains(t, doc.InlineText, "Dell partner since 2010")

	_, err = svc.Ask(ctx, AskCommand{SessionID: "s1", Prompt: "quote"})
	require.NoError(t, err)
	require.Len(t, client.requests[0].Documents, 1)
	assert.Empty(t, client.requests[0].Documents[0].Handle)
	assert.Contains(t, client.requests[0].Documents[0].InlineText, "Dell partner since 2010")
}

func TestAttach_OfficeFilesNeedNoProvider(t *testing.T) {
	svc := newTestService(t, nil, Config{})

	path := writeDocx(t, "catalog.docx", "Laptop 4500")

	doc, err := svc.Attach(context.Background(), AttachCommand{SessionID: "s1", Kind: "catalog", Path: path})
	require.NoError(t, err)
	assert.Contains(t, doc.InlineText, "Laptop 4500")
}

func TestAttach_CreatedAtMatchesStore(t *testing.T) {
	svc := newTestService(t, &fakeClient{}, Config{})
	ctx := context.Background()

	doc, err := svc.Attach(ctx, AttachCommand{SessionID: "s1", Kind: "catalog", Path: writeFile(t, "p.csv", "x,1")})
	require.NoError(t, err)

	docs, err := svc.Documents(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.True(t, doc.CreatedAt.Equal(docs[0].CreatedAt), "%v != %v", doc.CreatedAt, docs[0].CreatedAt)
	assert.True(t, doc.CreatedAt.Equal(time.Date(2026, 5, 4, 16, 7, 0, 0, time.UTC)))
}

func TestAttach_UploadFailureNotRecorded(t *testing.T) {
	client := &fakeClient{uploadErr: provider.ErrUploadFailed}
	svc := newTestService(t, client, Config{})
	path := writeFile(t, "prices.txt", "NAS 3200")

	_, err := svc.Attach(context.Background(), AttachCommand{SessionID: "s1", Kind: "catalog", Path: path})
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrUploadFailed)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryExternal))

	docs, err := svc.Documents(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestAttach_RejectsWrongType(t *testing.T) {
	svc := newTestService(t, &fakeClient{}, Config{})
	path := writeFile(t, "portfolio.txt", "about us")

	_, err := svc.Attach(context.Background(), AttachCommand{SessionID: "s1", Kind: "portfolio", Path: path})
	require.Error(t, err)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryValidation))
}

func TestAttach_UnknownKind(t *testing.T) {
	svc := newTestService(t, &fakeClient{}, Config{})

	_, err := svc.Attach(context.Background(), AttachCommand{SessionID: "s1", Kind: "invoice", Path: "x.pdf"})
	require.Error(t, err)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryValidation))
}

func TestExport_LatestAnswer(t *testing.T) {
	client := &fakeClient{answer: "# Offer\n**Total: 100**"}
	svc := newTestService(t, client, Config{})
	ctx := context.Background()

	_, err := svc.Ask(ctx, AskCommand{SessionID: "s1", Prompt: "quote"})
	require.NoError(t, err)

	out, err := svc.Export(ctx, ExportCommand{SessionID: "s1", Index: -1})
	require.NoError(t, err)
	assert.Equal(t, "oferta_20260504_1607.docx", out.FileName)
	assert.Equal(t, 1, out.Index)
	assert.Equal(t, client.answer, out.Source.Content)

	zr, err := zip.NewReader(bytes.NewReader(out.Data), int64(len(out.Data)))
	require.NoError(t, err)
	assert.NotEmpty(t, zr.File)
	assert.Equal(t, out.Data, func() []byte {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(out.Reader())
		return buf.Bytes()
	}())
}

func TestExport_Errors(t *testing.T) {
	client := &fakeClient{answer: "ok"}
	svc := newTestService(t, client, Config{})
	ctx := context.Background()

	_, err := svc.Export(ctx, ExportCommand{SessionID: "empty", Index: -1})
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryNotFound))

	_, err = svc.Ask(ctx, AskCommand{SessionID: "s1", Prompt: "quote"})
	require.NoError(t, err)

	_, err = svc.Export(ctx, ExportCommand{SessionID: "s1", Index: 0})
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryValidation), "user messages are not exported")

	_, err = svc.Export(ctx, ExportCommand{SessionID: "s1", Index: 7})
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryNotFound))
}

func TestReset(t *testing.T) {
	client := &fakeClient{answer: "ok"}
	svc := newTestService(t, client, Config{InlineDocuments: true})
	ctx := context.Background()

	_, err := svc.Attach(ctx, AttachCommand{SessionID: "s1", Kind: "catalog", Path: writeFile(t, "p.txt", "x")})
	require.NoError(t, err)
	_, err = svc.Ask(ctx, AskCommand{SessionID: "s1", Prompt: "hi"})
	require.NoError(t, err)
	_, err = svc.Ask(ctx, AskCommand{SessionID: "s2", Prompt: "hi"})
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx, "s1"))

	history, err := svc.History(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, history)
	docs, err := svc.Documents(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, docs)

	other, err := svc.History(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, other, 2)
}
