package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatEndpoint(t *testing.T) {
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", chatEndpoint(""))
	assert.Equal(t, "http://localhost:11434/v1/chat/completions", chatEndpoint("http://localhost:11434/v1/"))
	assert.Equal(t, "http://proxy/v1/chat/completions", chatEndpoint("http://proxy"))
	assert.Equal(t, "http://proxy/v1/chat/completions", chatEndpoint("http://proxy/v1/chat/completions"))
}

func TestOpenAIClient_Generate(t *testing.T) {
	var got openAIChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"` + "```markdown\\n# Offer\\n```" + `"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", "gpt-4o-mini", srv.URL)
	out, err := c.Generate(context.Background(), Request{
		System:    "You are a sales agent.",
		Documents: []Attachment{{Label: "Catalog:", InlineText: "Laptop"}},
		Prompt:    "Offer please",
	})
	require.NoError(t, err)

	assert.Equal(t, "# Offer", out)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "You are a sales agent.", got.Messages[0].Content)
	assert.Contains(t, got.Messages[1].Content, "Catalog:\n<<<\nLaptop\n>>>")
	assert.Contains(t, got.Messages[1].Content, "CURRENT REQUEST: Offer please")
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIClient("sk-test", "m", srv.URL).Generate(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAIClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewOpenAIClient("sk-bad", "m", srv.URL).Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestOpenAIClient_UploadUnsupported(t *testing.T) {
	_, err := NewOpenAIClient("k", "m", "").Upload(context.Background(), "/tmp/x.pdf", "x", "application/pdf")
	assert.ErrorIs(t, err, ErrFilesUnsupported)
}

func TestConnect_SkipsRejectedKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-key-9999" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	opts := Options{Provider: "openai", Model: "m", BaseURL: srv.URL}
	client, sel, err := Connect(context.Background(), opts, []string{"bad-key-1111", "good-key-9999"})
	require.NoError(t, err)

	assert.Equal(t, "openai", client.Name())
	assert.Equal(t, 1, sel.Index)
	require.Len(t, sel.Rejected, 1)
	assert.Equal(t, "...1111", sel.Rejected[0].Masked)
}

func TestConnect_AllKeysRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	opts := Options{Provider: "openai", Model: "m", BaseURL: srv.URL}
	_, _, err := Connect(context.Background(), opts, []string{"k1-aaaa", "k2-bbbb"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKeysExhausted)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryAuth))
}

func TestNew_UnsupportedProvider(t *testing.T) {
	_, err := New(context.Background(), Options{Provider: "llama"}, "k")
	require.Error(t, err)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryValidation))
}
