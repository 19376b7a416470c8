package provider

import (
	"context"
	"errors"
)

var (
	ErrKeysExhausted    = errors.New("no provider key accepted")
	ErrUploadFailed     = errors.New("provider failed to process the uploaded file")
	ErrUploadTimeout    = errors.New("uploaded file still processing")
	ErrFilesUnsupported = errors.New("provider does not support file uploads")
	ErrEmptyResponse    = errors.New("provider returned an empty response")
)

// Attachment is a reference document sent along with a request. Exactly one
// of Handle or InlineText is expected to be set.
type Attachment struct {
	Label      string
	Handle     string
	MIMEType   string
	InlineText string
}

// Request is one stateless generation call: the documents and recent history
// are resent every turn.
type Request struct {
	System    string
	Documents []Attachment
	History   string
	Prompt    string
}

// Generator produces a model answer for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Uploader transfers a local file to the provider and waits until the
// provider reports it usable.
type Uploader interface {
	Upload(ctx context.Context, path, displayName, mimeType string) (Attachment, error)
}

// Client is a configured connection to one language-model provider.
type Client interface {
	Generator
	Uploader
	// Name identifies the provider, e.g. "gemini".
	Name() string
	// Ping issues a minimal generation to check that the key works.
	Ping(ctx context.Context) error
}
