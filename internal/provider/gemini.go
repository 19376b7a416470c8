package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiClient talks to the Gemini API with a single, already chosen key.
type GeminiClient struct {
	client        *genai.Client
	model         string
	pollInterval  time.Duration
	maxAttempts   int
	promptBuilder *PromptBuilder
}

func NewGeminiClient(ctx context.Context, apiKey string, opts Options) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiClient{
		client:        client,
		model:         opts.Model,
		pollInterval:  opts.PollInterval,
		maxAttempts:   opts.MaxAttempts,
		promptBuilder: &PromptBuilder{},
	}, nil
}

func (g *GeminiClient) Name() string { return "gemini" }

func (g *GeminiClient) Ping(ctx context.Context) error {
	_, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text("test"), nil)
	return err
}

func (g *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	var config *genai.GenerateContentConfig
	if strings.TrimSpace(req.System) != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, g.contents(req), config)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return CleanMarkdown(text), nil
}

// contents builds the single user turn: each document behind its label, then
// the recent history, then the current request.
func (g *GeminiClient) contents(req Request) []*genai.Content {
	var parts []*genai.Part
	for _, a := range req.Documents {
		switch {
		case a.Handle != "":
			parts = append(parts, genai.NewPartFromText(a.Label))
			parts = append(parts, genai.NewPartFromURI(a.Handle, a.MIMEType))
		case a.InlineText != "":
			parts = append(parts, genai.NewPartFromText(g.promptBuilder.InlineDocument(a)))
		}
	}
	if strings.TrimSpace(req.History) != "" {
		parts = append(parts, genai.NewPartFromText(g.promptBuilder.HistoryBlock(req.History)))
	}
	parts = append(parts, genai.NewPartFromText(g.promptBuilder.PromptBlock(req.Prompt)))
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

func (g *GeminiClient) Upload(ctx context.Context, path, displayName, mimeType string) (Attachment, error) {
	file, err := g.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{
		MIMEType:    mimeType,
		DisplayName: displayName,
	})
	if err != nil {
		return Attachment{}, fmt.Errorf("upload %s: %w", displayName, err)
	}

	current := file
	first := true
	poll := func(ctx context.Context) (Status, error) {
		if !first {
			f, err := g.client.Files.Get(ctx, current.Name, nil)
			if err != nil {
				return StatusProcessing, err
			}
			current = f
		}
		first = false
		return fileStatus(current.State), nil
	}
	if err := WaitReady(ctx, poll, g.pollInterval, g.maxAttempts); err != nil {
		return Attachment{}, fmt.Errorf("upload %s: %w", displayName, err)
	}

	mt := current.MIMEType
	if mt == "" {
		mt = mimeType
	}
	return Attachment{Handle: current.URI, MIMEType: mt}, nil
}

func fileStatus(state genai.FileState) Status {
	switch state {
	case genai.FileStateActive:
		return StatusReady
	case genai.FileStateFailed:
		return StatusFailed
	case genai.FileStateProcessing:
		return StatusProcessing
	default:
		// Unspecified: the API returned no state yet.
		return StatusProcessing
	}
}
