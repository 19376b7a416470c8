package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"salesdesk/internal/logging"
)

type Options struct {
	Provider     string
	Model        string
	BaseURL      string
	ProbeTimeout time.Duration
	PollInterval time.Duration
	MaxAttempts  int
	Logger       logging.Logger
}

// New builds a client for opts.Provider bound to apiKey. It does not contact
// the provider.
func New(ctx context.Context, opts Options, apiKey string) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = "gemini"
	}

	switch provider {
	case "gemini":
		return NewGeminiClient(ctx, apiKey, opts)
	case "openai":
		return NewOpenAIClient(apiKey, opts.Model, opts.BaseURL), nil
	default:
		return nil, goerrors.New(fmt.Sprintf("unsupported provider: %s", opts.Provider), goerrors.CategoryValidation).
			WithTextCode("PROVIDER_UNSUPPORTED")
	}
}

// Connect walks the candidate keys in order, probing each with a tiny
// generation, and returns a client bound to the first working key.
func Connect(ctx context.Context, opts Options, candidates []string) (Client, Selection, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	timeout := opts.ProbeTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	clients := make(map[string]Client)
	probe := func(ctx context.Context, key string) error {
		c, err := New(ctx, opts, key)
		if err != nil {
			return err
		}
		pctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := c.Ping(pctx); err != nil {
			logger.Warn("provider key rejected", "key", MaskKey(key), "error", err)
			return err
		}
		clients[key] = c
		return nil
	}

	sel, err := SelectKey(ctx, candidates, probe)
	if err != nil {
		return nil, sel, goerrors.Wrap(err, goerrors.CategoryAuth, "no working provider key").
			WithTextCode("PROVIDER_KEYS_EXHAUSTED")
	}
	logger.Info("provider key selected", "provider", opts.Provider, "key", MaskKey(sel.Key), "rejected", len(sel.Rejected))
	return clients[sel.Key], sel, nil
}
