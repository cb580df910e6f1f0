// Package oracle talks to the large language model providers used for
// categorization, image transcription and narrative summaries. Every call
// is cancellable and callers treat failures as non-fatal.
package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/spendlens/internal/config"
)

var (
	// ErrNotConfigured is returned when no API key is available.
	ErrNotConfigured = errors.New("oracle: no API key configured")
	// ErrEmptyResponse is returned when the provider answered with no text.
	ErrEmptyResponse = errors.New("oracle: empty response")
)

// Prompt is a single request to a provider.
type Prompt struct {
	System    string
	Text      string
	Image     []byte
	ImageMIME string
	// JSON asks the provider for a JSON-only answer where it supports that.
	JSON bool
}

// Client sends one prompt and returns the raw text answer.
type Client interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// NewClient builds the provider client selected by cfg, wrapped in the
// configured rate limit.
func NewClient(ctx context.Context, cfg config.OracleConfig) (Client, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}

	var (
		c   Client
		err error
	)
	switch cfg.Provider {
	case config.ProviderGemini, "":
		c, err = NewGeminiClient(ctx, cfg)
	case config.ProviderOpenAI:
		c = NewOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("NewClient: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("NewClient: %w", err)
	}
	return NewRateLimited(c, cfg.RequestsPerSecond, cfg.Burst), nil
}
