package oracle

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/dvloznov/spendlens/internal/config"
)

// GeminiClient sends prompts to the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini client for cfg.
func NewGeminiClient(ctx context.Context, cfg config.OracleConfig) (*GeminiClient, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("NewGeminiClient: create genai client: %w", err)
	}
	return &GeminiClient{client: client, model: cfg.ModelName()}, nil
}

// Generate implements Client.
func (g *GeminiClient) Generate(ctx context.Context, p Prompt) (string, error) {
	parts := []*genai.Part{{Text: p.Text}}
	if len(p.Image) > 0 {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: p.ImageMIME,
				Data:     p.Image,
			},
		})
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	gc := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0.1)}
	if p.System != "" {
		gc.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: p.System}}}
	}
	if p.JSON {
		gc.ResponseMIMEType = "application/json"
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, gc)
	if err != nil {
		return "", fmt.Errorf("Generate: gemini generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
