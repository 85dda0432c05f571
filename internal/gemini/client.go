// Package gemini adapts the Google GenAI SDK to the insight text generator.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// Config selects the model and, in tests, the endpoint.
type Config struct {
	APIKey          string
	Model           string
	MaxOutputTokens int32
	BaseURL         string
}

type Client struct {
	genai *genai.Client
	model string
	cfg   *genai.GenerateContentConfig
	log   zerolog.Logger
}

// NewClient creates a Gemini API client.
func NewClient(ctx context.Context, cfg Config, log zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	gi, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	logger := log.With().Str("component", "gemini").Logger()
	logger.Info().Str("model", cfg.Model).Msg("gemini client initialized")
	return &Client{
		genai: gi,
		model: cfg.Model,
		cfg: &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			MaxOutputTokens:  cfg.MaxOutputTokens,
		},
		log: logger,
	}, nil
}

// Generate asks for a JSON reply and returns its raw text.
func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	cfg := *c.cfg
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	contents := []*genai.Content{genai.NewContentFromText(user, genai.RoleUser)}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, &cfg)
	if err != nil {
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("gemini api error %d: %s", apiErr.Code, apiErr.Message)
		}
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		return "", fmt.Errorf("gemini blocked prompt: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		reason := "unknown"
		if len(resp.Candidates) > 0 {
			reason = string(resp.Candidates[0].FinishReason)
		}
		return "", fmt.Errorf("gemini returned no content, finish reason: %s", reason)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini returned empty text")
	}
	c.log.Debug().Str("model", c.model).Int("chars", len(text)).Msg("generation received")
	return text, nil
}
