// Package anthropic is a minimal Messages API client used as a text
// generator for chat insights.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
)

type Client struct {
	apiKey    string
	model     string
	maxTokens int
	url       string
	client    *http.Client
	log       zerolog.Logger
}

func NewClient(apiKey, model string, maxTokens int, log zerolog.Logger) *Client {
	return &Client{
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		url:       apiURL,
		client:    &http.Client{Timeout: 120 * time.Second},
		log:       log.With().Str("component", "anthropic").Logger(),
	}
}

// SetTestTransport points the client at a test server.
func (c *Client) SetTestTransport(url string) {
	c.url = url
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

type response struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends one user turn and returns the raw reply text.
func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	return c.Complete(ctx, system, []Message{{Role: "user", Content: user}}, c.maxTokens)
}

// Complete sends a message to the Anthropic API and returns the text response.
func (c *Client) Complete(ctx context.Context, system string, messages []Message, maxTokens int) (string, error) {
	reqBody := request{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  messages,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Type != "" {
			return "", fmt.Errorf("api error %d: %s: %s", resp.StatusCode, errResp.Error.Type, errResp.Error.Message)
		}
		return "", fmt.Errorf("api error %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	var sb strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response content")
	}

	c.log.Debug().
		Str("model", c.model).
		Int("input_tokens", apiResp.Usage.InputTokens).
		Int("output_tokens", apiResp.Usage.OutputTokens).
		Str("stop_reason", apiResp.StopReason).
		Dur("elapsed", time.Since(start)).
		Msg("completion received")

	return sb.String(), nil
}
