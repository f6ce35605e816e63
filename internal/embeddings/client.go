// Package embeddings wraps an OpenAI-compatible embeddings API.
package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/linkstash/linkstash/internal/apperr"
)

// Config holds embeddings client configuration.
type Config struct {
	BaseURL string        // e.g. "https://api.openai.com"
	APIKey  string        // bearer token, optional for local endpoints
	Model   string        // e.g. "text-embedding-3-small"
	Timeout time.Duration // per-request bound, defaults to 8s
}

// Client generates embedding vectors for text. It is pure
// request/response; retries, if any, belong to the caller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// New creates a new embeddings client.
func New(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 8 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		model:      config.Model,
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// embeddingRequest is the request payload for the embeddings API.
type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// embeddingResponse is the response from the embeddings API.
type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// MaxInputChars limits input to stay within the model context window.
const MaxInputChars = 20000

// Embed generates an embedding vector for the given text and returns it
// with the model that produced it. Text exceeding MaxInputChars is
// truncated from the end. An unreachable service, non-2xx status, or a
// schema-mismatched/empty response is reported as a provider error.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, string, error) {
	originalLen := len(text)
	if len(text) > MaxInputChars {
		text = text[:MaxInputChars]
	}
	slog.Debug("generating embedding", "original_len", originalLen, "truncated_len", len(text))

	req := embeddingRequest{Model: c.model, Input: text}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST",
		c.baseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, "", apperr.Provider("embeddings request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", apperr.Provider("failed to read embeddings response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, "", apperr.Provider(
			fmt.Sprintf("embeddings API status %d: %s", resp.StatusCode, truncate(string(respBody), 200)), nil)
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(respBody, &embResp); err != nil {
		return nil, "", apperr.Provider("failed to unmarshal embeddings response", err)
	}

	if embResp.Error != nil {
		return nil, "", apperr.Provider("embeddings API error: "+embResp.Error.Message, nil)
	}

	if len(embResp.Data) == 0 || len(embResp.Data[0].Embedding) == 0 {
		return nil, "", apperr.Provider("empty embedding returned", nil)
	}

	return embResp.Data[0].Embedding, c.model, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
