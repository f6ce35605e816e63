// Package llm wraps an OpenAI-compatible chat completions API, used to
// suggest tags and a description when page extraction comes back thin.
// Enrichment is optional and disabled by default.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds LLM client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration // defaults to 10s
}

// Client talks to the chat completions API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// New creates a new LLM client.
func New(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		model:      config.Model,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends a prompt and returns the model's reply.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST",
		c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response returned")
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// Suggestion holds LLM-proposed enrichment for a bookmark.
type Suggestion struct {
	Tags        []string
	Description string
}

// MaxContentForSuggestion limits content sent for enrichment.
const MaxContentForSuggestion = 20000

// SuggestBookmark proposes tags and a one-sentence description for a
// saved page.
func (c *Client) SuggestBookmark(ctx context.Context, title, content string) (*Suggestion, error) {
	if len(content) > MaxContentForSuggestion {
		content = content[:MaxContentForSuggestion]
	}

	prompt := fmt.Sprintf(`You are tagging a saved bookmark for later retrieval.

Given the page below, reply with exactly two lines:
tags: 3-6 short lowercase topic tags, comma separated
description: one sentence describing what the page is about

Title: %s

Content:
%s`, title, content)

	resp, err := c.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest bookmark enrichment: %w", err)
	}

	return parseSuggestion(resp), nil
}

func parseSuggestion(resp string) *Suggestion {
	s := &Suggestion{}
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "tags:"):
			for _, tag := range strings.Split(line[len("tags:"):], ",") {
				tag = strings.ToLower(strings.TrimSpace(tag))
				if tag != "" {
					s.Tags = append(s.Tags, tag)
				}
			}
		case strings.HasPrefix(lower, "description:"):
			s.Description = strings.TrimSpace(line[len("description:"):])
		}
	}
	return s
}
