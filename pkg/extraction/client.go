package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client is the LLM completion surface the extractor depends on. Implement it
// to plug in any provider; HTTPClient covers OpenAI-compatible endpoints,
// which includes self-hosted Ollama and vLLM deployments.
type Client interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// HTTPClient calls an OpenAI-compatible chat completion endpoint.
type HTTPClient struct {
	// BaseURL is the full completion endpoint URL,
	// e.g. https://api.openai.com/v1/chat/completions.
	BaseURL string
	APIKey  string
	Model   string

	// Transport overrides the default HTTP client (30s timeout) when set.
	Transport *http.Client
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Chat sends a system+user message pair and returns the assistant content.
func (c *HTTPClient) Chat(ctx context.Context, system, user string) (string, error) {
	if c.BaseURL == "" || c.Model == "" {
		return "", fmt.Errorf("extraction: base URL and model required")
	}

	reqBody, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("extraction: decode response: %w", err)
	}
	if payload.Error != nil {
		return "", fmt.Errorf("extraction: provider error: %s", payload.Error.Message)
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("extraction: empty response")
	}
	return payload.Choices[0].Message.Content, nil
}

func (c *HTTPClient) httpClient() *http.Client {
	if c.Transport != nil {
		return c.Transport
	}
	return &http.Client{Timeout: 30 * time.Second}
}
