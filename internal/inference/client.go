package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zharotiai/cf-ai-music-chatbot/internal/config"
	"github.com/zharotiai/cf-ai-music-chatbot/internal/models"
)

// Message is one turn of the conversation sent to the inference backend.
type Message struct {
	Role    models.Role `json:"role"`
	Content string      `json:"content"`
}

type chatPayload struct {
	Messages []Message `json:"messages"`
	Persona  string    `json:"persona"`
	Model    string    `json:"model,omitempty"`
}

// Client talks to the inference backend over HTTP. Responses stream back as
// newline-delimited JSON and are returned to the caller unparsed.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func NewClient(cfg config.InferenceConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

// Stream posts the conversation and returns the response body for the caller
// to consume incrementally. The caller owns closing it.
func (c *Client) Stream(ctx context.Context, messages []Message, persona string) (io.ReadCloser, error) {
	body, err := json.Marshal(chatPayload{Messages: messages, Persona: persona, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("encode chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("inference backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return resp.Body, nil
}
