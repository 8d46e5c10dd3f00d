package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kalambet/promptlift/internal/apperr"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "llama3.2"
)

// OllamaClient calls the native /api/chat endpoint of a local Ollama server.
// No API key is needed.
type OllamaClient struct {
	baseURL     string
	model       string
	timeout     time.Duration
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Message *Message `json:"message"`
	Error   string   `json:"error,omitempty"`
}

// NewOllamaClient creates a client from opts. Hosted-provider model names
// fall back to the local default.
func NewOllamaClient(opts Options) *OllamaClient {
	c := &OllamaClient{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		model:       opts.Model,
		timeout:     opts.Timeout,
		temperature: opts.temperature(),
		maxTokens:   opts.MaxTokens,
		httpClient:  &http.Client{},
	}
	if c.baseURL == "" {
		c.baseURL = defaultOllamaBaseURL
	}
	if c.model == "" || c.model == defaultModel {
		c.model = defaultOllamaModel
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.maxTokens <= 0 {
		c.maxTokens = defaultMaxTokens
	}
	return c
}

// IsRunning reports whether the server answers GET /api/tags.
func (c *OllamaClient) IsRunning(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *OllamaClient) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(ollamaChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Options: ollamaOptions{Temperature: c.temperature, NumPredict: c.maxTokens},
	})
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err, "marshaling completion request")
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err, "creating completion request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		slog.Warn("ollama chat failed", "status", resp.StatusCode, "body", string(detail))
		// A missing model is a local setup problem, not an outage.
		if resp.StatusCode == http.StatusNotFound {
			return "", apperr.Wrap(apperr.UpstreamUnavailable, errors.New(string(detail)),
				"model %s is not available locally, run: ollama pull %s", c.model, c.model)
		}
		return "", classifyStatus(resp.StatusCode, string(detail))
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if reqCtx.Err() != nil {
			return "", classifyTransport(reqCtx.Err())
		}
		return "", apperr.Wrap(apperr.UpstreamMalformedResponse, err, "completion service returned an unreadable response")
	}
	if out.Error != "" {
		return "", apperr.Wrap(apperr.UpstreamUnavailable, errors.New(out.Error), "completion service reported an error")
	}
	if out.Message == nil {
		return "", apperr.New(apperr.UpstreamMalformedResponse, "completion service returned no message")
	}
	return checkCompletion(out.Message.Content)
}

// String identifies the client in logs.
func (c *OllamaClient) String() string {
	return fmt.Sprintf("ollama(%s, %s)", c.baseURL, c.model)
}
