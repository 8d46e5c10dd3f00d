package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/kalambet/promptlift/internal/apperr"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultModel       = "gpt-4o-mini"
	defaultTimeout     = 60 * time.Second
	defaultTemperature = 0.7
	defaultMaxTokens   = 2000
	initialBackoff     = 500 * time.Millisecond
	maxErrorBody       = 4 << 10
)

// OpenAIClient calls an OpenAI-compatible /chat/completions endpoint
// (OpenAI, OpenRouter and most self-hosted servers).
type OpenAIClient struct {
	apiKey      string
	baseURL     string
	model       string
	timeout     time.Duration
	maxRetries  int
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

// NewOpenAIClient creates a client from opts, filling defaults.
func NewOpenAIClient(opts Options) *OpenAIClient {
	c := &OpenAIClient{
		apiKey:      opts.APIKey,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		model:       opts.Model,
		timeout:     opts.Timeout,
		maxRetries:  max(0, opts.MaxRetries),
		temperature: opts.temperature(),
		maxTokens:   opts.MaxTokens,
		httpClient:  &http.Client{},
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.maxTokens <= 0 {
		c.maxTokens = defaultMaxTokens
	}
	return c
}

// Complete sends the system/user pair and returns the assistant text.
// HTTP 429 is retried with exponential backoff up to maxRetries times.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	temp := c.temperature
	body, err := json.Marshal(ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: &temp,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err, "marshaling completion request")
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		text, err := c.doComplete(ctx, body)
		if err == nil {
			return text, nil
		}
		if !apperr.Is(err, apperr.UpstreamRateLimited) {
			return "", err
		}

		lastErr = err
		if attempt < c.maxRetries {
			backoff := time.Duration(float64(initialBackoff) * math.Pow(2, float64(attempt)))
			slog.Debug("completion rate limited, backing off", "attempt", attempt+1, "backoff", backoff)
			select {
			case <-ctx.Done():
				return "", classifyTransport(ctx.Err())
			case <-time.After(backoff):
			}
		}
	}
	return "", lastErr
}

func (c *OpenAIClient) doComplete(ctx context.Context, body []byte) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err, "creating completion request")
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		slog.Warn("completion request failed", "status", resp.StatusCode, "body", string(detail))
		return "", classifyStatus(resp.StatusCode, string(detail))
	}

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if reqCtx.Err() != nil {
			return "", classifyTransport(reqCtx.Err())
		}
		return "", apperr.Wrap(apperr.UpstreamMalformedResponse, err, "completion service returned an unreadable response")
	}
	if len(out.Choices) == 0 || out.Choices[0].Message == nil {
		return "", apperr.New(apperr.UpstreamMalformedResponse, "completion service returned no choices")
	}
	return checkCompletion(out.Choices[0].Message.Content)
}

func (c *OpenAIClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("HTTP-Referer", "https://github.com/kalambet/promptlift")
	req.Header.Set("X-Title", "promptlift")
}

// String identifies the client in logs.
func (c *OpenAIClient) String() string {
	return fmt.Sprintf("openai(%s, %s)", c.baseURL, c.model)
}
