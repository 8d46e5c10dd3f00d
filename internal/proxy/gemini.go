package proxy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/kalambet/promptlift/internal/apperr"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiClient calls Google's Gemini API through the genai SDK.
type GeminiClient struct {
	client      *genai.Client
	model       string
	timeout     time.Duration
	temperature float32
	maxTokens   int32
}

// NewGeminiClient creates a Gemini-backed Completer. BaseURL, when set,
// overrides the API endpoint.
func NewGeminiClient(ctx context.Context, opts Options) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	c := &GeminiClient{
		client:      client,
		model:       opts.Model,
		timeout:     opts.Timeout,
		temperature: float32(opts.temperature()),
		maxTokens:   int32(opts.MaxTokens),
	}
	if c.model == "" || c.model == defaultModel {
		c.model = defaultGeminiModel
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.maxTokens <= 0 {
		c.maxTokens = defaultMaxTokens
	}
	return c, nil
}

func (c *GeminiClient) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(user), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(c.temperature),
		MaxOutputTokens:   c.maxTokens,
	})
	if err != nil {
		return "", classifyGeminiError(err)
	}
	if resp == nil {
		return "", apperr.New(apperr.UpstreamMalformedResponse, "completion service returned no candidates")
	}
	return checkCompletion(resp.Text())
}

func (c *GeminiClient) String() string {
	return fmt.Sprintf("gemini(%s)", c.model)
}

// classifyGeminiError maps SDK errors onto the gateway's error kinds.
func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return classifyStatus(apiErrPtr.Code, apiErrPtr.Message)
	}
	return classifyTransport(err)
}
