// Package proxy talks to the third-party chat-completion service that
// rewrites prompts. Every failure is classified into an apperr kind here so
// callers never see raw upstream errors.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/kalambet/promptlift/internal/apperr"
)

// Completer is the completion gateway: one system instruction and one user
// message in, assistant text out.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// minCompletionLen is the shortest completion accepted as a real answer.
const minCompletionLen = 5

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// Options configures a gateway client.
type Options struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	// Temperature is sent as is, zero included. Nil selects the default.
	Temperature *float64
	MaxTokens   int
}

func (o Options) temperature() float64 {
	if o.Temperature == nil {
		return defaultTemperature
	}
	return *o.Temperature
}

// New creates the Completer for opts.Provider.
func New(ctx context.Context, opts Options) (Completer, error) {
	provider := strings.ToLower(opts.Provider)
	if opts.APIKey == "" && provider != ProviderOllama {
		return nil, fmt.Errorf("%s gateway requires an API key", opts.Provider)
	}
	switch provider {
	case "", ProviderOpenAI:
		return NewOpenAIClient(opts), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, opts)
	case ProviderOllama:
		return NewOllamaClient(opts), nil
	default:
		return nil, fmt.Errorf("unknown gateway provider: %s", opts.Provider)
	}
}

// checkCompletion rejects missing or suspiciously short completion text.
func checkCompletion(text string) (string, error) {
	text = strings.TrimSpace(text)
	if len(text) < minCompletionLen {
		return "", apperr.New(apperr.UpstreamMalformedResponse, "completion service returned an empty or truncated response")
	}
	return text, nil
}

// classifyStatus maps an upstream HTTP status to an error kind.
func classifyStatus(status int, detail string) error {
	cause := fmt.Errorf("upstream status %d: %s", status, detail)
	switch {
	case status == 401 || status == 403:
		return apperr.Wrap(apperr.UpstreamAuthError, cause, "completion service rejected the API key")
	case status == 429:
		return apperr.Wrap(apperr.UpstreamRateLimited, cause, "completion service rate limit reached, try again shortly")
	case status == 408 || status == 504:
		return apperr.Wrap(apperr.UpstreamTimeout, cause, "completion service timed out")
	case status >= 500:
		return apperr.Wrap(apperr.UpstreamUnavailable, cause, "completion service unavailable")
	default:
		return apperr.Wrap(apperr.Internal, cause, "completion request failed")
	}
}

// classifyTransport maps a transport-level error to an error kind.
func classifyTransport(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Wrap(apperr.UpstreamTimeout, err, "completion service timed out")
	case errors.As(err, &netErr) && netErr.Timeout():
		return apperr.Wrap(apperr.UpstreamTimeout, err, "completion service timed out")
	case errors.Is(err, context.Canceled):
		return apperr.Wrap(apperr.Internal, err, "request canceled")
	default:
		return apperr.Wrap(apperr.UpstreamUnavailable, err, "completion service unreachable")
	}
}
