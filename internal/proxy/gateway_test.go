package proxy

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/genai"

	"github.com/kalambet/promptlift/internal/apperr"
)

func TestNew_Providers(t *testing.T) {
	ctx := context.Background()

	c, err := New(ctx, Options{Provider: "openai", APIKey: "k"})
	if err != nil {
		t.Fatalf("New(openai): %v", err)
	}
	if _, ok := c.(*OpenAIClient); !ok {
		t.Errorf("New(openai) = %T", c)
	}

	c, err = New(ctx, Options{Provider: "Gemini", APIKey: "k"})
	if err != nil {
		t.Fatalf("New(gemini): %v", err)
	}
	g, ok := c.(*GeminiClient)
	if !ok {
		t.Fatalf("New(gemini) = %T", c)
	}
	if g.model != defaultGeminiModel {
		t.Errorf("gemini model = %q, want %q", g.model, defaultGeminiModel)
	}

	if _, err := New(ctx, Options{Provider: "bard", APIKey: "k"}); err == nil {
		t.Error("expected error for unknown provider")
	}
	if _, err := New(ctx, Options{Provider: "openai"}); err == nil {
		t.Error("expected error for missing API key")
	}

	c, err = New(ctx, Options{Provider: "ollama"})
	if err != nil {
		t.Fatalf("New(ollama) without key: %v", err)
	}
	if _, ok := c.(*OllamaClient); !ok {
		t.Errorf("New(ollama) = %T", c)
	}
}

func TestClassifyGeminiError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"auth", genai.APIError{Code: 401, Message: "bad key"}, apperr.UpstreamAuthError},
		{"quota", fmt.Errorf("call: %w", genai.APIError{Code: 429}), apperr.UpstreamRateLimited},
		{"unavailable", genai.APIError{Code: 503}, apperr.UpstreamUnavailable},
		{"deadline", context.DeadlineExceeded, apperr.UpstreamTimeout},
		{"transport", errors.New("dial tcp: connection refused"), apperr.UpstreamUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apperr.KindOf(classifyGeminiError(tt.err)); got != tt.want {
				t.Errorf("kind = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCheckCompletion(t *testing.T) {
	if _, err := checkCompletion("  hi  "); !apperr.Is(err, apperr.UpstreamMalformedResponse) {
		t.Errorf("short completion err = %v", err)
	}
	got, err := checkCompletion("\nA full answer\n")
	if err != nil || got != "A full answer" {
		t.Errorf("checkCompletion = %q, %v", got, err)
	}
}
