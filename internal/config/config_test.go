package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// mockKeychain is a test double for the keychain interface.
type mockKeychain struct {
	value string
	err   error
}

func (m mockKeychain) Get(service, account string) (string, error) {
	return m.value, m.err
}

// mapBackend is an in-memory ConfigBackend.
type mapBackend struct {
	data map[string]string
	ints map[string]int
}

func newMapBackend() *mapBackend {
	return &mapBackend{data: map[string]string{}, ints: map[string]int{}}
}

func (b *mapBackend) GetString(key string) (string, bool, error) {
	v, ok := b.data[key]
	return v, ok, nil
}

func (b *mapBackend) GetInt(key string) (int, bool, error) {
	v, ok := b.ints[key]
	return v, ok, nil
}

func (b *mapBackend) SetString(key, val string) error { b.data[key] = val; return nil }
func (b *mapBackend) SetInt(key string, val int) error { b.ints[key] = val; return nil }
func (b *mapBackend) Delete(key string) error {
	delete(b.data, key)
	delete(b.ints, key)
	return nil
}

func noKeychain() mockKeychain { return mockKeychain{err: errors.New("no keychain")} }

// TestDefaults verifies all default values are applied with an empty backend.
func TestDefaults(t *testing.T) {
	t.Setenv("PROMPTLIFT_GATEWAY_API_KEY", "")

	cfg, err := loadWith(newMapBackend(), noKeychain())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want 4100", cfg.Server.Port)
	}
	if cfg.Server.RateLimit != 60 {
		t.Errorf("Server.RateLimit = %d, want 60", cfg.Server.RateLimit)
	}
	if cfg.Server.RequestTimeout != 90*time.Second {
		t.Errorf("Server.RequestTimeout = %v, want 90s", cfg.Server.RequestTimeout)
	}
	if cfg.Gateway.Provider != "openai" || cfg.Gateway.Model != "gpt-4o-mini" {
		t.Errorf("Gateway provider/model = %q/%q", cfg.Gateway.Provider, cfg.Gateway.Model)
	}
	if cfg.Gateway.Timeout != 60*time.Second || cfg.Gateway.MaxRetries != 0 {
		t.Errorf("Gateway timeout/retries = %v/%d", cfg.Gateway.Timeout, cfg.Gateway.MaxRetries)
	}
	if cfg.Gateway.Temperature != 0.7 || cfg.Gateway.MaxTokens != 2000 {
		t.Errorf("Gateway temperature/max_tokens = %v/%d", cfg.Gateway.Temperature, cfg.Gateway.MaxTokens)
	}
	if cfg.Storage.Backend != BackendMemory {
		t.Errorf("Storage.Backend = %q, want memory", cfg.Storage.Backend)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Gateway.APIKey != "" {
		t.Errorf("APIKey = %q, want empty", cfg.Gateway.APIKey)
	}
}

// TestBackendValues verifies typed values are read from the backend.
func TestBackendValues(t *testing.T) {
	b := newMapBackend()
	b.ints["server.port"] = 5000
	b.data["gateway.provider"] = "gemini"
	b.data["gateway.timeout"] = "15s"
	b.data["gateway.temperature"] = "0.2"
	b.data["storage.backend"] = "sqlite"
	b.data["storage.data_dir"] = "/tmp/promptlift-test"

	cfg, err := loadWith(b, noKeychain())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Gateway.Provider != "gemini" || cfg.Gateway.Timeout != 15*time.Second || cfg.Gateway.Temperature != 0.2 {
		t.Errorf("Gateway = %+v", cfg.Gateway)
	}
	if cfg.Storage.Backend != BackendSQLite || cfg.Storage.DataDir != "/tmp/promptlift-test" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
}

// TestInvalidBackendValueKeepsDefault verifies unparsable values fall back.
func TestInvalidBackendValueKeepsDefault(t *testing.T) {
	b := newMapBackend()
	b.data["gateway.timeout"] = "soon"

	cfg, err := loadWith(b, noKeychain())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gateway.Timeout != 60*time.Second {
		t.Errorf("Gateway.Timeout = %v, want default", cfg.Gateway.Timeout)
	}
}

// TestEnvOverride verifies that environment variables override backend values.
func TestEnvOverride(t *testing.T) {
	b := newMapBackend()
	b.ints["server.port"] = 5000
	b.data["gateway.model"] = "file-model"

	t.Setenv("PROMPTLIFT_SERVER_PORT", "6000")
	t.Setenv("PROMPTLIFT_GATEWAY_MODEL", "env-model")
	t.Setenv("PROMPTLIFT_GATEWAY_API_KEY", "env-key")
	t.Setenv("PROMPTLIFT_GATEWAY_MAX_RETRIES", "2")

	cfg, err := loadWith(b, mockKeychain{value: "keychain-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 6000 {
		t.Errorf("Server.Port = %d, want 6000", cfg.Server.Port)
	}
	if cfg.Gateway.Model != "env-model" {
		t.Errorf("Gateway.Model = %q, want env-model", cfg.Gateway.Model)
	}
	if cfg.Gateway.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env-key", cfg.Gateway.APIKey)
	}
	if cfg.Gateway.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", cfg.Gateway.MaxRetries)
	}
}

// TestInvalidEnvKeepsDefault verifies a bad env value is ignored.
func TestInvalidEnvKeepsDefault(t *testing.T) {
	t.Setenv("PROMPTLIFT_SERVER_PORT", "not-a-number")

	cfg, err := loadWith(newMapBackend(), noKeychain())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want default 4100", cfg.Server.Port)
	}
}

// TestKeychainFallback verifies the secret store is consulted when the env is empty.
func TestKeychainFallback(t *testing.T) {
	t.Setenv("PROMPTLIFT_GATEWAY_API_KEY", "")

	cfg, err := loadWith(newMapBackend(), mockKeychain{value: "keychain-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gateway.APIKey != "keychain-key" {
		t.Errorf("APIKey = %q, want keychain-key", cfg.Gateway.APIKey)
	}
	if err := RequireAPIKey(cfg); err != nil {
		t.Errorf("RequireAPIKey: %v", err)
	}
}

func TestRequireAPIKey_Missing(t *testing.T) {
	err := RequireAPIKey(Config{})
	if err == nil || !strings.Contains(err.Error(), "PROMPTLIFT_GATEWAY_API_KEY") {
		t.Errorf("err = %v, want hint naming the env var", err)
	}

	cfg := Config{}
	cfg.Gateway.Provider = "ollama"
	if err := RequireAPIKey(cfg); err != nil {
		t.Errorf("ollama should not need a key: %v", err)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"gateway.provider", "bard", "gateway.provider"},
		{"storage.backend", "redis", "storage.backend"},
		{"log.format", "xml", "log.format"},
		{"gateway.temperature", "-0.5", "gateway.temperature"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			b := newMapBackend()
			b.data[tt.key] = tt.value
			_, err := loadWith(b, noKeychain())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}

	b := newMapBackend()
	b.ints["server.port"] = 70000
	if _, err := loadWith(b, noKeychain()); err == nil {
		t.Error("expected error for out-of-range port")
	}
}

// TestZeroTemperature verifies 0 survives loading instead of reverting to the default.
func TestZeroTemperature(t *testing.T) {
	b := newMapBackend()
	b.data["gateway.temperature"] = "0"

	cfg, err := loadWith(b, noKeychain())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gateway.Temperature != 0 {
		t.Errorf("Temperature = %v, want 0", cfg.Gateway.Temperature)
	}
}

func TestAllowedOrigins(t *testing.T) {
	s := ServerConfig{CORSOrigins: " chrome-extension://abc , https://chat.openai.com,,"}
	got := s.AllowedOrigins()
	if len(got) != 2 || got[0] != "chrome-extension://abc" || got[1] != "https://chat.openai.com" {
		t.Errorf("AllowedOrigins = %q", got)
	}
}

func TestSetKey(t *testing.T) {
	b := newMapBackend()

	if err := setKey(b, "server.port", "4200"); err != nil {
		t.Fatalf("setKey(port): %v", err)
	}
	if b.ints["server.port"] != 4200 {
		t.Errorf("port stored as %v", b.ints["server.port"])
	}
	if err := setKey(b, "gateway.timeout", "30s"); err != nil {
		t.Fatalf("setKey(timeout): %v", err)
	}
	if b.data["gateway.timeout"] != "30s" {
		t.Errorf("timeout stored as %q", b.data["gateway.timeout"])
	}

	if err := setKey(b, "server.port", "abc"); err == nil {
		t.Error("expected error for non-integer port")
	}
	if err := setKey(b, "gateway.timeout", "later"); err == nil {
		t.Error("expected error for bad duration")
	}
	if err := setKey(b, "gateway.api_key", "sk"); err == nil {
		t.Error("expected error for secret key")
	}
	if err := setKey(b, "nope", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestShowAllMasksSecrets(t *testing.T) {
	cfg := defaults()
	cfg.Gateway.APIKey = "sk-secret"

	for _, ki := range ShowAll(cfg) {
		if ki.Key == "gateway.api_key" {
			if ki.Value != "(set)" {
				t.Errorf("api key shown as %q", ki.Value)
			}
			return
		}
		if strings.Contains(ki.Value, "sk-secret") {
			t.Errorf("secret leaked under %s", ki.Key)
		}
	}
	t.Error("gateway.api_key missing from ShowAll")
}

func TestValidKeysExcludesSecrets(t *testing.T) {
	for _, k := range ValidKeys() {
		if k == "gateway.api_key" {
			t.Error("ValidKeys includes the secret key")
		}
	}
}
