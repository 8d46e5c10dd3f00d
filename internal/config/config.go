package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	Gateway GatewayConfig
	Storage StorageConfig
	Catalog CatalogConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port           int
	CORSOrigins    string
	RateLimit      int // requests per minute per client IP; 0 disables
	RequestTimeout time.Duration
}

type GatewayConfig struct {
	Provider    string
	BaseURL     string
	Model       string
	APIKey      string
	Timeout     time.Duration
	MaxRetries  int
	Temperature float64
	MaxTokens   int
}

type StorageConfig struct {
	Backend string // "memory" or "sqlite"
	DataDir string
}

type CatalogConfig struct {
	Path string
}

type LogConfig struct {
	Level  string
	Format string
}

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:           4100,
			CORSOrigins:    "*",
			RateLimit:      60,
			RequestTimeout: 90 * time.Second,
		},
		Gateway: GatewayConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Timeout:     60 * time.Second,
			Temperature: 0.7,
			MaxTokens:   2000,
		},
		Storage: StorageConfig{
			Backend: BackendMemory,
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// AllowedOrigins splits the comma-separated CORS origin list.
func (s ServerConfig) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(s.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.promptlift.app) and the
// API key falls back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/promptlift/config.json
// and the API key falls back to $XDG_DATA_HOME/promptlift/secrets.json.
//
// Environment variables (PROMPTLIFT_*) override backend values on all platforms.
// The gateway API key is not required here; see RequireAPIKey.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts secret store access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

const (
	secretService = "promptlift"
	secretAccount = "gateway_api_key"
)

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.Gateway.APIKey == "" {
		if key, err := kc.Get(secretService, secretAccount); err == nil && key != "" {
			cfg.Gateway.APIKey = key
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	if c.Gateway.Temperature < 0 || c.Gateway.Temperature > 2 {
		return fmt.Errorf("gateway.temperature %v out of range [0, 2]", c.Gateway.Temperature)
	}
	switch c.Gateway.Provider {
	case "openai", "gemini", "ollama":
	default:
		return fmt.Errorf("unknown gateway.provider %q (use openai, gemini or ollama)", c.Gateway.Provider)
	}
	switch c.Storage.Backend {
	case BackendMemory, BackendSQLite:
	default:
		return fmt.Errorf("unknown storage.backend %q (use memory or sqlite)", c.Storage.Backend)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log.format %q (use text or json)", c.Log.Format)
	}
	return nil
}

// RequireAPIKey reports a descriptive error when no gateway key is configured.
// The local ollama provider needs none.
func RequireAPIKey(cfg Config) error {
	if cfg.Gateway.APIKey != "" || cfg.Gateway.Provider == "ollama" {
		return nil
	}
	return fmt.Errorf("missing required config: gateway API key. "+
		"Set it via environment variable PROMPTLIFT_GATEWAY_API_KEY%s", apiKeyHint())
}

// keychainReader reads the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainExec(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// SetAPIKey stores the gateway API key in the platform secret store.
func SetAPIKey(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("API key must not be empty")
	}
	return keychainSet(secretService, secretAccount, strings.TrimSpace(value))
}
