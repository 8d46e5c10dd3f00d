package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/promptlift/internal/api"
	"github.com/kalambet/promptlift/internal/catalog"
	"github.com/kalambet/promptlift/internal/config"
	"github.com/kalambet/promptlift/internal/convo"
	"github.com/kalambet/promptlift/internal/pipeline"
	"github.com/kalambet/promptlift/internal/proxy"
	"github.com/kalambet/promptlift/internal/storage"
)

const shutdownTimeout = 5 * time.Second

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the promptlift server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		withMCP, _ := cmd.Flags().GetBool("mcp")
		return runServer(withMCP)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running promptlift server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show promptlift status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func init() {
	startCmd.Flags().Bool("mcp", false, "also serve MCP tools over stdin/stdout")
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "promptlift.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

// newLogger builds the process logger from the log section of the config.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openStore opens the interaction history database. The memory backend keeps
// history in an in-memory SQLite database that is discarded on exit.
func openStore(cfg config.StorageConfig) (*storage.Store, error) {
	if cfg.Backend == config.BackendSQLite {
		return storage.Open(cfg.DataDir)
	}
	return storage.Open(":memory:")
}

func contextStore(cfg config.StorageConfig, store *storage.Store) convo.Store {
	if cfg.Backend == config.BackendSQLite {
		return store.Contexts(nil)
	}
	return convo.NewMemoryStore()
}

func gatewayOptions(cfg config.GatewayConfig) proxy.Options {
	return proxy.Options{
		Provider:    cfg.Provider,
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Timeout:     cfg.Timeout,
		MaxRetries:  cfg.MaxRetries,
		Temperature: &cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
}

func runServer(withMCP bool) error {
	fmt.Fprintf(os.Stderr, "promptlift version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := config.RequireAPIKey(cfg); err != nil {
		return err
	}

	slog.SetDefault(newLogger(cfg.Log, os.Stderr))

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("promptlift is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("promptlift is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	store, err := openStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()
	contexts := contextStore(cfg.Storage, store)

	gateway, err := proxy.New(ctx, gatewayOptions(cfg.Gateway))
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}
	if oc, ok := gateway.(*proxy.OllamaClient); ok && !oc.IsRunning(ctx) {
		printWarning("Ollama is not reachable at startup. Start it with: ollama serve")
	}
	slog.Info("gateway ready", "gateway", gateway, "storage", cfg.Storage.Backend)

	improver := pipeline.NewImprover(cat.Classifier, cat.Questions, gateway,
		pipeline.WithContextStore(contexts),
		pipeline.WithRecorder(store),
	)

	handler := api.NewHandler(api.Deps{
		Improver:       improver,
		Classifier:     cat.Classifier,
		Questions:      cat.Questions,
		Contexts:       contexts,
		History:        store,
		CORSOrigins:    cfg.Server.AllowedOrigins(),
		RateLimit:      cfg.Server.RateLimit,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fmt.Fprintf(os.Stderr, "promptlift listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if withMCP {
		mcpSrv := api.NewMCPServer(api.MCPDeps{
			Improver:   improver,
			Classifier: cat.Classifier,
			Questions:  cat.Questions,
			History:    store,
		})
		stdioSrv := server.NewStdioServer(mcpSrv)
		g.Go(func() error {
			if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
			return nil
		})
		slog.Info("MCP server started (stdio transport)")
	}

	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("promptlift is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop promptlift (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to promptlift (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	running := false
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Gateway", "%s (%s)", cfg.Gateway.Provider, cfg.Gateway.Model)
	if cfg.Gateway.APIKey == "" {
		printStatus("API key", "not set")
	} else {
		printStatus("API key", "set")
	}
	printStatus("Storage", "%s", cfg.Storage.Backend)
	if cfg.Catalog.Path != "" {
		printStatus("Catalog", "%s", cfg.Catalog.Path)
	}

	if running {
		if n, err := historyCount(client, serverURL); err == nil {
			printStatus("Interactions", "%s", countLabel(n, maxStatusHistory))
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}

const maxStatusHistory = 100

func historyCount(client *http.Client, serverURL string) (int, error) {
	resp, err := client.Get(fmt.Sprintf("%s/api/history?limit=%d", serverURL, maxStatusHistory))
	if err != nil {
		return 0, err
	}
	var body struct {
		Interactions []json.RawMessage `json:"interactions"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return 0, err
	}
	return len(body.Interactions), nil
}

func countLabel(count, limit int) string {
	if count >= limit {
		return fmt.Sprintf("%d+", count)
	}
	return fmt.Sprintf("%d", count)
}
