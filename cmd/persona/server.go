package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/persona/internal/api"
	"github.com/kalambet/persona/internal/batch"
	"github.com/kalambet/persona/internal/config"
)

var startCmd = &cobra.Command{
	Use:     "start",
	Aliases: []string{"serve"},
	Short:   "Start the persona HTTP API server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running persona server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show persona server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the persona tools over MCP on stdin/stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "persona.pid")
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

func runServer() error {
	fmt.Fprintf(os.Stderr, "persona version %s\n", version)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Server.APIToken == "" {
		slog.Warn("server.api_token is not set; the API accepts unauthenticated requests")
	}

	// Refuse to start twice.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("persona is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("persona is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signalContext()
	defer stop()

	handler := api.NewAppHandler(api.AppDeps{
		Analyzer: a.svc,
		Reports:  a.store,
		Cache:    a.collector,
		Token:    cfg.Server.APIToken,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Drain batch jobs left behind by interrupted "persona batch" runs.
	worker := batch.NewWorker(a.store, a.svc, time.Second)
	go worker.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "persona listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMCP() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signalContext()
	defer stop()

	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Analyzer: a.svc,
		Reports:  a.store,
		Version:  version,
	})
	slog.Info("MCP server started (stdio transport)")
	if err := server.NewStdioServer(mcpSrv).Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server: %w", err)
	}
	return nil
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
		printError("persona is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop persona (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to persona (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	client := &apiClient{
		baseURL:    fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port),
		token:      cfg.Server.APIToken,
		httpClient: &http.Client{Timeout: 2 * time.Second},
	}
	ctx := context.Background()

	running := false
	resp, err := client.get(ctx, "/health")
	switch {
	case err != nil:
		printStatus("Server", "stopped")
	case resp.StatusCode == http.StatusOK:
		resp.Body.Close()
		running = true
		printStatus("Server", "running on port %d", cfg.Server.Port)
	default:
		resp.Body.Close()
		printStatus("Server", "error (HTTP %d)", resp.StatusCode)
	}

	if running {
		if stats, err := fetchCacheStats(ctx, client); err == nil {
			printStatus("Cache", "%s", cacheLabel(stats.Enabled, stats.Entries, stats.Hits))
		}
		resp, err := client.get(ctx, "/reports?limit=100")
		if err == nil {
			var reports []struct {
				ID string `json:"id"`
			}
			if decodeJSON(resp, &reports) == nil {
				printStatus("Reports", "%s", countLabel(len(reports), 100))
			}
		}
	}

	if err := cfg.RequireReddit(); err != nil {
		printStatus("Reddit credentials", "missing")
	} else {
		printStatus("Reddit credentials", "configured (client %s)", cfg.Reddit.ClientID)
	}
	lex := cfg.Lexicon.Path
	if lex == "" {
		lex = "built-in"
	}
	printStatus("Lexicon", "%s", lex)
	printStatus("Reports dir", "%s", cfg.Report.OutputDir)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}

func cacheLabel(enabled bool, entries int, hits int64) string {
	if !enabled {
		return "disabled"
	}
	return fmt.Sprintf("%d entries, %d hits", entries, hits)
}

func countLabel(count, limit int) string {
	if count >= limit {
		return fmt.Sprintf("%d+", count)
	}
	return fmt.Sprintf("%d", count)
}
