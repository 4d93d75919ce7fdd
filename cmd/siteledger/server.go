package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"siteledger/internal/api"
	"siteledger/internal/config"
	"siteledger/internal/ledger"
	"siteledger/internal/remote"
	"siteledger/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the siteledger server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running siteledger server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show siteledger system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "siteledger.pid")
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
	fmt.Fprintf(os.Stderr, "siteledger version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("siteledger is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("siteledger is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open durable storage.
	db, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	// Build the record store from the persisted snapshot.
	store, err := ledger.New(db, ledger.Options{Seed: cfg.Seed.Enabled})
	if err != nil {
		return fmt.Errorf("initializing record store: %w", err)
	}
	slog.Info("record store ready",
		"projects", len(store.Projects()),
		"architects", len(store.Architects()),
		"supervisors", len(store.Supervisors()),
		"contractors", len(store.Contractors()),
		"role", store.Role(),
	)

	// Simulated sync: one deferred completion per trigger, no real I/O.
	syncDelay, err := time.ParseDuration(cfg.Sync.Delay)
	if err != nil {
		slog.Warn("invalid sync delay, using default 2s", "value", cfg.Sync.Delay, "error", err)
		syncDelay = 2 * time.Second
	}
	sim := remote.NewSyncSimulator(store, syncDelay)
	defer sim.Close()

	// Build HTTP handler and server.
	handler := api.NewHandler(api.Deps{
		Store: store,
		Sync:  sim,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "siteledger listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
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
		printError("siteledger is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop siteledger (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to siteledger (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
		printStatus("Data dir", "%s", cfg.Storage.DataDir)
		return nil
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		return nil
	}
	printStatus("Server", "running on port %d", cfg.Server.Port)

	// Probe the summary endpoints concurrently.
	var (
		stats struct {
			ActiveProjects int `json:"activeProjects"`
			TeamMembers    int `json:"teamMembers"`
			CompletedTasks int `json:"completedTasks"`
			OverdueItems   int `json:"overdueItems"`
		}
		role struct {
			Role string `json:"role"`
		}
	)

	c, err := newAPIClient()
	if err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := c.get(gCtx, "/dashboard")
		if err != nil {
			return err
		}
		return decodeJSON(resp, &stats)
	})
	g.Go(func() error {
		resp, err := c.get(gCtx, "/role")
		if err != nil {
			return err
		}
		return decodeJSON(resp, &role)
	})
	if err := g.Wait(); err != nil {
		printError("querying server: %v", err)
		return nil
	}

	printStatus("Role", "%s", role.Role)
	printStatus("Active projects", "%d", stats.ActiveProjects)
	printStatus("Team members", "%d", stats.TeamMembers)
	printStatus("Completed", "%d", stats.CompletedTasks)
	printStatus("Overdue", "%d", stats.OverdueItems)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
