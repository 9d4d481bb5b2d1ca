package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesm/leaddesk/internal/api"
	"github.com/wesm/leaddesk/internal/export"
	"github.com/wesm/leaddesk/internal/query"
	"github.com/wesm/leaddesk/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the lead API server with scheduled exports",
	Long: `Run leaddesk as a long-running daemon.

The daemon runs in the foreground and provides:
  - HTTP API server on the configured port (default: 8080)
  - Scheduled exports of saved views

Configure scheduled exports in config.toml:
  [[scheduled_exports]]
  name = "new-unassigned"
  view = "status=new&owner=__unassigned__"
  schedule = "0 7 * * 1-5"   # 7am on weekdays (cron format)
  format = "excel"
  enabled = true

Cron format: minute hour day-of-month month day-of-week
  Examples:
    0 7 * * *     = 7:00 AM daily
    */15 * * * *  = Every 15 minutes
    0 0 * * 0     = Midnight on Sundays

Use Ctrl+C to stop the daemon gracefully.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Validate security posture before doing any work
	if err := cfg.Server.ValidateSecure(); err != nil {
		return err
	}
	if err := MustBeLocal("serve"); err != nil {
		return err
	}

	s, err := openLocalStore()
	if err != nil {
		return err
	}
	defer s.Close()
	engine := query.NewSQLiteEngine(s.DB())

	notifier := export.NotifierFunc(func(n export.Notice) {
		logger.Info("export notice", "text", n.Text)
	})
	orch := export.NewOrchestrator(engine, exportConfig(cfg), notifier, logger)
	exporter := scheduler.NewViewExporter(engine, orch, listOptions(cfg), defaultFormat(cfg))

	sched := scheduler.New(exporter.Run).WithLogger(logger)
	count, errs := sched.AddExportsFromConfig(cfg)
	for _, err := range errs {
		logger.Error("failed to schedule export", "error", err)
	}

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	sched.Start()

	apiServer := api.NewServer(cfg, engine, sched, logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	fmt.Printf("leaddesk daemon started\n")
	fmt.Printf("  API server: http://%s\n", apiServer.Addr())
	fmt.Printf("  Scheduled exports: %d\n", count)
	fmt.Printf("  Exports directory: %s\n", cfg.ExportsDir())
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop.")
	fmt.Println()

	for _, status := range sched.Status() {
		fmt.Printf("  %s: next export at %s\n", status.Name, status.NextRun.Local().Format("2006-01-02 15:04:05"))
	}
	if count > 0 {
		fmt.Println()
	}

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
		fmt.Printf("\nReceived %s, shutting down...\n", sig)
	case err := <-serverErr:
		logger.Error("API server error", "error", err)
		fmt.Printf("\nAPI server error: %v\n", err)
	case <-ctx.Done():
		logger.Info("context cancelled")
	}

	fmt.Println("Shutting down API server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("API server shutdown error", "error", err)
	}

	fmt.Println("Waiting for running exports to complete...")
	schedCtx := sched.Stop()

	select {
	case <-schedCtx.Done():
		fmt.Println("Shutdown complete.")
	case <-time.After(30 * time.Second):
		fmt.Println("Shutdown timed out after 30 seconds.")
	}

	return nil
}
