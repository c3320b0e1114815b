/*
main.go - Application entry point

PURPOSE:
  Command line for the lease collection engine: runs the HTTP server and
  one-shot maintenance commands against the same SQLite store.

COMMANDS:
  serve     Start the HTTP API (and the lifecycle scheduler)
  summary   Print an owner's portfolio summary as JSON
  expire    Expire leases past their end date, once

CONFIGURATION:
  LEASE_* environment variables (see config/config.go), optionally from a
  .env file in the working directory. Flags override the environment.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  # Run with file database
  server serve --db=./data/leases.db

  # Run with in-memory database and no scheduler
  server serve --db=:memory: --scheduler=false

  # Summary as of a date
  server summary --owner=demo-owner --now=2024-03-15

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/warp/lease-engine/api"
	"github.com/warp/lease-engine/config"
	"github.com/warp/lease-engine/lease"
	"github.com/warp/lease-engine/store/sqlite"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:           "server",
		Short:         "Lease collection engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path (\":memory:\" for in-memory)")
	rootCmd.PersistentFlags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text or json")

	rootCmd.AddCommand(serveCmd(cfg), summaryCmd(cfg), expireCmd(cfg))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

func serveCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	cmd.Flags().BoolVar(&cfg.SchedulerEnabled, "scheduler", cfg.SchedulerEnabled, "run the lifecycle scheduler")
	cmd.Flags().DurationVar(&cfg.SchedulerInterval, "scheduler-interval", cfg.SchedulerInterval, "scheduler check interval")
	return cmd
}

func summaryCmd(cfg *config.Config) *cobra.Command {
	var owner, now string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print an owner's portfolio summary as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := parseNow(now)
			if err != nil {
				return err
			}
			svc, closeFn, err := openService(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			p, err := svc.Portfolio(cmd.Context(), lease.OwnerID(owner), asOf)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"owner_id":         owner,
				"as_of":            asOf.Format(time.RFC3339),
				"total_leases":     p.Summary.TotalLeases,
				"active_leases":    p.Summary.ActiveLeases,
				"total_to_collect": p.Summary.TotalToCollect,
				"overdue_amount":   p.Summary.OverdueAmount,
				"overdue_leases":   p.Summary.OverdueLeases,
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner id")
	cmd.Flags().StringVar(&now, "now", "", "as-of time (RFC3339 or YYYY-MM-DD), default current time")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func expireCmd(cfg *config.Config) *cobra.Command {
	var owner, now string
	cmd := &cobra.Command{
		Use:   "expire",
		Short: "Expire active leases past their end date",
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := parseNow(now)
			if err != nil {
				return err
			}
			svc, closeFn, err := openService(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			owners := []lease.OwnerID{lease.OwnerID(owner)}
			if owner == "" {
				if owners, err = svc.Store.ListOwners(cmd.Context()); err != nil {
					return err
				}
			}
			total := 0
			for _, o := range owners {
				expired, err := svc.ExpireLeases(cmd.Context(), o, asOf)
				if err != nil {
					return fmt.Errorf("owner %s: %w", o, err)
				}
				for _, id := range expired {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", o, id)
				}
				total += len(expired)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d lease(s) expired\n", total)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner id (default: every owner)")
	cmd.Flags().StringVar(&now, "now", "", "as-of time (RFC3339 or YYYY-MM-DD), default current time")
	return cmd
}

// =============================================================================
// SERVER
// =============================================================================

func serve(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	svc := lease.NewService(store, logger)
	handler := api.NewHandler(svc, logger)

	scheduler := api.NewLifecycleScheduler(svc, logger)
	scheduler.Enabled = cfg.SchedulerEnabled
	scheduler.CheckInterval = cfg.SchedulerInterval
	handler.Sweep = scheduler.RunNow

	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
		Production:     cfg.IsProduction(),
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", cfg.Addr), slog.String("db", cfg.DBPath))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	scheduler.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		scheduler.Stop()
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("shutting down server")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func openService(cfg *config.Config) (*lease.Service, func(), error) {
	logger := config.NewLoggerTo(os.Stderr, cfg)
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return lease.NewService(store, logger), func() { store.Close() }, nil
}

func parseNow(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--now must be RFC3339 or YYYY-MM-DD: %q", s)
	}
	return t, nil
}
