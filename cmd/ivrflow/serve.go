package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/ivrflow/internal/cli"
	"github.com/aretw0/ivrflow/internal/logging"
	httpAdapter "github.com/aretw0/ivrflow/pkg/adapters/http"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/observability"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Serves validation, compilation and flow storage over HTTP. The store backend
(memory, file, redis, sqlite) comes from ivrflow.yaml or IVRFLOW_STORE.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				a.cfg.Server.Addr = addr
			}

			backend, err := cli.OpenBackend(a.cfg.Store)
			if err != nil {
				return err
			}
			defer backend.Close()

			// Request logs go to stderr as JSON regardless of the CLI log format.
			level, _ := logging.ParseLevel(a.cfg.LogLevel)
			if a.debug {
				level = slog.LevelDebug
			}
			logger := logging.NewJSON(cmd.ErrOrStderr(), level)

			hooks := observability.LoggingHooks(logger)
			mgr := cli.NewManager(backend, a.cfg, logger, hooks)

			opts := []httpAdapter.Option{
				httpAdapter.WithLogger(logger),
				httpAdapter.WithHooks(hooks),
			}
			if a.cfg.DeadBranch != "" {
				opts = append(opts, httpAdapter.WithDeadBranch(domain.DeadBranchPolicy(a.cfg.DeadBranch)))
			}
			if a.cfg.Server.Metrics {
				opts = append(opts, httpAdapter.WithMetrics(observability.NewMetrics()))
			}

			srv := &http.Server{
				Addr:              a.cfg.Server.Addr,
				Handler:           httpAdapter.NewHandler(mgr, opts...),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()

			serverErrors := make(chan error, 1)
			go func() {
				logger.Info("Starting ivrflow server", "addr", srv.Addr, "store", a.cfg.Store.Driver)
				serverErrors <- srv.ListenAndServe()
			}()

			select {
			case err := <-serverErrors:
				return fmt.Errorf("server error: %w", err)
			case <-ctx.Done():
				logger.Info("Start shutdown", "signal", fmt.Sprint(ctx.Signal()))

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Error("Graceful shutdown did not complete", "err", err)
					if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return err
					}
				}
				logger.Info("ivrflow server stopped gracefully")
				return nil
			}
		},
	}
	cmd.Flags().StringP("addr", "a", "", "Address to listen on (default from config, :8080)")
	return cmd
}
