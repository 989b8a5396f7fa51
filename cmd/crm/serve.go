package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leadbook/crm-api/internal/api"
)

const shutdownTimeout = 10 * time.Second

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", false, "Apply schema migrations before serving")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if autoMigrate {
		if err := a.migrate(ctx); err != nil {
			return err
		}
		a.log.Info().Msg("migrations applied")
	}

	svc, err := a.services()
	if err != nil {
		return err
	}

	e := api.NewRouter(svc, api.Options{
		JWTSecret: a.cfg.JWTSecret,
		Logger:    a.log,
		Health:    a.healthChecks(),
	})

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("port", a.cfg.Port).Str("env", a.cfg.Env).Msg("http server listening")
		if err := e.Start(":" + a.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
