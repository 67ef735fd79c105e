package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timecard/database"
	"timecard/handlers"
	"timecard/middleware"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.SeedAdmin(database.GetDB(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return err
		}
		middleware.SetJWTSecret(cfg.JWTSecret)

		svc, err := newService()
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           handlers.NewRouter(cfg, svc),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			slog.Info("Server starting", "port", cfg.ServerPort, "time_zone", cfg.TimeZone)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		slog.Info("Server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
