// Package server sets up the HTTP server and its lifecycle.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mapdesk/geoquery/internal/core/config"
	"github.com/mapdesk/geoquery/internal/core/router"
	"github.com/mapdesk/geoquery/internal/metrics"
	"github.com/mapdesk/geoquery/internal/workspace"
)

// Run serves the gateway until the context is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, ws *workspace.Workspace, prov *metrics.Provider) error {
	r := router.New(logger, ws, prov)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
