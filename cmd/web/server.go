package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/myrjola/fitplanner/internal/e2etest"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// configureAndStartServer serves the API on addr until ctx is done and then shuts down gracefully.
func (app *application) configureAndStartServer(ctx context.Context, addr string) error {
	srv := &http.Server{
		ErrorLog:          slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
		Handler:           app.routes(),
		IdleTimeout:       time.Minute,
		ReadTimeout:       app.requestTimeout,
		WriteTimeout:      app.requestTimeout + time.Second,
		ReadHeaderTimeout: time.Second,
	}

	var (
		listener net.Listener
		err      error
	)
	if listener, err = net.Listen("tcp", addr); err != nil {
		return fmt.Errorf("TCP listen: %w", err)
	}
	app.logger.LogAttrs(ctx, slog.LevelInfo, "starting server", slog.Any(e2etest.LogAddrKey, listener.Addr().String()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if serveErr := srv.Serve(listener); !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("server serve: %w", serveErr)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		app.logger.LogAttrs(ctx, slog.LevelInfo, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			return fmt.Errorf("shutdown server: %w", shutdownErr)
		}
		return nil
	})
	if err = g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
