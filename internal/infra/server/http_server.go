package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const defaultShutdownTimeout = 5 * time.Second

// StartHTTPServer listens on addr and serves handler until ctx is cancelled.
func StartHTTPServer(ctx context.Context, addr string, handler http.Handler, shutdownTimeout time.Duration, logger *zap.Logger) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", addr)
	}
	return Serve(ctx, lis, handler, shutdownTimeout, logger)
}

// Serve runs an HTTP server on lis and shuts it down gracefully once ctx is
// done. In-flight requests get shutdownTimeout to finish before connections
// are closed.
func Serve(ctx context.Context, lis net.Listener, handler http.Handler, shutdownTimeout time.Duration, logger *zap.Logger) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", lis.Addr().String()))
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return errors.Wrap(err, "serve http")
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("ctx cancelled, stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return errors.Wrap(err, "shutdown http")
	}
	logger.Info("HTTP server stopped")
	return nil
}
