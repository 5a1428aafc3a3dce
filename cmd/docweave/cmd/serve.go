package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/docweave/internal/server"
)

func newServeCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start an HTTP server exposing extraction and assembly.

Endpoints:
  GET  /health       - health check
  POST /v1/extract   - probability maps (JSON or multipart images) to boxes
  POST /v1/assemble  - boxes and strings to a document (?format=json|yaml|text|csv)
  GET  /v1/stream    - WebSocket, streams per-page extraction results
  GET  /metrics      - Prometheus metrics

Examples:
  docweave serve
  docweave serve --host 0.0.0.0 --port 3000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return c.runServe(ctx, nil)
		},
	}
	f := cmd.Flags()
	f.StringP("host", "H", "localhost", "server host")
	f.IntP("port", "p", 8080, "server port")
	f.String("cors-origin", "*", "CORS allowed origins")
	f.Int("max-upload-size", 50, "maximum upload size in MB")
	f.Int("timeout", 30, "request timeout in seconds")
	f.Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	f.Bool("rotated", false, "emit oriented boxes by default")
	f.Bool("resolve-lines", false, "group words into lines")
	return cmd
}

// runServe serves until ctx is done. When ready is non-nil it receives the
// listener address once the server accepts connections.
func (c *cli) runServe(ctx context.Context, ready chan<- string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sc := c.cfg.Server
	srv, err := server.NewServer(server.Config{
		CORSOrigin:  sc.CORSOrigin,
		MaxUploadMB: int64(sc.MaxUploadMB),
		TimeoutSec:  sc.TimeoutSec,
		Detector:    c.cfg.Detector,
		Assembler:   c.cfg.Assembler,
		Batch:       c.cfg.BatchOptions(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(sc.Host, strconv.Itoa(sc.Port)))
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()
	if ready != nil {
		ready <- ln.Addr().String()
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	}

	timeout := time.Duration(sc.ShutdownTimeout) * time.Second
	slog.Info("Starting graceful shutdown", "timeout", timeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
		return err
	}
	slog.Info("Graceful shutdown completed")
	return nil
}
