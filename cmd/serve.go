package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshmayeda/pGEN-server/internal/auth"
	"github.com/joshmayeda/pGEN-server/internal/handlers"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the PDF generation server",
		Long: `Starts the HTTP server.

POST /generate-pdf with {"allCards":[{"image":URL,"amount":N}]} returns the
printable PDF. When Google OAuth credentials are configured, /upload-pdf
and /auth/* store decks in the caller's Google Drive.`,
		Example: `  # Start server on the default port (PORT or 5000)
  pgen serve

  # Start server on custom port
  pgen serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			orchestrator := newOrchestrator(cfg)

			var (
				uploader handlers.Uploader
				tokens   auth.TokenProvider
			)
			if svc, provider, err := newUploadService(cfg, orchestrator); err == nil {
				uploader, tokens = svc, provider
			} else {
				slog.Warn("Drive upload disabled", "reason", err)
			}

			handler := handlers.New(orchestrator, uploader, tokens)

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(cfg.AllowedOrigins),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("pgen server listening", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// in-flight decks may still be fetching images
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides PORT)")

	return cmd
}
