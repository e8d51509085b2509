package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/regionocr/internal/fetch"
	"github.com/lehigh-university-libraries/regionocr/internal/handlers"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the region OCR web service",
		Long: `Starts the regionocr HTTP service.

Uploaded PDFs are rasterized and cleaned page by page; clients then fetch page
images and request OCR of rectangular regions given as page percentages.
Uploaded files are removed when the server shuts down.`,
		Example: `  # Start server on default port 8000
  regionocr serve

  # Start server on custom port with a config file
  regionocr serve --port 3000 --config regionocr.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Addr = ":" + port
			}

			svc, err := newDocumentService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			handler := handlers.New(svc, fetch.NewFetcher(cfg.MaxUploadBytes), cfg.MaxUploadBytes)
			corsOptions := cors.Options{
				AllowedOrigins: cfg.CORSOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
				AllowedHeaders: []string{"*"},
			}
			if len(corsOptions.AllowedOrigins) == 0 {
				corsOptions.AllowedOrigins = []string{"*"}
			}

			server := &http.Server{
				Addr:              cfg.Addr,
				Handler:           cors.New(corsOptions).Handler(handler.Routes()),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       5 * time.Minute,
				WriteTimeout:      10 * time.Minute,
			}

			sweepCtx, stopSweep := context.WithCancel(context.Background())
			defer stopSweep()
			go runSweeper(sweepCtx, svc.Sweep, cfg.Store.SweepInterval)

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Regionocr service available", "addr", cfg.Addr, "ocr", cfg.OCR.Provider, "store", cfg.Store.Backend)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				if err := svc.Cleanup(shutdownCtx); err != nil {
					slog.Error("Failed to clean up uploads", "err", err)
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides addr)")

	return cmd
}

// runSweeper calls sweep every interval until ctx is done.
func runSweeper(ctx context.Context, sweep func(context.Context) (int, error), interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := sweep(ctx); err != nil {
				slog.Warn("Upload sweep failed", "err", err)
			}
		}
	}
}
