package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bookscout/bookscout/internal/handlers"
	"github.com/bookscout/bookscout/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the recommendation API server",
		Long: `Starts the Bookscout HTTP API on the specified port.

Routes:
  GET /api/ai-search?keyword=&lat=&lon=
  GET /api/personalized-recommend?isbn13=
  GET /api/monthly-recommend
  GET /healthcheck
  GET /metrics`,
		Example: `  # Start server on default port 8888
  bookscout serve

  # Start server on custom port
  bookscout serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, source, err := loadConfig()
			if err != nil {
				return err
			}

			m := metrics.New()
			handler := handlers.New(settings, source, handlers.WithMetrics(m))

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/ai-search", handler.HandleAISearch)
			mux.HandleFunc("/api/personalized-recommend", handler.HandlePersonalized)
			mux.HandleFunc("/api/monthly-recommend", handler.HandleMonthly)
			mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Bookscout API available", "addr", addr, "provider", settings.Provider, "model", settings.Model)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
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

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")

	return cmd
}
