// Command source serves mock hotel listings in the {success, message}
// envelope format for local development.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/pflag"
)

func main() {
	address := pflag.String("address", ":9001", "Address to listen on")
	minLatency := pflag.Duration("min-latency", 50*time.Millisecond, "Minimum response latency")
	maxLatency := pflag.Duration("max-latency", 200*time.Millisecond, "Maximum response latency")
	failureRate := pflag.Float64("failure-rate", 0.1, "Share of requests answered with success=false")
	pflag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	srv := &http.Server{
		Addr:         *address,
		Handler:      newRouter(*minLatency, *maxLatency, *failureRate, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", *address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// newRouter serves /source_1.json (Lisbon) and /source_2.json (Porto).
func newRouter(minLatency, maxLatency time.Duration, failureRate float64, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/source_1.json", NewListing(lisbon, minLatency, maxLatency, failureRate, logger))
	r.Method(http.MethodGet, "/source_2.json", NewListing(porto, minLatency, maxLatency, failureRate, logger))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write healthz response", "error", err)
		}
	})
	return r
}
