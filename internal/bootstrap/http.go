package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fedefazz/laf-dashboard/config"
	"github.com/fedefazz/laf-dashboard/internal/adapters/backendapi"
	httpx "github.com/fedefazz/laf-dashboard/internal/http"
	"github.com/fedefazz/laf-dashboard/internal/service"
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config    *config.AppConfig
	Sessions  *service.SessionManager
	Dashboard *service.DashboardService
	Backend   *backendapi.Client
	Logger    *slog.Logger
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router, err := httpx.NewRouter(httpx.RouterServices{
		Sessions:  cfg.Sessions,
		Dashboard: cfg.Dashboard,
		Backend:   cfg.Backend,
		IsDev:     cfg.Config.IsDev,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}

	server := startServer(logger, router, cfg.Config.HTTP.Addr)
	return server, nil
}

func startServer(logger *slog.Logger, handler http.Handler, addr string) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	return server
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	if server == nil {
		return nil
	}
	if logger != nil {
		logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if logger != nil {
		logger.Info("HTTP server stopped")
	}
	return nil
}
