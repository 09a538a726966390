package bootstrap

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/fedefazz/laf-dashboard/config"
	"github.com/fedefazz/laf-dashboard/internal/service"
)

// Run assembles the full application and blocks until a shutdown signal is
// received or a component fails.
func Run(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	creds, err := BuildCredentialStore(cfg.Storage, logger)
	if err != nil {
		return err
	}
	if creds.Close != nil {
		defer func() {
			if cerr := creds.Close(); cerr != nil {
				logger.Error("close credential backend failed", "error", cerr)
			}
		}()
	}

	backend, err := BuildBackendClient(cfg.Backend, creds.Store, logger)
	if err != nil {
		return err
	}

	sessions, err := BuildSessionManager(creds, backend, logger)
	if err != nil {
		return err
	}
	defer sessions.Close()

	dashboard, err := service.NewDashboardService(service.DashboardServiceOptions{
		Backend: backend,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	server, err := StartHTTPServer(&HTTPServerConfig{
		Config:    &cfg,
		Sessions:  sessions,
		Dashboard: dashboard,
		Backend:   backend,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	// Restore any stored credential; guards hold requests until this
	// completes.
	sessions.Initialize(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return ShutdownHTTPServer(context.Background(), server, logger)
	})
	return g.Wait()
}
