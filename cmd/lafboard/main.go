package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/fedefazz/laf-dashboard/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting laf dashboard",
		"backend", cfg.Backend.BaseURL,
		"storage_mode", string(cfg.Storage.Mode),
		"addr", cfg.HTTP.Addr,
		"dev", cfg.IsDev)

	return bootstrap.Run(ctx, cfg, logger)
}
