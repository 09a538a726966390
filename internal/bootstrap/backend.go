package bootstrap

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/fedefazz/laf-dashboard/config"
	"github.com/fedefazz/laf-dashboard/internal/adapters/backendapi"
	"github.com/fedefazz/laf-dashboard/internal/ports"
)

// BuildBackendClient constructs the backend API client. Authorized calls go
// through the bearer transport so every request carries the stored token and
// a 401 drops it.
func BuildBackendClient(cfg config.BackendConfig, store ports.CredentialStore, logger *slog.Logger) (*backendapi.Client, error) {
	authorized := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &backendapi.Transport{
			Store:  store,
			Logger: logger,
		},
	}
	plain := &http.Client{Timeout: cfg.Timeout}

	client, err := backendapi.NewClient(backendapi.Config{
		BaseURL:    cfg.BaseURL,
		Authorized: authorized,
		Plain:      plain,
	})
	if err != nil {
		return nil, fmt.Errorf("build backend client: %w", err)
	}
	return client, nil
}
