package config

import (
	"strings"
	"time"
)

// BackendConfig contains the plant backend API configuration.
type BackendConfig struct {
	// BaseURL is the root of the backend API, e.g. "https://laf.plant.example".
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:5000"`

	// Timeout applies to individual backend requests.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// Sanitize applies guardrails to backend configuration values.
func (b *BackendConfig) Sanitize() {
	b.BaseURL = strings.TrimSuffix(strings.TrimSpace(b.BaseURL), "/")
	if b.Timeout <= 0 {
		b.Timeout = 30 * time.Second
	}
}
