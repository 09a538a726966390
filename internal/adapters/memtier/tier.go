package memtier

// Package memtier provides the session-scoped credential tier: an in-process
// store that lives exactly as long as the dashboard process, mirroring the
// tab-scoped tier of the original storage layout.

import (
	"context"
	"sync"

	domainauth "github.com/fedefazz/laf-dashboard/internal/domain/auth"
	"github.com/fedefazz/laf-dashboard/internal/ports"
)

// Tier is an in-memory ports.TokenTier. Safe for concurrent use.
type Tier struct {
	mu   sync.Mutex
	cred domainauth.Credential
	held bool
}

// New creates an empty memory tier.
func New() *Tier {
	return &Tier{}
}

func (t *Tier) Put(_ context.Context, cred domainauth.Credential) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cred = cred
	t.held = true
	return nil
}

func (t *Tier) Get(_ context.Context) (domainauth.Credential, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.held {
		return domainauth.Credential{}, ports.ErrNoCredential
	}
	return t.cred, nil
}

func (t *Tier) Delete(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cred = domainauth.Credential{}
	t.held = false
	return nil
}
