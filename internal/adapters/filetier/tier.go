package filetier

// Package filetier provides the default durable credential tier: a single
// JSON document on disk that survives process restarts, analogous to the
// durable key-value tier of the original storage layout.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	domainauth "github.com/fedefazz/laf-dashboard/internal/domain/auth"
	"github.com/fedefazz/laf-dashboard/internal/ports"
)

// Tier is a file-backed ports.TokenTier. Writes go through a temp file and
// rename so a crash never leaves a torn document.
type Tier struct {
	mu   sync.Mutex
	path string
}

// New creates a file tier at path, creating parent directories on first Put.
func New(path string) (*Tier, error) {
	if path == "" {
		return nil, errors.New("filetier: path is required")
	}
	return &Tier{path: path}, nil
}

func (t *Tier) Put(_ context.Context, cred domainauth.Credential) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(t.path), 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}

	tmp := t.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}
	if err := os.Rename(tmp, t.path); err != nil {
		return fmt.Errorf("replace credential file: %w", err)
	}
	return nil
}

func (t *Tier) Get(_ context.Context) (domainauth.Credential, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domainauth.Credential{}, ports.ErrNoCredential
		}
		return domainauth.Credential{}, fmt.Errorf("read credential file: %w", err)
	}

	var cred domainauth.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		// A corrupt document is indistinguishable from no credential for
		// routing purposes; the caller will land on the login screen.
		return domainauth.Credential{}, ports.ErrNoCredential
	}
	if cred.Token == "" {
		return domainauth.Credential{}, ports.ErrNoCredential
	}
	return cred, nil
}

func (t *Tier) Delete(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}
