package credstore

// Package credstore implements the two-tier credential store: a
// session-scoped memory tier plus a durable tier, with a clear-notification
// bus observed by the session manager.

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/fedefazz/laf-dashboard/internal/domain/auth"
	"github.com/fedefazz/laf-dashboard/internal/ports"
)

// Credential lifetimes computed at write time. A remembered login survives a
// month; a non-remembered one still gets a one-day durable fallback copy so
// a restart within the shift does not force a re-login.
const (
	RememberedTTL = 30 * 24 * time.Hour
	SessionTTL    = 24 * time.Hour
)

// TimeProvider abstracts time.Now for expiry tests.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider uses the system clock.
type RealTimeProvider struct{}

func (RealTimeProvider) Now() time.Time { return time.Now() }

// StoreOptions groups dependencies for Store.
type StoreOptions struct {
	Memory  ports.TokenTier
	Durable ports.TokenTier
	Bus     ports.ClearBus
	// Origin identifies this instance in published clear notices.
	Origin string
	// Time is optional; defaults to the system clock.
	Time TimeProvider
}

// Store is the process-wide credential store. At most one credential is held
// at a time; a write overwrites both tiers it may occupy.
type Store struct {
	memory  ports.TokenTier
	durable ports.TokenTier
	bus     ports.ClearBus
	origin  string
	time    TimeProvider
}

// New constructs a Store from opts.
func New(opts StoreOptions) (*Store, error) {
	if opts.Memory == nil {
		return nil, errors.New("credstore: memory tier is required")
	}
	if opts.Durable == nil {
		return nil, errors.New("credstore: durable tier is required")
	}
	if opts.Bus == nil {
		return nil, errors.New("credstore: clear bus is required")
	}
	tp := opts.Time
	if tp == nil {
		tp = RealTimeProvider{}
	}
	return &Store{
		memory:  opts.Memory,
		durable: opts.Durable,
		bus:     opts.Bus,
		origin:  opts.Origin,
		time:    tp,
	}, nil
}

// Write persists a fresh token. The durable tier always gets a copy (expiry
// and remember flag live there); the memory tier additionally holds it for
// non-remembered logins.
func (s *Store) Write(ctx context.Context, token string, remember bool) error {
	if token == "" {
		return errors.New("credstore: token cannot be empty")
	}

	ttl := SessionTTL
	if remember {
		ttl = RememberedTTL
	}
	cred := domainauth.Credential{
		Token:     token,
		ExpiresAt: s.time.Now().Add(ttl),
		Remember:  remember,
	}

	if err := s.durable.Put(ctx, cred); err != nil {
		return fmt.Errorf("write durable credential: %w", err)
	}

	if remember {
		// Overwrite semantics: a remembered login must not leave a stale
		// session-scoped copy from a previous login behind.
		if err := s.memory.Delete(ctx); err != nil {
			return fmt.Errorf("drop session credential: %w", err)
		}
		return nil
	}
	if err := s.memory.Put(ctx, cred); err != nil {
		return fmt.Errorf("write session credential: %w", err)
	}
	return nil
}

// Read returns the active credential, preferring the session-scoped copy.
// A durable expiry in the past clears everything and reports ErrNoCredential;
// no error surfaces for that case beyond the sentinel, the user simply lands
// on the login screen.
func (s *Store) Read(ctx context.Context) (domainauth.Credential, error) {
	durable, err := s.durable.Get(ctx)
	switch {
	case err == nil:
		if durable.Expired(s.time.Now()) {
			if clearErr := s.Clear(ctx); clearErr != nil {
				return domainauth.Credential{}, fmt.Errorf("clear expired credential: %w", clearErr)
			}
			return domainauth.Credential{}, ports.ErrNoCredential
		}
	case errors.Is(err, ports.ErrNoCredential):
		durable = domainauth.Credential{}
	default:
		return domainauth.Credential{}, fmt.Errorf("read durable credential: %w", err)
	}

	session, err := s.memory.Get(ctx)
	if err == nil {
		// The durable tier may lose its copy on its own (Redis evicts the
		// keys at TTL), so the session copy carries its expiry too.
		if session.Expired(s.time.Now()) {
			if clearErr := s.Clear(ctx); clearErr != nil {
				return domainauth.Credential{}, fmt.Errorf("clear expired credential: %w", clearErr)
			}
			return domainauth.Credential{}, ports.ErrNoCredential
		}
		return session, nil
	}
	if !errors.Is(err, ports.ErrNoCredential) {
		return domainauth.Credential{}, fmt.Errorf("read session credential: %w", err)
	}

	if durable.Token == "" {
		return domainauth.Credential{}, ports.ErrNoCredential
	}
	return durable, nil
}

// Clear removes the credential from both tiers and publishes the clear
// notice. Tier failures do not suppress the notice: observers must converge
// on "logged out" even when one tier misbehaves.
func (s *Store) Clear(ctx context.Context) error {
	var errs []error
	if err := s.memory.Delete(ctx); err != nil {
		errs = append(errs, fmt.Errorf("clear session credential: %w", err))
	}
	if err := s.durable.Delete(ctx); err != nil {
		errs = append(errs, fmt.Errorf("clear durable credential: %w", err))
	}

	notice := ports.ClearNotice{Origin: s.origin, At: s.time.Now()}
	if err := s.bus.PublishClear(ctx, notice); err != nil {
		errs = append(errs, fmt.Errorf("publish clear notice: %w", err))
	}
	return errors.Join(errs...)
}
