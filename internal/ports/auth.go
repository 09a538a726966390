package ports

// Package ports defines interfaces (hexagonal ports) for credential storage,
// the clear-notification bus, and the backend identity surface.
// Implementations live in internal/adapters; orchestration in internal/service
// and internal/credstore.

import (
	"context"
	"time"

	domainauth "github.com/fedefazz/laf-dashboard/internal/domain/auth"
)

// ErrNoCredential is returned by tiers and stores when no credential is held.
type noCredentialError struct{}

func (noCredentialError) Error() string { return "no credential" }

var ErrNoCredential error = noCredentialError{}

// TokenTier persists the credential document for one storage tier.
// The memory tier lives for the process; durable tiers survive restarts.
type TokenTier interface {
	Put(ctx context.Context, cred domainauth.Credential) error
	// Get returns ErrNoCredential when the tier holds nothing.
	Get(ctx context.Context) (domainauth.Credential, error)
	Delete(ctx context.Context) error
}

// ClearNotice is the single message carried by the ClearBus: a credential was
// cleared somewhere. Origin identifies the publishing instance for logs;
// handling must be idempotent regardless of origin.
type ClearNotice struct {
	Origin string    `json:"origin"`
	At     time.Time `json:"at"`
}

// ClearBus broadcasts credential-cleared notices across everything sharing
// the durable tier (other processes, or just other subscribers in-process).
type ClearBus interface {
	PublishClear(ctx context.Context, notice ClearNotice) error
	// SubscribeClear registers handler and returns a cancel function.
	// Handlers may be invoked from any goroutine.
	SubscribeClear(handler func(ClearNotice)) (cancel func())
}

// CredentialStore is the two-tier store consumed by the session manager and
// the request authorizer.
type CredentialStore interface {
	Write(ctx context.Context, token string, remember bool) error
	// Read returns ErrNoCredential when nothing usable is held; an expired
	// credential is cleared on sight and reported the same way.
	Read(ctx context.Context) (domainauth.Credential, error)
	Clear(ctx context.Context) error
}

// TokenExchange is the result of the password-grant call.
type TokenExchange struct {
	AccessToken string
	ExpiresIn   time.Duration
}

// Identity is the lightweight account lookup for the bearer of the token.
type Identity struct {
	ID            string
	Email         string
	HasRegistered bool
	LoginProvider string
}

// Profile is the full user profile, including role labels as the backend
// reports them (unparsed).
type Profile struct {
	ID         string
	Email      string
	FirstName  string
	LastName   string
	AvatarPath string
	RoleLabels []string
	Enabled    bool
}

// IdentityProvider is the backend surface the session manager talks to.
type IdentityProvider interface {
	// ExchangePassword trades credentials for a bearer token. Failures carry
	// enough structure for human-readable message derivation.
	ExchangePassword(ctx context.Context, username, password string) (TokenExchange, error)

	// FetchIdentity and FetchProfile are bearer-authorized lookups combined
	// into one User by the session manager.
	FetchIdentity(ctx context.Context) (Identity, error)
	FetchProfile(ctx context.Context, id string) (Profile, error)

	// NotifyLogout tells the backend the session ended. Best effort.
	NotifyLogout(ctx context.Context) error
}
