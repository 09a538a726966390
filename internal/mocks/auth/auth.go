package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/fedefazz/laf-dashboard/internal/ports"
)

// Ensure compile-time conformance to ports.
var _ ports.IdentityProvider = (*MockIdentityProvider)(nil)

// MockIdentityProvider simulates the backend identity API for tests. Set the
// func fields to override individual calls; unset fields fall back to the
// deterministic defaults below.
type MockIdentityProvider struct {
	ExchangeFunc func(ctx context.Context, username, password string) (ports.TokenExchange, error)
	IdentityFunc func(ctx context.Context) (ports.Identity, error)
	ProfileFunc  func(ctx context.Context, id string) (ports.Profile, error)
	LogoutFunc   func(ctx context.Context) error

	// Deterministic values for predictable testing
	DefaultToken   string
	DefaultProfile ports.Profile

	exchangeCalls atomic.Int64
	logoutCalls   atomic.Int64
}

// NewMockIdentityProvider creates a MockIdentityProvider with sensible defaults.
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		DefaultToken: "mock-token-1",
		DefaultProfile: ports.Profile{
			ID:         "mock-user-1",
			Email:      "mock.user@example.com",
			FirstName:  "Mock",
			LastName:   "User",
			RoleLabels: []string{"Employee"},
			Enabled:    true,
		},
	}
}

func (m *MockIdentityProvider) ExchangePassword(ctx context.Context, username, password string) (ports.TokenExchange, error) {
	m.exchangeCalls.Add(1)
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, username, password)
	}
	return ports.TokenExchange{AccessToken: m.DefaultToken, ExpiresIn: time.Hour}, nil
}

func (m *MockIdentityProvider) FetchIdentity(ctx context.Context) (ports.Identity, error) {
	if m.IdentityFunc != nil {
		return m.IdentityFunc(ctx)
	}
	return ports.Identity{
		ID:            m.DefaultProfile.ID,
		Email:         m.DefaultProfile.Email,
		HasRegistered: true,
		LoginProvider: "Local",
	}, nil
}

func (m *MockIdentityProvider) FetchProfile(ctx context.Context, id string) (ports.Profile, error) {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, id)
	}
	return m.DefaultProfile, nil
}

func (m *MockIdentityProvider) NotifyLogout(ctx context.Context) error {
	m.logoutCalls.Add(1)
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx)
	}
	return nil
}

// ExchangeCalls reports how many password exchanges were attempted.
func (m *MockIdentityProvider) ExchangeCalls() int64 { return m.exchangeCalls.Load() }

// LogoutCalls reports how many logout notifications were sent.
func (m *MockIdentityProvider) LogoutCalls() int64 { return m.logoutCalls.Load() }
