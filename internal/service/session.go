package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	domainauth "github.com/fedefazz/laf-dashboard/internal/domain/auth"
	apperrors "github.com/fedefazz/laf-dashboard/internal/errors"
	"github.com/fedefazz/laf-dashboard/internal/ports"
)

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Store    ports.CredentialStore
	Provider ports.IdentityProvider
	// Bus is optional; when set the manager invalidates on credential-cleared
	// notices published by any store instance.
	Bus    ports.ClearBus
	Logger *slog.Logger
}

// SessionManager owns the authentication lifecycle: startup restoration,
// login, logout, and reacting to credential loss. All exported methods are
// safe for concurrent use.
type SessionManager struct {
	store    ports.CredentialStore
	provider ports.IdentityProvider
	logger   *slog.Logger

	mu    sync.Mutex
	state domainauth.State
	user  *domainauth.User

	readyOnce sync.Once
	ready     chan struct{}
	initOnce  sync.Once

	unsubscribe func()
}

// NewSessionManager constructs a SessionManager and, when a bus is provided,
// subscribes to credential-cleared notices. Call Close to release the
// subscription.
func NewSessionManager(opts SessionManagerOptions) (*SessionManager, error) {
	if opts.Store == nil {
		return nil, errors.New("session: credential store is required")
	}
	if opts.Provider == nil {
		return nil, errors.New("session: identity provider is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := &SessionManager{
		store:    opts.Store,
		provider: opts.Provider,
		logger:   logger,
		state:    domainauth.StateUninitialized,
		ready:    make(chan struct{}),
	}
	if opts.Bus != nil {
		m.unsubscribe = opts.Bus.SubscribeClear(m.onClearNotice)
	}
	return m, nil
}

// Close releases the clear-notice subscription.
func (m *SessionManager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Ready is closed once the manager has left the uninitialized state. Guards
// wait on it instead of polling.
func (m *SessionManager) Ready() <-chan struct{} {
	return m.ready
}

// State returns the current session state.
func (m *SessionManager) State() domainauth.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentUser returns the authenticated user, or false when none is loaded.
// The profile may still be in flight right after a restored startup.
func (m *SessionManager) CurrentUser() (domainauth.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return domainauth.User{}, false
	}
	return *m.user, true
}

// HasRole reports whether the loaded user carries r.
func (m *SessionManager) HasRole(r domainauth.Role) bool {
	user, ok := m.CurrentUser()
	return ok && user.HasRole(r)
}

// HasAnyRole reports whether the loaded user carries any of roles. An empty
// list matches nothing.
func (m *SessionManager) HasAnyRole(roles ...domainauth.Role) bool {
	user, ok := m.CurrentUser()
	return ok && user.HasAnyRole(roles...)
}

// Initialize restores the session from the credential store. A held
// credential authenticates optimistically before the profile round trip
// completes, so navigation is not blocked on the backend. Subsequent calls
// are no-ops.
func (m *SessionManager) Initialize(ctx context.Context) {
	m.initOnce.Do(func() {
		if _, err := m.store.Read(ctx); err != nil {
			if !errors.Is(err, ports.ErrNoCredential) {
				m.logger.Warn("credential read failed during initialize", "error", err)
			}
			m.invalidate()
			return
		}

		m.mu.Lock()
		m.state = domainauth.StateAuthenticated
		m.mu.Unlock()
		m.signalReady()
		m.logger.Info("session restored from stored credential")

		// Confirm in the background; any confirmation failure, rejection or
		// unreachable backend alike, invalidates the optimistic session.
		go m.confirmProfile(context.WithoutCancel(ctx))
	})
}

func (m *SessionManager) confirmProfile(ctx context.Context) {
	identity, err := m.provider.FetchIdentity(ctx)
	if err == nil {
		var profile ports.Profile
		profile, err = m.provider.FetchProfile(ctx, identity.ID)
		if err == nil {
			user, buildErr := buildUser(identity, profile, m.logger)
			if buildErr != nil {
				m.logger.Warn("restored credential rejected", "error", buildErr)
				m.clearAndInvalidate(ctx)
				return
			}
			m.mu.Lock()
			if m.state == domainauth.StateAuthenticated {
				m.user = &user
			}
			m.mu.Unlock()
			m.logger.Info("session profile confirmed", "user_id", user.ID)
			return
		}
	}

	if apperrors.IsUnauthorized(err) {
		// The bearer transport already cleared the store on 401; this makes
		// the in-memory state agree with it.
		m.logger.Info("restored credential rejected by backend")
		m.invalidate()
		return
	}
	// An unreachable backend counts the same as a rejected credential: the
	// restored session cannot be verified, so it is torn down instead of
	// being left to fail on the first data fetch.
	m.logger.Warn("profile confirmation failed, dropping restored session", "error", err)
	m.clearAndInvalidate(ctx)
}

// LoginError carries a human-readable message alongside the underlying
// failure. Handlers render Message; logs get the wrapped error.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() error { return e.Err }

// Login performs the full sign-in sequence: password grant, credential
// persistence, then identity and profile lookup. It is all or nothing; any
// failure after the credential is written clears it again, so no unusable
// token survives a partial login.
func (m *SessionManager) Login(ctx context.Context, username, password string, remember bool) error {
	exchange, err := m.provider.ExchangePassword(ctx, username, password)
	if err != nil {
		m.logger.Info("login rejected", "username", username, "error", err)
		return &LoginError{Message: loginMessage(err), Err: err}
	}

	if err := m.store.Write(ctx, exchange.AccessToken, remember); err != nil {
		m.logger.Error("credential write failed", "error", err)
		return &LoginError{Message: "something went wrong, please try again", Err: fmt.Errorf("write credential: %w", err)}
	}

	user, err := m.loadUser(ctx)
	if err != nil {
		m.clearAndInvalidate(ctx)
		m.logger.Error("login aborted after token grant", "error", err)
		return &LoginError{Message: loginMessage(err), Err: err}
	}

	m.mu.Lock()
	m.state = domainauth.StateAuthenticated
	m.user = &user
	m.mu.Unlock()
	m.signalReady()
	m.logger.Info("login succeeded", "user_id", user.ID, "primary_role", string(user.Primary), "remember", remember)
	return nil
}

func (m *SessionManager) loadUser(ctx context.Context) (domainauth.User, error) {
	identity, err := m.provider.FetchIdentity(ctx)
	if err != nil {
		return domainauth.User{}, fmt.Errorf("fetch identity: %w", err)
	}
	profile, err := m.provider.FetchProfile(ctx, identity.ID)
	if err != nil {
		return domainauth.User{}, fmt.Errorf("fetch profile: %w", err)
	}
	return buildUser(identity, profile, m.logger)
}

// Logout notifies the backend, then unconditionally drops the local session.
// Backend failures never keep the user signed in.
func (m *SessionManager) Logout(ctx context.Context) {
	if err := m.provider.NotifyLogout(ctx); err != nil {
		m.logger.Warn("logout notification failed", "error", err)
	}
	m.clearAndInvalidate(ctx)
	m.logger.Info("logged out")
}

func (m *SessionManager) clearAndInvalidate(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn("credential clear failed", "error", err)
	}
	m.invalidate()
}

// invalidate moves to unauthenticated and drops the user. Idempotent: an
// already unauthenticated session is left untouched.
func (m *SessionManager) invalidate() {
	m.mu.Lock()
	if m.state == domainauth.StateUnauthenticated {
		m.mu.Unlock()
		return
	}
	m.state = domainauth.StateUnauthenticated
	m.user = nil
	m.mu.Unlock()
	m.signalReady()
}

func (m *SessionManager) onClearNotice(notice ports.ClearNotice) {
	m.logger.Info("credential cleared elsewhere", "origin", notice.Origin)
	m.invalidate()
}

func (m *SessionManager) signalReady() {
	m.readyOnce.Do(func() { close(m.ready) })
}

func buildUser(identity ports.Identity, profile ports.Profile, logger *slog.Logger) (domainauth.User, error) {
	if !profile.Enabled {
		return domainauth.User{}, apperrors.Unauthorized("account is disabled")
	}

	roles := make([]domainauth.Role, 0, len(profile.RoleLabels))
	for _, label := range profile.RoleLabels {
		role, err := domainauth.ParseRole(label)
		if err != nil {
			logger.Warn("ignoring unknown role label", "label", label)
			continue
		}
		roles = append(roles, role)
	}
	primary, _ := domainauth.PrimaryRole(roles)

	return domainauth.User{
		ID:         profile.ID,
		Email:      firstNonEmpty(profile.Email, identity.Email),
		FirstName:  profile.FirstName,
		LastName:   profile.LastName,
		AvatarPath: profile.AvatarPath,
		Roles:      roles,
		Primary:    primary,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// loginMessage derives the message shown on the login form. Structured
// server detail wins over status-code defaults.
func loginMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code == apperrors.ErrCodeValidation {
		return appErr.Message
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if desc := strings.TrimSpace(retrieveErr.ErrorDescription); desc != "" {
			return desc
		}
		if msg := bodyMessage(retrieveErr.Body); msg != "" {
			return msg
		}
		if retrieveErr.Response != nil {
			switch retrieveErr.Response.StatusCode {
			case http.StatusUnauthorized:
				return "verify your email and password"
			case http.StatusBadRequest:
				return "invalid input, verify your email and password"
			}
		}
		return "something went wrong, please try again"
	}

	if apperrors.IsUnauthorized(err) {
		return "verify your email and password"
	}
	if apperrors.IsUnavailable(err) {
		return "cannot reach the server, try again later"
	}
	return "something went wrong, please try again"
}

// bodyMessage pulls a "message" field out of a non-standard error body.
func bodyMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Message)
}
