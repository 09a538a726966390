package backendapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fedefazz/laf-dashboard/internal/ports"
)

// Transport is the request authorizer: an http.RoundTripper that attaches
// the stored bearer token to outbound backend calls and clears the store on
// a rejected credential. It reads the credential store directly, never the
// session manager, so it can be wired before the manager exists.
type Transport struct {
	// Store is the credential store. Required.
	Store ports.CredentialStore
	// Base is the underlying round tripper; http.DefaultTransport when nil.
	Base http.RoundTripper
	// Logger is optional.
	Logger *slog.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	out := req
	if !strings.HasSuffix(req.URL.Path, TokenPath) {
		cred, err := t.Store.Read(req.Context())
		switch {
		case err == nil:
			// Per-request clone: RoundTrippers must not mutate the caller's
			// request.
			out = req.Clone(req.Context())
			out.Header.Set("Authorization", "Bearer "+cred.Token)
		case !errors.Is(err, ports.ErrNoCredential):
			t.logger().Warn("credential read failed, sending unauthenticated", "error", err)
		}
	}

	resp, err := base.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// The clear publishes the credential-cleared notice; the session
		// manager invalidates from its own subscription. Both paths are
		// idempotent so their ordering does not matter.
		if clearErr := t.Store.Clear(req.Context()); clearErr != nil {
			t.logger().Warn("clear credential after 401 failed", "error", clearErr)
		}
	}

	// The original response always reaches the caller so feature code can
	// react to the failure as well.
	return resp, nil
}

func (t *Transport) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}
