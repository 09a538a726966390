package backendapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/fedefazz/laf-dashboard/internal/domain/auth"
	"github.com/fedefazz/laf-dashboard/internal/ports"
)

// stubStore is a func-field credential store double.
type stubStore struct {
	readFunc  func(context.Context) (domainauth.Credential, error)
	clearFunc func(context.Context) error
	clears    atomic.Int64
}

func (s *stubStore) Write(context.Context, string, bool) error { return nil }

func (s *stubStore) Read(ctx context.Context) (domainauth.Credential, error) {
	if s.readFunc != nil {
		return s.readFunc(ctx)
	}
	return domainauth.Credential{}, ports.ErrNoCredential
}

func (s *stubStore) Clear(ctx context.Context) error {
	s.clears.Add(1)
	if s.clearFunc != nil {
		return s.clearFunc(ctx)
	}
	return nil
}

func heldToken(token string) func(context.Context) (domainauth.Credential, error) {
	return func(context.Context) (domainauth.Credential, error) {
		return domainauth.Credential{Token: token, ExpiresAt: time.Now().Add(time.Hour)}, nil
	}
}

func TestTransport_AttachesBearerHeader(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := &stubStore{readFunc: heldToken("tok-123")}
	client := &http.Client{Transport: &Transport{Store: store}}

	resp, err := client.Get(srv.URL + "/api/machines")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "Bearer tok-123", seen)
	assert.Zero(t, store.clears.Load())
}

func TestTransport_SkipsTokenEndpoint(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := &stubStore{readFunc: heldToken("tok-123")}
	client := &http.Client{Transport: &Transport{Store: store}}

	resp, err := client.Post(srv.URL+TokenPath, "application/x-www-form-urlencoded", http.NoBody)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Empty(t, seen, "token endpoint must not receive a bearer header")
}

func TestTransport_NoCredentialSendsUnauthenticated(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := &http.Client{Transport: &Transport{Store: &stubStore{}}}

	resp, err := client.Get(srv.URL + "/api/machines")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Empty(t, seen)
}

func TestTransport_ClearsStoreOn401(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := &stubStore{readFunc: heldToken("tok-123")}
	client := &http.Client{Transport: &Transport{Store: store}}

	resp, err := client.Get(srv.URL + "/api/machines")
	require.NoError(t, err)
	defer resp.Body.Close()

	// The original 401 still reaches the caller.
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int64(1), store.clears.Load())
}

func TestTransport_TwoConcurrent401sBothTolerated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := &stubStore{readFunc: heldToken("tok-123")}
	client := &http.Client{Transport: &Transport{Store: store}}

	done := make(chan struct{}, 2)
	for range 2 {
		go func() {
			defer func() { done <- struct{}{} }()
			resp, err := client.Get(srv.URL + "/api/machines")
			if err == nil {
				resp.Body.Close()
			}
		}()
	}
	<-done
	<-done

	// Clear is idempotent; both requests clearing is acceptable, neither
	// clearing is not.
	assert.GreaterOrEqual(t, store.clears.Load(), int64(1))
}

func TestTransport_DoesNotMutateCallerRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := &stubStore{readFunc: heldToken("tok-123")}
	tr := &Transport{Store: store}

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/machines", http.NoBody)
	require.NoError(t, err)

	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Empty(t, req.Header.Get("Authorization"))
}
