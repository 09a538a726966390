package backendapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	apperrors "github.com/fedefazz/laf-dashboard/internal/errors"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL:    srv.URL,
		Authorized: srv.Client(),
		Plain:      srv.Client(),
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{Authorized: http.DefaultClient})
	assert.Error(t, err)
}

func TestExchangePassword_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, TokenPath, r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.FormValue("grant_type"))
		assert.Equal(t, "ana@laf.example", r.FormValue("username"))
		assert.Equal(t, "s3cret", r.FormValue("password"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-abc",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	exchange, err := client.ExchangePassword(context.Background(), "ana@laf.example", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", exchange.AccessToken)
	assert.InDelta(t, time.Hour.Seconds(), exchange.ExpiresIn.Seconds(), 60)
}

func TestExchangePassword_RejectedPreservesRetrieveError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "The user name or password is incorrect.",
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	_, err := client.ExchangePassword(context.Background(), "ana@laf.example", "wrong")
	require.Error(t, err)

	var retrieveErr *oauth2.RetrieveError
	require.ErrorAs(t, err, &retrieveErr)
	assert.Equal(t, "The user name or password is incorrect.", retrieveErr.ErrorDescription)
}

func TestExchangePassword_EmptyInput(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "http://backend", Authorized: http.DefaultClient})
	require.NoError(t, err)

	_, err = client.ExchangePassword(context.Background(), "", "pw")
	assert.True(t, apperrors.IsValidation(err))
}

func TestFetchIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/account/userinfo", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"Id":            "u-7",
			"Email":         "ana@laf.example",
			"HasRegistered": true,
			"LoginProvider": "Local",
		})
	}))
	defer srv.Close()

	identity, err := newTestClient(t, srv).FetchIdentity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u-7", identity.ID)
	assert.Equal(t, "ana@laf.example", identity.Email)
	assert.True(t, identity.HasRegistered)
}

func TestFetchProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/users/u-7", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"Id":               "u-7",
			"Email":            "ana@laf.example",
			"Name":             "Ana",
			"LastName":         "Suarez",
			"ProfileImagePath": "/img/ana.png",
			"Enabled":          true,
			"Role": []map[string]string{
				{"Id": "r-1", "Name": "Admin"},
				{"Id": "r-2", "Name": "Supervisor"},
			},
		})
	}))
	defer srv.Close()

	profile, err := newTestClient(t, srv).FetchProfile(context.Background(), "u-7")
	require.NoError(t, err)
	assert.Equal(t, "Ana", profile.FirstName)
	assert.Equal(t, "Suarez", profile.LastName)
	assert.Equal(t, []string{"Admin", "Supervisor"}, profile.RoleLabels)
	assert.True(t, profile.Enabled)
}

func TestFetchProfile_RequiresID(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "http://backend", Authorized: http.DefaultClient})
	require.NoError(t, err)

	_, err = client.FetchProfile(context.Background(), "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestGetJSON_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"unauthorized", http.StatusUnauthorized, apperrors.IsUnauthorized},
		{"not found", http.StatusNotFound, apperrors.IsNotFound},
		{"server error", http.StatusInternalServerError, apperrors.IsInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv).ListMachines(context.Background())
			require.Error(t, err)
			assert.True(t, tc.check(err), "unexpected code for status %d: %v", tc.status, err)
		})
	}
}

func TestGetJSON_TransportErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	client, err := NewClient(Config{BaseURL: srv.URL, Authorized: http.DefaultClient})
	require.NoError(t, err)

	_, err = client.ListMachines(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
}

func TestListScraps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/scraps", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{
			{"Id": "s-1", "MachineName": "Extruder 2", "MaterialType": "PET", "Weight": 12.5},
		})
	}))
	defer srv.Close()

	scraps, err := newTestClient(t, srv).ListScraps(context.Background())
	require.NoError(t, err)
	require.Len(t, scraps, 1)
	assert.Equal(t, "Extruder 2", scraps[0].MachineName)
	assert.Equal(t, 12.5, scraps[0].Weight)
}

func TestDashboardSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/dashboard/summary", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"scrapTotalKg": 321.5,
			"machines":     map[string]any{"enabled": 12},
		})
	}))
	defer srv.Close()

	summary, err := newTestClient(t, srv).DashboardSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 321.5, summary["scrapTotalKg"])
}

func TestNotifyLogout_BestEffort(t *testing.T) {
	var hit bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		require.Equal(t, "/api/account/logout", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newTestClient(t, srv).NotifyLogout(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestNotifyLogout_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, Authorized: http.DefaultClient})
	require.NoError(t, err)

	err = client.NotifyLogout(context.Background())
	assert.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}
