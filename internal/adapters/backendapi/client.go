package backendapi

// Package backendapi is the HTTP client for the plant backend: the
// credential exchange, the account lookups the session manager normalizes
// into a User, and the read endpoints behind the feature screens.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	apperrors "github.com/fedefazz/laf-dashboard/internal/errors"
	"github.com/fedefazz/laf-dashboard/internal/ports"
)

// TokenPath is the credential-exchange endpoint, relative to the base URL.
// The bearer transport must never attach a token to it.
const TokenPath = "/token"

// Config holds client configuration.
type Config struct {
	// BaseURL is the backend root, e.g. "https://laf.plant.example".
	BaseURL string
	// Authorized performs bearer-authorized calls; usually an *http.Client
	// wrapping the bearer Transport.
	Authorized *http.Client
	// Plain performs unauthorized calls (the token exchange). Defaults to a
	// 30 s timeout client.
	Plain *http.Client
}

// Client talks to the backend API.
type Client struct {
	base       *url.URL
	authorized *http.Client
	plain      *http.Client
	oauth      *oauth2.Config
}

// NewClient constructs a backend client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("backendapi: base URL is required")
	}
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("backendapi: parse base URL: %w", err)
	}
	if cfg.Authorized == nil {
		return nil, errors.New("backendapi: authorized client is required")
	}
	plain := cfg.Plain
	if plain == nil {
		plain = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		base:       base,
		authorized: cfg.Authorized,
		plain:      plain,
		oauth: &oauth2.Config{
			Endpoint: oauth2.Endpoint{
				TokenURL:  base.String() + TokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}, nil
}

// ExchangePassword trades username/password for a bearer token via the
// password grant. The returned error preserves *oauth2.RetrieveError so the
// session manager can derive a human-readable message from the structured
// body.
func (c *Client) ExchangePassword(ctx context.Context, username, password string) (ports.TokenExchange, error) {
	if username == "" || password == "" {
		return ports.TokenExchange{}, apperrors.Validation("username and password are required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.plain)
	tok, err := c.oauth.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		return ports.TokenExchange{}, fmt.Errorf("password grant: %w", err)
	}
	if tok.AccessToken == "" {
		return ports.TokenExchange{}, apperrors.Internal("token response carried no access token")
	}

	exchange := ports.TokenExchange{AccessToken: tok.AccessToken}
	if !tok.Expiry.IsZero() {
		exchange.ExpiresIn = time.Until(tok.Expiry)
	}
	return exchange, nil
}

// userInfoResponse mirrors the backend account lookup payload.
type userInfoResponse struct {
	ID            string `json:"Id"`
	Email         string `json:"Email"`
	HasRegistered bool   `json:"HasRegistered"`
	LoginProvider string `json:"LoginProvider"`
}

// FetchIdentity performs the lightweight identity lookup for the bearer of
// the current token.
func (c *Client) FetchIdentity(ctx context.Context) (ports.Identity, error) {
	var payload userInfoResponse
	if err := c.getJSON(ctx, "/api/account/userinfo", &payload); err != nil {
		return ports.Identity{}, fmt.Errorf("fetch identity: %w", err)
	}
	return ports.Identity{
		ID:            payload.ID,
		Email:         payload.Email,
		HasRegistered: payload.HasRegistered,
		LoginProvider: payload.LoginProvider,
	}, nil
}

// profileResponse mirrors the backend user profile payload.
type profileResponse struct {
	ID               string `json:"Id"`
	Email            string `json:"Email"`
	Name             string `json:"Name"`
	LastName         string `json:"LastName"`
	ProfileImagePath string `json:"ProfileImagePath"`
	Enabled          bool   `json:"Enabled"`
	Role             []struct {
		ID   string `json:"Id"`
		Name string `json:"Name"`
	} `json:"Role"`
}

// FetchProfile performs the full profile lookup by user id.
func (c *Client) FetchProfile(ctx context.Context, id string) (ports.Profile, error) {
	if id == "" {
		return ports.Profile{}, apperrors.Validation("user id is required")
	}

	var payload profileResponse
	if err := c.getJSON(ctx, "/api/users/"+url.PathEscape(id), &payload); err != nil {
		return ports.Profile{}, fmt.Errorf("fetch profile: %w", err)
	}

	labels := make([]string, 0, len(payload.Role))
	for _, r := range payload.Role {
		labels = append(labels, r.Name)
	}
	return ports.Profile{
		ID:         payload.ID,
		Email:      payload.Email,
		FirstName:  payload.Name,
		LastName:   payload.LastName,
		AvatarPath: payload.ProfileImagePath,
		RoleLabels: labels,
		Enabled:    payload.Enabled,
	}, nil
}

// NotifyLogout tells the backend the session ended. Callers treat this as
// best effort; it must never block local invalidation.
func (c *Client) NotifyLogout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.String()+"/api/account/logout", http.NoBody)
	if err != nil {
		return fmt.Errorf("build logout request: %w", err)
	}
	resp, err := c.authorized.Do(req)
	if err != nil {
		return fmt.Errorf("notify logout: %w", err)
	}
	drainAndClose(resp.Body)
	return nil
}

// Machine is one machine row as the backend reports it.
type Machine struct {
	ID          string `json:"Id"`
	Name        string `json:"Name"`
	Description string `json:"Description"`
	Enabled     bool   `json:"Enabled"`
}

// ListMachines fetches the machine list.
func (c *Client) ListMachines(ctx context.Context) ([]Machine, error) {
	var machines []Machine
	if err := c.getJSON(ctx, "/api/machines", &machines); err != nil {
		return nil, fmt.Errorf("list machines: %w", err)
	}
	return machines, nil
}

// ScrapRecord is one scrap entry as the backend reports it.
type ScrapRecord struct {
	ID           string  `json:"Id"`
	Date         string  `json:"Date"`
	MachineName  string  `json:"MachineName"`
	ProductName  string  `json:"ProductName"`
	MaterialType string  `json:"MaterialType"`
	Weight       float64 `json:"Weight"`
}

// ListScraps fetches the scrap records.
func (c *Client) ListScraps(ctx context.Context) ([]ScrapRecord, error) {
	var scraps []ScrapRecord
	if err := c.getJSON(ctx, "/api/scraps", &scraps); err != nil {
		return nil, fmt.Errorf("list scraps: %w", err)
	}
	return scraps, nil
}

// MaterialType is one scrap material classification.
type MaterialType struct {
	ID      string `json:"Id"`
	Name    string `json:"Name"`
	Enabled bool   `json:"Enabled"`
}

// ListMaterialTypes fetches the scrap material classifications.
func (c *Client) ListMaterialTypes(ctx context.Context) ([]MaterialType, error) {
	var materials []MaterialType
	if err := c.getJSON(ctx, "/api/scraps/materials", &materials); err != nil {
		return nil, fmt.Errorf("list material types: %w", err)
	}
	return materials, nil
}

// Operator is one plant operator account as the backend reports it.
type Operator struct {
	ID       string `json:"Id"`
	Email    string `json:"Email"`
	Name     string `json:"Name"`
	LastName string `json:"LastName"`
	Enabled  bool   `json:"Enabled"`
}

// ListOperators fetches the operator accounts.
func (c *Client) ListOperators(ctx context.Context) ([]Operator, error) {
	var operators []Operator
	if err := c.getJSON(ctx, "/api/users", &operators); err != nil {
		return nil, fmt.Errorf("list operators: %w", err)
	}
	return operators, nil
}

// Product is one manufactured product as the backend reports it.
type Product struct {
	ID      string `json:"Id"`
	Name    string `json:"Name"`
	Code    string `json:"Code"`
	Enabled bool   `json:"Enabled"`
}

// ListProducts fetches the product catalog.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.getJSON(ctx, "/api/products", &products); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// DashboardSummary fetches the metrics aggregate as loose JSON; the
// dashboard service binds chart panels onto it by expression.
func (c *Client) DashboardSummary(ctx context.Context) (map[string]any, error) {
	var summary map[string]any
	if err := c.getJSON(ctx, "/api/dashboard/summary", &summary); err != nil {
		return nil, fmt.Errorf("dashboard summary: %w", err)
	}
	return summary, nil
}

// getJSON performs a bearer-authorized GET and decodes the response body.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.authorized.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "backend unreachable")
	}
	defer drainAndClose(resp.Body)

	if err := statusError(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "decode backend response")
	}
	return nil
}

// statusError maps a non-2xx response to an application error.
func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return apperrors.Unauthorized("backend rejected credential")
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NotFound("backend resource not found")
	default:
		return apperrors.Internalf("backend returned status %d", resp.StatusCode)
	}
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
