package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/fedefazz/laf-dashboard/internal/domain/auth"
	"github.com/fedefazz/laf-dashboard/internal/service"
)

// SessionService is the slice of the session manager the HTTP layer needs.
type SessionService interface {
	Ready() <-chan struct{}
	State() domainauth.State
	CurrentUser() (domainauth.User, bool)
	HasAnyRole(roles ...domainauth.Role) bool
	Login(ctx context.Context, username, password string, remember bool) error
	Logout(ctx context.Context)
}

var _ SessionService = (*service.SessionManager)(nil)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// waitInitialized blocks until the session manager leaves the uninitialized
// state or the request is abandoned. Returns false when the request died
// first; the caller must not write a normal response in that case.
func waitInitialized(w http.ResponseWriter, r *http.Request, sessions SessionService) bool {
	select {
	case <-sessions.Ready():
		return true
	case <-r.Context().Done():
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return false
	}
}

// RequireSession returns a middleware that admits only authenticated
// sessions. Requests arriving before initialization completes wait instead
// of being bounced.
func RequireSession(sessions SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !waitInitialized(w, r, sessions) {
				return
			}
			if sessions.State() != domainauth.StateAuthenticated {
				if isBrowserRequest(r) {
					redirectToLogin(w, r)
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("authentication required"),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GuestOnly returns a middleware that keeps authenticated users off guest
// pages such as the login form.
func GuestOnly(sessions SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !waitInitialized(w, r, sessions) {
				return
			}
			if sessions.State() == domainauth.StateAuthenticated {
				http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyRole returns a middleware that admits only users carrying one of
// roles. It layers on top of RequireSession; an authenticated session whose
// profile is still loading is refused rather than trusted.
func RequireAnyRole(sessions SessionService, roles ...domainauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sessions.HasAnyRole(roles...) {
				if isBrowserRequest(r) {
					// Browser navigation lands back on the dashboard rather
					// than a bare error page.
					http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("insufficient permissions"),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// isBrowserRequest distinguishes page navigation from API calls. API routes
// and static assets get JSON errors; everything else gets redirects and HTML.
func isBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	if strings.HasPrefix(r.URL.Path, "/static/") {
		return false
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}

// redirectToLogin redirects browser requests to the login page with the
// current URL as redirect_uri, so login can return the user where they were.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	redirectPath := safeRedirectPath(r.URL.RequestURI())
	http.Redirect(w, r, "/login?redirect_uri="+url.QueryEscape(redirectPath), http.StatusSeeOther)
}

// safeRedirectPath ensures the provided redirect is a same-origin relative
// path starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}
