package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/fedefazz/laf-dashboard/internal/service"
)

// AuthHandlers provides HTTP handlers for the login and logout pages.
type AuthHandlers struct {
	Sessions SessionService
	T        *TemplateRenderer
	Logger   *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// LoginPage handles GET /login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, loginForm{
		RedirectURI: safeRedirectPath(r.URL.Query().Get("redirect_uri")),
	}, http.StatusOK)
}

// loginForm carries form state back into the login template after a failed
// attempt.
type loginForm struct {
	Username    string
	Remember    bool
	RedirectURI string
	Error       string
}

// LoginSubmit handles POST /login.
func (h *AuthHandlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_form", Err: err})
		return
	}

	form := loginForm{
		Username:    r.PostFormValue("username"),
		Remember:    r.PostFormValue("remember") == "on",
		RedirectURI: safeRedirectPath(r.PostFormValue("redirect_uri")),
	}
	password := r.PostFormValue("password")

	err := h.Sessions.Login(r.Context(), form.Username, password, form.Remember)
	if err == nil {
		http.Redirect(w, r, withFlash(form.RedirectURI, flashSignedIn), http.StatusSeeOther)
		return
	}

	var loginErr *service.LoginError
	if errors.As(err, &loginErr) {
		form.Error = loginErr.Message
	} else {
		form.Error = "something went wrong, please try again"
	}
	h.renderLogin(w, r, form, http.StatusUnprocessableEntity)
}

// Logout handles POST /logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Logout(r.Context())
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandlers) renderLogin(w http.ResponseWriter, r *http.Request, form loginForm, code int) {
	data := map[string]any{
		"Title":       "Sign in",
		"CurrentPath": r.URL.Path,
		"Form":        form,
		"LoginAction": "/login?redirect_uri=" + url.QueryEscape(form.RedirectURI),
	}
	if err := h.T.RenderPage(w, code, "login", data); err != nil {
		h.logger().Error("render login page", "error", err)
	}
}
