package httpx

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	lafdashboard "github.com/fedefazz/laf-dashboard"
	domainauth "github.com/fedefazz/laf-dashboard/internal/domain/auth"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Sessions  SessionService
	Dashboard DashboardLoader
	Backend   BackendDirectory
	// IsDev serves templates and static assets from disk for hot reloading.
	IsDev  bool
	Logger *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	renderer, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS(services.IsDev),
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	authHandlers := &AuthHandlers{Sessions: services.Sessions, T: renderer, Logger: logger}
	uiHandlers := &UIHandlers{
		Sessions:  services.Sessions,
		Dashboard: services.Dashboard,
		Backend:   services.Backend,
		T:         renderer,
		Logger:    logger,
	}

	requireSession := RequireSession(services.Sessions)
	guestOnly := GuestOnly(services.Sessions)
	supervisors := RequireAnyRole(services.Sessions, domainauth.RoleAdmin, domainauth.RoleSupervisor)
	admins := RequireAnyRole(services.Sessions, domainauth.RoleAdmin)

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /static/", staticHandler(services.IsDev, logger))

	mux.Handle("GET /login", guestOnly(http.HandlerFunc(authHandlers.LoginPage)))
	mux.Handle("POST /login", guestOnly(http.HandlerFunc(authHandlers.LoginSubmit)))
	mux.Handle("POST /logout", requireSession(http.HandlerFunc(authHandlers.Logout)))

	mux.Handle("GET /{$}", requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})))
	mux.Handle("GET /dashboard", requireSession(http.HandlerFunc(uiHandlers.DashboardPage)))
	mux.Handle("GET /machines", requireSession(http.HandlerFunc(uiHandlers.MachinesPage)))
	mux.Handle("GET /scraps", requireSession(supervisors(http.HandlerFunc(uiHandlers.ScrapsPage))))
	mux.Handle("GET /scraps/materials", requireSession(admins(http.HandlerFunc(uiHandlers.MaterialsPage))))
	mux.Handle("GET /admin/operators", requireSession(admins(http.HandlerFunc(uiHandlers.OperatorsPage))))
	mux.Handle("GET /admin/products", requireSession(admins(http.HandlerFunc(uiHandlers.ProductsPage))))

	var handler http.Handler = &notFoundHandler{mux: mux}
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler, nil
}

// notFoundHandler sends unmatched browser paths to the login screen (the
// guest guard forwards signed-in users on to the dashboard) and answers API
// paths with a JSON error.
type notFoundHandler struct {
	mux *http.ServeMux
}

func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, pattern := h.mux.Handler(r)
	if pattern == "" {
		if isBrowserRequest(r) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "not_found",
			Err:     errors.New("route not found"),
		})
		return
	}
	h.mux.ServeHTTP(w, r)
}

// templateFS picks the template source: disk in dev mode for hot reloading,
// the embedded filesystem otherwise.
func templateFS(isDev bool) fs.FS {
	if isDev {
		return os.DirFS("frontend/templates")
	}
	sub, err := fs.Sub(lafdashboard.TemplateFS, "frontend/templates")
	if err != nil {
		return os.DirFS("frontend/templates")
	}
	return sub
}

func staticHandler(isDev bool, logger *slog.Logger) http.Handler {
	var root fs.FS
	if isDev {
		root = os.DirFS("frontend/static")
	} else {
		sub, err := fs.Sub(lafdashboard.StaticFS, "frontend/static")
		if err != nil {
			logger.Warn("embedded static assets unavailable, serving from disk", "error", err)
			sub = os.DirFS("frontend/static")
		}
		root = sub
	}
	return http.StripPrefix("/static/", http.FileServerFS(root))
}
