package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/fedefazz/laf-dashboard/internal/adapters/backendapi"
	apperrors "github.com/fedefazz/laf-dashboard/internal/errors"
	"github.com/fedefazz/laf-dashboard/internal/service"
)

// DashboardLoader is the slice of the dashboard service the UI needs.
type DashboardLoader interface {
	Load(ctx context.Context) (service.DashboardData, error)
}

// BackendDirectory is the slice of the backend client behind the list pages.
type BackendDirectory interface {
	ListMachines(ctx context.Context) ([]backendapi.Machine, error)
	ListScraps(ctx context.Context) ([]backendapi.ScrapRecord, error)
	ListMaterialTypes(ctx context.Context) ([]backendapi.MaterialType, error)
	ListOperators(ctx context.Context) ([]backendapi.Operator, error)
	ListProducts(ctx context.Context) ([]backendapi.Product, error)
}

var (
	_ DashboardLoader  = (*service.DashboardService)(nil)
	_ BackendDirectory = (*backendapi.Client)(nil)
)

// UIHandlers serves the dashboard pages.
type UIHandlers struct {
	Sessions  SessionService
	Dashboard DashboardLoader
	Backend   BackendDirectory
	T         *TemplateRenderer
	Logger    *slog.Logger
}

func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// DashboardPage handles GET /dashboard.
func (h *UIHandlers) DashboardPage(w http.ResponseWriter, r *http.Request) {
	data := basePageData(r, h.Sessions, PageMeta{Title: "Dashboard"})
	loaded, err := h.Dashboard.Load(r.Context())
	if err != nil {
		h.renderLoadError(w, r, "dashboard", data, err)
		return
	}
	data["Panels"] = loaded.Panels
	data["Machines"] = loaded.Machines
	data["Scraps"] = loaded.Scraps
	h.render(w, r, "dashboard", data)
}

// MachinesPage handles GET /machines.
func (h *UIHandlers) MachinesPage(w http.ResponseWriter, r *http.Request) {
	data := basePageData(r, h.Sessions, PageMeta{Title: "Machines"})
	machines, err := h.Backend.ListMachines(r.Context())
	if err != nil {
		h.renderLoadError(w, r, "machines", data, err)
		return
	}
	data["Machines"] = machines
	h.render(w, r, "machines", data)
}

// ScrapsPage handles GET /scraps.
func (h *UIHandlers) ScrapsPage(w http.ResponseWriter, r *http.Request) {
	data := basePageData(r, h.Sessions, PageMeta{Title: "Scrap records"})
	scraps, err := h.Backend.ListScraps(r.Context())
	if err != nil {
		h.renderLoadError(w, r, "scraps", data, err)
		return
	}
	data["Scraps"] = scraps
	h.render(w, r, "scraps", data)
}

// MaterialsPage handles GET /scraps/materials.
func (h *UIHandlers) MaterialsPage(w http.ResponseWriter, r *http.Request) {
	data := basePageData(r, h.Sessions, PageMeta{Title: "Material types"})
	materials, err := h.Backend.ListMaterialTypes(r.Context())
	if err != nil {
		h.renderLoadError(w, r, "materials", data, err)
		return
	}
	data["Materials"] = materials
	h.render(w, r, "materials", data)
}

// OperatorsPage handles GET /admin/operators.
func (h *UIHandlers) OperatorsPage(w http.ResponseWriter, r *http.Request) {
	data := basePageData(r, h.Sessions, PageMeta{Title: "Operators"})
	operators, err := h.Backend.ListOperators(r.Context())
	if err != nil {
		h.renderLoadError(w, r, "operators", data, err)
		return
	}
	data["Operators"] = operators
	h.render(w, r, "operators", data)
}

// ProductsPage handles GET /admin/products.
func (h *UIHandlers) ProductsPage(w http.ResponseWriter, r *http.Request) {
	data := basePageData(r, h.Sessions, PageMeta{Title: "Products"})
	products, err := h.Backend.ListProducts(r.Context())
	if err != nil {
		h.renderLoadError(w, r, "products", data, err)
		return
	}
	data["Products"] = products
	h.render(w, r, "products", data)
}

func (h *UIHandlers) render(w http.ResponseWriter, _ *http.Request, page string, data map[string]any) {
	if err := h.T.RenderPage(w, http.StatusOK, page, data); err != nil {
		h.logger().Error("render page failed", "page", page, "error", err)
	}
}

// renderLoadError renders the page shell with an inline error instead of an
// opaque 500, so navigation stays usable when the backend is down. A 401 from
// the backend means the bearer transport already dropped the credential; the
// next guarded request will bounce to login.
func (h *UIHandlers) renderLoadError(w http.ResponseWriter, r *http.Request, page string, data map[string]any, err error) {
	h.logger().Warn("page data load failed", "page", page, "error", err)

	code := http.StatusBadGateway
	if apperrors.IsUnauthorized(err) {
		redirectToLogin(w, r)
		return
	}
	data["LoadError"] = "The backend is not responding. Try again in a moment."
	if renderErr := h.T.RenderPage(w, code, page, data); renderErr != nil {
		h.logger().Error("render page failed", "page", page, "error", renderErr)
	}
}
