package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/sync/errgroup"

	"github.com/fedefazz/laf-dashboard/internal/adapters/backendapi"
)

// JMESPathEvaluator abstracts JMESPath operations for testability.
type JMESPathEvaluator interface {
	Validate(expr string) error
	Evaluate(expr string, data any) (any, error)
}

// jmespathLibEvaluator implements JMESPathEvaluator using go-jmespath.
type jmespathLibEvaluator struct{}

func (j jmespathLibEvaluator) Validate(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	_, err := jmespath.Compile(expr)
	return err
}

func (j jmespathLibEvaluator) Evaluate(expr string, data any) (any, error) {
	return jmespath.Search(expr, data)
}

// PanelSpec binds one dashboard panel to an expression over the backend
// summary document.
type PanelSpec struct {
	Key        string
	Title      string
	Expression string
	Unit       string
}

// Panel is a rendered dashboard panel.
type Panel struct {
	Key   string
	Title string
	Value any
	Unit  string
}

// DashboardData is everything the dashboard page renders.
type DashboardData struct {
	Panels   []Panel
	Machines []backendapi.Machine
	Scraps   []backendapi.ScrapRecord
}

// DefaultPanels are the stock plant-summary panels.
func DefaultPanels() []PanelSpec {
	return []PanelSpec{
		{Key: "scrap_total", Title: "Scrap this month", Expression: "scrapTotalKg", Unit: "kg"},
		{Key: "machines_enabled", Title: "Machines running", Expression: "machines.enabled"},
		{Key: "machines_total", Title: "Machines total", Expression: "machines.total"},
		{Key: "top_material", Title: "Top scrap material", Expression: "topMaterials[0].name"},
	}
}

// DashboardBackend is the slice of the backend client the dashboard needs.
type DashboardBackend interface {
	DashboardSummary(ctx context.Context) (map[string]any, error)
	ListMachines(ctx context.Context) ([]backendapi.Machine, error)
	ListScraps(ctx context.Context) ([]backendapi.ScrapRecord, error)
}

// DashboardServiceOptions groups dependencies for DashboardService.
type DashboardServiceOptions struct {
	Backend   DashboardBackend
	Panels    []PanelSpec
	Evaluator JMESPathEvaluator
	Logger    *slog.Logger
}

// DashboardService assembles the dashboard page from the backend API. Panel
// values are bound by expression so the panel set can change without touching
// the fetch path.
type DashboardService struct {
	backend DashboardBackend
	panels  []PanelSpec
	eval    JMESPathEvaluator
	logger  *slog.Logger
}

// NewDashboardService constructs a DashboardService and validates the panel
// expressions up front.
func NewDashboardService(opts DashboardServiceOptions) (*DashboardService, error) {
	if opts.Backend == nil {
		return nil, errors.New("dashboard: backend is required")
	}
	eval := opts.Evaluator
	if eval == nil {
		eval = jmespathLibEvaluator{}
	}
	panels := opts.Panels
	if panels == nil {
		panels = DefaultPanels()
	}
	for _, p := range panels {
		if err := eval.Validate(p.Expression); err != nil {
			return nil, fmt.Errorf("dashboard: panel %q expression: %w", p.Key, err)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{backend: opts.Backend, panels: panels, eval: eval, logger: logger}, nil
}

// Load fetches the summary, machine list, and scrap records in parallel and
// binds the panels. A panel whose expression matches nothing renders with a
// nil value rather than failing the page.
func (s *DashboardService) Load(ctx context.Context) (DashboardData, error) {
	var (
		summary  map[string]any
		machines []backendapi.Machine
		scraps   []backendapi.ScrapRecord
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = s.backend.DashboardSummary(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		machines, err = s.backend.ListMachines(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		scraps, err = s.backend.ListScraps(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardData{}, fmt.Errorf("load dashboard: %w", err)
	}

	panels := make([]Panel, 0, len(s.panels))
	for _, spec := range s.panels {
		value, err := s.eval.Evaluate(spec.Expression, summary)
		if err != nil {
			s.logger.Warn("panel binding failed", "panel", spec.Key, "error", err)
			value = nil
		}
		panels = append(panels, Panel{Key: spec.Key, Title: spec.Title, Value: value, Unit: spec.Unit})
	}

	return DashboardData{Panels: panels, Machines: machines, Scraps: scraps}, nil
}
