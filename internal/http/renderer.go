package httpx

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
)

// TemplateRenderer renders HTML templates for UI responses.
type TemplateRenderer struct {
	t      *template.Template
	logger *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	// TemplateFS is the filesystem containing *.tmpl templates (required).
	TemplateFS fs.FS
	Logger     *slog.Logger
}

// NewTemplateRenderer constructs a renderer by parsing templates from the
// provided filesystem.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	t, err := template.New("root").Funcs(templateFuncs()).ParseFS(cfg.TemplateFS, "*.tmpl", "pages/*.tmpl")
	if err != nil {
		logger.Error("template parsing failed", slog.Any("error", err))
		return nil, err
	}
	return &TemplateRenderer{t: t, logger: logger}, nil
}

// RenderPage renders the named page template wrapped in the layout.
func (r *TemplateRenderer) RenderPage(w http.ResponseWriter, code int, name string, data any) error {
	return r.renderTemplate(w, code, name, data)
}

func (r *TemplateRenderer) renderTemplate(w http.ResponseWriter, code int, templateName string, data any) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, templateName, data); err != nil {
		r.logger.Error("template execution failed",
			slog.String("template", templateName),
			slog.Any("error", err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Error("failed to write rendered template",
			slog.String("template", templateName),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"initials": func(first, last string) string {
			var b strings.Builder
			for _, s := range []string{first, last} {
				s = strings.TrimSpace(s)
				if s != "" {
					b.WriteString(strings.ToUpper(s[:1]))
				}
			}
			return b.String()
		},
	}
}
