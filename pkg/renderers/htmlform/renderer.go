// Package htmlform renders a generated form as a complete HTML document.
//
// Layout chrome (labels, hints, error lists, the advanced group) is built in
// Go; the control element for each widget kind comes from a theme partial
// rendered through the template engine, so a theme can restyle individual
// controls without touching layout. The default partials are embedded under
// themes/default/forms and match the fallback keys the theme resolver
// advertises.
package htmlform

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-easel/pkg/model"
	"github.com/goliatone/go-easel/pkg/render"
	rendertemplate "github.com/goliatone/go-easel/pkg/render/template"
	"github.com/goliatone/go-easel/pkg/render/template/gotemplate"
)

// Name is the identifier the renderer registers under.
const Name = "htmlform"

const documentTemplate = "templates/form"

// Renderer produces standalone HTML documents for form models. Construct it
// with New; the zero value has no template engine.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	baseCSS   string
}

var _ render.Renderer = (*Renderer)(nil)

type config struct {
	templates rendertemplate.TemplateRenderer
	themesDir string
}

// Option configures the renderer during construction.
type Option func(*config)

// WithTemplateRenderer swaps in a caller-managed template engine. The engine
// must resolve the embedded template paths or replacements for them.
func WithTemplateRenderer(engine rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		cfg.templates = engine
	}
}

// WithThemesDir adds a directory of theme templates on disk. Files there
// shadow embedded templates with the same path, and theme manifests can point
// partial overrides anywhere inside it.
func WithThemesDir(dir string) Option {
	return func(cfg *config) {
		cfg.themesDir = strings.TrimSpace(dir)
	}
}

// New constructs a Renderer backed by the embedded templates, plus any theme
// directory supplied through options.
func New(options ...Option) (*Renderer, error) {
	cfg := &config{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	engine := cfg.templates
	if engine == nil {
		engineOptions := []gotemplate.Option{gotemplate.WithFS(templateFS)}
		if cfg.themesDir != "" {
			engineOptions = append(engineOptions, gotemplate.WithBaseDir(cfg.themesDir))
		}
		built, err := gotemplate.New(engineOptions...)
		if err != nil {
			return nil, fmt.Errorf("htmlform: build template engine: %w", err)
		}
		engine = built
	}

	styles, err := Stylesheet()
	if err != nil {
		return nil, fmt.Errorf("htmlform: load stylesheet: %w", err)
	}

	return &Renderer{
		templates: engine,
		baseCSS:   strings.TrimSpace(string(styles)),
	}, nil
}

// Name implements render.Renderer.
func (r *Renderer) Name() string { return Name }

// ContentType implements render.Renderer.
func (r *Renderer) ContentType() string { return "text/html; charset=utf-8" }

// Render produces the full HTML document for the form.
func (r *Renderer) Render(ctx context.Context, form model.FormModel, options render.RenderOptions) ([]byte, error) {
	if r == nil || r.templates == nil {
		return nil, fmt.Errorf("htmlform: renderer not initialised")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fields := &fieldRenderer{
		templates: r.templates,
		options:   options,
		partials:  partialMap(options.Theme),
	}

	main, advanced := render.SplitGroups(form)
	mainBlocks, err := fields.renderFields(main)
	if err != nil {
		return nil, err
	}
	advancedBlocks, err := fields.renderFields(advanced)
	if err != nil {
		return nil, err
	}

	action := strings.TrimSpace(options.Action)
	if action == "" {
		action = form.Endpoint
	}

	data := map[string]any{
		"title":            documentTitle(form),
		"description":      renderDescription(form.Description),
		"action":           action,
		"form_errors":      options.FormErrors,
		"main_fields":      mainBlocks,
		"advanced_fields":  advancedBlocks,
		"advanced_open":    options.ShowAdvanced,
		"base_styles":      r.baseCSS,
		"theme_css_vars":   cssVarsStyle(options.Theme),
		"theme_stylesheet": themeStylesheet(options.Theme),
	}

	doc, err := r.templates.RenderTemplate(documentTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("htmlform: render document: %w", err)
	}
	return []byte(doc), nil
}

func documentTitle(form model.FormModel) string {
	if title := strings.TrimSpace(form.Summary); title != "" {
		return title
	}
	if title := strings.TrimSpace(form.OperationID); title != "" {
		return title
	}
	return form.Endpoint
}
