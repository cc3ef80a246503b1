package easel

import (
	"context"
	"io/fs"

	gotheme "github.com/goliatone/go-theme"

	pkgopenapi "github.com/goliatone/go-easel/pkg/openapi"
	"github.com/goliatone/go-easel/pkg/orchestrator"
	"github.com/goliatone/go-easel/pkg/render"
	"github.com/goliatone/go-easel/pkg/renderers/htmlform"
	"github.com/goliatone/go-easel/pkg/uischema"
)

// Request selects what to generate; alias exported via the root package for
// convenience.
type Request = orchestrator.Request

// RenderOptions describes per-request overrides that renderers can use to
// prefill values or surface validation errors.
type RenderOptions = render.RenderOptions

// NewOrchestrator exposes the descriptor-to-form pipeline constructor from
// the top-level module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// GenerateHTML loads the descriptor source, builds a form model for the
// requested operation, and renders it with the named renderer. It is the
// simplest entry point for callers that just want HTML output.
func GenerateHTML(ctx context.Context, source pkgopenapi.Source, operationID, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{
		Source:      source,
		OperationID: operationID,
		Renderer:    rendererName,
	})
}

// GenerateHTMLFromDocument renders a form using a pre-loaded document,
// bypassing the loader stage while still delegating to the orchestrator.
func GenerateHTMLFromDocument(ctx context.Context, doc pkgopenapi.Document, operationID, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{
		Document:    &doc,
		OperationID: operationID,
		Renderer:    rendererName,
	})
}

// WithHints layers a loaded presentation-hints store over generated forms.
func WithHints(store *uischema.Store) orchestrator.Option {
	return orchestrator.WithHints(store)
}

// WithHintsFS loads presentation hints from a filesystem at first use.
func WithHintsFS(fsys fs.FS) orchestrator.Option {
	return orchestrator.WithHintsFS(fsys)
}

// WithThemeSelector passes a go-theme selector through to the orchestrator so
// theme/variant choices can be resolved ahead of rendering.
func WithThemeSelector(selector gotheme.ThemeSelector) orchestrator.Option {
	return orchestrator.WithThemeSelector(selector)
}

// WithThemeFallbacks forwards fallback partials used when deriving renderer
// configuration from a theme selection.
func WithThemeFallbacks(fallbacks map[string]string) orchestrator.Option {
	return orchestrator.WithThemeFallbacks(fallbacks)
}

// EmbeddedTemplates exposes the built-in HTML form templates so callers can
// reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return htmlform.TemplatesFS()
}

// Stylesheet returns the base form stylesheet embedded in the HTML renderer.
func Stylesheet() ([]byte, error) {
	return htmlform.Stylesheet()
}
