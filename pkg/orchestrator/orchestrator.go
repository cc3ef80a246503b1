package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	internalLoader "github.com/goliatone/go-easel/internal/openapi/loader"
	internalParser "github.com/goliatone/go-easel/internal/openapi/parser"
	"github.com/goliatone/go-easel/pkg/model"
	pkgopenapi "github.com/goliatone/go-easel/pkg/openapi"
	"github.com/goliatone/go-easel/pkg/render"
	"github.com/goliatone/go-easel/pkg/renderers/htmlform"
	"github.com/goliatone/go-easel/pkg/theme"
	"github.com/goliatone/go-easel/pkg/uischema"
	"github.com/goliatone/go-easel/pkg/widgets"
	gotheme "github.com/goliatone/go-theme"
)

const defaultRendererName = htmlform.Name

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects a custom descriptor loader.
func WithLoader(loader pkgopenapi.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithParser injects a custom descriptor parser.
func WithParser(parser pkgopenapi.Parser) Option {
	return func(o *Orchestrator) {
		o.parser = parser
	}
}

// WithModelBuilder injects a custom form model builder.
func WithModelBuilder(builder model.Builder) Option {
	return func(o *Orchestrator) {
		o.builder = builder
	}
}

// WithRegistry injects a renderer registry. The default registry carries the
// htmlform renderer only.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithDecorators appends decorators that run against the form model after
// widget classification and hint overlays.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(o *Orchestrator) {
		for _, decorator := range decorators {
			if decorator == nil {
				continue
			}
			o.extraDecorators = append(o.extraDecorators, decorator)
		}
	}
}

// WithHints supplies a pre-loaded presentation hint store.
func WithHints(store *uischema.Store) Option {
	return func(o *Orchestrator) {
		o.hints = store
		o.hintsConfigured = true
	}
}

// WithHintsFS supplies a filesystem of hint documents to load during
// construction. Pass nil to disable hint overlays explicitly.
func WithHintsFS(fsys fs.FS) Option {
	return func(o *Orchestrator) {
		o.hintsFS = fsys
		o.hintsConfigured = true
	}
}

// WithThemeSelector registers a go-theme selector so requests can name a
// theme/variant pair and have the resolved configuration passed to the
// renderer.
func WithThemeSelector(selector gotheme.ThemeSelector) Option {
	return func(o *Orchestrator) {
		o.themes = selector
	}
}

// WithThemeFallbacks overrides the partial paths used when a selected theme
// leaves a form concern unstyled. Defaults to the embedded partial set.
func WithThemeFallbacks(fallbacks map[string]string) Option {
	return func(o *Orchestrator) {
		o.themeFallbacks = fallbacks
	}
}

// Orchestrator coordinates the pipeline from endpoint descriptor to rendered
// output. Construct it once and share it; Generate is safe for concurrent
// use when the injected stages are.
type Orchestrator struct {
	loader          pkgopenapi.Loader
	parser          pkgopenapi.Parser
	builder         model.Builder
	registry        *render.Registry
	defaultRenderer string
	decorators      []model.Decorator
	extraDecorators []model.Decorator
	hints           *uischema.Store
	hintsFS         fs.FS
	hintsConfigured bool
	themes          gotheme.ThemeSelector
	themeFallbacks  map[string]string
	initialiseErr   error
	defaultsApplied bool
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies are initialised with the built-in implementations so callers
// can start with a single constructor call.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes the inputs required to render a form. Exactly one of
// Operation, Document, or Source must identify the descriptor; Operation
// bypasses loading and parsing entirely, which is the path catalog-backed
// callers take.
type Request struct {
	// Source identifies where the descriptor lives. Ignored when Document or
	// Operation is supplied.
	Source pkgopenapi.Source

	// Document bypasses the loader when the caller already holds a parsed
	// payload.
	Document *pkgopenapi.Document

	// Operation bypasses both loader and parser. Catalog endpoints carry
	// their operation pre-parsed.
	Operation *pkgopenapi.Operation

	// OperationID selects which operation to render when the descriptor
	// declares several. Empty means the descriptor's primary operation.
	OperationID string

	// Renderer names the renderer to use. Empty falls back to the configured
	// default.
	Renderer string

	// Theme and Variant name the presentation theme to resolve for this
	// request. Both are ignored when no selector is configured or when
	// RenderOptions already carries a resolved theme.
	Theme   string
	Variant string

	// RenderOptions carries per-request instructions such as prefilled
	// values, submission errors, or the advanced-group disclosure state.
	RenderOptions render.RenderOptions
}

// Generate executes the pipeline and returns the rendered bytes.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	form, err := o.BuildForm(ctx, req)
	if err != nil {
		return nil, err
	}

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}

	options := req.RenderOptions
	if options.Theme == nil && o.themes != nil {
		resolved, err := o.resolveTheme(req.Theme, req.Variant)
		if err != nil {
			return nil, err
		}
		options.Theme = resolved
	}

	output, err := renderer.Render(ctx, form, options)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

// BuildForm runs the pipeline up to the decorated form model, skipping the
// rendering stage. Callers that print or serialise the model use this.
func (o *Orchestrator) BuildForm(ctx context.Context, req Request) (model.FormModel, error) {
	if ctx == nil {
		return model.FormModel{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return model.FormModel{}, err
	}
	if err := o.initialiseErr; err != nil {
		return model.FormModel{}, err
	}
	if !o.defaultsApplied {
		o.applyDefaults()
		if err := o.initialiseErr; err != nil {
			return model.FormModel{}, err
		}
	}

	op, err := o.resolveOperation(ctx, req)
	if err != nil {
		return model.FormModel{}, err
	}

	form, err := o.builder.Build(op)
	if err != nil {
		return model.FormModel{}, fmt.Errorf("orchestrator: build form model: %w", err)
	}

	for _, decorator := range o.decorators {
		if err := decorator.Decorate(&form); err != nil {
			return model.FormModel{}, fmt.Errorf("orchestrator: decorate form: %w", err)
		}
	}
	return form, nil
}

func (o *Orchestrator) resolveOperation(ctx context.Context, req Request) (pkgopenapi.Operation, error) {
	if req.Operation != nil {
		return *req.Operation, nil
	}

	doc, err := o.resolveDocument(ctx, req)
	if err != nil {
		return pkgopenapi.Operation{}, err
	}

	operations, err := o.parser.Operations(ctx, doc)
	if err != nil {
		return pkgopenapi.Operation{}, fmt.Errorf("orchestrator: parse operations: %w", err)
	}

	if req.OperationID != "" {
		op, ok := operations[req.OperationID]
		if !ok {
			return pkgopenapi.Operation{}, fmt.Errorf("orchestrator: operation %q not found", req.OperationID)
		}
		return op, nil
	}

	op, ok := pkgopenapi.PrimaryOperation(operations)
	if !ok {
		return pkgopenapi.Operation{}, fmt.Errorf("orchestrator: descriptor %s declares no operations", doc.Location())
	}
	return op, nil
}

func (o *Orchestrator) resolveDocument(ctx context.Context, req Request) (pkgopenapi.Document, error) {
	if req.Document != nil {
		return *req.Document, nil
	}
	if req.Source == nil {
		return pkgopenapi.Document{}, errors.New("orchestrator: source, document, or operation is required")
	}
	doc, err := o.loader.Load(ctx, req.Source)
	if err != nil {
		return pkgopenapi.Document{}, fmt.Errorf("orchestrator: load document: %w", err)
	}
	return doc, nil
}

func (o *Orchestrator) resolveTheme(name, variant string) (*gotheme.RendererConfig, error) {
	selection, err := o.themes.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: select theme: %w", err)
	}
	fallbacks := o.themeFallbacks
	if fallbacks == nil {
		fallbacks = theme.DefaultFallbacks()
	}
	resolved, err := theme.Resolve(selection, fallbacks)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: resolve theme: %w", err)
	}
	return resolved, nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}

	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.registry.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}

	renderer, err := o.registry.Get(names[0])
	if err != nil {
		return nil, fmt.Errorf("orchestrator: renderer %q: %w", names[0], err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyDefaults() {
	if o.defaultsApplied {
		return
	}

	if o.loader == nil {
		o.loader = internalLoader.New(pkgopenapi.NewLoaderOptions())
	}
	if o.parser == nil {
		o.parser = internalParser.New(pkgopenapi.NewParserOptions())
	}
	if o.builder == nil {
		o.builder = model.NewBuilder()
	}
	if o.registry == nil {
		o.registry = render.NewRegistry()
		renderer, err := htmlform.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
		} else {
			o.registry.MustRegister(renderer)
		}
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}

	o.decorators = []model.Decorator{widgets.NewDecorator()}
	if hints := o.resolveHints(); hints != nil {
		o.decorators = append(o.decorators, hints)
	}
	o.decorators = append(o.decorators, o.extraDecorators...)

	o.defaultsApplied = true
}

// resolveHints materialises the hint decorator. An explicit nil store or
// filesystem disables overlays; leaving hints unconfigured does too, since
// hint documents live next to the caller's descriptors rather than in the
// module.
func (o *Orchestrator) resolveHints() model.Decorator {
	if !o.hintsConfigured {
		return nil
	}
	if o.hints == nil && o.hintsFS != nil {
		store, err := uischema.LoadFS(o.hintsFS)
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: load hints: %w", err)
			return nil
		}
		o.hints = store
	}
	if o.hints == nil || o.hints.Empty() {
		return nil
	}
	return uischema.NewDecorator(o.hints)
}
