package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-easel/internal/logging"
	internalLoader "github.com/goliatone/go-easel/internal/openapi/loader"
	internalParser "github.com/goliatone/go-easel/internal/openapi/parser"
	pkgopenapi "github.com/goliatone/go-easel/pkg/openapi"
)

const metadataExtension = "x-fal-metadata"

// Catalog is an immutable index of endpoints keyed by endpoint ID.
type Catalog struct {
	endpoints map[string]Endpoint
	order     []string
}

// Option customizes catalog loading.
type Option func(*config)

type config struct {
	logger        *slog.Logger
	fallback      []Endpoint
	httpClient    *http.Client
	parserOptions []pkgopenapi.ParserOption
}

// WithLogger attaches a logger used for skip warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logging.NewComponentLogger(logger, "catalog")
		}
	}
}

// WithFallback supplies manual entries used when discovery finds nothing.
func WithFallback(entries ...Endpoint) Option {
	return func(cfg *config) {
		cfg.fallback = append(cfg.fallback, entries...)
	}
}

// WithHTTPClient overrides the client used by LoadURLs.
func WithHTTPClient(client *http.Client) Option {
	return func(cfg *config) {
		if client != nil {
			cfg.httpClient = client
		}
	}
}

// WithParserOptions forwards options to the descriptor parser.
func WithParserOptions(options ...pkgopenapi.ParserOption) Option {
	return func(cfg *config) {
		cfg.parserOptions = append(cfg.parserOptions, options...)
	}
}

func newConfig(options ...Option) config {
	cfg := config{
		logger: logging.NewNop(),
		// Descriptors in the wild are OpenAPI-like rather than strictly
		// valid, so discovery parses leniently.
		parserOptions: []pkgopenapi.ParserOption{pkgopenapi.WithPartialDocuments(true)},
	}
	for _, option := range options {
		option(&cfg)
	}
	return cfg
}

// LoadDir discovers descriptors under a directory tree.
func LoadDir(ctx context.Context, dir string, options ...Option) (*Catalog, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("catalog: directory is required")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog: stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog: %s is not a directory", dir)
	}
	// Sources keep their on-disk paths so callers can read the descriptor
	// files back without knowing which directory the catalog scanned.
	return loadFS(ctx, os.DirFS(dir), func(rel string) pkgopenapi.Source {
		return pkgopenapi.SourceFromFile(filepath.Join(dir, filepath.FromSlash(rel)))
	}, options...)
}

// LoadFS discovers descriptors in a filesystem. Files that fail to parse
// or omit the endpoint identifier are skipped with a warning.
func LoadFS(ctx context.Context, fsys fs.FS, options ...Option) (*Catalog, error) {
	return loadFS(ctx, fsys, pkgopenapi.SourceFromFS, options...)
}

func loadFS(ctx context.Context, fsys fs.FS, sourceFor func(string) pkgopenapi.Source, options ...Option) (*Catalog, error) {
	cfg := newConfig(options...)
	catalog := &Catalog{endpoints: make(map[string]Endpoint)}
	if fsys == nil {
		return catalog.withFallback(cfg), nil
	}

	parser := internalParser.New(pkgopenapi.NewParserOptions(cfg.parserOptions...))

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDescriptorFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("catalog: read %s: %w", path, err)
		}

		doc, err := pkgopenapi.NewDocument(sourceFor(path), data)
		if err != nil {
			cfg.logger.Warn("skipping descriptor", slog.String("path", path), logging.Error(err))
			return nil
		}
		catalog.index(ctx, cfg, parser, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return catalog.withFallback(cfg), nil
}

// LoadURLs fetches descriptors from HTTP sources. Unreachable or invalid
// documents are skipped with a warning, matching filesystem discovery.
func LoadURLs(ctx context.Context, urls []string, options ...Option) (*Catalog, error) {
	cfg := newConfig(options...)
	catalog := &Catalog{endpoints: make(map[string]Endpoint)}

	loaderOptions := []pkgopenapi.LoaderOption{pkgopenapi.WithHTTPFallback(0)}
	if cfg.httpClient != nil {
		loaderOptions = append(loaderOptions, pkgopenapi.WithHTTPClient(cfg.httpClient))
	}
	loader := internalLoader.New(pkgopenapi.NewLoaderOptions(loaderOptions...))
	parser := internalParser.New(pkgopenapi.NewParserOptions(cfg.parserOptions...))

	for _, raw := range urls {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		doc, err := loader.Load(ctx, pkgopenapi.SourceFromURL(raw))
		if err != nil {
			cfg.logger.Warn("skipping descriptor", slog.String("url", raw), logging.Error(err))
			continue
		}
		catalog.index(ctx, cfg, parser, doc)
	}

	return catalog.withFallback(cfg), nil
}

func (c *Catalog) index(ctx context.Context, cfg config, parser pkgopenapi.Parser, doc pkgopenapi.Document) {
	location := doc.Location()

	info, err := parser.Describe(ctx, doc)
	if err != nil {
		cfg.logger.Warn("skipping descriptor", slog.String("path", location), logging.Error(err))
		return
	}

	metadata, _ := info.Extensions[metadataExtension].(map[string]any)
	id := stringValue(metadata, "endpointId")
	if id == "" {
		cfg.logger.Warn("skipping descriptor without endpoint metadata",
			slog.String("path", location))
		return
	}
	id = strings.Trim(id, "/")
	if _, exists := c.endpoints[id]; exists {
		cfg.logger.Warn("skipping duplicate endpoint",
			slog.String("endpoint", id),
			slog.String("path", location))
		return
	}

	operations, err := parser.Operations(ctx, doc)
	if err != nil {
		cfg.logger.Warn("skipping descriptor", slog.String("path", location), logging.Error(err))
		return
	}
	operation, ok := pkgopenapi.PrimaryOperation(operations)
	if !ok {
		cfg.logger.Warn("skipping descriptor without operations",
			slog.String("path", location))
		return
	}

	title := strings.TrimSpace(info.Title)
	if title == "" {
		title = id
	}

	// The registry block lives at the document root; stamp it onto the
	// operation so forms built from it know which endpoint they belong to.
	if operation.Extensions == nil {
		operation.Extensions = make(map[string]any, 1)
	}
	if _, exists := operation.Extensions[metadataExtension]; !exists {
		operation.Extensions[metadataExtension] = metadata
	}
	if operation.Summary == "" {
		operation.Summary = title
	}

	c.endpoints[id] = Endpoint{
		ID:               id,
		Title:            title,
		Description:      info.Description,
		Category:         stringValue(metadata, "category"),
		ThumbnailURL:     stringValue(metadata, "thumbnailUrl"),
		PlaygroundURL:    stringValue(metadata, "playgroundUrl"),
		DocumentationURL: stringValue(metadata, "documentationUrl"),
		Source:           location,
		Operation:        operation,
	}
	c.order = append(c.order, id)
}

func (c *Catalog) withFallback(cfg config) *Catalog {
	if len(c.endpoints) > 0 || len(cfg.fallback) == 0 {
		return c
	}
	for _, entry := range cfg.fallback {
		if entry.ID == "" {
			continue
		}
		if _, exists := c.endpoints[entry.ID]; exists {
			continue
		}
		entry.Manual = true
		c.endpoints[entry.ID] = entry
		c.order = append(c.order, entry.ID)
	}
	return c
}

// Endpoint returns the entry for an endpoint ID.
func (c *Catalog) Endpoint(id string) (Endpoint, bool) {
	if c == nil {
		return Endpoint{}, false
	}
	endpoint, ok := c.endpoints[strings.Trim(strings.TrimSpace(id), "/")]
	return endpoint, ok
}

// Endpoints returns every entry in discovery order.
func (c *Catalog) Endpoints() []Endpoint {
	if c == nil {
		return nil
	}
	out := make([]Endpoint, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.endpoints[id])
	}
	return out
}

// Categories returns the distinct categories, sorted. Entries without a
// category are not represented.
func (c *Catalog) Categories() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var categories []string
	for _, id := range c.order {
		category := c.endpoints[id].Category
		if category == "" {
			continue
		}
		if _, ok := seen[category]; ok {
			continue
		}
		seen[category] = struct{}{}
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

// ByCategory returns the entries in a category, in discovery order.
func (c *Catalog) ByCategory(category string) []Endpoint {
	if c == nil {
		return nil
	}
	var out []Endpoint
	for _, id := range c.order {
		if c.endpoints[id].Category == category {
			out = append(out, c.endpoints[id])
		}
	}
	return out
}

// Empty reports whether the catalog holds no endpoints.
func (c *Catalog) Empty() bool {
	return c == nil || len(c.endpoints) == 0
}

// Len returns the number of endpoints.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.endpoints)
}

func stringValue(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	value, _ := m[key].(string)
	return strings.TrimSpace(value)
}

func isDescriptorFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
