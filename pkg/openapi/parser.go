package openapi

import "context"

// Parser normalises descriptor documents into operation wrappers that
// downstream packages consume.
type Parser interface {
	// Operations extracts every operation keyed by operationId (or a
	// method:path fallback when the descriptor omits ids).
	Operations(ctx context.Context, doc Document) (map[string]Operation, error)

	// Describe extracts document-level metadata: title, description, and root
	// vendor extensions such as x-fal-metadata.
	Describe(ctx context.Context, doc Document) (Info, error)
}

// ParserOptions exposes toggles for parsing behaviour.
type ParserOptions struct {
	// ResolveReferences controls whether the parser eagerly resolves $ref
	// pointers. Defaults to true for full documents.
	ResolveReferences bool

	// AllowPartialDocuments gates loading descriptors that omit paths or
	// operations, returning what could be extracted instead of failing.
	AllowPartialDocuments bool
}

// ParserOption mutates ParserOptions during construction.
type ParserOption func(*ParserOptions)

// WithReferenceResolution toggles eager reference resolution.
func WithReferenceResolution(enabled bool) ParserOption {
	return func(opts *ParserOptions) {
		opts.ResolveReferences = enabled
	}
}

// WithPartialDocuments toggles support for incomplete descriptors.
func WithPartialDocuments(enabled bool) ParserOption {
	return func(opts *ParserOptions) {
		opts.AllowPartialDocuments = enabled
	}
}

// NewParserOptions applies ParserOption functions and returns the resulting
// configuration.
func NewParserOptions(options ...ParserOption) ParserOptions {
	cfg := ParserOptions{
		ResolveReferences:     true,
		AllowPartialDocuments: false,
	}
	for _, opt := range options {
		opt(&cfg)
	}
	return cfg
}
