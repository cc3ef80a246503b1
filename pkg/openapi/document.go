package openapi

import (
	"errors"
	"fmt"
)

// Source identifies where a descriptor document originated. Loaders operate on
// files, fs.FS entries, or URLs without leaking implementation details.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

// Document wraps the raw descriptor payload and its origin. Exposing this type
// instead of kin-openapi structs keeps the public API decoupled from the
// parsing backend.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument constructs a Document wrapper while validating the inputs.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("openapi: source is required")
	}
	if len(raw) == 0 {
		return Document{}, errors.New("openapi: raw document is empty")
	}

	clone := append([]byte(nil), raw...)
	return Document{source: src, raw: clone}, nil
}

// MustNewDocument panics if the document cannot be created. Useful for tests.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// Source returns the origin metadata for the document.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a defensive copy of the descriptor payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Info carries document-level metadata: the descriptor title/description plus
// any vendor extensions declared at the document root (for fal descriptors
// that includes x-fal-metadata).
type Info struct {
	Title       string
	Description string
	Version     string
	Extensions  map[string]any
}

// Operation models the subset of operation metadata needed to build form
// models: the request-body schema plus the paths a submission flows through.
type Operation struct {
	ID          string
	Method      string
	Path        string
	Summary     string
	Description string
	RequestBody Schema
	Responses   map[string]Schema
	Extensions  map[string]any
}

// NewOperation validates core fields and initialises response maps.
func NewOperation(id, method, path string, request Schema, responses map[string]Schema) (Operation, error) {
	if id == "" {
		return Operation{}, errors.New("openapi: operation id is required")
	}
	if method == "" {
		return Operation{}, errors.New("openapi: operation method is required")
	}
	if path == "" {
		return Operation{}, errors.New("openapi: operation path is required")
	}
	if responses == nil {
		responses = make(map[string]Schema)
	}

	return Operation{
		ID:          id,
		Method:      method,
		Path:        path,
		RequestBody: request,
		Responses:   responses,
	}, nil
}

// MustNewOperation panics when construction fails, assisting fixtures/tests.
func MustNewOperation(id, method, path string, request Schema, responses map[string]Schema) Operation {
	op, err := NewOperation(id, method, path, request, responses)
	if err != nil {
		panic(err)
	}
	return op
}

// HasResponse reports whether a response code has a schema registered.
func (op Operation) HasResponse(code string) bool {
	_, ok := op.Responses[code]
	return ok
}

// Schema represents request/response bodies and nested fields within an
// operation. It is the read-only input to form generation: enum, bounds,
// anyOf, and vendor extensions all survive the conversion from the raw
// document so the widget classifier can branch on them.
type Schema struct {
	Ref              string
	Type             string
	Format           string
	Title            string
	Description      string
	Default          any
	Required         []string
	Properties       map[string]Schema
	Items            *Schema
	Enum             []any
	AnyOf            []Schema
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum bool
	ExclusiveMaximum bool
	MultipleOf       *float64
	MinLength        *int
	MaxLength        *int
	Pattern          string
	Extensions       map[string]any
}

// Clone creates a deep copy of the schema tree to avoid accidental mutation.
func (s Schema) Clone() Schema {
	cloned := s
	if len(s.Required) > 0 {
		cloned.Required = append([]string(nil), s.Required...)
	}
	if len(s.Enum) > 0 {
		cloned.Enum = append([]any(nil), s.Enum...)
	}
	if len(s.Properties) > 0 {
		cloned.Properties = make(map[string]Schema, len(s.Properties))
		for k, v := range s.Properties {
			cloned.Properties[k] = v.Clone()
		}
	}
	if s.Items != nil {
		items := s.Items.Clone()
		cloned.Items = &items
	}
	if len(s.AnyOf) > 0 {
		cloned.AnyOf = make([]Schema, len(s.AnyOf))
		for i, variant := range s.AnyOf {
			cloned.AnyOf[i] = variant.Clone()
		}
	}
	if s.Minimum != nil {
		value := *s.Minimum
		cloned.Minimum = &value
	}
	if s.Maximum != nil {
		value := *s.Maximum
		cloned.Maximum = &value
	}
	if s.MultipleOf != nil {
		value := *s.MultipleOf
		cloned.MultipleOf = &value
	}
	if s.MinLength != nil {
		value := *s.MinLength
		cloned.MinLength = &value
	}
	if s.MaxLength != nil {
		value := *s.MaxLength
		cloned.MaxLength = &value
	}
	if len(s.Extensions) > 0 {
		cloned.Extensions = make(map[string]any, len(s.Extensions))
		for k, v := range s.Extensions {
			cloned.Extensions[k] = v
		}
	}
	return cloned
}

// Validate performs basic sanity checks useful for callers before building
// form models.
func (s Schema) Validate() error {
	if s.Type == "" && s.Ref == "" && len(s.AnyOf) == 0 {
		return errors.New("openapi: schema requires type, ref, or anyOf")
	}
	if s.Type == "array" && s.Items == nil {
		return errors.New("openapi: array schema must define items")
	}
	return nil
}

// Bounded reports whether both numeric bounds are present.
func (s Schema) Bounded() bool {
	return s.Minimum != nil && s.Maximum != nil
}

// RefName returns the trailing component name of the schema reference, e.g.
// "ImageSize" for "#/components/schemas/ImageSize". Empty when unset.
func (s Schema) RefName() string {
	if s.Ref == "" {
		return ""
	}
	for i := len(s.Ref) - 1; i >= 0; i-- {
		if s.Ref[i] == '/' {
			return s.Ref[i+1:]
		}
	}
	return s.Ref
}

// DebugString renders the schema for logging without exposing backend types.
func (s Schema) DebugString() string {
	summary := fmt.Sprintf("type=%s", s.Type)
	if s.Ref != "" {
		summary += fmt.Sprintf(",ref=%s", s.Ref)
	}
	if len(s.Required) > 0 {
		summary += fmt.Sprintf(",required=%d", len(s.Required))
	}
	if len(s.Properties) > 0 {
		summary += fmt.Sprintf(",properties=%d", len(s.Properties))
	}
	if len(s.Enum) > 0 {
		summary += fmt.Sprintf(",enum=%d", len(s.Enum))
	}
	if len(s.AnyOf) > 0 {
		summary += fmt.Sprintf(",anyOf=%d", len(s.AnyOf))
	}
	if s.Items != nil {
		summary += ",items=true"
	}
	return summary
}
