package uischema

import "strings"

// Store keeps the parsed overlays from hint documents, keyed by endpoint id.
// It is safe for concurrent readers when treated as immutable after
// construction.
type Store struct {
	overlays map[string]Overlay
}

// Overlay carries the presentation hints for a single endpoint.
type Overlay struct {
	Endpoint string
	Source   string
	Form     FormHints
	Fields   map[string]FieldHints
}

// FormHints adjust the chrome around the form.
type FormHints struct {
	Title string `json:"title" yaml:"title"`
	Intro string `json:"intro" yaml:"intro"`
}

// FieldHints adjust how one field presents. Keys into nested objects use
// dotted paths ("image_size.width"); array member fields sit under ".items"
// ("loras.items.path"). Icon markup is sanitised to a safe inline-SVG subset
// at load time.
type FieldHints struct {
	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	Help        string `json:"help,omitempty" yaml:"help,omitempty"`
	Placeholder string `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Icon        string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Group       string `json:"group,omitempty" yaml:"group,omitempty"`
	Order       *int   `json:"order,omitempty" yaml:"order,omitempty"`
	Hidden      bool   `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

// Overlay returns the hints registered for the endpoint id.
func (s *Store) Overlay(endpoint string) (Overlay, bool) {
	if s == nil {
		return Overlay{}, false
	}
	overlay, ok := s.overlays[endpoint]
	return overlay, ok
}

// Endpoints lists the endpoint ids the store carries hints for.
func (s *Store) Endpoints() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.overlays))
	for id := range s.overlays {
		ids = append(ids, id)
	}
	return ids
}

// Empty reports whether the store holds any overlays.
func (s *Store) Empty() bool {
	return s == nil || len(s.overlays) == 0
}

// NormalizeFieldPath converts bracketed field keys ("loras[].path") into the
// dotted ".items" notation the decorator matches against.
func NormalizeFieldPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	replacer := strings.NewReplacer(
		"[].", ".items.",
		"[]", ".items",
		"[", ".",
		"]", "",
	)
	normalised := replacer.Replace(trimmed)
	normalised = strings.TrimPrefix(normalised, ".")
	for strings.Contains(normalised, "..") {
		normalised = strings.ReplaceAll(normalised, "..", ".")
	}
	return strings.Trim(normalised, ".")
}
