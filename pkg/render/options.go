package render

import (
	gotheme "github.com/goliatone/go-theme"
)

// RenderOptions carries per-request presentation state so renderers never
// mutate the form model they are handed.
type RenderOptions struct {
	// Action overrides the submit target derived from the form model. The
	// HTML renderer points the form element here; empty keeps the model's
	// endpoint path.
	Action string
	// Values pre-populates controls keyed by dotted field paths
	// ("image_size.width"). Paths without a value fall back to the schema
	// default.
	Values map[string]any
	// Errors carries field-scoped validation feedback keyed by dotted path,
	// typically the Fields half of an ErrorMapping.
	Errors map[string][]string
	// FormErrors carries messages that could not be attributed to a field.
	FormErrors []string
	// ShowAdvanced renders the advanced group expanded instead of collapsed.
	ShowAdvanced bool
	// Theme supplies resolved theme output: CSS variables, partial
	// overrides and asset URLs. Nil renders with built-in styling.
	Theme *gotheme.RendererConfig
}
