package model

// WidgetKind enumerates every input widget the form layer knows how to
// render. The set is closed: classification picks exactly one kind per field
// and renderers switch over the constants below rather than sniffing schema
// shapes themselves.
type WidgetKind string

const (
	// WidgetUpload handles image inputs: file pick, paste-as-data-URL and a
	// plain URL fallback.
	WidgetUpload WidgetKind = "upload"
	// WidgetRepeat renders an array as a repeatable item group.
	WidgetRepeat WidgetKind = "repeat"
	// WidgetSelect renders an enum as a choice list.
	WidgetSelect WidgetKind = "select"
	// WidgetImageSize is the select special case offering size presets plus a
	// custom width/height pair.
	WidgetImageSize WidgetKind = "image_size"
	// WidgetToggle renders a boolean.
	WidgetToggle WidgetKind = "toggle"
	// WidgetSlider renders a numeric field bounded on both ends, with a live
	// value readout.
	WidgetSlider WidgetKind = "slider"
	// WidgetNumber renders an unbounded numeric field.
	WidgetNumber WidgetKind = "number"
	// WidgetTextarea renders long-form text.
	WidgetTextarea WidgetKind = "textarea"
	// WidgetText is the single-line fallback.
	WidgetText WidgetKind = "text"
)

// Group names the form section a widget belongs to.
type Group string

const (
	// GroupMain holds the primary prompt input.
	GroupMain Group = "main"
	// GroupAdvanced holds everything else, rendered collapsed.
	GroupAdvanced Group = "advanced"
)

// SizeField carries the constraints of one custom dimension input.
type SizeField struct {
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Default any      `json:"default,omitempty"`
}

// SizeInput describes the custom width/height pair an image-size widget
// exposes alongside its presets.
type SizeInput struct {
	Width  SizeField `json:"width"`
	Height SizeField `json:"height"`
}

// Widget is the tagged variant attached to a field after classification. Only
// the members relevant to Kind are populated: sliders carry bounds and step,
// selects carry options, image-size widgets carry options plus the custom
// pair, text carries the masked flag.
type Widget struct {
	Kind    WidgetKind `json:"kind"`
	Group   Group      `json:"group"`
	Masked  bool       `json:"masked,omitempty"`
	Accept  string     `json:"accept,omitempty"`
	Min     *float64   `json:"min,omitempty"`
	Max     *float64   `json:"max,omitempty"`
	Step    *float64   `json:"step,omitempty"`
	Options []any      `json:"options,omitempty"`
	Custom  *SizeInput `json:"custom,omitempty"`
}

// Bounded reports whether the widget carries both numeric bounds.
func (w Widget) Bounded() bool {
	return w.Min != nil && w.Max != nil
}
