// Package tui fills generated forms through terminal prompts. Each field is
// asked according to its widget kind; answers accumulate as flat entries and
// expand into the submission payload.
package tui

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-easel/pkg/model"
	"github.com/goliatone/go-easel/pkg/payload"
	"github.com/goliatone/go-easel/pkg/render"
	"github.com/goliatone/go-easel/pkg/widgets"
)

// Name is the identifier the renderer registers under.
const Name = "tui"

const (
	customSizeValue = "custom"
	widthSuffix     = "_width"
	heightSuffix    = "_height"
)

// maxPromptAttempts bounds re-asking after invalid answers so a scripted
// driver can never loop forever.
const maxPromptAttempts = 3

// Renderer drives an interactive fill session. It satisfies the render
// contract by emitting the expanded JSON payload the answers produce.
type Renderer struct {
	driver PromptDriver
}

var _ render.Renderer = (*Renderer)(nil)

// Option configures the renderer.
type Option func(*Renderer)

// WithPromptDriver swaps the prompt implementation, which is how tests
// script a session.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// New constructs a Renderer backed by terminal prompts unless an option says
// otherwise.
func New(options ...Option) *Renderer {
	r := &Renderer{driver: NewSurveyDriver()}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Name implements render.Renderer.
func (r *Renderer) Name() string { return Name }

// ContentType implements render.Renderer.
func (r *Renderer) ContentType() string { return "application/json" }

// Render prompts for every visible field and returns the payload as indented
// JSON.
func (r *Renderer) Render(ctx context.Context, form model.FormModel, options render.RenderOptions) ([]byte, error) {
	body, err := r.Fill(ctx, form, options)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(body, "", "  ")
}

// Fill prompts for every visible field and returns the expanded payload.
// Values carried in the options become prompt defaults, so a stored session
// can be replayed with edits.
func (r *Renderer) Fill(ctx context.Context, form model.FormModel, options render.RenderOptions) (map[string]any, error) {
	session := &fillSession{
		driver:  r.driver,
		options: options,
	}

	for _, field := range render.VisibleFields(form, options.ShowAdvanced) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := session.fillField(field, field.Name); err != nil {
			return nil, err
		}
	}

	return payload.Expand(session.entries)
}

// fillSession accumulates flat entries while walking the field list.
type fillSession struct {
	driver  PromptDriver
	options render.RenderOptions
	entries []payload.Entry
}

func (s *fillSession) add(name, value string, kind payload.EntryKind) {
	s.entries = append(s.entries, payload.Entry{Name: name, Value: value, Kind: kind})
}

func (s *fillSession) fillField(field model.Field, path string) error {
	widget := widgetFor(field)
	switch widget.Kind {
	case model.WidgetUpload:
		return s.fillUpload(field, path)
	case model.WidgetRepeat:
		return s.fillRepeat(field, path)
	case model.WidgetImageSize:
		return s.fillImageSize(field, widget, path)
	case model.WidgetSelect:
		return s.fillSelect(field, widget, path)
	case model.WidgetToggle:
		return s.fillToggle(field, path)
	case model.WidgetSlider, model.WidgetNumber:
		return s.fillNumber(field, widget, path)
	case model.WidgetTextarea:
		return s.fillText(field, path, true, false)
	default:
		return s.fillText(field, path, false, widget.Masked)
	}
}

func (s *fillSession) fillText(field model.Field, path string, multiline, masked bool) error {
	cfg := InputConfig{
		Message: fieldLabel(field),
		Default: s.defaultFor(path, field),
		Help:    field.Description,
	}

	for attempt := 0; attempt < maxPromptAttempts; attempt++ {
		var answer string
		var err error
		switch {
		case masked:
			answer, err = s.driver.Password(cfg)
		case multiline:
			answer, err = s.driver.TextArea(cfg)
		default:
			answer, err = s.driver.Input(cfg)
		}
		if err != nil {
			return err
		}

		answer = strings.TrimSpace(answer)
		if answer == "" {
			if field.Required {
				s.driver.Info(fieldLabel(field) + " is required")
				continue
			}
			return nil
		}
		if err := validateText(field, answer); err != nil {
			s.driver.Info(err.Error())
			continue
		}
		s.add(path, answer, payload.KindText)
		return nil
	}
	return fmt.Errorf("tui: no valid answer for %q", path)
}

func (s *fillSession) fillNumber(field model.Field, widget model.Widget, path string) error {
	min, max := numericBounds(field, widget)
	cfg := InputConfig{
		Message: numberMessage(field, min, max),
		Default: s.defaultFor(path, field),
		Help:    field.Description,
	}

	for attempt := 0; attempt < maxPromptAttempts; attempt++ {
		answer, err := s.driver.Input(cfg)
		if err != nil {
			return err
		}

		answer = strings.TrimSpace(answer)
		if answer == "" {
			if field.Required {
				s.driver.Info(fieldLabel(field) + " is required")
				continue
			}
			return nil
		}
		value, err := strconv.ParseFloat(answer, 64)
		if err != nil {
			s.driver.Info(fieldLabel(field) + " must be a number")
			continue
		}
		if field.Type == model.FieldTypeInteger && value != math.Trunc(value) {
			s.driver.Info(fieldLabel(field) + " must be a whole number")
			continue
		}
		if min != nil && value < *min || max != nil && value > *max {
			s.driver.Info(rangeMessage(field, min, max))
			continue
		}
		s.add(path, answer, payload.KindNumber)
		return nil
	}
	return fmt.Errorf("tui: no valid answer for %q", path)
}

func (s *fillSession) fillToggle(field model.Field, path string) error {
	def := false
	switch v := s.rawValue(path, field).(type) {
	case bool:
		def = v
	case string:
		parsed, err := strconv.ParseBool(v)
		def = err == nil && parsed
	}

	answer, err := s.driver.Confirm(ConfirmConfig{
		Message: fieldLabel(field),
		Default: def,
		Help:    field.Description,
	})
	if err != nil {
		return err
	}
	s.add(path, strconv.FormatBool(answer), payload.KindCheckbox)
	return nil
}

func (s *fillSession) fillSelect(field model.Field, widget model.Widget, path string) error {
	options := stringOptions(widget.Options)
	if len(options) == 0 {
		options = stringOptions(field.Enum)
	}
	if len(options) == 0 {
		return s.fillText(field, path, false, false)
	}

	def := s.defaultFor(path, field)
	if !containsString(options, def) {
		def = ""
	}
	answer, err := s.driver.Select(SelectConfig{
		Message: fieldLabel(field),
		Options: options,
		Default: def,
		Help:    field.Description,
	})
	if err != nil {
		return err
	}
	s.add(path, answer, selectKind(field))
	return nil
}

func (s *fillSession) fillImageSize(field model.Field, widget model.Widget, path string) error {
	options := append(stringOptions(widget.Options), customSizeValue)
	def := s.defaultFor(path, field)
	if !containsString(options, def) {
		def = ""
	}

	answer, err := s.driver.Select(SelectConfig{
		Message: fieldLabel(field),
		Options: options,
		Default: def,
		Help:    field.Description,
	})
	if err != nil {
		return err
	}
	s.add(path, answer, payload.KindText)
	if answer != customSizeValue {
		return nil
	}

	custom := widget.Custom
	if custom == nil {
		custom = &model.SizeInput{}
	}
	if err := s.fillDimension(path+widthSuffix, "Width", custom.Width); err != nil {
		return err
	}
	return s.fillDimension(path+heightSuffix, "Height", custom.Height)
}

func (s *fillSession) fillDimension(path, label string, size model.SizeField) error {
	def := ""
	if v, ok := s.options.Values[path]; ok {
		def = stringify(v)
	} else if size.Default != nil {
		def = stringify(size.Default)
	}
	cfg := InputConfig{Message: dimensionMessage(label, size), Default: def}

	for attempt := 0; attempt < maxPromptAttempts; attempt++ {
		answer, err := s.driver.Input(cfg)
		if err != nil {
			return err
		}

		answer = strings.TrimSpace(answer)
		if answer == "" {
			s.driver.Info(label + " is required for a custom size")
			continue
		}
		value, err := strconv.ParseFloat(answer, 64)
		if err != nil || value != math.Trunc(value) {
			s.driver.Info(label + " must be a whole number")
			continue
		}
		if size.Min != nil && value < *size.Min || size.Max != nil && value > *size.Max {
			s.driver.Info(dimensionRange(label, size))
			continue
		}
		s.add(path, answer, payload.KindNumber)
		return nil
	}
	return fmt.Errorf("tui: no valid answer for %q", path)
}

// fillUpload accepts a URL as-is and converts a local file path into a data
// URL so the payload stays self-contained.
func (s *fillSession) fillUpload(field model.Field, path string) error {
	cfg := InputConfig{
		Message: fieldLabel(field) + " (URL or file path)",
		Default: s.defaultFor(path, field),
		Help:    field.Description,
	}

	for attempt := 0; attempt < maxPromptAttempts; attempt++ {
		answer, err := s.driver.Input(cfg)
		if err != nil {
			return err
		}

		answer = strings.TrimSpace(answer)
		if answer == "" {
			if field.Required {
				s.driver.Info(fieldLabel(field) + " is required")
				continue
			}
			return nil
		}
		if isRemoteRef(answer) {
			s.add(path, answer, payload.KindText)
			return nil
		}
		encoded, err := encodeFileAsDataURL(answer)
		if err != nil {
			s.driver.Info(fmt.Sprintf("cannot read %s: %v", answer, err))
			continue
		}
		s.add(path, encoded, payload.KindText)
		return nil
	}
	return fmt.Errorf("tui: no valid answer for %q", path)
}

func (s *fillSession) fillRepeat(field model.Field, path string) error {
	if field.Items == nil {
		return fmt.Errorf("tui: array field %q has no item schema", path)
	}

	label := fieldLabel(field)
	add := field.Required
	if !add {
		answer, err := s.driver.Confirm(ConfirmConfig{
			Message: "Add " + label + "?",
			Help:    field.Description,
		})
		if err != nil {
			return err
		}
		add = answer
	}

	for index := 0; add; index++ {
		if err := s.fillRepeatItem(field, path, index); err != nil {
			return err
		}
		answer, err := s.driver.Confirm(ConfirmConfig{Message: "Add another " + label + "?"})
		if err != nil {
			return err
		}
		add = answer
	}
	return nil
}

func (s *fillSession) fillRepeatItem(field model.Field, path string, index int) error {
	itemPath := fmt.Sprintf("%s[%d]", path, index)

	if len(field.Items.Nested) > 0 {
		for _, child := range field.Items.Nested {
			if err := s.fillField(child, itemPath+"."+child.Name); err != nil {
				return err
			}
		}
		return nil
	}

	scalar := *field.Items
	if scalar.Name == "" {
		scalar.Name = field.Name
	}
	if scalar.Label == "" {
		scalar.Label = fieldLabel(field)
	}
	return s.fillField(scalar, itemPath)
}

func (s *fillSession) rawValue(path string, field model.Field) any {
	if v, ok := s.options.Values[path]; ok {
		return v
	}
	return field.Default
}

func (s *fillSession) defaultFor(path string, field model.Field) string {
	return stringify(s.rawValue(path, field))
}

func widgetFor(field model.Field) model.Widget {
	if field.Widget != nil {
		return *field.Widget
	}
	return widgets.Classify(field)
}

func fieldLabel(field model.Field) string {
	if label := strings.TrimSpace(field.Label); label != "" {
		return label
	}
	return field.Name
}

func validateText(field model.Field, answer string) error {
	if bound, ok := field.Bound(model.ValidationRuleMinLength); ok && len(answer) < int(bound) {
		return fmt.Errorf("%s must be at least %d characters", fieldLabel(field), int(bound))
	}
	if bound, ok := field.Bound(model.ValidationRuleMaxLength); ok && len(answer) > int(bound) {
		return fmt.Errorf("%s must be at most %d characters", fieldLabel(field), int(bound))
	}
	if pattern := patternRule(field); pattern != "" {
		matched, err := regexp.MatchString(pattern, answer)
		if err == nil && !matched {
			return fmt.Errorf("%s must match %s", fieldLabel(field), pattern)
		}
	}
	return nil
}

func patternRule(field model.Field) string {
	for _, rule := range field.Validations {
		if rule.Kind == model.ValidationRulePattern {
			return rule.Params["pattern"]
		}
	}
	return ""
}

func numericBounds(field model.Field, widget model.Widget) (min, max *float64) {
	min, max = widget.Min, widget.Max
	if min == nil {
		if bound, ok := field.Bound(model.ValidationRuleMin); ok {
			min = &bound
		}
	}
	if max == nil {
		if bound, ok := field.Bound(model.ValidationRuleMax); ok {
			max = &bound
		}
	}
	return min, max
}

func numberMessage(field model.Field, min, max *float64) string {
	label := fieldLabel(field)
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("%s (%s-%s)", label, formatFloat(*min), formatFloat(*max))
	case min != nil:
		return fmt.Sprintf("%s (>= %s)", label, formatFloat(*min))
	case max != nil:
		return fmt.Sprintf("%s (<= %s)", label, formatFloat(*max))
	default:
		return label
	}
}

func rangeMessage(field model.Field, min, max *float64) string {
	label := fieldLabel(field)
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("%s must be between %s and %s", label, formatFloat(*min), formatFloat(*max))
	case min != nil:
		return fmt.Sprintf("%s must be at least %s", label, formatFloat(*min))
	default:
		return fmt.Sprintf("%s must be at most %s", label, formatFloat(*max))
	}
}

func dimensionMessage(label string, size model.SizeField) string {
	if size.Min != nil && size.Max != nil {
		return fmt.Sprintf("%s (%s-%s)", label, formatFloat(*size.Min), formatFloat(*size.Max))
	}
	return label
}

func dimensionRange(label string, size model.SizeField) string {
	switch {
	case size.Min != nil && size.Max != nil:
		return fmt.Sprintf("%s must be between %s and %s", label, formatFloat(*size.Min), formatFloat(*size.Max))
	case size.Min != nil:
		return fmt.Sprintf("%s must be at least %s", label, formatFloat(*size.Min))
	default:
		return fmt.Sprintf("%s must be at most %s", label, formatFloat(*size.Max))
	}
}

func selectKind(field model.Field) payload.EntryKind {
	switch field.Type {
	case model.FieldTypeInteger, model.FieldTypeNumber:
		return payload.KindNumber
	default:
		return payload.KindText
	}
}

func stringOptions(options []any) []string {
	out := make([]string, 0, len(options))
	for _, option := range options {
		if v := stringify(option); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func containsString(values []string, target string) bool {
	if target == "" {
		return false
	}
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func isRemoteRef(value string) bool {
	return strings.HasPrefix(value, "http://") ||
		strings.HasPrefix(value, "https://") ||
		strings.HasPrefix(value, "data:")
}

// encodeFileAsDataURL reads a local image file and wraps it in a data URL,
// sniffing the content type from the leading bytes. Upload fields accept
// images only, so anything else is refused rather than embedded.
func encodeFileAsDataURL(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mime := http.DetectContentType(raw)
	if idx := strings.IndexByte(mime, ';'); idx > 0 {
		mime = mime[:idx]
	}
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%s is %s, not an image", path, mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}

func stringify(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return formatFloat(typed)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case json.Number:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
