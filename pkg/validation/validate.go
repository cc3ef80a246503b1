// Package validation checks a request payload against the generated form
// model before it leaves the machine. The queue rejects bad payloads with a
// 422 anyway; running the same constraints locally turns a slow remote
// round-trip into an immediate, field-addressed message.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-easel/pkg/model"
)

// Issue is one violated constraint, addressed by dotted field path. A form
// level problem, such as an unknown key, carries the offending path too.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Result collects the issues of one payload check.
type Result struct {
	Issues []Issue `json:"issues,omitempty"`
}

// Valid reports whether the payload passed every check.
func (r Result) Valid() bool {
	return len(r.Issues) == 0
}

// ErrorMap reshapes the issues into the field-keyed form render options
// consume.
func (r Result) ErrorMap() map[string][]string {
	if len(r.Issues) == 0 {
		return nil
	}
	out := make(map[string][]string, len(r.Issues))
	for _, issue := range r.Issues {
		out[issue.Path] = append(out[issue.Path], issue.Message)
	}
	return out
}

// Error renders the result as a single error value for callers that stop at
// the first failed check.
func (r Result) Error() error {
	if r.Valid() {
		return nil
	}
	parts := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		parts = append(parts, issue.Path+" "+issue.Message)
	}
	return fmt.Errorf("validation: %s", strings.Join(parts, "; "))
}

// ValidatePayload checks an expanded request body against the form model:
// required fields present, enum membership, numeric bounds and integer
// shape, string length and pattern, recursing into nested objects and
// repeat items. Fields the payload omits are only flagged when required;
// keys the form does not know are always flagged.
func ValidatePayload(form model.FormModel, body map[string]any) Result {
	checker := &check{}
	checker.object(form.Fields, body, "")
	return Result{Issues: checker.issues}
}

type check struct {
	issues []Issue
}

func (c *check) report(path, message string) {
	c.issues = append(c.issues, Issue{Path: path, Message: message})
}

func (c *check) object(fields []model.Field, body map[string]any, prefix string) {
	known := make(map[string]model.Field, len(fields))
	for _, field := range fields {
		known[field.Name] = field

		path := joinPath(prefix, field.Name)
		value, present := body[field.Name]
		if !present || value == nil || value == "" {
			if field.Required {
				c.report(path, "is required")
			}
			continue
		}
		c.value(field, value, path)
	}

	for key := range body {
		if _, ok := known[key]; !ok {
			c.report(joinPath(prefix, key), "is not a known field")
		}
	}
}

func (c *check) value(field model.Field, value any, path string) {
	if widget := widgetFor(field); widget.Kind == model.WidgetImageSize {
		c.imageSize(field, widget, value, path)
		return
	}

	switch field.Type {
	case model.FieldTypeBoolean:
		if _, ok := value.(bool); !ok {
			c.report(path, "must be true or false")
		}
	case model.FieldTypeInteger, model.FieldTypeNumber:
		c.number(field, value, path)
	case model.FieldTypeArray:
		c.array(field, value, path)
	case model.FieldTypeObject:
		nested, ok := value.(map[string]any)
		if !ok {
			c.report(path, "must be an object")
			return
		}
		c.object(field.Nested, nested, path)
	default:
		c.text(field, value, path)
	}
}

func (c *check) text(field model.Field, value any, path string) {
	text, ok := value.(string)
	if !ok {
		c.report(path, "must be a string")
		return
	}

	if len(field.Enum) > 0 && !enumContains(field.Enum, text) {
		c.report(path, "must be one of "+enumList(field.Enum))
		return
	}
	if min, ok := lengthRule(field, model.ValidationRuleMinLength); ok && len(text) < min {
		c.report(path, fmt.Sprintf("must be at least %d characters", min))
	}
	if max, ok := lengthRule(field, model.ValidationRuleMaxLength); ok && len(text) > max {
		c.report(path, fmt.Sprintf("must be at most %d characters", max))
	}
	if pattern := patternRule(field); pattern != "" {
		re, err := regexp.Compile(pattern)
		if err == nil && !re.MatchString(text) {
			c.report(path, "must match "+pattern)
		}
	}
}

func (c *check) number(field model.Field, value any, path string) {
	parsed, ok := asFloat(value)
	if !ok {
		c.report(path, "must be a number")
		return
	}
	if field.Type == model.FieldTypeInteger && parsed != math.Trunc(parsed) {
		c.report(path, "must be a whole number")
		return
	}
	if len(field.Enum) > 0 && !enumContains(field.Enum, formatNumber(parsed)) {
		c.report(path, "must be one of "+enumList(field.Enum))
		return
	}
	if min, ok := field.Bound(model.ValidationRuleMin); ok && parsed < min {
		c.report(path, "must be at least "+formatNumber(min))
	}
	if max, ok := field.Bound(model.ValidationRuleMax); ok && parsed > max {
		c.report(path, "must be at most "+formatNumber(max))
	}
}

func (c *check) array(field model.Field, value any, path string) {
	items, ok := value.([]any)
	if !ok {
		c.report(path, "must be a list")
		return
	}
	if field.Items == nil {
		return
	}
	for index, item := range items {
		itemPath := fmt.Sprintf("%s.%d", path, index)
		if item == nil {
			c.report(itemPath, "is empty")
			continue
		}
		c.value(*field.Items, item, itemPath)
	}
}

// imageSize accepts either a preset name or the expanded custom object the
// payload post-pass produces.
func (c *check) imageSize(field model.Field, widget model.Widget, value any, path string) {
	switch typed := value.(type) {
	case string:
		if len(widget.Options) > 0 && !enumContains(widget.Options, typed) {
			c.report(path, "must be one of "+enumList(widget.Options))
		}
	case map[string]any:
		c.dimension(widget, typed, "width", path)
		c.dimension(widget, typed, "height", path)
	default:
		c.report(path, "must be a size preset or a width/height object")
	}
}

func (c *check) dimension(widget model.Widget, size map[string]any, name, path string) {
	dimensionPath := path + "." + name
	value, present := size[name]
	if !present {
		c.report(dimensionPath, "is required")
		return
	}
	parsed, ok := asFloat(value)
	if !ok || parsed != math.Trunc(parsed) {
		c.report(dimensionPath, "must be a whole number")
		return
	}
	if widget.Custom == nil {
		return
	}
	bounds := widget.Custom.Width
	if name == "height" {
		bounds = widget.Custom.Height
	}
	if bounds.Min != nil && parsed < *bounds.Min {
		c.report(dimensionPath, "must be at least "+formatNumber(*bounds.Min))
	}
	if bounds.Max != nil && parsed > *bounds.Max {
		c.report(dimensionPath, "must be at most "+formatNumber(*bounds.Max))
	}
}

func widgetFor(field model.Field) model.Widget {
	if field.Widget == nil {
		return model.Widget{}
	}
	return *field.Widget
}

func enumContains(options []any, candidate string) bool {
	for _, option := range options {
		if stringify(option) == candidate {
			return true
		}
	}
	return false
}

func enumList(options []any) string {
	parts := make([]string, 0, len(options))
	for _, option := range options {
		parts = append(parts, stringify(option))
	}
	return strings.Join(parts, ", ")
}

func lengthRule(field model.Field, kind string) (int, bool) {
	for _, rule := range field.Validations {
		if rule.Kind != kind {
			continue
		}
		value, err := strconv.Atoi(rule.Params["value"])
		if err != nil {
			return 0, false
		}
		return value, true
	}
	return 0, false
}

func patternRule(field model.Field) string {
	for _, rule := range field.Validations {
		if rule.Kind == model.ValidationRulePattern {
			return rule.Params["pattern"]
		}
	}
	return ""
}

func asFloat(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	default:
		return 0, false
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func stringify(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case float64:
		return formatNumber(typed)
	case int:
		return strconv.Itoa(typed)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return fmt.Sprint(typed)
	}
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
