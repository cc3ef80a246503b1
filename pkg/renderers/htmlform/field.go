package htmlform

import (
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-easel/pkg/model"
	"github.com/goliatone/go-easel/pkg/render"
	rendertemplate "github.com/goliatone/go-easel/pkg/render/template"
	"github.com/goliatone/go-easel/pkg/widgets"
)

const (
	partialInput     = "forms.input"
	partialTextarea  = "forms.textarea"
	partialCheckbox  = "forms.checkbox"
	partialSelect    = "forms.select"
	partialSlider    = "forms.slider"
	partialUpload    = "forms.upload"
	partialRepeat    = "forms.repeat"
	partialImageSize = "forms.image_size"
)

const (
	customSizeValue  = "custom"
	widthSuffix      = "_width"
	heightSuffix     = "_height"
	indexPlaceholder = "__INDEX__"
)

// fieldRenderer walks fields and assembles their markup: chrome is built
// here, control elements come from theme partials.
type fieldRenderer struct {
	templates rendertemplate.TemplateRenderer
	options   render.RenderOptions
	partials  map[string]string
}

func (fr *fieldRenderer) renderFields(fields []model.Field) ([]string, error) {
	blocks := make([]string, 0, len(fields))
	for _, field := range fields {
		markup, err := fr.renderField(field, field.Name)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, markup)
	}
	return blocks, nil
}

func (fr *fieldRenderer) renderField(field model.Field, path string) (string, error) {
	widget := widgetFor(field)
	control, err := fr.renderControl(field, widget, path)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(`    <div class="easel-field easel-field-`)
	b.WriteString(string(widget.Kind))
	b.WriteString(`" data-widget="`)
	b.WriteString(string(widget.Kind))
	b.WriteString("\">\n")

	label := html.EscapeString(fieldLabel(field))
	// Icon markup is sanitised at hint-load time and safe to inline.
	icon := field.Metadata["icon"]
	if icon != "" {
		icon = `<span class="easel-icon" aria-hidden="true">` + icon + `</span>`
	}
	if labelTargetsControl(widget.Kind) {
		b.WriteString(`      <label class="easel-label" for="`)
		b.WriteString(controlID(path))
		b.WriteString(`">`)
		b.WriteString(icon)
		b.WriteString(label)
		if field.Required {
			b.WriteString(requiredMarker)
		}
		b.WriteString("</label>\n")
	} else {
		b.WriteString(`      <span class="easel-label">`)
		b.WriteString(icon)
		b.WriteString(label)
		if field.Required {
			b.WriteString(requiredMarker)
		}
		b.WriteString("</span>\n")
	}

	b.WriteString(control)
	if !strings.HasSuffix(control, "\n") {
		b.WriteByte('\n')
	}

	if hint := renderDescription(field.Description); hint != "" {
		b.WriteString(`      <div class="easel-hint">`)
		b.WriteString(hint)
		b.WriteString("</div>\n")
	}

	if messages := fr.fieldErrors(path); len(messages) > 0 {
		b.WriteString("      <ul class=\"easel-field-errors\">\n")
		for _, message := range messages {
			b.WriteString("        <li>")
			b.WriteString(html.EscapeString(message))
			b.WriteString("</li>\n")
		}
		b.WriteString("      </ul>\n")
	}

	b.WriteString("    </div>\n")
	return b.String(), nil
}

const requiredMarker = `<span class="easel-required" aria-hidden="true">*</span>`

func (fr *fieldRenderer) renderControl(field model.Field, widget model.Widget, path string) (string, error) {
	if widget.Kind == model.WidgetRepeat {
		return fr.renderRepeat(field, path)
	}

	data := map[string]any{
		"id":       controlID(path),
		"name":     path,
		"required": field.Required,
	}

	var key string
	switch widget.Kind {
	case model.WidgetTextarea:
		key = partialTextarea
		data["rows"] = "4"
		data["value"] = fr.valueString(path, field)
		data["placeholder"] = field.Placeholder

	case model.WidgetNumber:
		key = partialInput
		data["input_type"] = "number"
		data["value"] = fr.valueString(path, field)
		data["placeholder"] = field.Placeholder
		data["min"], data["max"], data["step"] = numberAttrs(field, widget)

	case model.WidgetSlider:
		key = partialSlider
		min, max, step := numberAttrs(field, widget)
		if step == "" {
			step = "1"
		}
		value := fr.valueString(path, field)
		if value == "" {
			value = min
		}
		data["min"], data["max"], data["step"], data["value"] = min, max, step, value

	case model.WidgetToggle:
		key = partialCheckbox
		data["checked"] = fr.boolValue(path, field)

	case model.WidgetSelect:
		key = partialSelect
		data["options"] = optionList(widget.Options, fr.valueString(path, field))

	case model.WidgetImageSize:
		key = partialImageSize
		selected := fr.valueString(path, field)
		options := append(append([]any{}, widget.Options...), customSizeValue)
		data["options"] = optionList(options, selected)
		data["custom_open"] = selected == customSizeValue
		custom := widget.Custom
		if custom == nil {
			custom = &model.SizeInput{}
		}
		data["width"] = fr.sizeInputData(path+widthSuffix, custom.Width)
		data["height"] = fr.sizeInputData(path+heightSuffix, custom.Height)

	case model.WidgetUpload:
		key = partialUpload
		accept := widget.Accept
		if accept == "" {
			accept = "image/*"
		}
		data["accept"] = accept
		data["value"] = fr.valueString(path, field)
		placeholder := field.Placeholder
		if placeholder == "" {
			placeholder = "https:// or data: URL"
		}
		data["placeholder"] = placeholder

	default:
		key = partialInput
		data["input_type"] = "text"
		if widget.Masked {
			data["input_type"] = "password"
		}
		data["value"] = fr.valueString(path, field)
		data["placeholder"] = field.Placeholder
	}

	return fr.renderPartial(key, data)
}

func (fr *fieldRenderer) renderPartial(key string, data map[string]any) (string, error) {
	tmplPath := fr.partials[key]
	if tmplPath == "" {
		return "", fmt.Errorf("htmlform: no template for partial %q", key)
	}
	markup, err := fr.templates.RenderTemplate(tmplPath, data)
	if err != nil {
		return "", fmt.Errorf("htmlform: render partial %q: %w", key, err)
	}
	return markup, nil
}

func (fr *fieldRenderer) renderRepeat(field model.Field, path string) (string, error) {
	if field.Items == nil {
		return "", fmt.Errorf("htmlform: array field %q has no item schema", path)
	}

	indices := fr.itemIndices(path)
	if len(indices) == 0 && field.Required {
		indices = []int{0}
	}

	items := make([]string, 0, len(indices))
	for _, index := range indices {
		markup, err := fr.renderRepeatItem(field, path, strconv.Itoa(index))
		if err != nil {
			return "", err
		}
		items = append(items, markup)
	}

	itemTemplate, err := fr.withoutState().renderRepeatItem(field, path, indexPlaceholder)
	if err != nil {
		return "", err
	}

	data := map[string]any{
		"id":            controlID(path),
		"label":         fieldLabel(field),
		"items":         items,
		"item_template": itemTemplate,
		"next_index":    strconv.Itoa(len(indices)),
	}
	return fr.renderPartial(partialRepeat, data)
}

func (fr *fieldRenderer) renderRepeatItem(field model.Field, path, index string) (string, error) {
	itemPath := path + "[" + index + "]"

	var b strings.Builder
	b.WriteString("  <fieldset class=\"easel-repeat-item\">\n")

	if len(field.Items.Nested) > 0 {
		for _, child := range field.Items.Nested {
			markup, err := fr.renderField(child, itemPath+"."+child.Name)
			if err != nil {
				return "", err
			}
			b.WriteString(markup)
		}
	} else {
		scalar := *field.Items
		if scalar.Name == "" {
			scalar.Name = field.Name
		}
		if scalar.Label == "" {
			scalar.Label = fieldLabel(field)
		}
		markup, err := fr.renderField(scalar, itemPath)
		if err != nil {
			return "", err
		}
		b.WriteString(markup)
	}

	b.WriteString("  </fieldset>\n")
	return b.String(), nil
}

// withoutState clones the renderer with values and errors dropped so the
// repeat item template comes out blank apart from schema defaults.
func (fr *fieldRenderer) withoutState() *fieldRenderer {
	return &fieldRenderer{
		templates: fr.templates,
		partials:  fr.partials,
		options:   render.RenderOptions{ShowAdvanced: fr.options.ShowAdvanced},
	}
}

func (fr *fieldRenderer) itemIndices(path string) []int {
	if len(fr.options.Values) == 0 {
		return nil
	}
	prefix := path + "["
	seen := map[int]bool{}
	for key := range fr.options.Values {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		end := strings.IndexByte(rest, ']')
		if end <= 0 {
			continue
		}
		index, err := strconv.Atoi(rest[:end])
		if err != nil || index < 0 {
			continue
		}
		seen[index] = true
	}
	if len(seen) == 0 {
		return nil
	}
	indices := make([]int, 0, len(seen))
	for index := range seen {
		indices = append(indices, index)
	}
	sort.Ints(indices)
	return indices
}

func (fr *fieldRenderer) value(path string, field model.Field) any {
	if v, ok := fr.options.Values[path]; ok {
		return v
	}
	return field.Default
}

func (fr *fieldRenderer) valueString(path string, field model.Field) string {
	return stringify(fr.value(path, field))
}

func (fr *fieldRenderer) boolValue(path string, field model.Field) bool {
	switch v := fr.value(path, field).(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(v)
		return err == nil && parsed
	default:
		return false
	}
}

func (fr *fieldRenderer) sizeInputData(name string, size model.SizeField) map[string]any {
	value := ""
	if v, ok := fr.options.Values[name]; ok {
		value = stringify(v)
	} else if size.Default != nil {
		value = stringify(size.Default)
	}
	return map[string]any{
		"name":  name,
		"value": value,
		"min":   floatAttr(size.Min),
		"max":   floatAttr(size.Max),
	}
}

func (fr *fieldRenderer) fieldErrors(path string) []string {
	if len(fr.options.Errors) == 0 {
		return nil
	}
	if messages, ok := fr.options.Errors[errorKey(path)]; ok {
		return messages
	}
	return fr.options.Errors[path]
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

// labelTargetsControl reports whether the label can carry a for attribute.
// Repeat groups have no single control to point at.
func labelTargetsControl(kind model.WidgetKind) bool {
	return kind != model.WidgetRepeat
}

// controlID derives a DOM id from a payload path. Brackets and dots become
// hyphens so indexed paths stay valid id attributes.
func controlID(path string) string {
	var b strings.Builder
	b.WriteString("easel-f-")
	for _, r := range path {
		switch r {
		case '.', '[':
			b.WriteByte('-')
		case ']':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// errorKey strips array indices from a path, matching how mapped validation
// errors are keyed.
func errorKey(path string) string {
	var b strings.Builder
	i := 0
	for i < len(path) {
		if path[i] == '[' {
			end := strings.IndexByte(path[i:], ']')
			if end > 0 {
				i += end + 1
				continue
			}
		}
		b.WriteByte(path[i])
		i++
	}
	return b.String()
}

func numberAttrs(field model.Field, widget model.Widget) (min, max, step string) {
	min = floatAttr(widget.Min)
	max = floatAttr(widget.Max)
	step = floatAttr(widget.Step)
	if min == "" {
		if bound, ok := field.Bound(model.ValidationRuleMin); ok {
			min = formatFloat(bound)
		}
	}
	if max == "" {
		if bound, ok := field.Bound(model.ValidationRuleMax); ok {
			max = formatFloat(bound)
		}
	}
	if step == "" {
		if bound, ok := field.Bound(model.ValidationRuleStep); ok {
			step = formatFloat(bound)
		}
	}
	return min, max, step
}

func optionList(options []any, selected string) []any {
	out := make([]any, 0, len(options))
	for _, option := range options {
		value := stringify(option)
		out = append(out, map[string]any{
			"value":    value,
			"selected": value != "" && value == selected,
		})
	}
	return out
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
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
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

func floatAttr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
