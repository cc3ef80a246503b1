package widgets

import (
	"strings"

	"github.com/goliatone/go-easel/pkg/model"
)

// longDescriptionThreshold is the description length above which a free-text
// field is promoted to a multi-line input.
const longDescriptionThreshold = 120

// uploadAccept is the MIME filter advertised by upload widgets.
const uploadAccept = "image/*"

// Classify maps one field onto exactly one widget. The precedence is fixed:
// image-hinted strings, then arrays, then enums (with the image-size special
// case), then booleans, then bounded numerics, then unbounded numerics, then
// long descriptions, then the single-line fallback. Group assignment happens
// in Decorate; Classify leaves it zero.
func Classify(field model.Field) model.Widget {
	switch {
	case isUploadHint(field):
		return model.Widget{Kind: model.WidgetUpload, Accept: uploadAccept}

	case field.Type == model.FieldTypeArray:
		return model.Widget{Kind: model.WidgetRepeat}

	case len(field.Enum) > 0:
		options := append([]any(nil), field.Enum...)
		if custom, ok := customSizeInput(field); ok {
			return model.Widget{Kind: model.WidgetImageSize, Options: options, Custom: custom}
		}
		return model.Widget{Kind: model.WidgetSelect, Options: options}

	case field.Type == model.FieldTypeBoolean:
		return model.Widget{Kind: model.WidgetToggle}

	case isNumeric(field):
		widget := model.Widget{Kind: model.WidgetNumber}
		if min, ok := field.Bound(model.ValidationRuleMin); ok {
			value := min
			widget.Min = &value
		}
		if max, ok := field.Bound(model.ValidationRuleMax); ok {
			value := max
			widget.Max = &value
		}
		if widget.Bounded() {
			widget.Kind = model.WidgetSlider
			step := sliderStep(field)
			widget.Step = &step
		}
		return widget

	case len(field.Description) > longDescriptionThreshold:
		return model.Widget{Kind: model.WidgetTextarea}

	default:
		return model.Widget{
			Kind:   model.WidgetText,
			Masked: strings.EqualFold(field.Format, "password"),
		}
	}
}

// isUploadHint reports whether a string field should use the upload widget.
// Binary formats always qualify; otherwise the property name has to hint at
// an image (image_url, mask_image, uri-formatted image fields).
func isUploadHint(field model.Field) bool {
	if field.Type != model.FieldTypeString {
		return false
	}
	switch strings.ToLower(field.Format) {
	case "binary", "byte", "data-url":
		return true
	}
	name := strings.ToLower(field.Name)
	if strings.Contains(name, "image_url") || strings.HasSuffix(name, "_image") {
		return true
	}
	return strings.EqualFold(field.Format, "uri") && strings.Contains(name, "image")
}

func isNumeric(field model.Field) bool {
	return field.Type == model.FieldTypeInteger || field.Type == model.FieldTypeNumber
}

// sliderStep derives the slider granularity: an explicit multipleOf wins,
// integers step by one, floats by a tenth.
func sliderStep(field model.Field) float64 {
	if step, ok := field.Bound(model.ValidationRuleStep); ok && step > 0 {
		return step
	}
	if field.Type == model.FieldTypeInteger {
		return 1
	}
	return 0.1
}

// customSizeInput resolves the companion size schema of an enum field. The
// companion is the variant referencing ImageSize, or failing that any variant
// nesting numeric width and height fields. Without a resolvable companion the
// field stays a plain select.
func customSizeInput(field model.Field) (*model.SizeInput, bool) {
	for _, variant := range field.Variants {
		if variant.RefName() != "ImageSize" && !hasSizePair(variant) {
			continue
		}
		width, okW := variant.Find("width")
		height, okH := variant.Find("height")
		if !okW || !okH {
			continue
		}
		custom := &model.SizeInput{
			Width:  sizeField(width),
			Height: sizeField(height),
		}
		return custom, true
	}
	return nil, false
}

func hasSizePair(variant model.Field) bool {
	width, okW := variant.Find("width")
	height, okH := variant.Find("height")
	return okW && okH && isNumeric(width) && isNumeric(height)
}

func sizeField(field model.Field) model.SizeField {
	out := model.SizeField{Default: field.Default}
	if min, ok := field.Bound(model.ValidationRuleMin); ok {
		value := min
		out.Min = &value
	}
	if max, ok := field.Bound(model.ValidationRuleMax); ok {
		value := max
		out.Max = &value
	}
	return out
}
