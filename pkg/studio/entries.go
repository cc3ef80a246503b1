package studio

import (
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-easel/pkg/model"
	"github.com/goliatone/go-easel/pkg/payload"
	"github.com/goliatone/go-easel/pkg/widgets"
)

// entriesFromValues turns the flat value map into typed payload entries.
// The widget kind of the addressed field decides how each string is
// coerced, so toggles become booleans and sliders numbers without every
// frontend repeating that mapping. Paths are sorted for a deterministic
// payload.
func entriesFromValues(form *model.FormModel, values map[string]string) []payload.Entry {
	paths := make([]string, 0, len(values))
	for path := range values {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	entries := make([]payload.Entry, 0, len(paths))
	for _, path := range paths {
		entries = append(entries, payload.Entry{
			Name:  path,
			Value: values[path],
			Kind:  entryKind(form, path),
		})
	}
	return entries
}

// entryKind resolves the payload coercion for one value path.
func entryKind(form *model.FormModel, path string) payload.EntryKind {
	if form == nil {
		return payload.KindText
	}
	if field, ok := fieldAt(form, path); ok {
		return kindForField(field)
	}

	// The custom image-size pair lives in synthetic <name>_width and
	// <name>_height companions no schema field covers directly.
	for _, suffix := range []string{"_width", "_height"} {
		base, found := strings.CutSuffix(path, suffix)
		if !found {
			continue
		}
		if field, ok := fieldAt(form, base); ok && widgetFor(field).Kind == model.WidgetImageSize {
			return payload.KindNumber
		}
	}
	return payload.KindText
}

func kindForField(field model.Field) payload.EntryKind {
	switch widgetFor(field).Kind {
	case model.WidgetToggle:
		return payload.KindCheckbox
	case model.WidgetSlider, model.WidgetNumber:
		return payload.KindNumber
	}
	switch field.Type {
	case model.FieldTypeInteger, model.FieldTypeNumber:
		return payload.KindNumber
	case model.FieldTypeBoolean:
		return payload.KindCheckbox
	}
	return payload.KindText
}

func widgetFor(field model.Field) model.Widget {
	if field.Widget != nil {
		return *field.Widget
	}
	return widgets.Classify(field)
}

// fieldAt walks the form to the field a bracket/dot path addresses,
// looking through array items and composition variants along the way.
func fieldAt(form *model.FormModel, path string) (model.Field, bool) {
	segments := pathSegments(path)
	if len(segments) == 0 {
		return model.Field{}, false
	}
	field, ok := form.Find(segments[0])
	if !ok {
		return model.Field{}, false
	}
	for _, segment := range segments[1:] {
		next, ok := childField(field, segment)
		if !ok {
			return model.Field{}, false
		}
		field = next
	}
	return field, true
}

func childField(field model.Field, name string) (model.Field, bool) {
	if next, ok := field.Find(name); ok {
		return next, true
	}
	if field.Items != nil {
		if next, ok := field.Items.Find(name); ok {
			return next, true
		}
	}
	for _, variant := range field.Variants {
		if next, ok := variant.Find(name); ok {
			return next, true
		}
	}
	return model.Field{}, false
}

// pathSegments splits "loras[0].path" into ["loras", "path"]. Bracket
// indices and purely numeric dot segments address array slots, not fields.
func pathSegments(path string) []string {
	var segments []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		segment := current.String()
		current.Reset()
		if _, err := strconv.Atoi(segment); err == nil {
			return
		}
		segments = append(segments, segment)
	}

	for i := 0; i < len(path); i++ {
		switch path[i] {
		case '.':
			flush()
		case '[':
			flush()
			if end := strings.IndexByte(path[i:], ']'); end > 0 {
				i += end
			}
		case ']':
			// consumed by the bracket scan
		default:
			current.WriteByte(path[i])
		}
	}
	flush()
	return segments
}
