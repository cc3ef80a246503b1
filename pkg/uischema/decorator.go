package uischema

import (
	"sort"
	"strings"

	"github.com/goliatone/go-easel/pkg/model"
)

const iconMetadataKey = "icon"

// Decorator applies an endpoint's overlay to its form model. It matches
// overlays against the endpoint id the descriptor metadata carries, falling
// back to the operation id for descriptors without registry metadata.
type Decorator struct {
	store *Store
}

var _ model.Decorator = (*Decorator)(nil)

// NewDecorator builds a Decorator backed by the provided store. A nil or
// empty store produces a no-op decorator.
func NewDecorator(store *Store) *Decorator {
	return &Decorator{store: store}
}

// Decorate overlays hints onto the form. Forms without a matching overlay
// are left untouched. Run it after widget classification so group hints can
// land on classified widgets.
func (d *Decorator) Decorate(form *model.FormModel) error {
	if d == nil || d.store == nil || d.store.Empty() || form == nil {
		return nil
	}

	overlay, ok := d.store.Overlay(overlayKey(form))
	if !ok {
		return nil
	}

	if title := strings.TrimSpace(overlay.Form.Title); title != "" {
		form.Summary = title
	}
	if intro := strings.TrimSpace(overlay.Form.Intro); intro != "" {
		form.Description = intro
	}
	form.Fields = applyFieldHints(form.Fields, "", overlay.Fields)
	return nil
}

func overlayKey(form *model.FormModel) string {
	if id := strings.TrimSpace(form.Metadata["endpointId"]); id != "" {
		return id
	}
	return form.OperationID
}

// applyFieldHints walks one sibling list: hidden fields drop, hint copy
// lands on the survivors, and explicit orders pull fields ahead of their
// unordered siblings.
func applyFieldHints(fields []model.Field, prefix string, hints map[string]FieldHints) []model.Field {
	if len(fields) == 0 {
		return fields
	}

	type ordered struct {
		field    model.Field
		order    int
		hasOrder bool
		original int
	}

	kept := make([]ordered, 0, len(fields))
	for i := range fields {
		field := fields[i]
		path := joinPath(prefix, field.Name)
		hint, ok := hints[path]
		if ok {
			if hint.Hidden {
				continue
			}
			applyHintCopy(&field, hint)
		}

		field.Nested = applyFieldHints(field.Nested, path, hints)
		if field.Items != nil {
			item := *field.Items
			item.Nested = applyFieldHints(item.Nested, path+".items", hints)
			if itemHint, ok := hints[path+".items"]; ok {
				applyHintCopy(&item, itemHint)
			}
			field.Items = &item
		}

		entry := ordered{field: field, original: i}
		if ok && hint.Order != nil {
			entry.order = *hint.Order
			entry.hasOrder = true
		}
		kept = append(kept, entry)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		switch {
		case a.hasOrder && b.hasOrder:
			if a.order != b.order {
				return a.order < b.order
			}
			return a.original < b.original
		case a.hasOrder:
			return true
		case b.hasOrder:
			return false
		default:
			return a.original < b.original
		}
	})

	out := make([]model.Field, len(kept))
	for i, entry := range kept {
		out[i] = entry.field
	}
	return out
}

func applyHintCopy(field *model.Field, hint FieldHints) {
	if label := strings.TrimSpace(hint.Label); label != "" {
		field.Label = label
	}
	if help := strings.TrimSpace(hint.Help); help != "" {
		field.Description = help
	}
	if placeholder := strings.TrimSpace(hint.Placeholder); placeholder != "" {
		field.Placeholder = placeholder
	}
	if hint.Icon != "" {
		if field.Metadata == nil {
			field.Metadata = make(map[string]string, 1)
		}
		field.Metadata[iconMetadataKey] = hint.Icon
	}
	if hint.Group != "" {
		group := model.GroupMain
		if hint.Group == "advanced" {
			group = model.GroupAdvanced
		}
		setGroup(field, group)
	}
}

// setGroup moves a field and its descendants between form sections. Widgets
// are present by the time the decorator runs; fields that slipped past
// classification are left alone.
func setGroup(field *model.Field, group model.Group) {
	if field.Widget != nil {
		widget := *field.Widget
		widget.Group = group
		field.Widget = &widget
	}
	for i := range field.Nested {
		setGroup(&field.Nested[i], group)
	}
	if field.Items != nil {
		item := *field.Items
		setGroup(&item, group)
		field.Items = &item
	}
}

func joinPath(parent, child string) string {
	parent = strings.TrimSpace(parent)
	child = strings.TrimSpace(child)
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}
