package widgets

import "github.com/goliatone/go-easel/pkg/model"

// Decorate classifies every field in the form and attaches the resulting
// widgets. The field named prompt joins the main group; when no prompt exists
// the first required string field takes its place. Everything else lands in
// the collapsible advanced group, nested fields inheriting their parent's
// group.
func Decorate(form *model.FormModel) error {
	if form == nil {
		return nil
	}
	main := mainFieldIndex(form.Fields)
	for i := range form.Fields {
		group := model.GroupAdvanced
		if i == main {
			group = model.GroupMain
		}
		decorateField(&form.Fields[i], group)
	}
	return nil
}

// NewDecorator wraps Decorate for pipelines that compose model decorators.
func NewDecorator() model.Decorator {
	return model.DecoratorFunc(Decorate)
}

func decorateField(field *model.Field, group model.Group) {
	widget := Classify(*field)
	widget.Group = group
	field.Widget = &widget

	if field.Items != nil {
		decorateField(field.Items, group)
	}
	for i := range field.Nested {
		decorateField(&field.Nested[i], group)
	}
}

func mainFieldIndex(fields []model.Field) int {
	for i, field := range fields {
		if field.Name == "prompt" {
			return i
		}
	}
	for i, field := range fields {
		if field.Required && field.Type == model.FieldTypeString {
			return i
		}
	}
	return -1
}
