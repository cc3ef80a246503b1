package render

import "github.com/goliatone/go-easel/pkg/model"

// SplitGroups partitions top-level fields by their widget group, preserving
// schema order inside each slice. Fields without widget metadata land in
// main so an undecorated model still renders completely.
func SplitGroups(form model.FormModel) (main, advanced []model.Field) {
	for _, field := range form.Fields {
		if field.Widget != nil && field.Widget.Group == model.GroupAdvanced {
			advanced = append(advanced, field)
			continue
		}
		main = append(main, field)
	}
	return main, advanced
}

// VisibleFields returns the fields a renderer should present: the main group
// always, the advanced group only when requested.
func VisibleFields(form model.FormModel, showAdvanced bool) []model.Field {
	main, advanced := SplitGroups(form)
	if !showAdvanced {
		return main
	}
	out := make([]model.Field, 0, len(main)+len(advanced))
	out = append(out, main...)
	out = append(out, advanced...)
	return out
}
