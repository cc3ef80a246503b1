package studio

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-easel/pkg/model"
	"github.com/goliatone/go-easel/pkg/payload"
)

func sizeForm() *model.FormModel {
	return &model.FormModel{
		Fields: []model.Field{
			{Name: "prompt", Type: model.FieldTypeString, Required: true},
			{
				Name: "image_size",
				Type: model.FieldTypeString,
				Enum: []any{"square_hd", "landscape_4_3"},
				Variants: []model.Field{
					{
						Type: model.FieldTypeObject,
						Nested: []model.Field{
							{Name: "width", Type: model.FieldTypeInteger},
							{Name: "height", Type: model.FieldTypeInteger},
						},
					},
				},
			},
			{
				Name: "loras",
				Type: model.FieldTypeArray,
				Items: &model.Field{
					Type: model.FieldTypeObject,
					Nested: []model.Field{
						{Name: "path", Type: model.FieldTypeString, Required: true},
						{Name: "scale", Type: model.FieldTypeNumber},
					},
				},
			},
			{Name: "enable_safety_checker", Type: model.FieldTypeBoolean},
		},
	}
}

func TestEntriesFromValuesResolvesKinds(t *testing.T) {
	form := sizeForm()
	values := map[string]string{
		"prompt":                "a fox",
		"image_size":            "custom",
		"image_size_width":      "777",
		"image_size_height":     "333",
		"loras[0].path":         "style.safetensors",
		"loras[0].scale":        "0.8",
		"enable_safety_checker": "false",
	}

	entries := entriesFromValues(form, values)
	kinds := map[string]payload.EntryKind{}
	for _, entry := range entries {
		kinds[entry.Name] = entry.Kind
	}

	want := map[string]payload.EntryKind{
		"prompt":                payload.KindText,
		"image_size":            payload.KindText,
		"image_size_width":      payload.KindNumber,
		"image_size_height":     payload.KindNumber,
		"loras[0].path":         payload.KindText,
		"loras[0].scale":        payload.KindNumber,
		"enable_safety_checker": payload.KindCheckbox,
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("entry kinds mismatch (-want +got):\n%s", diff)
	}

	// The full chain: image-size sentinel and dimension companions collapse
	// into a structured size object, the repeat stays an array.
	body, err := payload.Expand(entries)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	size, ok := body["image_size"].(map[string]any)
	if !ok {
		t.Fatalf("image_size should expand to an object: %#v", body["image_size"])
	}
	if size["width"] != 777 || size["height"] != 333 {
		t.Fatalf("unexpected dimensions: %#v", size)
	}
	if _, leaked := body["image_size_width"]; leaked {
		t.Fatal("width companion should be folded into the size object")
	}
	loras, ok := body["loras"].([]any)
	if !ok || len(loras) != 1 {
		t.Fatalf("loras should expand to one item: %#v", body["loras"])
	}
	if body["enable_safety_checker"] != false {
		t.Fatal("false toggle must be kept, not omitted")
	}
}

func TestEntryKindFallsBackToText(t *testing.T) {
	form := sizeForm()
	if got := entryKind(form, "unknown_field"); got != payload.KindText {
		t.Fatalf("unknown paths should coerce as text, got %s", got)
	}
	if got := entryKind(nil, "prompt"); got != payload.KindText {
		t.Fatalf("nil form should coerce as text, got %s", got)
	}
}

func TestPathSegmentsSkipIndices(t *testing.T) {
	cases := map[string][]string{
		"prompt":           {"prompt"},
		"loras[0].path":    {"loras", "path"},
		"loras[12].scale":  {"loras", "scale"},
		"settings.0.value": {"settings", "value"},
		"image_size_width": {"image_size_width"},
	}
	for path, want := range cases {
		if diff := cmp.Diff(want, pathSegments(path)); diff != "" {
			t.Fatalf("pathSegments(%q) mismatch (-want +got):\n%s", path, diff)
		}
	}
}
