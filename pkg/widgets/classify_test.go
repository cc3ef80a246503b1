package widgets_test

import (
	"path/filepath"
	"strconv"
	"testing"

	easel "github.com/goliatone/go-easel"
	"github.com/goliatone/go-easel/pkg/model"
	"github.com/goliatone/go-easel/pkg/testsupport"
	"github.com/goliatone/go-easel/pkg/widgets"
)

func boundedField(name string, fieldType model.FieldType, min, max float64) model.Field {
	return model.Field{
		Name: name,
		Type: fieldType,
		Validations: []model.ValidationRule{
			{Kind: model.ValidationRuleMin, Params: map[string]string{"value": formatBound(min)}},
			{Kind: model.ValidationRuleMax, Params: map[string]string{"value": formatBound(max)}},
		},
	}
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func TestClassify_Precedence(t *testing.T) {
	longDescription := ""
	for len(longDescription) <= 120 {
		longDescription += "steers the sampler away from unwanted concepts "
	}

	cases := []struct {
		name  string
		field model.Field
		want  model.WidgetKind
	}{
		{
			name:  "image url string",
			field: model.Field{Name: "image_url", Type: model.FieldTypeString, Format: "uri"},
			want:  model.WidgetUpload,
		},
		{
			name:  "binary format without image name",
			field: model.Field{Name: "payload", Type: model.FieldTypeString, Format: "binary"},
			want:  model.WidgetUpload,
		},
		{
			name:  "mask image suffix",
			field: model.Field{Name: "mask_image", Type: model.FieldTypeString},
			want:  model.WidgetUpload,
		},
		{
			name: "array beats enum on items",
			field: model.Field{
				Name:  "styles",
				Type:  model.FieldTypeArray,
				Items: &model.Field{Name: "stylesItem", Type: model.FieldTypeString, Enum: []any{"a", "b"}},
			},
			want: model.WidgetRepeat,
		},
		{
			name:  "enum beats boolean",
			field: model.Field{Name: "mode", Type: model.FieldTypeBoolean, Enum: []any{true, false}},
			want:  model.WidgetSelect,
		},
		{
			name: "enum beats bounded numeric",
			field: func() model.Field {
				field := boundedField("count", model.FieldTypeInteger, 1, 4)
				field.Enum = []any{float64(1), float64(2), float64(4)}
				return field
			}(),
			want: model.WidgetSelect,
		},
		{
			name:  "boolean toggle",
			field: model.Field{Name: "sync_mode", Type: model.FieldTypeBoolean},
			want:  model.WidgetToggle,
		},
		{
			name:  "bounded integer slider",
			field: boundedField("steps", model.FieldTypeInteger, 1, 50),
			want:  model.WidgetSlider,
		},
		{
			name: "single bound stays number",
			field: model.Field{
				Name: "scale",
				Type: model.FieldTypeNumber,
				Validations: []model.ValidationRule{
					{Kind: model.ValidationRuleMin, Params: map[string]string{"value": "0"}},
				},
			},
			want: model.WidgetNumber,
		},
		{
			name:  "unbounded integer number",
			field: model.Field{Name: "seed", Type: model.FieldTypeInteger},
			want:  model.WidgetNumber,
		},
		{
			name: "numeric ignores long description",
			field: model.Field{
				Name:        "seed",
				Type:        model.FieldTypeInteger,
				Description: longDescription,
			},
			want: model.WidgetNumber,
		},
		{
			name: "long description textarea",
			field: model.Field{
				Name:        "negative_prompt",
				Type:        model.FieldTypeString,
				Description: longDescription,
			},
			want: model.WidgetTextarea,
		},
		{
			name:  "fallback text",
			field: model.Field{Name: "prompt", Type: model.FieldTypeString, Description: "short"},
			want:  model.WidgetText,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := widgets.Classify(tc.field)
			if got.Kind != tc.want {
				t.Fatalf("kind = %q, want %q", got.Kind, tc.want)
			}
		})
	}
}

func TestClassify_SliderCarriesBoundsAndStep(t *testing.T) {
	intField := boundedField("steps", model.FieldTypeInteger, 1, 50)
	widget := widgets.Classify(intField)
	if widget.Kind != model.WidgetSlider {
		t.Fatalf("kind = %q", widget.Kind)
	}
	if widget.Min == nil || *widget.Min != 1 || widget.Max == nil || *widget.Max != 50 {
		t.Fatalf("bounds = %v..%v", widget.Min, widget.Max)
	}
	if widget.Step == nil || *widget.Step != 1 {
		t.Fatalf("integer step = %v, want 1", widget.Step)
	}

	floatField := boundedField("guidance_scale", model.FieldTypeNumber, 1, 20)
	widget = widgets.Classify(floatField)
	if widget.Step == nil || *widget.Step != 0.1 {
		t.Fatalf("float step = %v, want 0.1", widget.Step)
	}

	stepped := boundedField("count", model.FieldTypeNumber, 0, 10)
	stepped.Validations = append(stepped.Validations, model.ValidationRule{
		Kind:   model.ValidationRuleStep,
		Params: map[string]string{"value": "0.5"},
	})
	widget = widgets.Classify(stepped)
	if widget.Step == nil || *widget.Step != 0.5 {
		t.Fatalf("multipleOf step = %v, want 0.5", widget.Step)
	}
}

func TestClassify_MaskedSecret(t *testing.T) {
	widget := widgets.Classify(model.Field{Name: "api_key", Type: model.FieldTypeString, Format: "password"})
	if widget.Kind != model.WidgetText || !widget.Masked {
		t.Fatalf("secret should be masked text, got %+v", widget)
	}
}

func TestClassify_ImageSizeNeedsResolvableCompanion(t *testing.T) {
	presets := []any{"square", "landscape_4_3"}

	plain := model.Field{Name: "image_size", Enum: presets}
	if got := widgets.Classify(plain); got.Kind != model.WidgetSelect {
		t.Fatalf("without companion kind = %q, want select", got.Kind)
	}

	unresolved := model.Field{
		Name: "image_size",
		Enum: presets,
		Variants: []model.Field{
			{Name: "ImageSize", Type: model.FieldTypeObject, Metadata: map[string]string{"$ref": "#/components/schemas/ImageSize"}},
		},
	}
	if got := widgets.Classify(unresolved); got.Kind != model.WidgetSelect {
		t.Fatalf("unresolved companion kind = %q, want select", got.Kind)
	}

	resolved := model.Field{
		Name: "image_size",
		Enum: presets,
		Variants: []model.Field{
			{
				Name:     "ImageSize",
				Type:     model.FieldTypeObject,
				Metadata: map[string]string{"$ref": "#/components/schemas/ImageSize"},
				Nested: []model.Field{
					boundedField("height", model.FieldTypeInteger, 64, 14142),
					boundedField("width", model.FieldTypeInteger, 64, 14142),
				},
			},
		},
	}
	widget := widgets.Classify(resolved)
	if widget.Kind != model.WidgetImageSize {
		t.Fatalf("resolved companion kind = %q, want image_size", widget.Kind)
	}
	if widget.Custom == nil {
		t.Fatal("image_size widget missing custom pair")
	}
	if widget.Custom.Width.Min == nil || *widget.Custom.Width.Min != 64 {
		t.Fatalf("custom width min = %v", widget.Custom.Width.Min)
	}
	if len(widget.Options) != len(presets) {
		t.Fatalf("options = %v", widget.Options)
	}
}

func TestDecorate_FluxDescriptor(t *testing.T) {
	doc := testsupport.LoadDocument(t, filepath.Join("..", "..", "internal", "openapi", "testdata", "flux_dev.json"))
	operations, err := easel.NewParser().Operations(testsupport.Context(), doc)
	if err != nil {
		t.Fatalf("operations: %v", err)
	}
	form, err := model.NewBuilder().Build(operations["generate"])
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if err := widgets.Decorate(&form); err != nil {
		t.Fatalf("decorate: %v", err)
	}

	wantKinds := map[string]model.WidgetKind{
		"prompt":                model.WidgetText,
		"image_url":             model.WidgetUpload,
		"image_size":            model.WidgetImageSize,
		"num_inference_steps":   model.WidgetSlider,
		"guidance_scale":        model.WidgetSlider,
		"num_images":            model.WidgetSlider,
		"seed":                  model.WidgetNumber,
		"sync_mode":             model.WidgetToggle,
		"enable_safety_checker": model.WidgetToggle,
		"output_format":         model.WidgetSelect,
		"negative_prompt":       model.WidgetTextarea,
		"loras":                 model.WidgetRepeat,
	}
	for _, field := range form.Fields {
		want, ok := wantKinds[field.Name]
		if !ok {
			t.Fatalf("unexpected field %q", field.Name)
		}
		if field.Widget == nil {
			t.Fatalf("field %q missing widget", field.Name)
		}
		if field.Widget.Kind != want {
			t.Fatalf("field %q kind = %q, want %q", field.Name, field.Widget.Kind, want)
		}

		wantGroup := model.GroupAdvanced
		if field.Name == "prompt" {
			wantGroup = model.GroupMain
		}
		if field.Widget.Group != wantGroup {
			t.Fatalf("field %q group = %q, want %q", field.Name, field.Widget.Group, wantGroup)
		}
	}

	loras, _ := form.Find("loras")
	if loras.Items == nil || loras.Items.Widget == nil {
		t.Fatal("loras items should be decorated")
	}
	path, ok := loras.Items.Find("path")
	if !ok || path.Widget == nil || path.Widget.Kind != model.WidgetText {
		t.Fatalf("loras item path widget = %+v", path.Widget)
	}
	scale, ok := loras.Items.Find("scale")
	if !ok || scale.Widget == nil || scale.Widget.Kind != model.WidgetSlider {
		t.Fatalf("loras item scale widget = %+v", scale.Widget)
	}

	size, _ := form.Find("image_size")
	if size.Widget.Custom == nil {
		t.Fatal("image_size custom pair missing after full pipeline")
	}
}

func TestDecorate_MainFallsBackToFirstRequiredString(t *testing.T) {
	form := model.FormModel{
		Fields: []model.Field{
			{Name: "steps", Type: model.FieldTypeInteger, Required: true},
			{Name: "text", Type: model.FieldTypeString, Required: true},
			{Name: "extra", Type: model.FieldTypeString},
		},
	}
	if err := widgets.Decorate(&form); err != nil {
		t.Fatalf("decorate: %v", err)
	}
	if form.Fields[0].Widget.Group != model.GroupAdvanced {
		t.Fatal("numeric field should not be main")
	}
	if form.Fields[1].Widget.Group != model.GroupMain {
		t.Fatal("first required string should take the main group")
	}
	if form.Fields[2].Widget.Group != model.GroupAdvanced {
		t.Fatal("remaining fields should be advanced")
	}
}
