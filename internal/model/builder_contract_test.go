package model_test

import (
	"path/filepath"
	"testing"

	easel "github.com/goliatone/go-easel"
	pkgmodel "github.com/goliatone/go-easel/pkg/model"
	pkgopenapi "github.com/goliatone/go-easel/pkg/openapi"
	"github.com/goliatone/go-easel/pkg/testsupport"
)

func fluxOperation(t *testing.T) pkgopenapi.Operation {
	t.Helper()

	doc := testsupport.LoadDocument(t, filepath.Join("..", "openapi", "testdata", "flux_dev.json"))
	operations, err := easel.NewParser().Operations(testsupport.Context(), doc)
	if err != nil {
		t.Fatalf("operations: %v", err)
	}
	found, ok := operations["generate"]
	if !ok {
		t.Fatal("fixture missing generate operation")
	}
	return found
}

func TestBuilder_Generate(t *testing.T) {
	op := fluxOperation(t)

	builder := pkgmodel.NewBuilder()
	form, err := builder.Build(op)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if form.OperationID != "generate" || form.Method != "POST" {
		t.Fatalf("unexpected form identity: %s %s", form.OperationID, form.Method)
	}

	wantOrder := []string{
		"prompt",
		"image_url",
		"image_size",
		"num_inference_steps",
		"guidance_scale",
		"num_images",
		"seed",
		"sync_mode",
		"enable_safety_checker",
		"output_format",
		"negative_prompt",
		"loras",
	}
	if len(form.Fields) != len(wantOrder) {
		t.Fatalf("expected %d fields, got %d", len(wantOrder), len(form.Fields))
	}
	for i, name := range wantOrder {
		if form.Fields[i].Name != name {
			t.Fatalf("field %d = %q, want %q (declared order must win)", i, form.Fields[i].Name, name)
		}
	}

	fieldsByPath := map[string]pkgmodel.Field{}
	var visit func(prefix string, field pkgmodel.Field)
	visit = func(prefix string, field pkgmodel.Field) {
		key := field.Name
		if prefix != "" {
			key = prefix + "." + key
		}
		fieldsByPath[key] = field

		if field.Items != nil {
			visit(key, *field.Items)
		}
		for _, nested := range field.Nested {
			visit(key, nested)
		}
	}
	for _, field := range form.Fields {
		visit("", field)
	}

	expectations := map[string][]pkgmodel.ValidationRule{
		"num_inference_steps": {
			{Kind: pkgmodel.ValidationRuleMin, Params: map[string]string{"value": "1"}},
			{Kind: pkgmodel.ValidationRuleMax, Params: map[string]string{"value": "50"}},
		},
		"guidance_scale": {
			{Kind: pkgmodel.ValidationRuleMin, Params: map[string]string{"value": "1"}},
			{Kind: pkgmodel.ValidationRuleMax, Params: map[string]string{"value": "20"}},
		},
		"loras.lorasItem.scale": {
			{Kind: pkgmodel.ValidationRuleMin, Params: map[string]string{"value": "0"}},
			{Kind: pkgmodel.ValidationRuleMax, Params: map[string]string{"value": "4"}},
		},
	}
	for path, wantRules := range expectations {
		field, ok := fieldsByPath[path]
		if !ok {
			t.Fatalf("expected field %q in form model", path)
		}
		if diff := testsupport.CompareGolden(wantRules, field.Validations); diff != "" {
			t.Fatalf("field %q validations mismatch (-want +got):\n%s", path, diff)
		}
	}

	prompt := fieldsByPath["prompt"]
	if !prompt.Required {
		t.Fatal("prompt should be required")
	}
	if prompt.Label != "Prompt" {
		t.Fatalf("prompt label = %q", prompt.Label)
	}
	if seed := fieldsByPath["seed"]; seed.Required {
		t.Fatal("seed should not be required")
	}

	steps := fieldsByPath["num_inference_steps"]
	if steps.Type != pkgmodel.FieldTypeInteger {
		t.Fatalf("num_inference_steps type = %q", steps.Type)
	}
	if steps.Label != "Num Inference Steps" {
		t.Fatalf("num_inference_steps label = %q", steps.Label)
	}
	if got, ok := steps.Bound(pkgmodel.ValidationRuleMax); !ok || got != 50 {
		t.Fatalf("num_inference_steps max bound = %v %v", got, ok)
	}

	safety := fieldsByPath["enable_safety_checker"]
	if safety.Type != pkgmodel.FieldTypeBoolean {
		t.Fatalf("enable_safety_checker type = %q", safety.Type)
	}
	if safety.Default != true {
		t.Fatalf("enable_safety_checker default = %v", safety.Default)
	}

	loras := fieldsByPath["loras"]
	if loras.Type != pkgmodel.FieldTypeArray || loras.Items == nil {
		t.Fatalf("loras should be an array with items: %#v", loras)
	}
	if loras.Items.RefName() != "LoraWeight" {
		t.Fatalf("loras item ref = %q", loras.Items.RefName())
	}
	if _, ok := loras.Items.Find("path"); !ok {
		t.Fatal("loras item should nest a path field")
	}
}

func TestBuilder_ImageSizeVariants(t *testing.T) {
	op := fluxOperation(t)

	form, err := pkgmodel.NewBuilder().Build(op)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	size, ok := form.Find("image_size")
	if !ok {
		t.Fatal("image_size field missing")
	}
	if len(size.Enum) != 6 {
		t.Fatalf("image_size enum = %v", size.Enum)
	}
	if size.Default != "landscape_4_3" {
		t.Fatalf("image_size default = %v", size.Default)
	}
	if len(size.Variants) != 2 {
		t.Fatalf("image_size variants = %d, want 2", len(size.Variants))
	}

	var companion *pkgmodel.Field
	for i := range size.Variants {
		if size.Variants[i].RefName() == "ImageSize" {
			companion = &size.Variants[i]
		}
	}
	if companion == nil {
		t.Fatalf("image_size lacks ImageSize variant: %#v", size.Variants)
	}
	width, ok := companion.Find("width")
	if !ok {
		t.Fatal("ImageSize variant missing width")
	}
	if min, ok := width.Bound(pkgmodel.ValidationRuleMin); !ok || min != 64 {
		t.Fatalf("width min = %v %v", min, ok)
	}
	if max, ok := width.Bound(pkgmodel.ValidationRuleMax); !ok || max != 14142 {
		t.Fatalf("width max = %v %v", max, ok)
	}
}

func TestBuilder_RejectsInvalidOperations(t *testing.T) {
	builder := pkgmodel.NewBuilder()
	if _, err := builder.Build(pkgopenapi.Operation{}); err == nil {
		t.Fatal("expected error for empty operation")
	}
}
