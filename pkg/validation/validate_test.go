package validation_test

import (
	"strings"
	"testing"

	"github.com/goliatone/go-easel/pkg/model"
	"github.com/goliatone/go-easel/pkg/validation"
)

func floatPtr(v float64) *float64 { return &v }

func sketchForm() model.FormModel {
	return model.FormModel{
		OperationID: "generate",
		Fields: []model.Field{
			{
				Name:     "prompt",
				Type:     model.FieldTypeString,
				Required: true,
				Validations: []model.ValidationRule{
					{Kind: model.ValidationRuleMaxLength, Params: map[string]string{"value": "24"}},
				},
			},
			{
				Name: "guidance_scale",
				Type: model.FieldTypeNumber,
				Validations: []model.ValidationRule{
					{Kind: model.ValidationRuleMin, Params: map[string]string{"value": "1"}},
					{Kind: model.ValidationRuleMax, Params: map[string]string{"value": "20"}},
				},
			},
			{Name: "seed", Type: model.FieldTypeInteger},
			{Name: "style", Type: model.FieldTypeString, Enum: []any{"photo", "sketch"}},
			{Name: "enable_safety_checker", Type: model.FieldTypeBoolean},
			{
				Name: "image_size",
				Type: model.FieldTypeString,
				Widget: &model.Widget{
					Kind:    model.WidgetImageSize,
					Group:   model.GroupAdvanced,
					Options: []any{"square_hd", "landscape_4_3"},
					Custom: &model.SizeInput{
						Width:  model.SizeField{Min: floatPtr(256), Max: floatPtr(2048)},
						Height: model.SizeField{Min: floatPtr(256), Max: floatPtr(2048)},
					},
				},
			},
			{
				Name: "loras",
				Type: model.FieldTypeArray,
				Items: &model.Field{
					Name: "item",
					Type: model.FieldTypeObject,
					Nested: []model.Field{
						{Name: "path", Type: model.FieldTypeString, Required: true},
						{Name: "scale", Type: model.FieldTypeNumber},
					},
				},
			},
		},
	}
}

func issuePaths(result validation.Result) []string {
	paths := make([]string, 0, len(result.Issues))
	for _, issue := range result.Issues {
		paths = append(paths, issue.Path)
	}
	return paths
}

func TestValidatePayloadAcceptsWellFormedBody(t *testing.T) {
	result := validation.ValidatePayload(sketchForm(), map[string]any{
		"prompt":                "a red fox",
		"guidance_scale":        7.5,
		"seed":                  float64(42),
		"style":                 "photo",
		"enable_safety_checker": true,
		"image_size":            "square_hd",
		"loras": []any{
			map[string]any{"path": "a.safetensors", "scale": 0.8},
		},
	})
	if !result.Valid() {
		t.Fatalf("expected valid payload, got %v", result.Issues)
	}
	if err := result.Error(); err != nil {
		t.Fatalf("valid result should carry no error, got %v", err)
	}
}

func TestValidatePayloadRequiredAndUnknown(t *testing.T) {
	result := validation.ValidatePayload(sketchForm(), map[string]any{
		"guidance_scale": 7.5,
		"promt":          "typo",
	})
	if result.Valid() {
		t.Fatal("expected issues")
	}

	errs := result.ErrorMap()
	if msgs := errs["prompt"]; len(msgs) != 1 || msgs[0] != "is required" {
		t.Fatalf("missing required issue: %v", errs)
	}
	if msgs := errs["promt"]; len(msgs) != 1 || !strings.Contains(msgs[0], "not a known field") {
		t.Fatalf("unknown key not flagged: %v", errs)
	}
}

func TestValidatePayloadConstraints(t *testing.T) {
	cases := []struct {
		name    string
		body    map[string]any
		path    string
		message string
	}{
		{
			name:    "slider above bound",
			body:    map[string]any{"prompt": "x", "guidance_scale": 21.0},
			path:    "guidance_scale",
			message: "must be at most 20",
		},
		{
			name:    "fractional integer",
			body:    map[string]any{"prompt": "x", "seed": 4.5},
			path:    "seed",
			message: "must be a whole number",
		},
		{
			name:    "enum mismatch",
			body:    map[string]any{"prompt": "x", "style": "oil"},
			path:    "style",
			message: "must be one of photo, sketch",
		},
		{
			name:    "boolean type",
			body:    map[string]any{"prompt": "x", "enable_safety_checker": "yes"},
			path:    "enable_safety_checker",
			message: "must be true or false",
		},
		{
			name:    "string too long",
			body:    map[string]any{"prompt": strings.Repeat("a", 25)},
			path:    "prompt",
			message: "must be at most 24 characters",
		},
		{
			name:    "unknown size preset",
			body:    map[string]any{"prompt": "x", "image_size": "tiny"},
			path:    "image_size",
			message: "must be one of square_hd, landscape_4_3",
		},
		{
			name:    "custom size below bound",
			body:    map[string]any{"prompt": "x", "image_size": map[string]any{"width": float64(64), "height": float64(512)}},
			path:    "image_size.width",
			message: "must be at least 256",
		},
		{
			name:    "custom size missing height",
			body:    map[string]any{"prompt": "x", "image_size": map[string]any{"width": float64(512)}},
			path:    "image_size.height",
			message: "is required",
		},
		{
			name:    "repeat item missing required",
			body:    map[string]any{"prompt": "x", "loras": []any{map[string]any{"scale": 0.5}}},
			path:    "loras.0.path",
			message: "is required",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := validation.ValidatePayload(sketchForm(), tc.body)
			if result.Valid() {
				t.Fatalf("expected an issue for %s", tc.path)
			}
			msgs := result.ErrorMap()[tc.path]
			if len(msgs) == 0 {
				t.Fatalf("no issue at %s, got %v", tc.path, issuePaths(result))
			}
			if msgs[0] != tc.message {
				t.Fatalf("message %q, want %q", msgs[0], tc.message)
			}
		})
	}
}

func TestValidatePayloadErrorSummary(t *testing.T) {
	result := validation.ValidatePayload(sketchForm(), map[string]any{})
	err := result.Error()
	if err == nil || !strings.Contains(err.Error(), "prompt is required") {
		t.Fatalf("expected summary naming prompt, got %v", err)
	}
}
