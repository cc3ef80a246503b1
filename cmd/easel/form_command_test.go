package main

import (
	"encoding/json"
	"testing"
)

func TestFormShowsFieldTable(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "form", "acme/sketch")
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	requireContains(t, out, "Endpoint: acme/sketch")
	requireContains(t, out, "prompt")
	requireContains(t, out, "guidance_scale")
	requireContains(t, out, "enable_safety_checker")
}

func TestFormJSONEmitsModel(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "form", "acme/sketch", "--json")
	if err != nil {
		t.Fatalf("form --json: %v", err)
	}

	var form struct {
		Fields []struct {
			Name     string `json:"name"`
			Required bool   `json:"required"`
		} `json:"fields"`
	}
	if err := json.Unmarshal([]byte(out), &form); err != nil {
		t.Fatalf("decode form: %v\noutput: %s", err, out)
	}

	found := false
	for _, field := range form.Fields {
		if field.Name == "prompt" {
			found = true
			if !field.Required {
				t.Fatal("prompt should be required")
			}
		}
	}
	if !found {
		t.Fatalf("form missing prompt field: %s", out)
	}
}

func TestFormHTMLRendersForm(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "form", "acme/sketch", "--html")
	if err != nil {
		t.Fatalf("form --html: %v", err)
	}
	requireContains(t, out, "<form")
	requireContains(t, out, `name="prompt"`)
}

func TestFormRejectsCombinedOutputFlags(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "form", "acme/sketch", "--json", "--html")
	if err == nil {
		t.Fatal("expected an error for --json with --html")
	}
	requireContains(t, err.Error(), "only one of")
}

func TestFormUnknownEndpoint(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "form", "acme/nope")
	if err == nil {
		t.Fatal("expected an error for an unknown endpoint")
	}
	requireContains(t, err.Error(), "unknown endpoint")
}
