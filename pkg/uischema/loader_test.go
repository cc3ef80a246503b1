package uischema_test

import (
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-easel/pkg/uischema"
)

func TestLoadFSParsesYAMLAndJSON(t *testing.T) {
	fsys := fstest.MapFS{
		"sketch.yaml": {Data: []byte(`
endpoints:
  acme/sketch:
    form:
      title: Sketch Studio
      intro: Draw things with words.
    fields:
      prompt:
        label: Prompt
        placeholder: What should we draw?
      loras[].path:
        label: Weights URL
`)},
		"paint.json": {Data: []byte(`{
  "endpoints": {
    "acme/paint": {
      "fields": {
        "steps": {"order": 1, "group": "main"}
      }
    }
  }
}`)},
		"README.md": {Data: []byte("not a hint document")},
	}

	store, err := uischema.LoadFS(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	sketch, ok := store.Overlay("acme/sketch")
	if !ok {
		t.Fatalf("missing overlay for acme/sketch, have %v", store.Endpoints())
	}
	if sketch.Form.Title != "Sketch Studio" {
		t.Fatalf("title = %q", sketch.Form.Title)
	}
	if got := sketch.Fields["prompt"].Placeholder; got != "What should we draw?" {
		t.Fatalf("prompt placeholder = %q", got)
	}
	if _, ok := sketch.Fields["loras.items.path"]; !ok {
		t.Fatalf("bracketed key not normalised, have %v", keysOf(sketch.Fields))
	}

	paint, ok := store.Overlay("acme/paint")
	if !ok {
		t.Fatalf("missing overlay for acme/paint")
	}
	steps := paint.Fields["steps"]
	if steps.Order == nil || *steps.Order != 1 {
		t.Fatalf("steps order = %v", steps.Order)
	}
	if steps.Group != "main" {
		t.Fatalf("steps group = %q", steps.Group)
	}
}

func TestLoadFSRejectsDuplicateEndpoint(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml": {Data: []byte("endpoints:\n  acme/sketch:\n    form:\n      title: A\n")},
		"b.yaml": {Data: []byte("endpoints:\n  acme/sketch:\n    form:\n      title: B\n")},
	}

	_, err := uischema.LoadFS(fsys)
	if err == nil {
		t.Fatalf("expected duplicate endpoint error")
	}
	if !strings.Contains(err.Error(), "acme/sketch") {
		t.Fatalf("error does not name the endpoint: %v", err)
	}
}

func TestLoadFSRejectsUnknownGroup(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml": {Data: []byte("endpoints:\n  acme/sketch:\n    fields:\n      prompt:\n        group: sidebar\n")},
	}

	_, err := uischema.LoadFS(fsys)
	if err == nil || !strings.Contains(err.Error(), "sidebar") {
		t.Fatalf("expected unknown group error, got %v", err)
	}
}

func TestLoadFSSanitisesIconMarkup(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml": {Data: []byte(`
endpoints:
  acme/sketch:
    fields:
      prompt:
        icon: '<svg viewBox="0 0 24 24"><script>alert(1)</script><path d="M0 0h24v24H0z" onclick="steal()"/></svg>'
`)},
	}

	store, err := uischema.LoadFS(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	overlay, _ := store.Overlay("acme/sketch")
	icon := overlay.Fields["prompt"].Icon
	if strings.Contains(icon, "script") || strings.Contains(icon, "onclick") {
		t.Fatalf("unsafe markup survived: %q", icon)
	}
	if !strings.Contains(icon, "<path") || !strings.Contains(icon, `d="M0 0h24v24H0z"`) {
		t.Fatalf("safe markup stripped: %q", icon)
	}
}

func TestLoadDirMissingDirectory(t *testing.T) {
	store, err := uischema.LoadDir(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !store.Empty() {
		t.Fatalf("expected empty store, have %v", store.Endpoints())
	}
}

func keysOf(hints map[string]uischema.FieldHints) []string {
	keys := make([]string, 0, len(hints))
	for key := range hints {
		keys = append(keys, key)
	}
	return keys
}
