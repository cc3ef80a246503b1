package theme_test

import (
	"testing"

	gotheme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-easel/pkg/theme"
)

func acmeManifest() *gotheme.Manifest {
	return &gotheme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens: map[string]string{
			"brand":   "#123456",
			"surface": "#ffffff",
		},
		Templates: map[string]string{
			"forms.input": "themes/acme/input.tmpl",
		},
		Assets: gotheme.Assets{
			Prefix: "/assets/themes/acme",
			Files: map[string]string{
				"stylesheet": "theme.css",
			},
		},
		Variants: map[string]gotheme.Variant{
			"dark": {
				Tokens: map[string]string{
					"brand": "#654321",
				},
				Templates: map[string]string{
					"forms.checkbox": "themes/acme/dark/checkbox.tmpl",
				},
				Assets: gotheme.Assets{
					Files: map[string]string{
						"vendor": "vendor.dark.js",
					},
				},
			},
		},
	}
}

func TestResolveMergesVariantOverBase(t *testing.T) {
	selection := &gotheme.Selection{Theme: "acme", Variant: "dark", Manifest: acmeManifest()}

	cfg, err := theme.Resolve(selection, theme.DefaultFallbacks())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if cfg.Theme != "acme" || cfg.Variant != "dark" {
		t.Fatalf("selection names lost: %+v", cfg)
	}
	if cfg.Partials["forms.input"] != "themes/acme/input.tmpl" {
		t.Fatalf("base template override missing, got %s", cfg.Partials["forms.input"])
	}
	if cfg.Partials["forms.checkbox"] != "themes/acme/dark/checkbox.tmpl" {
		t.Fatalf("variant template override missing, got %s", cfg.Partials["forms.checkbox"])
	}
	if cfg.Partials["forms.textarea"] != theme.DefaultFallbacks()["forms.textarea"] {
		t.Fatalf("fallback partial not applied, got %s", cfg.Partials["forms.textarea"])
	}
	if cfg.Tokens["brand"] != "#654321" {
		t.Fatalf("variant token should win, got %s", cfg.Tokens["brand"])
	}
	if cfg.Tokens["surface"] != "#ffffff" {
		t.Fatalf("base token lost, got %s", cfg.Tokens["surface"])
	}
}

func TestResolveDerivesCSSVars(t *testing.T) {
	selection := &gotheme.Selection{Theme: "acme", Variant: "dark", Manifest: acmeManifest()}

	cfg, err := theme.Resolve(selection, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.CSSVars["--brand"] != "#654321" {
		t.Fatalf("css var not derived from merged tokens, got %s", cfg.CSSVars["--brand"])
	}
	if cfg.CSSVars["--surface"] != "#ffffff" {
		t.Fatalf("css var missing for base token, got %s", cfg.CSSVars["--surface"])
	}
}

func TestResolveAssetURLs(t *testing.T) {
	selection := &gotheme.Selection{Theme: "acme", Variant: "dark", Manifest: acmeManifest()}

	cfg, err := theme.Resolve(selection, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.AssetURL == nil {
		t.Fatal("expected asset resolver")
	}
	if got := cfg.AssetURL("vendor"); got != "/assets/themes/acme/vendor.dark.js" {
		t.Fatalf("variant asset url: %s", got)
	}
	if got := cfg.AssetURL("stylesheet"); got != "/assets/themes/acme/theme.css" {
		t.Fatalf("base asset url: %s", got)
	}
	if got := cfg.AssetURL("missing"); got != "" {
		t.Fatalf("unknown asset key should resolve empty, got %s", got)
	}
	if got := cfg.AssetURL(""); got != "" {
		t.Fatalf("empty asset key should resolve empty, got %s", got)
	}
}

func TestResolveWithoutManifest(t *testing.T) {
	selection := &gotheme.Selection{Theme: "bare", Variant: ""}

	cfg, err := theme.Resolve(selection, theme.DefaultFallbacks())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Partials["forms.input"] != theme.DefaultFallbacks()["forms.input"] {
		t.Fatal("fallback partials should survive a nil manifest")
	}
	if cfg.AssetURL == nil {
		t.Fatal("asset resolver should exist even without assets")
	}
	if got := cfg.AssetURL("stylesheet"); got != "" {
		t.Fatalf("expected empty url, got %s", got)
	}

	if _, err := theme.Resolve(nil, nil); err == nil {
		t.Fatal("nil selection should error")
	}
}

func TestStaticSelectorDefaultsAndFallbacks(t *testing.T) {
	selector := theme.NewStaticSelector("acme", "dark", acmeManifest())

	selection, err := selector.Select("", "")
	if err != nil {
		t.Fatalf("select defaults: %v", err)
	}
	if selection.Theme != "acme" || selection.Variant != "dark" {
		t.Fatalf("defaults not applied: %+v", selection)
	}
	if selection.Manifest == nil || selection.Manifest.Name != "acme" {
		t.Fatal("manifest missing from selection")
	}

	selection, err = selector.Select("acme", "sepia")
	if err != nil {
		t.Fatalf("select unknown variant: %v", err)
	}
	if selection.Variant != "" {
		t.Fatalf("unknown variant should fall back to base, got %q", selection.Variant)
	}

	if _, err := selector.Select("nope", ""); err == nil {
		t.Fatal("unknown theme should error")
	}
}
