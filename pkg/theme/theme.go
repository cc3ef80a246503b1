package theme

import (
	"fmt"
	"strings"

	gotheme "github.com/goliatone/go-theme"
)

// DefaultFallbacks returns the partial template paths used when neither
// the manifest nor the selected variant overrides a form concern.
func DefaultFallbacks() map[string]string {
	return map[string]string{
		"forms.input":      "themes/default/forms/input.tmpl",
		"forms.textarea":   "themes/default/forms/textarea.tmpl",
		"forms.checkbox":   "themes/default/forms/checkbox.tmpl",
		"forms.select":     "themes/default/forms/select.tmpl",
		"forms.slider":     "themes/default/forms/slider.tmpl",
		"forms.upload":     "themes/default/forms/upload.tmpl",
		"forms.repeat":     "themes/default/forms/repeat.tmpl",
		"forms.image_size": "themes/default/forms/image_size.tmpl",
	}
}

// Resolve derives renderer configuration from a theme selection. Variant
// tokens, templates, and asset files override the base manifest; fallback
// partials fill any concern neither layer names. CSS custom properties
// are derived from the merged tokens by prefixing each key with "--".
func Resolve(selection *gotheme.Selection, fallbacks map[string]string) (*gotheme.RendererConfig, error) {
	if selection == nil {
		return nil, fmt.Errorf("theme: selection is required")
	}

	cfg := &gotheme.RendererConfig{
		Theme:   selection.Theme,
		Variant: selection.Variant,
	}

	var variant gotheme.Variant
	manifest := selection.Manifest
	if manifest != nil && selection.Variant != "" {
		variant = manifest.Variants[selection.Variant]
	}

	cfg.Partials = mergeStringMaps(fallbacks, manifestTemplates(manifest), variant.Templates)
	cfg.Tokens = mergeStringMaps(manifestTokens(manifest), variant.Tokens)

	cfg.CSSVars = make(map[string]string, len(cfg.Tokens))
	for key, value := range cfg.Tokens {
		cfg.CSSVars["--"+key] = value
	}

	cfg.AssetURL = assetResolver(manifest, variant)
	return cfg, nil
}

func manifestTemplates(manifest *gotheme.Manifest) map[string]string {
	if manifest == nil {
		return nil
	}
	return manifest.Templates
}

func manifestTokens(manifest *gotheme.Manifest) map[string]string {
	if manifest == nil {
		return nil
	}
	return manifest.Tokens
}

// assetResolver maps asset keys to URLs: the variant's file set overrides
// the base manifest's, joined onto the variant prefix when present and
// the base prefix otherwise. Unknown keys resolve to "".
func assetResolver(manifest *gotheme.Manifest, variant gotheme.Variant) func(string) string {
	var base gotheme.Assets
	if manifest != nil {
		base = manifest.Assets
	}
	files := mergeStringMaps(base.Files, variant.Assets.Files)
	prefix := variant.Assets.Prefix
	if prefix == "" {
		prefix = base.Prefix
	}
	prefix = strings.TrimRight(prefix, "/")

	return func(key string) string {
		if key == "" {
			return ""
		}
		file, ok := files[key]
		if !ok || file == "" {
			return ""
		}
		if prefix == "" {
			return file
		}
		return prefix + "/" + strings.TrimLeft(file, "/")
	}
}

func mergeStringMaps(layers ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, layer := range layers {
		for key, value := range layer {
			if value == "" {
				continue
			}
			out[key] = value
		}
	}
	return out
}

// StaticSelector resolves theme selections from a fixed manifest set,
// applying defaults when the caller passes empty names. It satisfies the
// go-theme selector contract so it can slot into render wiring anywhere a
// dynamic provider would.
type StaticSelector struct {
	defaultTheme   string
	defaultVariant string
	manifests      map[string]*gotheme.Manifest
}

var _ gotheme.ThemeSelector = (*StaticSelector)(nil)

// NewStaticSelector builds a selector over the provided manifests.
func NewStaticSelector(defaultTheme, defaultVariant string, manifests ...*gotheme.Manifest) *StaticSelector {
	indexed := make(map[string]*gotheme.Manifest, len(manifests))
	for _, manifest := range manifests {
		if manifest == nil || manifest.Name == "" {
			continue
		}
		indexed[manifest.Name] = manifest
	}
	return &StaticSelector{
		defaultTheme:   defaultTheme,
		defaultVariant: defaultVariant,
		manifests:      indexed,
	}
}

// Select returns the selection for a theme/variant pair, falling back to
// the configured defaults for empty arguments. An unknown variant selects
// the base manifest rather than failing; an unknown theme is an error.
func (s *StaticSelector) Select(name, variant string, _ ...gotheme.QueryOption) (*gotheme.Selection, error) {
	if name == "" {
		name = s.defaultTheme
	}
	if variant == "" {
		variant = s.defaultVariant
	}

	manifest, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("theme: unknown theme %q", name)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			variant = ""
		}
	}
	return &gotheme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}
