package htmlform

import (
	"sort"
	"strings"

	gotheme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-easel/pkg/theme"
)

// stylesheetAssetKey is the manifest asset key a theme uses to ship its own
// stylesheet. Rendered documents link it when the resolver can produce a URL.
const stylesheetAssetKey = "stylesheet"

// partialMap merges the theme's partial overrides over the embedded
// defaults, so every widget kind resolves to a loadable template path.
func partialMap(cfg *gotheme.RendererConfig) map[string]string {
	partials := theme.DefaultFallbacks()
	if cfg == nil {
		return partials
	}
	for key, path := range cfg.Partials {
		if strings.TrimSpace(path) == "" {
			continue
		}
		partials[key] = path
	}
	return partials
}

// cssVarsStyle renders theme CSS custom properties as a :root block. Keys
// emit sorted; values carrying markup are dropped.
func cssVarsStyle(cfg *gotheme.RendererConfig) string {
	if cfg == nil || len(cfg.CSSVars) == 0 {
		return ""
	}

	keys := make([]string, 0, len(cfg.CSSVars))
	for key, value := range cfg.CSSVars {
		if strings.TrimSpace(key) == "" || strings.ContainsAny(value, "<>") {
			continue
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range keys {
		b.WriteString("  ")
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(cfg.CSSVars[key])
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

func themeStylesheet(cfg *gotheme.RendererConfig) string {
	if cfg == nil || cfg.AssetURL == nil {
		return ""
	}
	return cfg.AssetURL(stylesheetAssetKey)
}
