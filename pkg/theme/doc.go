// Package theme resolves go-theme selections into renderer configuration:
// variant token/template overrides are merged over the base manifest,
// CSS custom properties are derived from the merged tokens, and asset
// keys resolve to prefixed URLs. Renderers receive the resulting
// RendererConfig through render options and stay ignorant of manifests.
package theme
