package htmlform

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tmpl themes/default/forms/*.tmpl
var templateFS embed.FS

//go:embed assets/easel.css
var assetFS embed.FS

const stylesheetName = "easel.css"

// Stylesheet returns the embedded base stylesheet. Rendered documents inline
// it, and the dev server also serves it standalone for pages that link assets
// instead.
func Stylesheet() ([]byte, error) {
	return assetFS.ReadFile("assets/" + stylesheetName)
}

// TemplatesFS exposes the built-in form templates so callers can reuse or
// extend them without depending on the renderer internals.
func TemplatesFS() fs.FS {
	return templateFS
}
