package template

import (
	"io"
)

// TemplateRenderer is the rendering contract form renderers depend on. Render
// accepts either a template name or inline template content; the narrower
// RenderTemplate and RenderString variants skip that detection.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
