// Package render defines the contract shared by the surfaces that present a
// generated form: a named renderer turns a form model into bytes, and a
// registry lets callers pick one at runtime. Helpers in this package map API
// validation feedback onto field paths and split fields into their display
// groups so individual renderers stay focused on markup.
package render

import (
	"context"

	"github.com/goliatone/go-easel/pkg/model"
)

// Renderer converts a form model into one presentation of it (an HTML
// preview, a sequence of terminal prompts). Implementations are safe for
// concurrent use once constructed.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form model.FormModel, options RenderOptions) ([]byte, error)
}
