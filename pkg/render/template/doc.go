// Package template defines the engine seam renderers load their markup
// through. The interface mirrors the github.com/goliatone/go-template engine
// contract so either that engine or the pongo2-backed adapter in the
// gotemplate subpackage can sit behind a renderer.
package template
