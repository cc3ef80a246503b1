// Package openapi exposes the public contracts for loading and parsing
// endpoint descriptor documents. Descriptors follow an OpenAPI-like shape with
// fal vendor extensions; the wrappers here keep kin-openapi types out of the
// public API, with implementations living under internal/openapi.
package openapi
