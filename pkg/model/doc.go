// Package model defines the typed form model consumed by renderers. Builders
// reside in internal/model but return the types defined here. A FormModel is
// one endpoint operation flattened into an ordered field list; each Field
// carries its schema-derived constraints as canonical validation rules
// (min/max, multipleOf, minLength/maxLength, pattern) plus any anyOf variants,
// and, after decoration, exactly one Widget from the closed WidgetKind set.
// Renderers switch over widget kinds instead of re-deriving them from schema
// shapes, which keeps the classification rules in a single place.
package model
