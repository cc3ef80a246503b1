// Package uischema overlays presentation hints onto generated form models.
// Hint documents live next to endpoint descriptors and adjust copy, field
// order, grouping, and visibility without touching the descriptors
// themselves. The model builder stays unaware of overlays; callers opt in by
// loading a store and registering its decorator.
package uischema
