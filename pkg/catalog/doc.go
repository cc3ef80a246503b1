// Package catalog discovers endpoint descriptor documents and indexes
// them by endpoint identifier. Descriptors are OpenAPI-like JSON or YAML
// files carrying x-fal-metadata; files that fail to parse or omit the
// endpoint identifier are skipped with a warning so one bad descriptor
// never takes down discovery. When nothing is discovered a manual
// fallback list can stand in.
package catalog
