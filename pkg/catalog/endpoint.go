package catalog

import (
	"strings"

	pkgopenapi "github.com/goliatone/go-easel/pkg/openapi"
)

// Endpoint is one generation endpoint: its vendor metadata plus the
// operation whose request body drives form generation. Entries are
// immutable once loaded; a reload replaces the catalog wholesale.
type Endpoint struct {
	ID               string
	Title            string
	Description      string
	Category         string
	ThumbnailURL     string
	PlaygroundURL    string
	DocumentationURL string

	// Source is the descriptor file the endpoint came from, empty for
	// manual fallback entries.
	Source string

	// Operation carries the request-body schema. Zero for manual entries,
	// which cannot render a form.
	Operation pkgopenapi.Operation

	// Manual marks fallback entries that have no descriptor backing them.
	Manual bool
}

// HasSchema reports whether the endpoint can drive form generation.
func (e Endpoint) HasSchema() bool {
	return !e.Manual && e.Operation.ID != ""
}

// SubmissionPath is the queue path a payload is POSTed to.
func (e Endpoint) SubmissionPath() string {
	return "/" + strings.Trim(e.ID, "/")
}

// StatusPathTemplate is the queue status path with a {request_id}
// placeholder. Handles returned by a submission carry absolute URLs and
// take precedence; the template exists for callers constructing URLs
// from a stored request ID.
func (e Endpoint) StatusPathTemplate() string {
	return "/" + appAlias(e.ID) + "/requests/{request_id}/status"
}

// ResultPathTemplate is the queue result path with a {request_id}
// placeholder.
func (e Endpoint) ResultPathTemplate() string {
	return "/" + appAlias(e.ID) + "/requests/{request_id}"
}

// CancelPathTemplate is the queue cancel path with a {request_id}
// placeholder.
func (e Endpoint) CancelPathTemplate() string {
	return "/" + appAlias(e.ID) + "/requests/{request_id}/cancel"
}

// appAlias trims an endpoint ID to its owner/app pair. The queue routes
// request resources under the app even when the endpoint carries a
// subpath ("fal-ai/flux/dev" submits to /fal-ai/flux/dev but its requests
// live under /fal-ai/flux).
func appAlias(id string) string {
	parts := strings.Split(strings.Trim(id, "/"), "/")
	if len(parts) <= 2 {
		return strings.Join(parts, "/")
	}
	return strings.Join(parts[:2], "/")
}

// ManualEndpoint builds a fallback entry for a known endpoint ID that has
// no local descriptor.
func ManualEndpoint(id, title, category string) Endpoint {
	return Endpoint{
		ID:       strings.Trim(strings.TrimSpace(id), "/"),
		Title:    strings.TrimSpace(title),
		Category: strings.TrimSpace(category),
		Manual:   true,
	}
}
