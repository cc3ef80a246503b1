package gallery

import "time"

// Record is one saved image. Metadata carries whatever the caller wants
// to remember about the generation (seed, dimensions, model options).
type Record struct {
	ID       int64             `json:"id"`
	URL      string            `json:"url"`
	Endpoint string            `json:"endpoint,omitempty"`
	Prompt   string            `json:"prompt,omitempty"`
	FileName string            `json:"file_name,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
	SavedAt  time.Time         `json:"saved_at"`
}
