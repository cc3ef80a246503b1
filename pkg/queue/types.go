package queue

import (
	"encoding/json"
	"strings"
)

// Status is a queue-reported job state.
type Status string

const (
	StatusSubmitted  Status = "SUBMITTED"
	StatusInQueue    Status = "IN_QUEUE"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// ParseStatus normalises a raw status string. Unknown values are returned
// verbatim with ok=false; the poller treats them as non-terminal.
func ParseStatus(raw string) (Status, bool) {
	status := Status(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case StatusSubmitted, StatusInQueue, StatusInProgress, StatusCompleted, StatusFailed:
		return status, true
	default:
		return status, false
	}
}

// Terminal reports whether the status ends a job's lifecycle on the queue.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Handle identifies an asynchronous job on the remote queue.
type Handle struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
	CancelURL   string `json:"cancel_url,omitempty"`
}

// LogEntry is one line of remote job output, surfaced on failures.
type LogEntry struct {
	Message   string `json:"message"`
	Level     string `json:"level,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// StatusResponse is the queue's answer to a status poll.
type StatusResponse struct {
	Status        Status     `json:"status"`
	QueuePosition int        `json:"queue_position,omitempty"`
	ResponseURL   string     `json:"response_url,omitempty"`
	Logs          []LogEntry `json:"logs,omitempty"`
}

// Image is one generated output.
type Image struct {
	URL         string `json:"url"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	FileName    string `json:"file_name,omitempty"`
}

// Result is a finished job's payload. Images holds the common output field;
// Raw preserves the full endpoint-specific body.
type Result struct {
	Images []Image         `json:"images"`
	Seed   json.Number     `json:"seed,omitempty"`
	Raw    json.RawMessage `json:"-"`
}

// Submission is the outcome of a submit call: exactly one of Handle or Result
// is set depending on whether the queue answered asynchronously.
type Submission struct {
	Handle *Handle
	Result *Result
}

// Async reports whether the submission must be polled.
func (s Submission) Async() bool {
	return s.Handle != nil
}
