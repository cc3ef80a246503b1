package queue

import (
	"fmt"
	"strings"
)

// StatusError carries the HTTP status of a failed queue request so callers
// can distinguish gone-status responses from genuine failures. Payload holds
// the full response body; rejected submissions carry their validation detail
// there.
type StatusError struct {
	Code    int
	Body    string
	URL     string
	Payload []byte
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("queue: http %d from %s", e.Code, e.URL)
	}
	return fmt.Sprintf("queue: http %d from %s: %s", e.Code, e.URL, body)
}

// Gone reports whether the queue no longer serves the status resource, which
// the poller reads as "job already finished".
func (e *StatusError) Gone() bool {
	return e.Code == 404 || e.Code == 405
}

// JobFailedError is returned when the queue reports FAILED. Remote logs ride
// along for display.
type JobFailedError struct {
	RequestID string
	Logs      []LogEntry
}

func (e *JobFailedError) Error() string {
	if last := lastLogLine(e.Logs); last != "" {
		return fmt.Sprintf("queue: job %s failed: %s", e.RequestID, last)
	}
	return fmt.Sprintf("queue: job %s failed", e.RequestID)
}

func lastLogLine(logs []LogEntry) string {
	for i := len(logs) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(logs[i].Message); line != "" {
			return line
		}
	}
	return ""
}
