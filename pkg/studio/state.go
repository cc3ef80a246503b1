package studio

import (
	"time"

	"github.com/goliatone/go-easel/pkg/model"
	"github.com/goliatone/go-easel/pkg/queue"
)

// JobPhase tracks one generation through the queue. A job moves from
// SUBMITTED to POLLING and ends in exactly one of COMPLETED, FAILED or
// CANCELLED; a new submission replaces the record wholesale.
type JobPhase string

const (
	// JobIdle is the zero phase before any submission.
	JobIdle JobPhase = ""
	// JobSubmitted means the queue accepted the request and handed back a
	// handle, but no status has been seen yet.
	JobSubmitted JobPhase = "SUBMITTED"
	// JobPolling means at least one status check happened and the job is
	// still queued or running.
	JobPolling JobPhase = "POLLING"
	// JobCompleted means the result arrived.
	JobCompleted JobPhase = "COMPLETED"
	// JobFailed means the queue reported failure or a status check errored.
	JobFailed JobPhase = "FAILED"
	// JobCancelled means the job was cancelled locally.
	JobCancelled JobPhase = "CANCELLED"
)

// Terminal reports whether the phase is final.
func (p JobPhase) Terminal() bool {
	switch p {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}

// Active reports whether a submission is still in flight.
func (p JobPhase) Active() bool {
	return p == JobSubmitted || p == JobPolling
}

// Job is the transient record of the current generation.
type Job struct {
	Endpoint      string
	RequestID     string
	Phase         JobPhase
	QueuePosition int
	StartedAt     time.Time
	Error         string
	Images        []queue.Image
	Seed          string
}

// State is the explicit application state. Everything a frontend needs to
// render lives here; Dispatch is the only writer, and observers receive a
// snapshot after every transition.
type State struct {
	// EndpointID is the selected endpoint, empty before the first selection.
	EndpointID string
	// Form is the generated form for the selection. Shared across snapshots
	// and treated as read-only.
	Form *model.FormModel
	// Values holds the current form values keyed by field path, in the
	// bracket/dot notation the payload layer expands.
	Values map[string]string
	// ShowAdvanced mirrors the persisted advanced-panel flag.
	ShowAdvanced bool
	// Debug mirrors the persisted debug flag.
	Debug bool
	// Job is the current generation, zero when idle.
	Job Job
}
