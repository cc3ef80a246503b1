package queue

import (
	"context"
	"errors"
	"time"
)

// DefaultPollInterval is the fixed delay between status checks.
const DefaultPollInterval = 2000 * time.Millisecond

// Poll watches an asynchronous job until it reaches a terminal state and
// returns its result. The first status check happens one interval after the
// call, matching the submit-then-tick cadence the queue expects. COMPLETED
// triggers exactly one result fetch; FAILED surfaces a JobFailedError with
// the remote logs. A 404/405 on the status URL means the queue already
// dropped the status resource, so the result is fetched immediately instead
// of erroring. Every other failure aborts the poll; there are no retries.
// onStatus, when non-nil, receives each non-terminal status response.
func (c *Client) Poll(ctx context.Context, handle Handle, interval time.Duration, onStatus func(StatusResponse)) (Result, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(interval):
		}

		status, err := c.Status(ctx, handle)
		if err != nil {
			var httpErr *StatusError
			if errors.As(err, &httpErr) && httpErr.Gone() {
				// Status resource already gone: the job finished between
				// polls, fetch the result directly.
				return c.Result(ctx, handle)
			}
			return Result{}, err
		}

		switch status.Status {
		case StatusCompleted:
			return c.Result(ctx, handle)
		case StatusFailed:
			return Result{}, &JobFailedError{RequestID: handle.RequestID, Logs: status.Logs}
		default:
			if onStatus != nil {
				onStatus(status)
			}
		}
	}
}

// Run submits a payload and, when the queue answers asynchronously, polls the
// job to completion. Synchronous results return without any polling.
func (c *Client) Run(ctx context.Context, endpoint string, body map[string]any, interval time.Duration, onStatus func(StatusResponse)) (Result, error) {
	submission, err := c.Submit(ctx, endpoint, body)
	if err != nil {
		return Result{}, err
	}
	if !submission.Async() {
		return *submission.Result, nil
	}
	return c.Poll(ctx, *submission.Handle, interval, onStatus)
}
