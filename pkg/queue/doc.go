// Package queue talks to the remote generation queue: submitting jobs,
// polling their status, fetching results and issuing best-effort cancels.
// Submissions either complete synchronously with an image result or return an
// asynchronous handle whose status URL is polled on a fixed interval until
// the queue reports a terminal state.
package queue
