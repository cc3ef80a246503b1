package tui

import "errors"

// ErrAborted reports that the user cancelled the prompt flow, typically with
// ctrl-c.
var ErrAborted = errors.New("tui: aborted")
