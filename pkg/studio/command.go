package studio

// CommandKind enumerates every mutation the studio accepts. The set is
// closed: Dispatch switches over these constants and rejects anything else.
type CommandKind string

const (
	// CommandSelectEndpoint builds the form for an endpoint and restores its
	// saved values.
	CommandSelectEndpoint CommandKind = "select_endpoint"
	// CommandSetValue writes one form value by field path.
	CommandSetValue CommandKind = "set_value"
	// CommandClearValues drops every value of the selected endpoint.
	CommandClearValues CommandKind = "clear_values"
	// CommandSetAdvanced opens or collapses the advanced panel.
	CommandSetAdvanced CommandKind = "set_advanced"
	// CommandSetDebug flips the debug flag.
	CommandSetDebug CommandKind = "set_debug"
	// CommandSubmit expands the current values into a payload and submits it.
	CommandSubmit CommandKind = "submit"
	// CommandCancel stops the running poll and best-effort cancels remotely.
	CommandCancel CommandKind = "cancel"
)

// Command is the tagged input to Dispatch. Only the members relevant to
// Kind are read.
type Command struct {
	Kind     CommandKind
	Endpoint string
	Path     string
	Value    string
	Enabled  bool
}

// SelectEndpoint selects an endpoint by catalog ID.
func SelectEndpoint(id string) Command {
	return Command{Kind: CommandSelectEndpoint, Endpoint: id}
}

// SetValue sets the value at a field path. An empty value removes the entry.
func SetValue(path, value string) Command {
	return Command{Kind: CommandSetValue, Path: path, Value: value}
}

// ClearValues resets the selected endpoint's form.
func ClearValues() Command {
	return Command{Kind: CommandClearValues}
}

// SetAdvanced opens or collapses the advanced panel.
func SetAdvanced(open bool) Command {
	return Command{Kind: CommandSetAdvanced, Enabled: open}
}

// SetDebug flips the debug flag.
func SetDebug(enabled bool) Command {
	return Command{Kind: CommandSetDebug, Enabled: enabled}
}

// Submit sends the current form values to the selected endpoint.
func Submit() Command {
	return Command{Kind: CommandSubmit}
}

// Cancel stops the in-flight job.
func Cancel() Command {
	return Command{Kind: CommandCancel}
}

// EventKind enumerates the notifications observers receive.
type EventKind string

const (
	// EventEndpointSelected fires after a selection built its form.
	EventEndpointSelected EventKind = "endpoint_selected"
	// EventValuesChanged fires after a value write or clear.
	EventValuesChanged EventKind = "values_changed"
	// EventSettingsChanged fires after the advanced or debug flag moved.
	EventSettingsChanged EventKind = "settings_changed"
	// EventJobUpdated fires on every job phase or queue-position change.
	EventJobUpdated EventKind = "job_updated"
	// EventImagesSaved fires after completed results landed in the gallery.
	EventImagesSaved EventKind = "images_saved"
	// EventError carries a submission or poll failure.
	EventError EventKind = "error"
)

// Event pairs a notification with the state snapshot taken right after the
// transition it reports. Err is set on EventError only.
type Event struct {
	Kind  EventKind
	State State
	Err   error
}

// Observer receives state transition events. Events are delivered
// synchronously on the goroutine that caused them.
type Observer func(Event)
