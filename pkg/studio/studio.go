// Package studio owns the application state behind every frontend:
// endpoint selection, form values, the submit/poll lifecycle and the
// persistence hooks around them. All mutation flows through Dispatch,
// which takes a closed set of commands and reports transitions as events,
// so CLIs, servers and tests drive the same state machine without any UI
// dependency.
package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goliatone/go-easel/internal/logging"
	"github.com/goliatone/go-easel/internal/settings"
	"github.com/goliatone/go-easel/pkg/catalog"
	"github.com/goliatone/go-easel/pkg/gallery"
	"github.com/goliatone/go-easel/pkg/model"
	"github.com/goliatone/go-easel/pkg/payload"
	"github.com/goliatone/go-easel/pkg/queue"
	"github.com/goliatone/go-easel/pkg/widgets"
)

// ErrNoEndpoint is returned by commands that need a selection first.
var ErrNoEndpoint = errors.New("studio: no endpoint selected")

// ErrNoActiveJob is returned by a cancel command when nothing is in flight.
var ErrNoActiveJob = errors.New("studio: no active job")

// Studio is the single writer of application state. One mutex guards the
// state because dispatching callers and the poll goroutine both touch it;
// at most one job is polled at a time, and a new submission replaces any
// poll still running.
type Studio struct {
	catalog    *catalog.Catalog
	client     *queue.Client
	builder    model.Builder
	decorators []model.Decorator
	gallery    *gallery.Service
	settings   *settings.Store
	logger     *slog.Logger
	interval   time.Duration

	mu        sync.Mutex
	state     State
	observers map[int]Observer
	nextID    int
	jobSeq    int
	handle    *queue.Handle
	cancelJob context.CancelFunc
}

// Option customizes studio construction.
type Option func(*Studio)

// WithGallery persists completed results to the given gallery.
func WithGallery(service *gallery.Service) Option {
	return func(s *Studio) {
		s.gallery = service
	}
}

// WithSettings restores and persists flags, form values and the last
// submission through the given store.
func WithSettings(store *settings.Store) Option {
	return func(s *Studio) {
		s.settings = store
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Studio) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPollInterval overrides the delay between status checks.
func WithPollInterval(interval time.Duration) Option {
	return func(s *Studio) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithBuilder overrides the form model builder.
func WithBuilder(builder model.Builder) Option {
	return func(s *Studio) {
		if builder != nil {
			s.builder = builder
		}
	}
}

// WithDecorators appends decorators that run after widget assignment each
// time a form is built, such as presentation hint overlays.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(s *Studio) {
		for _, decorator := range decorators {
			if decorator != nil {
				s.decorators = append(s.decorators, decorator)
			}
		}
	}
}

// New wires a studio over an endpoint catalog and a queue client. Gallery
// and settings are optional: without them nothing is persisted, which is
// what one-shot CLI invocations and tests want.
func New(cat *catalog.Catalog, client *queue.Client, options ...Option) (*Studio, error) {
	if cat == nil {
		return nil, errors.New("studio: catalog is required")
	}
	if client == nil {
		return nil, errors.New("studio: queue client is required")
	}

	s := &Studio{
		catalog:   cat,
		client:    client,
		builder:   model.NewBuilder(),
		logger:    logging.NewNop(),
		interval:  queue.DefaultPollInterval,
		observers: map[int]Observer{},
	}
	for _, option := range options {
		option(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "studio")

	if s.settings != nil {
		s.state.Debug = s.settings.Debug()
		s.state.ShowAdvanced = s.settings.ShowAdvanced()
	}
	return s, nil
}

// Subscribe registers an observer and returns its removal function.
func (s *Studio) Subscribe(observer Observer) func() {
	if observer == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = observer
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// State returns a snapshot of the current application state.
func (s *Studio) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Payload expands the current values into the request body a submit would
// send, so callers can inspect or validate it first.
func (s *Studio) Payload() (map[string]any, error) {
	s.mu.Lock()
	form := s.state.Form
	values := make(map[string]string, len(s.state.Values))
	for key, value := range s.state.Values {
		values[key] = value
	}
	s.mu.Unlock()

	if form == nil {
		return nil, ErrNoEndpoint
	}
	return payload.Expand(entriesFromValues(form, values))
}

// Dispatch applies one command. It is the only mutation path into the
// studio; events fan out to observers after the transition commits.
func (s *Studio) Dispatch(ctx context.Context, cmd Command) error {
	switch cmd.Kind {
	case CommandSelectEndpoint:
		return s.selectEndpoint(cmd.Endpoint)
	case CommandSetValue:
		return s.setValue(cmd.Path, cmd.Value)
	case CommandClearValues:
		return s.clearValues()
	case CommandSetAdvanced:
		return s.setAdvanced(cmd.Enabled)
	case CommandSetDebug:
		return s.setDebug(cmd.Enabled)
	case CommandSubmit:
		return s.submit(ctx)
	case CommandCancel:
		return s.cancelActive(ctx)
	default:
		return fmt.Errorf("studio: unknown command %q", cmd.Kind)
	}
}

// WaitJob blocks until the current job reaches a terminal phase or the
// context expires. With no submission in flight it returns the job record
// as-is, so callers can dispatch a submit and wait unconditionally.
func (s *Studio) WaitJob(ctx context.Context) (Job, error) {
	done := make(chan Job, 1)
	unsubscribe := s.Subscribe(func(event Event) {
		if event.Kind != EventJobUpdated || !event.State.Job.Phase.Terminal() {
			return
		}
		select {
		case done <- event.State.Job:
		default:
		}
	})
	defer unsubscribe()

	current := s.State().Job
	if !current.Phase.Active() {
		return current, nil
	}

	select {
	case <-ctx.Done():
		return Job{}, ctx.Err()
	case job := <-done:
		return job, nil
	}
}

func (s *Studio) selectEndpoint(id string) error {
	endpoint, ok := s.catalog.Endpoint(id)
	if !ok {
		return fmt.Errorf("studio: unknown endpoint %q", id)
	}
	if !endpoint.HasSchema() {
		return fmt.Errorf("studio: endpoint %q has no schema to build a form from", id)
	}

	form, err := s.builder.Build(endpoint.Operation)
	if err != nil {
		return fmt.Errorf("studio: build form: %w", err)
	}
	if err := widgets.Decorate(&form); err != nil {
		return fmt.Errorf("studio: decorate form: %w", err)
	}
	for _, decorator := range s.decorators {
		if err := decorator.Decorate(&form); err != nil {
			return fmt.Errorf("studio: decorate form: %w", err)
		}
	}

	values := map[string]string{}
	if s.settings != nil {
		for key, value := range s.settings.FormValues(id) {
			values[key] = value
		}
	}

	s.mu.Lock()
	s.state.EndpointID = id
	s.state.Form = &form
	s.state.Values = values
	event := Event{Kind: EventEndpointSelected, State: s.snapshotLocked()}
	s.mu.Unlock()

	if s.settings != nil {
		if err := s.settings.SetLastEndpoint(id); err != nil {
			s.logger.Warn("failed to persist last endpoint", logging.Error(err))
		}
	}
	s.emit(event)
	return nil
}

func (s *Studio) setValue(path, value string) error {
	if path == "" {
		return errors.New("studio: value path cannot be empty")
	}

	s.mu.Lock()
	if s.state.EndpointID == "" {
		s.mu.Unlock()
		return ErrNoEndpoint
	}
	if s.state.Values == nil {
		s.state.Values = map[string]string{}
	}
	if value == "" {
		delete(s.state.Values, path)
	} else {
		s.state.Values[path] = value
	}
	endpoint := s.state.EndpointID
	event := Event{Kind: EventValuesChanged, State: s.snapshotLocked()}
	s.mu.Unlock()

	s.persistValues(endpoint, event.State.Values)
	s.emit(event)
	return nil
}

func (s *Studio) clearValues() error {
	s.mu.Lock()
	if s.state.EndpointID == "" {
		s.mu.Unlock()
		return ErrNoEndpoint
	}
	endpoint := s.state.EndpointID
	s.state.Values = map[string]string{}
	event := Event{Kind: EventValuesChanged, State: s.snapshotLocked()}
	s.mu.Unlock()

	if s.settings != nil {
		if err := s.settings.ClearFormValues(endpoint); err != nil {
			s.logger.Warn("failed to clear form values", logging.Error(err))
		}
	}
	s.emit(event)
	return nil
}

func (s *Studio) setAdvanced(open bool) error {
	s.mu.Lock()
	s.state.ShowAdvanced = open
	event := Event{Kind: EventSettingsChanged, State: s.snapshotLocked()}
	s.mu.Unlock()

	if s.settings != nil {
		if err := s.settings.SetShowAdvanced(open); err != nil {
			s.logger.Warn("failed to persist advanced flag", logging.Error(err))
		}
	}
	s.emit(event)
	return nil
}

func (s *Studio) setDebug(enabled bool) error {
	s.mu.Lock()
	s.state.Debug = enabled
	event := Event{Kind: EventSettingsChanged, State: s.snapshotLocked()}
	s.mu.Unlock()

	if s.settings != nil {
		if err := s.settings.SetDebug(enabled); err != nil {
			s.logger.Warn("failed to persist debug flag", logging.Error(err))
		}
	}
	s.emit(event)
	return nil
}

// submit expands the current values and posts them. Synchronous answers
// complete on the spot; asynchronous ones start the poll goroutine. The
// poll runs on a studio-owned context, so a dispatching caller's deadline
// cannot tear it down; CommandCancel is the way to stop it.
func (s *Studio) submit(ctx context.Context) error {
	s.mu.Lock()
	if s.state.EndpointID == "" || s.state.Form == nil {
		s.mu.Unlock()
		return ErrNoEndpoint
	}
	endpointID := s.state.EndpointID
	form := s.state.Form
	values := make(map[string]string, len(s.state.Values))
	for key, value := range s.state.Values {
		values[key] = value
	}
	// A new submission replaces any poll still running.
	if s.cancelJob != nil {
		s.cancelJob()
		s.cancelJob = nil
	}
	s.handle = nil
	s.jobSeq++
	seq := s.jobSeq
	s.mu.Unlock()

	endpoint, ok := s.catalog.Endpoint(endpointID)
	if !ok {
		return s.failSubmit(seq, fmt.Errorf("studio: unknown endpoint %q", endpointID))
	}

	body, err := payload.Expand(entriesFromValues(form, values))
	if err != nil {
		return s.failSubmit(seq, fmt.Errorf("studio: build payload: %w", err))
	}

	submission, err := s.client.Submit(ctx, endpoint.SubmissionPath(), body)
	if err != nil {
		return s.failSubmit(seq, fmt.Errorf("studio: submit: %w", err))
	}

	prompt := values["prompt"]
	startedAt := time.Now()

	if !submission.Async() {
		s.mu.Lock()
		if seq == s.jobSeq {
			s.state.Job = Job{Endpoint: endpointID, Phase: JobSubmitted, StartedAt: startedAt}
		}
		s.mu.Unlock()
		s.finishJob(seq, endpointID, prompt, *submission.Result)
		return nil
	}

	handle := *submission.Handle
	jobCtx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if seq != s.jobSeq {
		s.mu.Unlock()
		cancel()
		return nil
	}
	s.handle = &handle
	s.cancelJob = cancel
	s.state.Job = Job{
		Endpoint:  endpointID,
		RequestID: handle.RequestID,
		Phase:     JobSubmitted,
		StartedAt: startedAt,
	}
	event := Event{Kind: EventJobUpdated, State: s.snapshotLocked()}
	s.mu.Unlock()

	if s.settings != nil {
		record := settings.JobRecord{
			Endpoint:    endpointID,
			RequestID:   handle.RequestID,
			StatusURL:   handle.StatusURL,
			ResponseURL: handle.ResponseURL,
			CancelURL:   handle.CancelURL,
			SubmittedAt: startedAt,
		}
		if err := s.settings.SetLastJob(record); err != nil {
			s.logger.Warn("failed to record submission", logging.Error(err))
		}
	}

	s.logger.Info("job submitted",
		slog.String("endpoint", endpointID),
		slog.String("request_id", handle.RequestID))

	s.emit(event)
	go s.watchJob(jobCtx, seq, endpointID, prompt, handle)
	return nil
}

// cancelActive stops the poll, marks the job cancelled and sends one
// best-effort cancel to the queue. The remote call failing only means the
// job keeps running server-side; locally the job is done either way.
func (s *Studio) cancelActive(ctx context.Context) error {
	s.mu.Lock()
	if !s.state.Job.Phase.Active() {
		s.mu.Unlock()
		return ErrNoActiveJob
	}
	if s.cancelJob != nil {
		s.cancelJob()
		s.cancelJob = nil
	}
	handle := s.handle
	s.handle = nil
	// Invalidate the poll goroutine before it can report the cancelled
	// context as an update.
	s.jobSeq++
	s.state.Job.Phase = JobCancelled
	requestID := s.state.Job.RequestID
	event := Event{Kind: EventJobUpdated, State: s.snapshotLocked()}
	s.mu.Unlock()

	if handle != nil {
		if err := s.client.Cancel(ctx, *handle); err != nil {
			s.logger.Debug("cancel request failed", logging.Error(err))
		}
	}
	s.clearLastJob()

	s.logger.Info("job cancelled", slog.String("request_id", requestID))
	s.emit(event)
	return nil
}

// watchJob polls one submission to its terminal state.
func (s *Studio) watchJob(ctx context.Context, seq int, endpointID, prompt string, handle queue.Handle) {
	result, err := s.client.Poll(ctx, handle, s.interval, func(status queue.StatusResponse) {
		s.jobProgress(seq, status)
	})
	if err != nil {
		s.jobFailed(seq, err)
		return
	}
	s.finishJob(seq, endpointID, prompt, result)
}

func (s *Studio) jobProgress(seq int, status queue.StatusResponse) {
	s.mu.Lock()
	if seq != s.jobSeq {
		s.mu.Unlock()
		return
	}
	s.state.Job.Phase = JobPolling
	s.state.Job.QueuePosition = status.QueuePosition
	event := Event{Kind: EventJobUpdated, State: s.snapshotLocked()}
	s.mu.Unlock()
	s.emit(event)
}

func (s *Studio) jobFailed(seq int, err error) {
	phase := JobFailed
	if errors.Is(err, context.Canceled) {
		phase = JobCancelled
	}

	s.mu.Lock()
	if seq != s.jobSeq {
		s.mu.Unlock()
		return
	}
	s.cancelJob = nil
	s.handle = nil
	s.state.Job.Phase = phase
	s.state.Job.Error = ""
	if phase == JobFailed {
		s.state.Job.Error = err.Error()
	}
	event := Event{Kind: EventJobUpdated, State: s.snapshotLocked()}
	s.mu.Unlock()

	s.clearLastJob()
	if phase == JobFailed {
		s.logger.Warn("job failed", logging.Error(err))
		s.emit(Event{Kind: EventError, State: event.State, Err: err})
	}
	s.emit(event)
}

func (s *Studio) finishJob(seq int, endpointID, prompt string, result queue.Result) {
	s.mu.Lock()
	if seq != s.jobSeq {
		s.mu.Unlock()
		return
	}
	s.cancelJob = nil
	s.handle = nil
	s.state.Job.Phase = JobCompleted
	s.state.Job.QueuePosition = 0
	s.state.Job.Error = ""
	s.state.Job.Images = result.Images
	s.state.Job.Seed = result.Seed.String()
	event := Event{Kind: EventJobUpdated, State: s.snapshotLocked()}
	s.mu.Unlock()

	s.clearLastJob()
	s.logger.Info("job completed",
		slog.String("endpoint", endpointID),
		slog.Int("images", len(result.Images)))

	saved := s.saveImages(endpointID, prompt, result)
	s.emit(event)
	if saved > 0 {
		s.emit(Event{Kind: EventImagesSaved, State: event.State})
	}
}

// failSubmit resets the job record and reports the error as an event
// before handing it back to the dispatching caller.
func (s *Studio) failSubmit(seq int, err error) error {
	s.mu.Lock()
	if seq == s.jobSeq {
		s.state.Job = Job{}
	}
	event := Event{Kind: EventError, State: s.snapshotLocked(), Err: err}
	s.mu.Unlock()

	s.logger.Warn("submission failed", logging.Error(err))
	s.emit(event)
	return err
}

// saveImages persists completed results to the gallery, skipping
// duplicates. Returns how many records were stored.
func (s *Studio) saveImages(endpointID, prompt string, result queue.Result) int {
	if s.gallery == nil || len(result.Images) == 0 {
		return 0
	}

	ctx := context.Background()
	saved := 0
	for _, image := range result.Images {
		record := gallery.Record{
			URL:      image.URL,
			Endpoint: endpointID,
			Prompt:   prompt,
			FileName: image.FileName,
		}
		if seed := result.Seed.String(); seed != "" {
			record.Metadata = map[string]string{"seed": seed}
		}
		_, stored, err := s.gallery.Save(ctx, record, false)
		if err != nil {
			s.logger.Warn("failed to save image",
				slog.String("url", image.URL), logging.Error(err))
			continue
		}
		if stored {
			saved++
		}
	}
	return saved
}

func (s *Studio) persistValues(endpoint string, values map[string]string) {
	if s.settings == nil {
		return
	}
	if err := s.settings.SetFormValues(endpoint, values); err != nil {
		s.logger.Warn("failed to persist form values", logging.Error(err))
	}
}

func (s *Studio) clearLastJob() {
	if s.settings == nil {
		return
	}
	if err := s.settings.ClearLastJob(); err != nil {
		s.logger.Warn("failed to clear recorded submission", logging.Error(err))
	}
}

// snapshotLocked copies the state for handing out. The form pointer and
// image slice are shared; both are treated as read-only by convention.
func (s *Studio) snapshotLocked() State {
	snapshot := s.state
	if len(s.state.Values) > 0 {
		snapshot.Values = make(map[string]string, len(s.state.Values))
		for key, value := range s.state.Values {
			snapshot.Values[key] = value
		}
	}
	return snapshot
}

func (s *Studio) emit(event Event) {
	s.mu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for _, observer := range s.observers {
		observers = append(observers, observer)
	}
	s.mu.Unlock()

	for _, observer := range observers {
		observer(event)
	}
}
