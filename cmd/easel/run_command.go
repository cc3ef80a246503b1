package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-easel/internal/logging"
	"github.com/goliatone/go-easel/internal/settings"
	"github.com/goliatone/go-easel/pkg/catalog"
	"github.com/goliatone/go-easel/pkg/gallery"
	"github.com/goliatone/go-easel/pkg/model"
	"github.com/goliatone/go-easel/pkg/payload"
	"github.com/goliatone/go-easel/pkg/queue"
	"github.com/goliatone/go-easel/pkg/render"
	"github.com/goliatone/go-easel/pkg/renderers/tui"
	"github.com/goliatone/go-easel/pkg/studio"
	"github.com/goliatone/go-easel/pkg/validation"
	"github.com/goliatone/go-easel/pkg/viewer"
)

type runOptions struct {
	overrides   []setValue
	interactive bool
	noSave      bool
	download    bool
}

// setValue is one parsed --set flag. Order is preserved so later flags win
// over earlier ones the same way repeated form edits would.
type setValue struct {
	path  string
	value string
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var setFlags []string
	var interactive bool
	var noSave bool
	var download bool

	cmd := &cobra.Command{
		Use:   "run <endpoint>",
		Short: "Submit a generation job and watch it to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := parseSetFlags(setFlags)
			if err != nil {
				return err
			}
			opts := runOptions{
				overrides:   overrides,
				interactive: interactive,
				noSave:      noSave,
				download:    download,
			}

			release, err := ctx.acquireLock()
			if err != nil {
				return err
			}
			defer release()

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cat, err := ctx.openCatalog(signalCtx)
			if err != nil {
				return err
			}
			endpoint, ok := cat.Endpoint(args[0])
			if !ok {
				return fmt.Errorf("unknown endpoint %q", args[0])
			}

			client, err := ctx.queueClient()
			if err != nil {
				return err
			}

			if !endpoint.HasSchema() {
				if opts.interactive {
					return fmt.Errorf("endpoint %q has no descriptor, so there is no form to fill; pass values with --set", endpoint.ID)
				}
				return runWithoutForm(signalCtx, cmd, ctx, client, endpoint, opts)
			}
			return runWithStudio(signalCtx, cmd, ctx, cat, client, endpoint, opts)
		},
	}

	cmd.Flags().StringArrayVar(&setFlags, "set", nil, "Set a form value as path=value (repeatable; bracket paths accepted)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Fill the form through terminal prompts")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Skip saving result images to the gallery")
	cmd.Flags().BoolVar(&download, "download", false, "Download result images to the downloads directory")
	return cmd
}

func parseSetFlags(flags []string) ([]setValue, error) {
	values := make([]setValue, 0, len(flags))
	for _, flag := range flags {
		path, value, found := strings.Cut(flag, "=")
		path = strings.TrimSpace(path)
		if !found || path == "" {
			return nil, fmt.Errorf("invalid --set %q, expected path=value", flag)
		}
		values = append(values, setValue{path: path, value: value})
	}
	return values, nil
}

// runWithStudio drives a schema-backed endpoint through the studio, which
// owns value persistence, polling and gallery saves.
func runWithStudio(ctx context.Context, cmd *cobra.Command, cmdCtx *commandContext, cat *catalog.Catalog, client *queue.Client, endpoint catalog.Endpoint, opts runOptions) error {
	cfg := cmdCtx.configValue()
	out := cmd.OutOrStdout()

	store, err := cmdCtx.settingsStore()
	if err != nil {
		return err
	}
	decorators, err := cmdCtx.hintDecorators()
	if err != nil {
		return err
	}

	options := []studio.Option{
		studio.WithSettings(store),
		studio.WithLogger(cmdCtx.loggerValue()),
		studio.WithPollInterval(cfg.PollInterval()),
		studio.WithDecorators(decorators...),
	}

	if !opts.noSave {
		galleryStore, err := gallery.Open(cfg.GalleryPath())
		if err != nil {
			return fmt.Errorf("open gallery: %w", err)
		}
		defer galleryStore.Close()
		service, err := gallery.NewService(galleryStore, gallery.WithLogger(cmdCtx.loggerValue()))
		if err != nil {
			return err
		}
		options = append(options, studio.WithGallery(service))
	}

	st, err := studio.New(cat, client, options...)
	if err != nil {
		return err
	}
	if err := st.Dispatch(ctx, studio.SelectEndpoint(endpoint.ID)); err != nil {
		return err
	}

	if opts.interactive {
		if err := fillInteractively(ctx, st); err != nil {
			if errors.Is(err, tui.ErrAborted) {
				return context.Canceled
			}
			return err
		}
	}
	for _, override := range opts.overrides {
		if err := st.Dispatch(ctx, studio.SetValue(override.path, override.value)); err != nil {
			return err
		}
	}

	// Run the endpoint's constraints locally before spending a queue
	// round-trip on a payload the API would reject anyway.
	body, err := st.Payload()
	if err != nil {
		return err
	}
	state := st.State()
	if result := validation.ValidatePayload(*state.Form, body); !result.Valid() {
		printIssues(cmd.ErrOrStderr(), result.Issues)
		return errors.New("payload failed validation")
	}

	progress := newProgressPrinter(out)
	unsubscribe := st.Subscribe(func(event studio.Event) {
		if event.Kind == studio.EventJobUpdated {
			progress.update(event.State.Job)
		}
	})
	defer unsubscribe()

	if err := st.Dispatch(ctx, studio.Submit()); err != nil {
		return describeSubmitError(cmd.ErrOrStderr(), *state.Form, err)
	}

	job, err := st.WaitJob(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Ctrl-C while polling: stop the job before leaving.
			cancelCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = st.Dispatch(cancelCtx, studio.Cancel())
			fmt.Fprintln(out, "Cancelled")
		}
		return err
	}

	switch job.Phase {
	case studio.JobCompleted:
		reportImages(out, job.Images, job.Seed)
		// The studio persists results before it reports completion.
		if !opts.noSave && len(job.Images) > 0 {
			fmt.Fprintln(out, "Saved to gallery")
		}
		if opts.download {
			return downloadImages(ctx, cmd, cmdCtx, job.Images)
		}
		return nil
	case studio.JobCancelled:
		fmt.Fprintln(out, "Cancelled")
		return nil
	default:
		return errors.New(job.Error)
	}
}

// runWithoutForm submits --set values directly for manual fallback entries
// that have no descriptor to generate a form from.
func runWithoutForm(ctx context.Context, cmd *cobra.Command, cmdCtx *commandContext, client *queue.Client, endpoint catalog.Endpoint, opts runOptions) error {
	if len(opts.overrides) == 0 {
		return fmt.Errorf("endpoint %q has no descriptor; pass values with --set path=value", endpoint.ID)
	}

	entries := make([]payload.Entry, 0, len(opts.overrides))
	prompt := ""
	for _, override := range opts.overrides {
		if override.path == "prompt" {
			prompt = override.value
		}
		entries = append(entries, payload.Entry{
			Name:  override.path,
			Value: override.value,
			Kind:  literalKind(override.path, override.value),
		})
	}
	body, err := payload.Expand(entries)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	cfg := cmdCtx.configValue()
	store, err := cmdCtx.settingsStore()
	if err != nil {
		return err
	}

	submission, err := client.Submit(ctx, endpoint.SubmissionPath(), body)
	if err != nil {
		return err
	}

	var result queue.Result
	if submission.Async() {
		handle := *submission.Handle
		record := settings.JobRecord{
			Endpoint:    endpoint.ID,
			RequestID:   handle.RequestID,
			StatusURL:   handle.StatusURL,
			ResponseURL: handle.ResponseURL,
			CancelURL:   handle.CancelURL,
			SubmittedAt: time.Now(),
		}
		if err := store.SetLastJob(record); err != nil {
			cmdCtx.loggerValue().Warn("failed to record submission", logging.Error(err))
		}
		fmt.Fprintf(out, "Submitted as request %s\n", handle.RequestID)

		progress := newStatusPrinter(out)
		result, err = client.Poll(ctx, handle, cfg.PollInterval(), progress.update)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				// The job keeps running remotely; leave the record so
				// `easel cancel` can still reach it.
				fmt.Fprintln(out, "Interrupted; run `easel cancel` to stop the job")
				return err
			}
			_ = store.ClearLastJob()
			return err
		}
		_ = store.ClearLastJob()
	} else {
		result = *submission.Result
	}

	reportImages(out, result.Images, result.Seed.String())

	if !opts.noSave && len(result.Images) > 0 {
		err := cmdCtx.withGallery(func(service *gallery.Service) error {
			saved := 0
			for _, image := range result.Images {
				record := gallery.Record{
					URL:      image.URL,
					Endpoint: endpoint.ID,
					Prompt:   prompt,
					FileName: image.FileName,
				}
				if seed := result.Seed.String(); seed != "" {
					record.Metadata = map[string]string{"seed": seed}
				}
				_, stored, err := service.Save(ctx, record, false)
				if err != nil {
					return err
				}
				if stored {
					saved++
				}
			}
			if saved > 0 {
				fmt.Fprintln(out, "Saved to gallery")
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	if opts.download {
		return downloadImages(ctx, cmd, cmdCtx, result.Images)
	}
	return nil
}

// fillInteractively prompts for every visible field and feeds the answers
// back through the studio so they persist like any other edit.
func fillInteractively(ctx context.Context, st *studio.Studio) error {
	state := st.State()
	renderer := tui.New()
	body, err := renderer.Fill(ctx, *state.Form, render.RenderOptions{
		ShowAdvanced: state.ShowAdvanced,
		Values:       valuesAsAny(state.Values),
	})
	if err != nil {
		return err
	}
	entries, err := payload.Flatten(body)
	if err != nil {
		return err
	}

	if err := st.Dispatch(ctx, studio.ClearValues()); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := st.Dispatch(ctx, studio.SetValue(entry.Name, entry.Value)); err != nil {
			return err
		}
	}
	return nil
}

func valuesAsAny(values map[string]string) map[string]any {
	if len(values) == 0 {
		return nil
	}
	converted := make(map[string]any, len(values))
	for key, value := range values {
		converted[key] = value
	}
	return converted
}

// literalKind guesses the payload coercion for a value submitted without a
// schema: JSON-style booleans and numbers go out typed, everything else as
// text. The prompt always stays text so numeric prompts survive.
func literalKind(path, value string) payload.EntryKind {
	if path == "prompt" {
		return payload.KindText
	}
	switch strings.ToLower(value) {
	case "true", "false":
		return payload.KindCheckbox
	}
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return payload.KindNumber
	}
	return payload.KindText
}

// describeSubmitError expands a 422 rejection into per-field messages; any
// other submit failure passes through untouched.
func describeSubmitError(errOut io.Writer, form model.FormModel, err error) error {
	var statusErr *queue.StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusUnprocessableEntity {
		if details, ok := render.ParseErrorDetail(statusErr.Payload); ok {
			printMapping(errOut, render.MapValidationDetails(form, details))
			return errors.New("the endpoint rejected the payload")
		}
	}
	return err
}

func printIssues(out io.Writer, issues []validation.Issue) {
	fmt.Fprintln(out, "Invalid payload:")
	for _, issue := range issues {
		fmt.Fprintf(out, "  %s %s\n", issue.Path, issue.Message)
	}
}

func printMapping(out io.Writer, mapping render.ErrorMapping) {
	fmt.Fprintln(out, "The endpoint rejected the payload:")
	paths := make([]string, 0, len(mapping.Fields))
	for path := range mapping.Fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		for _, message := range mapping.Fields[path] {
			fmt.Fprintf(out, "  %s: %s\n", path, message)
		}
	}
	for _, message := range mapping.Form {
		fmt.Fprintf(out, "  %s\n", message)
	}
}

func reportImages(out io.Writer, images []queue.Image, seed string) {
	if len(images) == 0 {
		fmt.Fprintln(out, "Completed with no images")
		return
	}
	fmt.Fprintf(out, "Completed with %d image(s)\n", len(images))
	for _, image := range images {
		fmt.Fprintf(out, "  %s\n", image.URL)
	}
	if seed != "" {
		fmt.Fprintf(out, "Seed: %s\n", seed)
	}
}

func downloadImages(ctx context.Context, cmd *cobra.Command, cmdCtx *commandContext, images []queue.Image) error {
	downloader, err := cmdCtx.downloader(progressWriter(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, image := range images {
		path, err := downloader.Download(ctx, viewer.Item{URL: image.URL, FileName: image.FileName})
		if err != nil {
			return fmt.Errorf("download %s: %w", image.URL, err)
		}
		fmt.Fprintf(out, "Downloaded %s\n", path)
	}
	return nil
}

// progressPrinter prints job transitions once per distinct phase and queue
// position, so the poll loop does not repeat itself every tick.
type progressPrinter struct {
	mu       sync.Mutex
	out      io.Writer
	phase    studio.JobPhase
	position int
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out, position: -1}
}

func (p *progressPrinter) update(job studio.Job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if job.Phase == p.phase && job.QueuePosition == p.position {
		return
	}
	p.phase = job.Phase
	p.position = job.QueuePosition

	switch job.Phase {
	case studio.JobSubmitted:
		if job.RequestID != "" {
			fmt.Fprintf(p.out, "Submitted as request %s\n", job.RequestID)
		}
	case studio.JobPolling:
		if job.QueuePosition > 0 {
			fmt.Fprintf(p.out, "Queued at position %d\n", job.QueuePosition)
		} else {
			fmt.Fprintln(p.out, "Generating")
		}
	}
}

// statusPrinter is the progressPrinter counterpart for raw queue status
// responses on the schema-less path.
type statusPrinter struct {
	out      io.Writer
	status   queue.Status
	position int
}

func newStatusPrinter(out io.Writer) *statusPrinter {
	return &statusPrinter{out: out, position: -1}
}

func (p *statusPrinter) update(status queue.StatusResponse) {
	if status.Status == p.status && status.QueuePosition == p.position {
		return
	}
	p.status = status.Status
	p.position = status.QueuePosition

	switch status.Status {
	case queue.StatusInQueue:
		if status.QueuePosition > 0 {
			fmt.Fprintf(p.out, "Queued at position %d\n", status.QueuePosition)
		} else {
			fmt.Fprintln(p.out, "Queued")
		}
	case queue.StatusInProgress:
		fmt.Fprintln(p.out, "Generating")
	}
}
