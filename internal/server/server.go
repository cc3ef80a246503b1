// Package server hosts the development HTTP surface: endpoint listings, raw
// descriptor documents, and rendered form previews. It exists so browsers
// and scripts can inspect what the catalog loaded without going through the
// terminal UI; generation itself still flows through the queue client.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-easel/internal/logging"
	"github.com/goliatone/go-easel/internal/settings"
	"github.com/goliatone/go-easel/pkg/catalog"
	"github.com/goliatone/go-easel/pkg/orchestrator"
	"github.com/goliatone/go-easel/pkg/render"
	"github.com/goliatone/go-easel/pkg/renderers/htmlform"
)

const (
	defaultAddr          = "127.0.0.1:7860"
	defaultQueueBase     = "https://queue.fal.run"
	defaultShutdownGrace = 5 * time.Second
)

// Config assembles the server's collaborators. Catalog is required;
// everything else has a usable default.
type Config struct {
	Addr      string
	Catalog   *catalog.Catalog
	Generator *orchestrator.Orchestrator

	// Settings, when present, prefills form previews with the values the
	// user last entered for each endpoint.
	Settings *settings.Store

	// QueueBaseURL is where rendered forms point their submit action.
	QueueBaseURL string

	// Theme and Variant select the presentation theme for form previews
	// when the request does not name one.
	Theme   string
	Variant string

	ShutdownGrace time.Duration
	Logger        *slog.Logger
}

// Server serves the catalog over HTTP. Construct with New.
type Server struct {
	addr      string
	catalog   *catalog.Catalog
	generator *orchestrator.Orchestrator
	settings  *settings.Store
	queueBase string
	theme     string
	variant   string
	grace     time.Duration
	logger    *slog.Logger
	handler   http.Handler
}

// New validates the configuration and assembles the route table.
func New(cfg Config) (*Server, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("server: catalog is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	generator := cfg.Generator
	if generator == nil {
		generator = orchestrator.New()
	}

	s := &Server{
		addr:      strings.TrimSpace(cfg.Addr),
		catalog:   cfg.Catalog,
		generator: generator,
		settings:  cfg.Settings,
		queueBase: strings.TrimRight(strings.TrimSpace(cfg.QueueBaseURL), "/"),
		theme:     cfg.Theme,
		variant:   cfg.Variant,
		grace:     cfg.ShutdownGrace,
		logger:    logging.NewComponentLogger(logger, "server"),
	}
	if s.addr == "" {
		s.addr = defaultAddr
	}
	if s.queueBase == "" {
		s.queueBase = defaultQueueBase
	}
	if s.grace <= 0 {
		s.grace = defaultShutdownGrace
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/endpoints", s.handleEndpoints)
	mux.HandleFunc("/endpoints/", s.handleDescriptor)
	mux.HandleFunc("/form", s.handleForm)
	mux.HandleFunc("/assets/easel.css", s.handleStylesheet)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.handler = s.withRequestLog(withCORS(mux))

	return s, nil
}

// Handler exposes the assembled route table, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address the server was configured with.
func (s *Server) Addr() string {
	return s.addr
}

// Run listens until the context is cancelled, then drains in-flight
// requests within the shutdown grace period.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.addr,
		Handler: s.handler,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	s.logger.Info("listening",
		slog.String("addr", s.addr),
		slog.Int("endpoints", s.catalog.Len()))

	select {
	case err := <-errChan:
		return fmt.Errorf("server: listen on %s: %w", s.addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.grace)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	s.logger.Info("stopped")
	return nil
}

// endpointSummary is one row of the /endpoints listing. URL points back at
// this server's descriptor route; manual entries have none to serve.
type endpointSummary struct {
	EndpointID string `json:"endpointId"`
	Title      string `json:"title"`
	Category   string `json:"category,omitempty"`
	URL        string `json:"url,omitempty"`
}

func (s *Server) handleEndpoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	endpoints := s.catalog.Endpoints()
	summaries := make([]endpointSummary, 0, len(endpoints))
	for _, ep := range endpoints {
		summary := endpointSummary{
			EndpointID: ep.ID,
			Title:      ep.Title,
			Category:   ep.Category,
		}
		if !ep.Manual {
			summary.URL = "/endpoints/" + ep.ID
		}
		summaries = append(summaries, summary)
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleDescriptor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/endpoints/"), "/")
	endpoint, ok := s.catalog.Endpoint(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown endpoint %q", id))
		return
	}
	if endpoint.Source == "" {
		writeError(w, http.StatusNotFound, fmt.Sprintf("endpoint %q has no descriptor document", id))
		return
	}

	if strings.HasPrefix(endpoint.Source, "http://") || strings.HasPrefix(endpoint.Source, "https://") {
		http.Redirect(w, r, endpoint.Source, http.StatusTemporaryRedirect)
		return
	}

	data, err := os.ReadFile(endpoint.Source)
	if err != nil {
		s.logger.Warn("descriptor read failed",
			slog.String("endpoint", id),
			logging.Error(err))
		writeError(w, http.StatusInternalServerError, "descriptor unavailable")
		return
	}

	w.Header().Set("Content-Type", descriptorContentType(endpoint.Source))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.Trim(r.URL.Query().Get("endpoint"), "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "endpoint query parameter is required")
		return
	}
	endpoint, ok := s.catalog.Endpoint(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown endpoint %q", id))
		return
	}
	if !endpoint.HasSchema() {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("endpoint %q has no schema to build a form from", id))
		return
	}

	themeName := r.URL.Query().Get("theme")
	if themeName == "" {
		themeName = s.theme
	}
	variant := r.URL.Query().Get("variant")
	if variant == "" {
		variant = s.variant
	}

	options := render.RenderOptions{
		Action:       s.queueBase + endpoint.SubmissionPath(),
		ShowAdvanced: r.URL.Query().Get("advanced") == "1",
		Values:       s.storedValues(id),
	}

	operation := endpoint.Operation
	output, err := s.generator.Generate(r.Context(), orchestrator.Request{
		Operation:     &operation,
		Renderer:      r.URL.Query().Get("renderer"),
		Theme:         themeName,
		Variant:       variant,
		RenderOptions: options,
	})
	if err != nil {
		s.logger.Error("form generation failed",
			slog.String("endpoint", id),
			logging.Error(err))
		writeError(w, http.StatusInternalServerError, "form generation failed")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(output)
}

func (s *Server) handleStylesheet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	styles, err := htmlform.Stylesheet()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "stylesheet unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(styles)
}

// storedValues surfaces the user's last-entered values for an endpoint so a
// rendered preview matches what the terminal form would show.
func (s *Server) storedValues(endpoint string) map[string]any {
	if s.settings == nil {
		return nil
	}
	stored := s.settings.FormValues(endpoint)
	if len(stored) == 0 {
		return nil
	}
	values := make(map[string]any, len(stored))
	for key, value := range stored {
		values[key] = value
	}
	return values
}

func descriptorContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "application/yaml"
	default:
		return "application/json"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
