// Package settings persists small UI and session state between runs:
// per-endpoint form values, the debug flag, and whether the advanced
// panel is open. The file is plain JSON, rewritten atomically on every
// change. There is no versioning or migration; unknown fields are
// dropped on the next save.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-easel/internal/logging"
)

// Settings is the on-disk shape.
type Settings struct {
	Debug        bool                         `json:"debug"`
	ShowAdvanced bool                         `json:"show_advanced"`
	LastEndpoint string                       `json:"last_endpoint,omitempty"`
	FormValues   map[string]map[string]string `json:"form_values,omitempty"`
	LastJob      *JobRecord                   `json:"last_job,omitempty"`
}

// JobRecord remembers the most recent queue submission so a later
// process can cancel it or fetch its result.
type JobRecord struct {
	Endpoint    string    `json:"endpoint"`
	RequestID   string    `json:"request_id"`
	StatusURL   string    `json:"status_url"`
	ResponseURL string    `json:"response_url"`
	CancelURL   string    `json:"cancel_url,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Store provides thread-safe access to persisted settings. With an empty
// path every operation is a no-op, which keeps tests and one-shot CLI
// invocations free of filesystem traffic.
type Store struct {
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
	state  Settings
}

// NewStore creates a settings store backed by the file at path. The file
// is created lazily on the first write.
func NewStore(path string, logger *slog.Logger) *Store {
	logger = logging.NewComponentLogger(logger, "settings")

	s := &Store{path: path, logger: logger}
	if path == "" {
		return s
	}

	if err := s.load(); err != nil {
		logger.Warn("failed to load settings, starting empty", logging.Error(err))
	}
	return s
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

// Debug reports the persisted debug flag.
func (s *Store) Debug() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Debug
}

// SetDebug persists the debug flag.
func (s *Store) SetDebug(enabled bool) error {
	if s.path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Debug = enabled
	return s.save()
}

// ShowAdvanced reports whether the advanced panel should start open.
func (s *Store) ShowAdvanced() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ShowAdvanced
}

// SetShowAdvanced persists the advanced-panel visibility flag.
func (s *Store) SetShowAdvanced(open bool) error {
	if s.path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ShowAdvanced = open
	return s.save()
}

// LastEndpoint returns the most recently used endpoint ID.
func (s *Store) LastEndpoint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.LastEndpoint
}

// SetLastEndpoint persists the most recently used endpoint ID.
func (s *Store) SetLastEndpoint(endpoint string) error {
	if s.path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LastEndpoint = strings.TrimSpace(endpoint)
	return s.save()
}

// FormValues returns a copy of the saved form values for an endpoint,
// keyed by field path.
func (s *Store) FormValues(endpoint string) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values, ok := s.state.FormValues[endpoint]
	if !ok || len(values) == 0 {
		return nil
	}
	out := make(map[string]string, len(values))
	for key, value := range values {
		out[key] = value
	}
	return out
}

// SetFormValues stores the form values for an endpoint, replacing any
// previous set. An empty map removes the endpoint's entry.
func (s *Store) SetFormValues(endpoint string, values map[string]string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return errors.New("settings: endpoint ID cannot be empty")
	}
	if s.path == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(values) == 0 {
		delete(s.state.FormValues, endpoint)
		return s.save()
	}

	if s.state.FormValues == nil {
		s.state.FormValues = make(map[string]map[string]string)
	}
	copied := make(map[string]string, len(values))
	for key, value := range values {
		copied[key] = value
	}
	s.state.FormValues[endpoint] = copied
	return s.save()
}

// ClearFormValues removes the saved values for an endpoint.
func (s *Store) ClearFormValues(endpoint string) error {
	return s.SetFormValues(endpoint, nil)
}

// LastJob returns the most recent submission record, or nil when none
// is pending.
func (s *Store) LastJob() *JobRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state.LastJob == nil {
		return nil
	}
	record := *s.state.LastJob
	return &record
}

// SetLastJob persists the handle of an in-flight submission.
func (s *Store) SetLastJob(record JobRecord) error {
	if s.path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LastJob = &record
	return s.save()
}

// ClearLastJob forgets the recorded submission.
func (s *Store) ClearLastJob() error {
	if s.path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.LastJob == nil {
		return nil
	}
	s.state.LastJob = nil
	return s.save()
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state
	if len(s.state.FormValues) > 0 {
		snapshot.FormValues = make(map[string]map[string]string, len(s.state.FormValues))
		for endpoint, values := range s.state.FormValues {
			copied := make(map[string]string, len(values))
			for key, value := range values {
				copied[key] = value
			}
			snapshot.FormValues[endpoint] = copied
		}
	}
	return snapshot
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read settings file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var state Settings
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("parse settings file: %w", err)
	}
	s.state = state

	s.logger.Debug("loaded settings",
		slog.String("path", s.path),
		slog.Int("form_value_endpoints", len(state.FormValues)))
	return nil
}

// save writes the settings to disk atomically. Callers hold the write lock.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
