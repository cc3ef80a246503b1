package gallery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-easel/internal/logging"
)

// Observer receives the full record list, newest first, after every
// mutation.
type Observer func(records []Record)

// Service wraps a Store with deduplication and change notification. Every
// mutating operation persists immediately and then notifies observers so
// open views can re-render.
type Service struct {
	store  *Store
	logger *slog.Logger

	mu        sync.Mutex
	observers map[int]Observer
	nextID    int
}

// ServiceOption customizes Service construction.
type ServiceOption func(*Service)

// WithLogger attaches a logger to the service.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logging.NewComponentLogger(logger, "gallery")
		}
	}
}

// NewService builds a Service on top of an open store.
func NewService(store *Store, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("gallery: store is required")
	}
	service := &Service{
		store:     store,
		logger:    logging.NewNop(),
		observers: map[int]Observer{},
	}
	for _, option := range options {
		option(service)
	}
	return service, nil
}

// Subscribe registers an observer and returns a function that removes it.
func (s *Service) Subscribe(observer Observer) func() {
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

// Save stores a new record for the given URL. When the URL is already
// present the call is a no-op unless force is set, in which case a fresh
// record is prepended alongside the existing one. It reports whether a
// record was written.
func (s *Service) Save(ctx context.Context, rec Record, force bool) (Record, bool, error) {
	rec.URL = strings.TrimSpace(rec.URL)
	if rec.URL == "" {
		return Record{}, false, fmt.Errorf("gallery: image URL is required")
	}

	if !force {
		exists, err := s.store.ContainsURL(ctx, rec.URL)
		if err != nil {
			return Record{}, false, err
		}
		if exists {
			s.logger.Debug("skipping duplicate image", slog.String("url", rec.URL))
			return Record{}, false, nil
		}
	}

	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now().UTC()
	}
	saved, err := s.store.Insert(ctx, rec)
	if err != nil {
		return Record{}, false, err
	}
	s.logger.Info("image saved",
		slog.Int64("id", saved.ID),
		slog.String("endpoint", saved.Endpoint))
	s.notify(ctx)
	return saved, true, nil
}

// Delete removes the record at the given position in the newest-first
// ordering.
func (s *Service) Delete(ctx context.Context, index int) error {
	records, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(records) {
		return fmt.Errorf("gallery: index %d out of range (have %d records)", index, len(records))
	}
	if _, err := s.store.Delete(ctx, records[index].ID); err != nil {
		return err
	}
	s.notify(ctx)
	return nil
}

// DeleteAt removes the records saved at the given time.
func (s *Service) DeleteAt(ctx context.Context, savedAt time.Time) error {
	deleted, err := s.store.DeleteSavedAt(ctx, savedAt)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return fmt.Errorf("gallery: no record saved at %s", savedAt.UTC().Format(time.RFC3339Nano))
	}
	s.notify(ctx)
	return nil
}

// BulkDelete removes every record whose ID appears in ids. Records outside
// the set keep their relative order. It returns the number of records
// removed.
func (s *Service) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	deleted, err := s.store.Delete(ctx, ids...)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("images removed", slog.Int64("count", deleted))
		s.notify(ctx)
	}
	return deleted, nil
}

// Clear removes every record.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	s.notify(ctx)
	return nil
}

// List returns every record, newest first.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.store.List(ctx)
}

func (s *Service) notify(ctx context.Context) {
	s.mu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for _, observer := range s.observers {
		observers = append(observers, observer)
	}
	s.mu.Unlock()

	if len(observers) == 0 {
		return
	}
	records, err := s.store.List(ctx)
	if err != nil {
		s.logger.Warn("refresh after mutation failed", logging.Error(err))
		return
	}
	for _, observer := range observers {
		observer(records)
	}
}
