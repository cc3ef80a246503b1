package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-easel/internal/config"
	"github.com/goliatone/go-easel/internal/logging"
	"github.com/goliatone/go-easel/internal/settings"
	"github.com/goliatone/go-easel/pkg/catalog"
	"github.com/goliatone/go-easel/pkg/gallery"
	"github.com/goliatone/go-easel/pkg/model"
	"github.com/goliatone/go-easel/pkg/orchestrator"
	"github.com/goliatone/go-easel/pkg/queue"
	"github.com/goliatone/go-easel/pkg/theme"
	"github.com/goliatone/go-easel/pkg/uischema"
	"github.com/goliatone/go-easel/pkg/viewer"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// loggerValue builds the process logger from the loaded configuration. It
// writes to stderr so command output on stdout stays parseable.
func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg := c.configValue()
		if cfg == nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		})
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

// openCatalog loads endpoint descriptors from the configured directory. A
// missing or unreadable directory degrades to the built-in manual list so
// the CLI stays usable for well-known endpoints.
func (c *commandContext) openCatalog(ctx context.Context) (*catalog.Catalog, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := c.loggerValue()

	cat, err := catalog.LoadDir(ctx, cfg.Paths.EndpointsDir,
		catalog.WithLogger(logger),
		catalog.WithFallback(fallbackEndpoints()...))
	if err != nil {
		logger.Warn("endpoint descriptors unavailable, using the built-in list",
			slog.String("dir", cfg.Paths.EndpointsDir),
			logging.Error(err))
		return catalog.LoadFS(ctx, nil, catalog.WithFallback(fallbackEndpoints()...))
	}
	return cat, nil
}

func (c *commandContext) queueClient() (*queue.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.API.Key == "" {
		return nil, fmt.Errorf("no API key configured; set FAL_KEY or api.key in the config file")
	}
	return queue.NewClient(cfg.API.Key, queue.WithBaseURL(cfg.API.BaseURL)), nil
}

func (c *commandContext) settingsStore() (*settings.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return settings.NewStore(cfg.SettingsPath(), c.loggerValue()), nil
}

// withGallery opens the gallery database, runs fn, and closes the store.
func (c *commandContext) withGallery(fn func(*gallery.Service) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := gallery.Open(cfg.GalleryPath())
	if err != nil {
		return fmt.Errorf("open gallery: %w", err)
	}
	defer store.Close()

	service, err := gallery.NewService(store, gallery.WithLogger(c.loggerValue()))
	if err != nil {
		return err
	}
	return fn(service)
}

func (c *commandContext) downloader(progress io.Writer) (*viewer.Downloader, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	options := []viewer.DownloaderOption{viewer.WithLogger(c.loggerValue())}
	if progress != nil {
		options = append(options, viewer.WithProgress(progress))
	}
	return viewer.NewDownloader(cfg.Paths.DownloadsDir, options...), nil
}

// generator assembles the form pipeline with the configured hint overlays
// and theme manifests applied.
func (c *commandContext) generator() (*orchestrator.Orchestrator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	var options []orchestrator.Option

	hints, err := uischema.LoadDir(cfg.Paths.HintsDir)
	if err != nil {
		return nil, err
	}
	if hints != nil && !hints.Empty() {
		options = append(options, orchestrator.WithHints(hints))
	}

	selector, err := theme.LoadDir(cfg.Paths.ThemesDir, cfg.UI.Theme, cfg.UI.Variant)
	if err != nil {
		return nil, err
	}
	if selector != nil {
		options = append(options, orchestrator.WithThemeSelector(selector))
	}

	return orchestrator.New(options...), nil
}

// hintDecorators returns the hint overlay decorator for form-building paths
// that bypass the orchestrator, such as the studio.
func (c *commandContext) hintDecorators() ([]model.Decorator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := uischema.LoadDir(cfg.Paths.HintsDir)
	if err != nil {
		return nil, err
	}
	if store == nil || store.Empty() {
		return nil, nil
	}
	return []model.Decorator{uischema.NewDecorator(store)}, nil
}

// acquireLock takes the data-dir lock so concurrent invocations cannot stomp
// each other's gallery and settings writes. The returned release function is
// safe to call once.
func (c *commandContext) acquireLock() (func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire data-dir lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another easel invocation is writing to %s; retry when it finishes", cfg.Paths.DataDir)
	}
	return func() { _ = lock.Unlock() }, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
