// Package config loads easel's TOML configuration, layered with a .env
// file and environment overrides. File values are optional; every field
// has a default, so a missing config file is not an error.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// API contains queue connection settings.
type API struct {
	Key            string `toml:"key"`
	BaseURL        string `toml:"base_url"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
}

// Paths contains directory configuration.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	DownloadsDir string `toml:"downloads_dir"`
	EndpointsDir string `toml:"endpoints_dir"`
	ThemesDir    string `toml:"themes_dir"`
	HintsDir     string `toml:"hints_dir"`
}

// Server contains dev-server settings.
type Server struct {
	Addr string `toml:"addr"`
}

// UI contains form-rendering preferences.
type UI struct {
	Theme   string `toml:"theme"`
	Variant string `toml:"variant"`
}

// Logging contains log output settings.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for easel.
type Config struct {
	API     API     `toml:"api"`
	Paths   Paths   `toml:"paths"`
	Server  Server  `toml:"server"`
	UI      UI      `toml:"ui"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve config directory: %w", err)
	}
	return filepath.Join(base, "easel", "config.toml"), nil
}

// Load locates, parses and validates a configuration file. A .env file in
// the working directory is read first so FAL_KEY and EASEL_* variables can
// come from either place; the environment always wins over file values.
// The returned path is where the config was read from (or would be written
// to), and the boolean reports whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	// Missing .env files are the normal case.
	_ = godotenv.Load()

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("config: open: %w", err)
		}
		defer file.Close()

		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("config: parse: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("config: stat: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("easel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// applyEnv lets environment variables override file values.
func (c *Config) applyEnv() {
	c.API.Key = getEnv("FAL_KEY", c.API.Key)
	c.API.BaseURL = getEnv("EASEL_API_BASE_URL", c.API.BaseURL)
	c.Paths.DataDir = getEnv("EASEL_DATA_DIR", c.Paths.DataDir)
	c.Paths.DownloadsDir = getEnv("EASEL_DOWNLOADS_DIR", c.Paths.DownloadsDir)
	c.Paths.EndpointsDir = getEnv("EASEL_ENDPOINTS_DIR", c.Paths.EndpointsDir)
	c.Paths.ThemesDir = getEnv("EASEL_THEMES_DIR", c.Paths.ThemesDir)
	c.Paths.HintsDir = getEnv("EASEL_HINTS_DIR", c.Paths.HintsDir)
	c.Server.Addr = getEnv("EASEL_ADDR", c.Server.Addr)
	c.Logging.Format = getEnv("EASEL_LOG_FORMAT", c.Logging.Format)
	c.Logging.Level = getEnv("EASEL_LOG_LEVEL", c.Logging.Level)

	if raw := os.Getenv("EASEL_POLL_INTERVAL_MS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			c.API.PollIntervalMS = value
		}
	}
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = ExpandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.DownloadsDir, err = ExpandPath(c.Paths.DownloadsDir); err != nil {
		return err
	}
	if c.Paths.EndpointsDir, err = ExpandPath(c.Paths.EndpointsDir); err != nil {
		return err
	}
	if c.Paths.ThemesDir != "" {
		if c.Paths.ThemesDir, err = ExpandPath(c.Paths.ThemesDir); err != nil {
			return err
		}
	}
	if c.Paths.HintsDir != "" {
		if c.Paths.HintsDir, err = ExpandPath(c.Paths.HintsDir); err != nil {
			return err
		}
	}
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	c.API.Key = strings.TrimSpace(c.API.Key)
	return nil
}

// Validate checks fields the rest of the app cannot default around.
func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: logging format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown logging level %q", c.Logging.Level)
	}
	if c.Server.Addr == "" {
		return errors.New("config: server addr cannot be empty")
	}
	if c.API.PollIntervalMS <= 0 {
		return fmt.Errorf("config: poll interval must be positive, got %d", c.API.PollIntervalMS)
	}
	return nil
}

// PollInterval returns the status-check delay as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.API.PollIntervalMS) * time.Millisecond
}

// GalleryPath is where the gallery database lives.
func (c *Config) GalleryPath() string {
	return filepath.Join(c.Paths.DataDir, "gallery.db")
}

// SettingsPath is where UI settings persist.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Paths.DataDir, "settings.json")
}

// LockPath is the data-dir lock guarding against concurrent writers.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "easel.lock")
}

// EnsureDirectories creates the directories easel writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.DownloadsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CreateSample writes the sample configuration file to the given location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("config: write sample: %w", err)
	}
	return nil
}

// ExpandPath resolves ~ prefixes and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("config: resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("config: resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
