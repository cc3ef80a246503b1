package viewer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	progressbar "github.com/schollz/progressbar/v3"

	"github.com/goliatone/go-easel/internal/logging"
)

const downloadTimeout = 120 * time.Second

// Downloader fetches image bytes and writes them under a target directory.
// Files are named after the remote image with a uuid suffix so repeated
// downloads never collide.
type Downloader struct {
	dir        string
	httpClient *http.Client
	logger     *slog.Logger
	progress   io.Writer
}

// DownloaderOption customizes a Downloader.
type DownloaderOption func(*Downloader)

// WithHTTPClient overrides the HTTP client used for fetches.
func WithHTTPClient(client *http.Client) DownloaderOption {
	return func(d *Downloader) {
		if client != nil {
			d.httpClient = client
		}
	}
}

// WithLogger attaches a logger to the downloader.
func WithLogger(logger *slog.Logger) DownloaderOption {
	return func(d *Downloader) {
		if logger != nil {
			d.logger = logging.NewComponentLogger(logger, "viewer")
		}
	}
}

// WithProgress renders a byte progress bar to w while images download. A nil
// writer leaves progress reporting off.
func WithProgress(w io.Writer) DownloaderOption {
	return func(d *Downloader) {
		d.progress = w
	}
}

// NewDownloader creates a Downloader that writes into dir.
func NewDownloader(dir string, options ...DownloaderOption) *Downloader {
	d := &Downloader{
		dir:        dir,
		httpClient: &http.Client{Timeout: downloadTimeout},
		logger:     logging.NewNop(),
	}
	for _, option := range options {
		option(d)
	}
	return d
}

// Download fetches the item's bytes and writes them to a new file,
// returning the path written. The write goes through a temp file and a
// rename so a failed fetch never leaves a partial image behind.
func (d *Downloader) Download(ctx context.Context, item Item) (string, error) {
	if strings.TrimSpace(item.URL) == "" {
		return "", fmt.Errorf("viewer: download: image URL is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		return "", fmt.Errorf("viewer: build download request: %w", err)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("viewer: fetch %s: %w", item.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("viewer: fetch %s: unexpected status %d", item.URL, resp.StatusCode)
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("viewer: ensure download directory: %w", err)
	}

	target := filepath.Join(d.dir, downloadName(item, resp.Header.Get("Content-Type")))

	tmp, err := os.CreateTemp(d.dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("viewer: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	var dest io.Writer = tmp
	var bar *progressbar.ProgressBar
	if d.progress != nil {
		bar = progressbar.NewOptions64(resp.ContentLength,
			progressbar.OptionSetWriter(d.progress),
			progressbar.OptionSetDescription(filepath.Base(target)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		dest = io.MultiWriter(tmp, bar)
	}

	written, err := io.Copy(dest, resp.Body)
	if err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("viewer: write image bytes: %w", err)
	}
	if bar != nil {
		_ = bar.Finish()
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("viewer: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("viewer: finalize download: %w", err)
	}

	d.logger.Info("image downloaded",
		slog.String("path", target),
		slog.Int64("bytes", written))
	return target, nil
}

// downloadName derives "<stem>-<uuid><ext>" from the item's file name or
// URL path, falling back to the response content type for the extension.
func downloadName(item Item, contentType string) string {
	base := strings.TrimSpace(item.FileName)
	if base == "" {
		if parsed, err := url.Parse(item.URL); err == nil {
			base = path.Base(parsed.Path)
		}
	}
	if base == "" || base == "." || base == "/" {
		base = "image"
	}

	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if ext == "" {
		ext = extensionFor(contentType)
	}
	if stem == "" {
		stem = "image"
	}
	return stem + "-" + uuid.NewString() + ext
}

func extensionFor(contentType string) string {
	switch {
	case strings.Contains(contentType, "jpeg"):
		return ".jpg"
	case strings.Contains(contentType, "webp"):
		return ".webp"
	case strings.Contains(contentType, "gif"):
		return ".gif"
	default:
		return ".png"
	}
}
