package viewer_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-easel/pkg/viewer"
)

func TestDownloaderWritesUniqueFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	downloader := viewer.NewDownloader(dir, viewer.WithHTTPClient(server.Client()))
	item := viewer.Item{URL: server.URL + "/gen/flux.png", FileName: "flux.png"}

	first, err := downloader.Download(context.Background(), item)
	if err != nil {
		t.Fatalf("first download: %v", err)
	}
	second, err := downloader.Download(context.Background(), item)
	if err != nil {
		t.Fatalf("second download: %v", err)
	}

	if first == second {
		t.Fatalf("expected unique file names, both were %s", first)
	}
	for _, path := range []string{first, second} {
		name := filepath.Base(path)
		if !strings.HasPrefix(name, "flux-") || !strings.HasSuffix(name, ".png") {
			t.Fatalf("expected flux-<uuid>.png name, got %s", name)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if string(data) != "png-bytes" {
			t.Fatalf("unexpected contents %q", data)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 files and no temp leftovers, got %d", len(entries))
	}
}

func TestDownloaderDerivesNameFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpg"))
	}))
	t.Cleanup(server.Close)

	downloader := viewer.NewDownloader(t.TempDir(), viewer.WithHTTPClient(server.Client()))
	path, err := downloader.Download(context.Background(), viewer.Item{URL: server.URL + "/outputs/result"})
	if err != nil {
		t.Fatalf("download: %v", err)
	}

	name := filepath.Base(path)
	if !strings.HasPrefix(name, "result-") || !strings.HasSuffix(name, ".jpg") {
		t.Fatalf("expected result-<uuid>.jpg from content type, got %s", name)
	}
}

func TestDownloaderReportsProgress(t *testing.T) {
	payload := strings.Repeat("x", 4096)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte(payload))
	}))
	t.Cleanup(server.Close)

	var progress bytes.Buffer
	downloader := viewer.NewDownloader(t.TempDir(),
		viewer.WithHTTPClient(server.Client()),
		viewer.WithProgress(&progress))

	path, err := downloader.Download(context.Background(), viewer.Item{URL: server.URL + "/big.png", FileName: "big.png"})
	if err != nil {
		t.Fatalf("download: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if len(data) != len(payload) {
		t.Fatalf("expected %d bytes on disk, got %d", len(payload), len(data))
	}
	if progress.Len() == 0 {
		t.Fatal("expected progress output for the transfer")
	}
}

func TestDownloaderRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	downloader := viewer.NewDownloader(dir, viewer.WithHTTPClient(server.Client()))
	if _, err := downloader.Download(context.Background(), viewer.Item{URL: server.URL + "/missing.png"}); err == nil {
		t.Fatal("expected error for 404 response")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("failed download should leave nothing behind, found %d entries", len(entries))
	}
}
