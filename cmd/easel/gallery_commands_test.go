package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-easel/pkg/gallery"
)

func seedGallery(t *testing.T, env *cliTestEnv, records ...gallery.Record) {
	t.Helper()
	if err := os.MkdirAll(env.dataDir, 0o755); err != nil {
		t.Fatalf("mkdir data dir: %v", err)
	}
	store, err := gallery.Open(filepath.Join(env.dataDir, "gallery.db"))
	if err != nil {
		t.Fatalf("open gallery: %v", err)
	}
	defer store.Close()
	service, err := gallery.NewService(store)
	if err != nil {
		t.Fatalf("gallery service: %v", err)
	}
	for _, record := range records {
		if _, _, err := service.Save(context.Background(), record, true); err != nil {
			t.Fatalf("seed record: %v", err)
		}
	}
}

func TestGalleryListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "gallery", "list")
	if err != nil {
		t.Fatalf("gallery list: %v", err)
	}
	requireContains(t, out, "Gallery is empty")
}

func TestGalleryListShowsRecordsNewestFirst(t *testing.T) {
	env := setupCLITestEnv(t)
	seedGallery(t, env,
		gallery.Record{
			URL:      "https://cdn.example/old.png",
			Endpoint: "acme/sketch",
			Prompt:   "an old drawing",
			SavedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		gallery.Record{
			URL:      "https://cdn.example/new.png",
			Endpoint: "acme/sketch",
			Prompt:   "a new drawing",
			SavedAt:  time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		},
	)

	out, _, err := runCLI(t, env, "gallery", "list")
	if err != nil {
		t.Fatalf("gallery list: %v", err)
	}
	requireContains(t, out, "https://cdn.example/new.png")
	requireContains(t, out, "https://cdn.example/old.png")
	if strings.Index(out, "new.png") > strings.Index(out, "old.png") {
		t.Fatalf("expected newest record first:\n%s", out)
	}
}

func TestGalleryRemoveByIndexAndTimestamp(t *testing.T) {
	env := setupCLITestEnv(t)
	savedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedGallery(t, env,
		gallery.Record{URL: "https://cdn.example/a.png", Endpoint: "acme/sketch", SavedAt: savedAt},
		gallery.Record{URL: "https://cdn.example/b.png", Endpoint: "acme/sketch", SavedAt: savedAt.Add(time.Hour)},
	)

	out, _, err := runCLI(t, env, "gallery", "rm", "0")
	if err != nil {
		t.Fatalf("gallery rm 0: %v", err)
	}
	requireContains(t, out, "Removed record 0")

	out, _, err = runCLI(t, env, "gallery", "rm", savedAt.Format(time.RFC3339))
	if err != nil {
		t.Fatalf("gallery rm by timestamp: %v", err)
	}
	requireContains(t, out, "Removed record saved at")

	out, _, err = runCLI(t, env, "gallery", "list")
	if err != nil {
		t.Fatalf("gallery list: %v", err)
	}
	requireContains(t, out, "Gallery is empty")
}

func TestGalleryRemoveRejectsBadArgument(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "gallery", "rm", "not-a-thing")
	if err == nil {
		t.Fatal("expected an error for a malformed argument")
	}
	requireContains(t, err.Error(), "neither an index nor an RFC 3339 timestamp")
}

func TestGalleryClearRequiresConfirmation(t *testing.T) {
	env := setupCLITestEnv(t)
	seedGallery(t, env, gallery.Record{URL: "https://cdn.example/a.png", SavedAt: time.Now().UTC()})

	_, _, err := runCLI(t, env, "gallery", "clear")
	if err == nil {
		t.Fatal("expected clear without --yes to fail")
	}
	requireContains(t, err.Error(), "--yes")

	out, _, err := runCLI(t, env, "gallery", "clear", "--yes")
	if err != nil {
		t.Fatalf("gallery clear --yes: %v", err)
	}
	requireContains(t, out, "Gallery cleared")
}

func TestGalleryDownloadFetchesImage(t *testing.T) {
	env := setupCLITestEnv(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	t.Cleanup(server.Close)

	seedGallery(t, env, gallery.Record{
		URL:      server.URL + "/out-1.png",
		Endpoint: "acme/sketch",
		FileName: "out-1.png",
		SavedAt:  time.Now().UTC(),
	})

	out, _, err := runCLI(t, env, "gallery", "download", "0")
	if err != nil {
		t.Fatalf("gallery download: %v", err)
	}
	requireContains(t, out, "Downloaded")

	entries, err := os.ReadDir(env.downloadsDir)
	if err != nil {
		t.Fatalf("read downloads dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one downloaded file, got %d", len(entries))
	}
}

func TestPromptLabelTruncates(t *testing.T) {
	if got := promptLabel("short"); got != "short" {
		t.Fatalf("short prompt altered: %q", got)
	}
	long := "a very long prompt that keeps going well past the column budget for the table"
	got := promptLabel(long)
	if len(got) != 48 || !strings.HasSuffix(got, "...") {
		t.Fatalf("long prompt not truncated: %q (len %d)", got, len(got))
	}
}
