package settings_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-easel/internal/settings"
)

func TestStoreRoundTripsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	store := settings.NewStore(path, nil)
	if err := store.SetDebug(true); err != nil {
		t.Fatalf("set debug: %v", err)
	}
	if err := store.SetShowAdvanced(true); err != nil {
		t.Fatalf("set advanced: %v", err)
	}
	if err := store.SetLastEndpoint("fal-ai/flux/dev"); err != nil {
		t.Fatalf("set endpoint: %v", err)
	}
	values := map[string]string{
		"prompt":        "a lighthouse at dusk",
		"loras[0].path": "style.safetensors",
	}
	if err := store.SetFormValues("fal-ai/flux/dev", values); err != nil {
		t.Fatalf("set form values: %v", err)
	}

	reopened := settings.NewStore(path, nil)
	if !reopened.Debug() {
		t.Fatal("debug flag lost across reopen")
	}
	if !reopened.ShowAdvanced() {
		t.Fatal("advanced flag lost across reopen")
	}
	if got := reopened.LastEndpoint(); got != "fal-ai/flux/dev" {
		t.Fatalf("last endpoint lost, got %q", got)
	}
	got := reopened.FormValues("fal-ai/flux/dev")
	if got["prompt"] != values["prompt"] || got["loras[0].path"] != values["loras[0].path"] {
		t.Fatalf("form values lost, got %#v", got)
	}
}

func TestStoreFormValuesAreCopied(t *testing.T) {
	store := settings.NewStore(filepath.Join(t.TempDir(), "settings.json"), nil)

	original := map[string]string{"prompt": "before"}
	if err := store.SetFormValues("ep", original); err != nil {
		t.Fatalf("set: %v", err)
	}
	original["prompt"] = "after"

	if got := store.FormValues("ep"); got["prompt"] != "before" {
		t.Fatalf("store should hold a copy, got %q", got["prompt"])
	}

	loaded := store.FormValues("ep")
	loaded["prompt"] = "mutated"
	if got := store.FormValues("ep"); got["prompt"] != "before" {
		t.Fatalf("returned map should be a copy, got %q", got["prompt"])
	}
}

func TestStoreClearFormValues(t *testing.T) {
	store := settings.NewStore(filepath.Join(t.TempDir(), "settings.json"), nil)

	if err := store.SetFormValues("ep", map[string]string{"seed": "42"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.ClearFormValues("ep"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := store.FormValues("ep"); got != nil {
		t.Fatalf("expected nil after clear, got %#v", got)
	}
}

func TestStoreLastJobRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	store := settings.NewStore(path, nil)
	if store.LastJob() != nil {
		t.Fatal("fresh store should have no recorded job")
	}

	record := settings.JobRecord{
		Endpoint:    "fal-ai/flux/dev",
		RequestID:   "req-123",
		StatusURL:   "https://queue.fal.run/fal-ai/flux/requests/req-123/status",
		ResponseURL: "https://queue.fal.run/fal-ai/flux/requests/req-123",
		SubmittedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := store.SetLastJob(record); err != nil {
		t.Fatalf("set last job: %v", err)
	}

	reopened := settings.NewStore(path, nil)
	got := reopened.LastJob()
	if got == nil {
		t.Fatal("last job lost across reopen")
	}
	if got.RequestID != record.RequestID || got.StatusURL != record.StatusURL {
		t.Fatalf("last job mismatch: %#v", got)
	}
	if !got.SubmittedAt.Equal(record.SubmittedAt) {
		t.Fatalf("submitted at mismatch: %v", got.SubmittedAt)
	}

	if err := reopened.ClearLastJob(); err != nil {
		t.Fatalf("clear last job: %v", err)
	}
	if reopened.LastJob() != nil {
		t.Fatal("last job should be cleared")
	}
	if settings.NewStore(path, nil).LastJob() != nil {
		t.Fatal("clear should persist")
	}
}

func TestStoreEmptyPathIsNoop(t *testing.T) {
	store := settings.NewStore("", nil)
	if err := store.SetDebug(true); err != nil {
		t.Fatalf("set debug on no-op store: %v", err)
	}
	if store.Debug() {
		t.Fatal("no-op store should not retain state")
	}
}

func TestStoreSurvivesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	store := settings.NewStore(path, nil)
	if store.Debug() || store.ShowAdvanced() {
		t.Fatal("corrupt file should yield empty settings")
	}
	if err := store.SetDebug(true); err != nil {
		t.Fatalf("store should recover by rewriting: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read rewritten file: %v", err)
	}
	if !strings.Contains(string(data), `"debug": true`) {
		t.Fatalf("rewritten file missing flag: %s", data)
	}
}

func TestStoreWritesNoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	store := settings.NewStore(filepath.Join(dir, "settings.json"), nil)
	if err := store.SetShowAdvanced(true); err != nil {
		t.Fatalf("set: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "settings.json" {
		names := make([]string, len(entries))
		for i, entry := range entries {
			names[i] = entry.Name()
		}
		t.Fatalf("expected only settings.json, got %v", names)
	}
}
