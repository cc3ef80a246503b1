package gallery_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-easel/pkg/gallery"
)

func newService(t *testing.T) *gallery.Service {
	t.Helper()
	store, err := gallery.Open(filepath.Join(t.TempDir(), "gallery.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	service, err := gallery.NewService(store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func TestServiceSaveDeduplicatesByURL(t *testing.T) {
	service := newService(t)
	ctx := context.Background()
	const url = "https://cdn.example/result.png"

	_, saved, err := service.Save(ctx, gallery.Record{URL: url}, false)
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	if !saved {
		t.Fatal("first save should write a record")
	}

	_, saved, err = service.Save(ctx, gallery.Record{URL: "  " + url + "  "}, false)
	if err != nil {
		t.Fatalf("duplicate save: %v", err)
	}
	if saved {
		t.Fatal("duplicate save should be a no-op")
	}

	records, err := service.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record after duplicate save, got %d", len(records))
	}

	forced, saved, err := service.Save(ctx, gallery.Record{URL: url}, true)
	if err != nil {
		t.Fatalf("forced save: %v", err)
	}
	if !saved {
		t.Fatal("forced save should write a record")
	}

	records, err = service.List(ctx)
	if err != nil {
		t.Fatalf("list after force: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records after forced save, got %d", len(records))
	}
	if records[0].ID != forced.ID {
		t.Fatalf("forced save should land first, got record %d", records[0].ID)
	}
}

func TestServiceSavePrependsNewest(t *testing.T) {
	service := newService(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, url := range []string{"https://a.png", "https://b.png", "https://c.png"} {
		rec := gallery.Record{URL: url, SavedAt: base.Add(time.Duration(i) * time.Second)}
		if _, _, err := service.Save(ctx, rec, false); err != nil {
			t.Fatalf("save %s: %v", url, err)
		}
	}

	records, err := service.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := make([]string, len(records))
	for i, rec := range records {
		got[i] = rec.URL
	}
	want := []string{"https://c.png", "https://b.png", "https://a.png"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: expected %s, got %s (full order %v)", i, want[i], got[i], got)
		}
	}
}

func TestServiceBulkDeletePreservesRemainderOrder(t *testing.T) {
	service := newService(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	urls := []string{"https://1.png", "https://2.png", "https://3.png", "https://4.png", "https://5.png"}
	for i, url := range urls {
		rec := gallery.Record{URL: url, SavedAt: base.Add(time.Duration(i) * time.Second)}
		if _, _, err := service.Save(ctx, rec, false); err != nil {
			t.Fatalf("save %s: %v", url, err)
		}
	}

	before, err := service.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// Remove the 2nd and 4th records in display order.
	deleted, err := service.BulkDelete(ctx, []int64{before[1].ID, before[3].ID})
	if err != nil {
		t.Fatalf("bulk delete: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deletions, got %d", deleted)
	}

	after, err := service.List(ctx)
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	want := []string{before[0].URL, before[2].URL, before[4].URL}
	if len(after) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(after))
	}
	for i := range want {
		if after[i].URL != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], after[i].URL)
		}
	}
}

func TestServiceDeleteByIndex(t *testing.T) {
	service := newService(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, url := range []string{"https://old.png", "https://new.png"} {
		rec := gallery.Record{URL: url, SavedAt: base.Add(time.Duration(i) * time.Second)}
		if _, _, err := service.Save(ctx, rec, false); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	if err := service.Delete(ctx, 0); err != nil {
		t.Fatalf("delete newest: %v", err)
	}
	records, err := service.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].URL != "https://old.png" {
		t.Fatalf("expected only the older record to remain, got %+v", records)
	}

	if err := service.Delete(ctx, 5); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestServiceDeleteAt(t *testing.T) {
	service := newService(t)
	ctx := context.Background()

	stamp := time.Date(2026, 3, 2, 8, 0, 0, 42, time.UTC)
	if _, _, err := service.Save(ctx, gallery.Record{URL: "https://t.png", SavedAt: stamp}, false); err != nil {
		t.Fatalf("save: %v", err)
	}

	records, err := service.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := service.DeleteAt(ctx, records[0].SavedAt); err != nil {
		t.Fatalf("delete at: %v", err)
	}
	if err := service.DeleteAt(ctx, stamp.Add(time.Hour)); err == nil {
		t.Fatal("expected error for unknown timestamp")
	}
}

func TestServiceNotifiesObserversAfterEachMutation(t *testing.T) {
	service := newService(t)
	ctx := context.Background()

	var calls int
	var lastLen int
	unsubscribe := service.Subscribe(func(records []gallery.Record) {
		calls++
		lastLen = len(records)
	})

	if _, _, err := service.Save(ctx, gallery.Record{URL: "https://one.png"}, false); err != nil {
		t.Fatalf("save: %v", err)
	}
	if calls != 1 || lastLen != 1 {
		t.Fatalf("expected 1 notification with 1 record, got calls=%d len=%d", calls, lastLen)
	}

	// Duplicate saves do not mutate, so no notification.
	if _, _, err := service.Save(ctx, gallery.Record{URL: "https://one.png"}, false); err != nil {
		t.Fatalf("duplicate save: %v", err)
	}
	if calls != 1 {
		t.Fatalf("duplicate save should not notify, got %d calls", calls)
	}

	if err := service.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if calls != 2 || lastLen != 0 {
		t.Fatalf("expected clear notification with empty list, got calls=%d len=%d", calls, lastLen)
	}

	unsubscribe()
	if _, _, err := service.Save(ctx, gallery.Record{URL: "https://two.png"}, false); err != nil {
		t.Fatalf("save after unsubscribe: %v", err)
	}
	if calls != 2 {
		t.Fatalf("unsubscribed observer should not fire, got %d calls", calls)
	}
}
