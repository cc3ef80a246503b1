package viewer_test

import (
	"testing"

	"github.com/goliatone/go-easel/pkg/gallery"
	"github.com/goliatone/go-easel/pkg/queue"
	"github.com/goliatone/go-easel/pkg/viewer"
)

func galleryView(urls ...string) *viewer.View {
	records := make([]gallery.Record, len(urls))
	for i, url := range urls {
		records[i] = gallery.Record{ID: int64(i + 1), URL: url}
	}
	return viewer.NewGalleryView(records)
}

func TestViewWrapsAtBothEnds(t *testing.T) {
	view := galleryView("https://a.png", "https://b.png", "https://c.png")

	if !view.CanNavigate() {
		t.Fatal("three images should be navigable")
	}

	item, ok := view.Prev()
	if !ok || item.URL != "https://c.png" {
		t.Fatalf("prev from first should wrap to last, got %+v ok=%v", item, ok)
	}
	item, ok = view.Next()
	if !ok || item.URL != "https://a.png" {
		t.Fatalf("next from last should wrap to first, got %+v ok=%v", item, ok)
	}
	item, _ = view.Next()
	if item.URL != "https://b.png" {
		t.Fatalf("plain next should advance, got %s", item.URL)
	}
}

func TestViewSingleImageIsNotNavigable(t *testing.T) {
	view := galleryView("https://only.png")

	if view.CanNavigate() {
		t.Fatal("single image should not be navigable")
	}
	item, ok := view.Next()
	if !ok || item.URL != "https://only.png" {
		t.Fatalf("next on single image should stay put, got %+v ok=%v", item, ok)
	}
	if view.Index() != 0 {
		t.Fatalf("index should stay 0, got %d", view.Index())
	}
}

func TestViewEmpty(t *testing.T) {
	view := viewer.NewJobView(nil)
	if _, ok := view.Current(); ok {
		t.Fatal("empty view should have no current item")
	}
	if _, ok := view.Next(); ok {
		t.Fatal("empty view should not navigate")
	}
	if view.CanDelete() {
		t.Fatal("empty view should not offer delete")
	}
}

func TestViewDeleteOnlyInGallery(t *testing.T) {
	jobView := viewer.NewJobView([]queue.Image{{URL: "https://result.png"}})
	if jobView.CanDelete() {
		t.Fatal("job results should not offer delete")
	}
	if _, err := jobView.RemoveCurrent(); err == nil {
		t.Fatal("expected error removing from job view")
	}

	view := galleryView("https://a.png", "https://b.png")
	if !view.CanDelete() {
		t.Fatal("gallery view should offer delete")
	}
	removed, err := view.RemoveCurrent()
	if err != nil {
		t.Fatalf("remove current: %v", err)
	}
	if removed.URL != "https://a.png" || removed.GalleryID != 1 {
		t.Fatalf("unexpected removed item: %+v", removed)
	}
	if current, _ := view.Current(); current.URL != "https://b.png" {
		t.Fatalf("cursor should land on the next image, got %+v", current)
	}
}

func TestViewDeleteLastClampsCursor(t *testing.T) {
	view := galleryView("https://a.png", "https://b.png")
	view.Next()

	if _, err := view.RemoveCurrent(); err != nil {
		t.Fatalf("remove current: %v", err)
	}
	if view.Index() != 0 {
		t.Fatalf("cursor should clamp to remaining image, got index %d", view.Index())
	}
	if current, _ := view.Current(); current.URL != "https://a.png" {
		t.Fatalf("unexpected current after delete: %+v", current)
	}

	if _, err := view.RemoveCurrent(); err != nil {
		t.Fatalf("remove final image: %v", err)
	}
	if view.Len() != 0 {
		t.Fatalf("expected empty view, got %d items", view.Len())
	}
	if _, err := view.RemoveCurrent(); err == nil {
		t.Fatal("expected error deleting from empty view")
	}
}

func TestViewSkipsBlankURLs(t *testing.T) {
	view := viewer.NewJobView([]queue.Image{{URL: ""}, {URL: "https://kept.png", FileName: "kept.png"}})
	if view.Len() != 1 {
		t.Fatalf("expected blank URL to be skipped, got %d items", view.Len())
	}
	item, _ := view.Current()
	if item.FileName != "kept.png" {
		t.Fatalf("unexpected item: %+v", item)
	}
}
