package viewer

import (
	"fmt"

	"github.com/goliatone/go-easel/pkg/gallery"
	"github.com/goliatone/go-easel/pkg/queue"
)

// Source identifies which list a view was opened from.
type Source string

const (
	// SourceJob views the images of the most recent completed job.
	SourceJob Source = "job"
	// SourceGallery views the persisted gallery.
	SourceGallery Source = "gallery"
)

// Item is one viewable image. GalleryID is set only for gallery items.
type Item struct {
	URL       string
	FileName  string
	GalleryID int64
}

// View tracks a current position in an ordered image list.
type View struct {
	source Source
	items  []Item
	index  int
}

// NewJobView builds a view over a job's result images.
func NewJobView(images []queue.Image) *View {
	items := make([]Item, 0, len(images))
	for _, img := range images {
		if img.URL == "" {
			continue
		}
		items = append(items, Item{URL: img.URL, FileName: img.FileName})
	}
	return &View{source: SourceJob, items: items}
}

// NewGalleryView builds a view over the saved gallery, newest first.
func NewGalleryView(records []gallery.Record) *View {
	items := make([]Item, 0, len(records))
	for _, rec := range records {
		if rec.URL == "" {
			continue
		}
		items = append(items, Item{URL: rec.URL, FileName: rec.FileName, GalleryID: rec.ID})
	}
	return &View{source: SourceGallery, items: items}
}

// Source reports which list the view was opened from.
func (v *View) Source() Source { return v.source }

// Len returns the number of viewable images.
func (v *View) Len() int { return len(v.items) }

// Index returns the current position, zero-based.
func (v *View) Index() int { return v.index }

// Current returns the image under the cursor.
func (v *View) Current() (Item, bool) {
	if len(v.items) == 0 {
		return Item{}, false
	}
	return v.items[v.index], true
}

// CanNavigate reports whether previous/next movement is available. A view
// holding a single image has nowhere to go.
func (v *View) CanNavigate() bool { return len(v.items) > 1 }

// Next advances the cursor, wrapping from the last image to the first.
// With a single image it stays put.
func (v *View) Next() (Item, bool) {
	if len(v.items) == 0 {
		return Item{}, false
	}
	if len(v.items) > 1 {
		v.index = (v.index + 1) % len(v.items)
	}
	return v.items[v.index], true
}

// Prev moves the cursor back, wrapping from the first image to the last.
// With a single image it stays put.
func (v *View) Prev() (Item, bool) {
	if len(v.items) == 0 {
		return Item{}, false
	}
	if len(v.items) > 1 {
		v.index = (v.index - 1 + len(v.items)) % len(v.items)
	}
	return v.items[v.index], true
}

// CanDelete reports whether delete-current is available. Only gallery
// views support deletion; job results disappear on their own.
func (v *View) CanDelete() bool {
	return v.source == SourceGallery && len(v.items) > 0
}

// RemoveCurrent drops the image under the cursor from the view and
// returns it so the caller can delete the backing record. The cursor
// stays in place, clamped to the new end of the list.
func (v *View) RemoveCurrent() (Item, error) {
	if v.source != SourceGallery {
		return Item{}, fmt.Errorf("viewer: delete is only available in the gallery")
	}
	if len(v.items) == 0 {
		return Item{}, fmt.Errorf("viewer: nothing to delete")
	}
	removed := v.items[v.index]
	v.items = append(v.items[:v.index], v.items[v.index+1:]...)
	if v.index >= len(v.items) && v.index > 0 {
		v.index = len(v.items) - 1
	}
	return removed, nil
}
