// Package gallery persists generated images in a local SQLite database
// and notifies observers after every mutation so open views stay current.
//
// Records are ordered newest first. Saving a URL that is already present
// is a no-op unless the caller forces a re-save, which prepends a fresh
// record instead of moving the existing one.
package gallery
