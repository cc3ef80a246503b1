package uischema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFS walks the provided filesystem and parses every JSON/YAML hint
// document it finds. When fsys is nil or carries no hint files the returned
// store is empty.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{overlays: make(map[string]Overlay)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isHintFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("uischema: read %s: %w", path, err)
		}

		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}

		for rawID, raw := range doc.Endpoints {
			id := strings.TrimSpace(rawID)
			if id == "" {
				return fmt.Errorf("uischema: file %s defines an empty endpoint id", path)
			}
			if existing, exists := store.overlays[id]; exists {
				return fmt.Errorf("uischema: endpoint %q defined in both %s and %s", id, existing.Source, path)
			}

			overlay, err := normaliseOverlay(raw, id, path)
			if err != nil {
				return err
			}
			store.overlays[id] = overlay
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// LoadDir loads hint documents from a directory on disk. A missing directory
// yields an empty store so callers can point at an optional location.
func LoadDir(dir string) (*Store, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return LoadFS(nil)
	}
	if _, err := os.Stat(trimmed); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return LoadFS(nil)
		}
		return nil, fmt.Errorf("uischema: stat %s: %w", trimmed, err)
	}
	return LoadFS(os.DirFS(trimmed))
}

type documentFile struct {
	Endpoints map[string]overlayFile `json:"endpoints" yaml:"endpoints"`
}

type overlayFile struct {
	Form   FormHints             `json:"form" yaml:"form"`
	Fields map[string]FieldHints `json:"fields" yaml:"fields"`
}

func parseDocument(data []byte, source string) (documentFile, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("uischema: file %s is empty", source)
	}

	var doc documentFile
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	return documentFile{}, fmt.Errorf("uischema: parse %s: invalid JSON or YAML", source)
}

func normaliseOverlay(raw overlayFile, id, source string) (Overlay, error) {
	overlay := Overlay{
		Endpoint: id,
		Source:   source,
		Form:     raw.Form,
		Fields:   make(map[string]FieldHints, len(raw.Fields)),
	}

	for key, hints := range raw.Fields {
		normalised := NormalizeFieldPath(key)
		if normalised == "" {
			return Overlay{}, fmt.Errorf("uischema: endpoint %q (file %s) field key %q normalises to an empty path", id, source, key)
		}
		if _, exists := overlay.Fields[normalised]; exists {
			return Overlay{}, fmt.Errorf("uischema: endpoint %q (file %s) defines duplicate field path %q", id, source, normalised)
		}
		if hints.Icon != "" {
			hints.Icon = sanitizeIconMarkup(hints.Icon)
		}
		if group := strings.TrimSpace(hints.Group); group != "" {
			if group != "main" && group != "advanced" {
				return Overlay{}, fmt.Errorf("uischema: endpoint %q (file %s) field %q names unknown group %q", id, source, normalised, group)
			}
			hints.Group = group
		}
		overlay.Fields[normalised] = hints
	}
	return overlay, nil
}

func isHintFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
