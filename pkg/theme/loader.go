package theme

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	gotheme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"
)

// LoadFS walks the provided filesystem and parses every JSON/YAML manifest
// it finds, one theme per file. When fsys is nil or holds no manifests the
// selector is nil, which callers treat as themes-disabled.
func LoadFS(fsys fs.FS, defaultTheme, defaultVariant string) (*StaticSelector, error) {
	if fsys == nil {
		return nil, nil
	}

	var manifests []*gotheme.Manifest
	seen := make(map[string]string)

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isManifestFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("theme: read %s: %w", path, err)
		}

		file, err := parseManifest(data, path)
		if err != nil {
			return err
		}
		name := strings.TrimSpace(file.Name)
		if name == "" {
			return fmt.Errorf("theme: manifest %s has no name", path)
		}
		if previous, exists := seen[name]; exists {
			return fmt.Errorf("theme: %q defined in both %s and %s", name, previous, path)
		}
		seen[name] = path
		manifests = append(manifests, file.manifest())
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(manifests) == 0 {
		return nil, nil
	}

	if defaultTheme != "" {
		if _, ok := seen[defaultTheme]; !ok {
			return nil, fmt.Errorf("theme: default theme %q has no manifest", defaultTheme)
		}
	}
	return NewStaticSelector(defaultTheme, defaultVariant, manifests...), nil
}

// LoadDir loads theme manifests from a directory on disk. A missing or
// empty directory yields a nil selector so callers can point at an
// optional location.
func LoadDir(dir, defaultTheme, defaultVariant string) (*StaticSelector, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	if _, err := os.Stat(trimmed); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("theme: stat %s: %w", trimmed, err)
	}
	return LoadFS(os.DirFS(trimmed), defaultTheme, defaultVariant)
}

type manifestFile struct {
	Name      string                 `json:"name" yaml:"name"`
	Version   string                 `json:"version" yaml:"version"`
	Tokens    map[string]string      `json:"tokens" yaml:"tokens"`
	Templates map[string]string      `json:"templates" yaml:"templates"`
	Assets    assetsFile             `json:"assets" yaml:"assets"`
	Variants  map[string]variantFile `json:"variants" yaml:"variants"`
}

type assetsFile struct {
	Prefix string            `json:"prefix" yaml:"prefix"`
	Files  map[string]string `json:"files" yaml:"files"`
}

type variantFile struct {
	Tokens    map[string]string `json:"tokens" yaml:"tokens"`
	Templates map[string]string `json:"templates" yaml:"templates"`
	Assets    assetsFile        `json:"assets" yaml:"assets"`
}

func (f manifestFile) manifest() *gotheme.Manifest {
	manifest := &gotheme.Manifest{
		Name:      strings.TrimSpace(f.Name),
		Version:   f.Version,
		Tokens:    f.Tokens,
		Templates: f.Templates,
		Assets:    f.Assets.assets(),
	}
	if len(f.Variants) > 0 {
		manifest.Variants = make(map[string]gotheme.Variant, len(f.Variants))
		for name, variant := range f.Variants {
			manifest.Variants[name] = gotheme.Variant{
				Tokens:    variant.Tokens,
				Templates: variant.Templates,
				Assets:    variant.Assets.assets(),
			}
		}
	}
	return manifest
}

func (a assetsFile) assets() gotheme.Assets {
	return gotheme.Assets{Prefix: a.Prefix, Files: a.Files}
}

func parseManifest(data []byte, source string) (manifestFile, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return manifestFile{}, fmt.Errorf("theme: manifest %s is empty", source)
	}

	var file manifestFile
	if err := json.Unmarshal(data, &file); err == nil {
		return file, nil
	}
	if err := yaml.Unmarshal(data, &file); err == nil {
		return file, nil
	}
	return manifestFile{}, fmt.Errorf("theme: parse %s: invalid JSON or YAML", source)
}

func isManifestFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
