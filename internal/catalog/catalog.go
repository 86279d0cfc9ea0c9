// Package catalog reads and rewrites the published catalog.json document.
// The document is edited in place by tooling but also maintained by hand,
// so every operation preserves fields it does not understand and writes
// only when something actually changed.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/padron-media/perfilador/internal/mediafile"
)

// Document is a loaded catalog. Profiles are kept as raw maps so unknown
// fields survive a round trip.
type Document struct {
	raw      map[string]any
	Profiles []any
}

// Load reads and validates a catalog file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	profiles, ok := raw["profiles"].([]any)
	if !ok {
		return nil, fmt.Errorf("invalid catalog format in %s: expected { profiles: [] }", path)
	}

	return &Document{raw: raw, Profiles: profiles}, nil
}

// Save writes the document back as 2-space-indented JSON with a trailing
// newline, the same shape hand edits produce.
func (d *Document) Save(path string) error {
	d.raw["profiles"] = d.Profiles

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d.raw); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write catalog %s: %w", path, err)
	}
	return nil
}

// FolderKeys returns the target folder names a profile entry is known by:
// its profile id plus the basename of every media root.
func FolderKeys(profile map[string]any) map[string]struct{} {
	keys := make(map[string]struct{})

	if id, ok := profile["profile"].(string); ok {
		if id = strings.TrimSpace(id); id != "" {
			keys[id] = struct{}{}
		}
	}

	roots, ok := profile["media_roots"].([]any)
	if !ok {
		return keys
	}
	for _, raw := range roots {
		root, ok := raw.(string)
		if !ok {
			continue
		}
		normalized := strings.Trim(strings.TrimSpace(strings.ReplaceAll(root, "\\", "/")), "/")
		if normalized == "" {
			continue
		}
		parts := strings.Split(normalized, "/")
		keys[parts[len(parts)-1]] = struct{}{}
	}

	return keys
}

// listMediaEntries lists the catalog-relative media paths for one target
// folder, sorted case-insensitively, screenshots excluded.
func listMediaEntries(catalogDir, targetRoot, folderName string) []string {
	folderPath := filepath.Join(targetRoot, folderName)
	entries, err := os.ReadDir(folderPath)
	if err != nil {
		return []string{}
	}

	mediaRootRel, err := filepath.Rel(catalogDir, folderPath)
	if err != nil {
		mediaRootRel = folderPath
	}
	mediaRootRel = filepath.ToSlash(mediaRootRel)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !mediafile.IsMediaName(name) || mediafile.IsScreenshotName(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})

	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, mediaRootRel+"/"+name)
	}
	return out
}

// NewProfileBlock builds the catalog entry appended for a freshly created
// target folder: flagged as a new arrival, with extraction fields left for a
// later annotation pass to fill in.
func NewProfileBlock(catalogDir, targetRoot, folderName string) map[string]any {
	mediaRootRel := folderName
	if rel, err := filepath.Rel(catalogDir, filepath.Join(targetRoot, folderName)); err == nil {
		mediaRootRel = filepath.ToSlash(rel)
	}

	return map[string]any{
		"metadata": map[string]any{
			"labels":              []any{},
			"ubicacion":           nil,
			"edad_rango":          nil,
			"nuevo_ingreso":       true,
			"sin_experiencia":     false,
			"cortesia":            false,
			"nuevas_fotos_videos": false,
		},
		"profile":       folderName,
		"discreet_list": true,
		"extraction": map[string]any{
			"name":         folderName,
			"age":          nil,
			"height":       nil,
			"weight":       nil,
			"hair_color":   nil,
			"eye_color":    nil,
			"location":     nil,
			"availability": nil,
			"contact":      nil,
			"prices": map[string]any{
				"one_hour":    nil,
				"two_hours":   nil,
				"three_hours": nil,
				"overnight":   nil,
			},
			"implants":           nil,
			"uber":               nil,
			"cosmetic_surgeries": nil,
			"other_attributes":   map[string]any{},
		},
		"enabled":     true,
		"media_roots": []any{mediaRootRel},
		"media":       toAnySlice(listMediaEntries(catalogDir, targetRoot, folderName)),
	}
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
