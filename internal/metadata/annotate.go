// Package metadata augments extraction records with hints derived from
// where they sit in the drop tree. Folder names carry human curation:
// breadcrumb labels, star-emoji rankings, and a top-level layout where
// depth-one folders mean recommended profiles.
package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/padron-media/perfilador/internal/naming"
)

// Derive computes the metadata hints and profile name for a record that
// lives under the given folder chain (relative to the annotation root).
// Records directly under a single folder are recommendations; deeper records
// get one metadata entry per intermediate folder, with emoji rankings split
// into companion _emoji keys.
func Derive(folders []string) (map[string]string, string) {
	metadata := make(map[string]string)

	if len(folders) == 1 {
		metadata["Recomendacion"] = "true"
	} else {
		for _, folder := range folders[:max(len(folders)-1, 0)] {
			labelRaw := naming.StripFolderPrefix(folder)
			labelClean, emojis := naming.SeparateEmojis(labelRaw)
			key := labelClean
			if key == "" {
				key = labelRaw
			}
			metadata[key] = key
			if emojis != "" {
				metadata[key+"_emoji"] = emojis
			}
		}
	}

	profile := ""
	if len(folders) > 0 {
		base := naming.StripFolderPrefix(folders[len(folders)-1])
		clean, emoji := naming.SeparateEmojis(base)
		profile = clean
		if emoji != "" {
			metadata["profile_emoji"] = emoji
		}
	}
	return metadata, profile
}

// AnnotateFile rewrites one record file in place with metadata derived from
// its location under root.
func AnnotateFile(path, root string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read record %s: %w", path, err)
	}

	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return fmt.Errorf("parse record %s: %w", path, err)
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return fmt.Errorf("record %s outside root %s: %w", path, root, err)
	}
	folders := splitFolders(rel)

	derived, profile := Derive(folders)

	block, _ := record["metadata"].(map[string]any)
	if block == nil {
		block = make(map[string]any)
	}

	// Emoji rankings move when folders are reorganized; stale companions
	// from earlier runs must not survive.
	for key := range block {
		if strings.HasSuffix(key, "_emoji") {
			if _, still := derived[key]; !still {
				delete(block, key)
			}
		}
	}

	for key, value := range derived {
		block[key] = value
	}

	for key, value := range block {
		text, isString := value.(string)
		if !isString {
			continue
		}
		if emptyLabel(key) || emptyLabel(text) {
			delete(block, key)
		}
	}

	record["metadata"] = block
	if profile != "" {
		record["profile"] = profile
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		return fmt.Errorf("encode record %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write record %s: %w", path, err)
	}
	return nil
}

// Annotate rewrites every Screenshot_*.json under root and returns how many
// records were updated.
func Annotate(root string) (int, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if matched, _ := filepath.Match("Screenshot_*.json", d.Name()); matched {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", root, err)
	}
	sort.Strings(files)

	for _, path := range files {
		if err := AnnotateFile(path, root); err != nil {
			return 0, err
		}
		slog.Debug("annotated record", "file", path)
	}
	return len(files), nil
}

func splitFolders(rel string) []string {
	dir := filepath.Dir(rel)
	if dir == "." {
		return nil
	}
	return strings.Split(dir, string(filepath.Separator))
}

// emptyLabel reports whether a label is blank once decorative dashes and
// spaces are stripped.
func emptyLabel(text string) bool {
	return strings.TrimSpace(strings.Trim(text, "- ")) == ""
}
