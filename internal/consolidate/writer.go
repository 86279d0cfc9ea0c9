package consolidate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/padron-media/perfilador/internal/merge"
	"github.com/padron-media/perfilador/internal/naming"
)

// marshalIndented renders v as 2-space-indented JSON without HTML escaping,
// ending in a newline.
func marshalIndented(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDocument writes the consolidated document to outputPath, creating
// parent directories as needed.
func WriteDocument(doc *Document, outputPath string) error {
	data, err := marshalIndented(doc)
	if err != nil {
		return fmt.Errorf("encode consolidated document: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outputPath, err)
	}
	return nil
}

// WritePerProfile writes one JSON file per profile into dir. File stems are
// slugified display names; clashes get a numeric suffix in encounter order.
func WritePerProfile(doc *Document, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create per-profile directory: %w", err)
	}

	usedNames := make(map[string]int)
	for i := range doc.Profiles {
		profile := &doc.Profiles[i]
		display := profile.Profile
		if display == "" {
			display = fmt.Sprintf("profile_%d", i+1)
		}
		base := naming.Slugify(display)
		counter := usedNames[base]
		usedNames[base] = counter + 1
		filename := base
		if counter > 0 {
			filename = fmt.Sprintf("%s_%d", base, counter+1)
		}

		data, err := marshalIndented(profile)
		if err != nil {
			return fmt.Errorf("encode profile %s: %w", display, err)
		}
		target := filepath.Join(dir, filename+".json")
		if err := os.WriteFile(target, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", target, err)
		}
	}
	return nil
}

// parquetProfile is the flat row shape for Parquet exports of consolidated
// profiles. Merged mappings travel as JSON-encoded columns.
type parquetProfile struct {
	Key             string `parquet:"key"`
	Profile         string `parquet:"profile"`
	OccurrenceCount int32  `parquet:"occurrence_count"`
	MediaCount      int32  `parquet:"media_count"`
	ConflictCount   int32  `parquet:"conflict_count"`
	MergedMetadata  string `parquet:"merged_metadata_json,optional"`
	MergedStructure string `parquet:"merged_structured_data_json,optional"`
}

// ExportParquet writes a flat Parquet summary of the consolidated profiles,
// one row per canonical key.
func ExportParquet(doc *Document, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[parquetProfile](file)
	rows := make([]parquetProfile, 0, len(doc.Profiles))
	for i := range doc.Profiles {
		p := &doc.Profiles[i]
		row := parquetProfile{
			Key:             keyOf(p),
			Profile:         p.Profile,
			OccurrenceCount: int32(p.OccurrenceCount),
			MediaCount:      int32(len(p.Media)),
			ConflictCount:   int32(len(p.Conflicts)),
		}
		if p.MergedMetadata != nil {
			row.MergedMetadata = merge.CanonicalJSON(p.MergedMetadata)
		}
		if p.MergedStructuredData != nil {
			row.MergedStructure = merge.CanonicalJSON(p.MergedStructuredData)
		}
		rows = append(rows, row)
	}
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return file.Close()
}

// keyOf recomputes the canonical key the same way ResolveKey does; the
// document is sorted by key but does not carry it.
func keyOf(p *Profile) string {
	return strings.ToLower(p.Profile)
}
