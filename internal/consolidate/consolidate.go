// Package consolidate groups per-image extraction records into one canonical
// profile per real-world subject. Identity is resolved deterministically from
// the record's own name fields or its folder label, and fields are merged
// with full conflict tracking — disagreements are surfaced, never silently
// overwritten.
package consolidate

import (
	"path/filepath"
	"strings"

	"github.com/padron-media/perfilador/internal/merge"
	"github.com/padron-media/perfilador/internal/naming"
	"github.com/padron-media/perfilador/internal/records"
)

// sentinel marks metadata flag values that must never be mistaken for a
// display name (the Recomendacion flag stores the literal "true").
const sentinel = "true"

// SourceEntry captures one observation folded into a profile.
type SourceEntry struct {
	Path        string   `json:"path"`
	Folders     []string `json:"folders"`
	OCR         string   `json:"ocr,omitempty"`
	Media       []string `json:"media"`
	RawResponse string   `json:"raw_response,omitempty"`
}

// Profile is the accumulated bucket for one canonical key.
type Profile struct {
	Profile              string           `json:"profile"`
	OccurrenceCount      int              `json:"occurrence_count"`
	Sources              []SourceEntry    `json:"sources"`
	RawResponses         []string         `json:"raw_responses"`
	MergedMetadata       map[string]any   `json:"merged_metadata"`
	MergedStructuredData map[string]any   `json:"merged_structured_data"`
	Conflicts            []merge.Conflict `json:"conflicts"`
	Media                []string         `json:"media"`
}

// Summary describes one consolidation run.
type Summary struct {
	Root           string `json:"root"`
	TotalFiles     int    `json:"total_files"`
	UniqueProfiles int    `json:"unique_profiles"`
}

// Document is the consolidated output: profiles sorted by canonical key.
type Document struct {
	Summary  Summary   `json:"summary"`
	Profiles []Profile `json:"profiles"`
}

// ResolveKey derives the canonical grouping key and display name for a
// record. Candidates are checked in priority order: the record's profile
// field, the structured name, the metadata profile, then the Recomendacion
// flag; the first non-empty string that is not the sentinel wins. Records
// with no usable candidate fall back to the prefix-stripped parent folder
// label, then the file's own stem.
//
// The resolver is pure: identical inputs always yield identical keys. It is
// the sole basis for grouping, so any change here reshuffles every bucket.
func ResolveKey(record *records.Record, sourcePath string) (key, display string) {
	candidates := []string{
		strings.TrimSpace(record.Profile),
		record.StructuredString("name"),
		record.MetadataString("profile"),
		record.MetadataString("Recomendacion"),
	}
	for _, candidate := range candidates {
		if candidate == "" || strings.EqualFold(candidate, sentinel) {
			continue
		}
		return strings.ToLower(candidate), candidate
	}

	folder := filepath.Base(filepath.Dir(sourcePath))
	fallback := naming.StripFolderPrefix(folder)
	if fallback == "" {
		base := filepath.Base(sourcePath)
		fallback = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return strings.ToLower(fallback), fallback
}
