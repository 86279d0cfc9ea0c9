// Package records defines the per-image extraction record produced by the
// OCR/LLM stage and the loaders that read batches of them back, either as
// Screenshot_*.json files scattered through a source tree or as JSONL/Parquet
// dumps exported from earlier runs.
package records

import "strings"

// Record is one extraction observation for one source image. Records are
// immutable once read; consolidation builds new structures instead of
// mutating them.
type Record struct {
	OCR            string         `json:"ocr,omitempty"`
	Image          string         `json:"image,omitempty"`
	Task           string         `json:"task,omitempty"`
	Profile        string         `json:"profile,omitempty"`
	RawResponse    string         `json:"raw_response"`
	StructuredData map[string]any `json:"structured_data,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// SourcePath returns the image path the record was extracted from, preferring
// the image field over the legacy ocr field.
func (r *Record) SourcePath() string {
	if strings.TrimSpace(r.Image) != "" {
		return r.Image
	}
	return r.OCR
}

// MetadataString returns the named metadata value when it is a non-empty
// string.
func (r *Record) MetadataString(key string) string {
	if r.Metadata == nil {
		return ""
	}
	if s, ok := r.Metadata[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// StructuredString returns the named structured_data value when it is a
// non-empty string.
func (r *Record) StructuredString(key string) string {
	if r.StructuredData == nil {
		return ""
	}
	if s, ok := r.StructuredData[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// Sourced pairs a record with where it was read from. Path is absolute,
// RelPath is relative to the batch root (or equal to Path for JSONL/Parquet
// rows that carry no root).
type Sourced struct {
	Record  Record
	Path    string
	RelPath string
}
