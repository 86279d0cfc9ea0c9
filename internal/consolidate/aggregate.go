package consolidate

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/padron-media/perfilador/internal/mediafile"
	"github.com/padron-media/perfilador/internal/merge"
	"github.com/padron-media/perfilador/internal/records"
)

// bucket is the mutable accumulation state behind a Profile.
type bucket struct {
	display      string
	sources      []SourceEntry
	rawResponses []string
	mergedMeta   map[string]any
	mergedStruct map[string]any
	conflicts    []merge.Conflict
	media        []string
	mediaSeen    map[string]struct{}
	rawSeen      map[string]struct{}
}

// Aggregator folds sourced records into profile buckets.
type Aggregator struct {
	root string
}

// NewAggregator creates an aggregator for records discovered under root.
// Media paths in the output are relative to it.
func NewAggregator(root string) *Aggregator {
	return &Aggregator{root: root}
}

// Aggregate processes records in input order and returns the consolidated
// document. Order is semantic: the first record seen for a key supplies the
// display name and the first raw-text variant, and earlier records win every
// scalar field dispute.
func (a *Aggregator) Aggregate(sourced []records.Sourced) (*Document, error) {
	buckets := make(map[string]*bucket)
	var keys []string

	for i := range sourced {
		entry := &sourced[i]
		key, display := ResolveKey(&entry.Record, entry.Path)

		b, ok := buckets[key]
		if !ok {
			b = &bucket{
				display:      display,
				mergedMeta:   make(map[string]any),
				mergedStruct: make(map[string]any),
				mediaSeen:    make(map[string]struct{}),
				rawSeen:      make(map[string]struct{}),
			}
			buckets[key] = b
			keys = append(keys, key)
		} else if b.display == "" && display != "" {
			b.display = display
		}

		imagePath := entry.Record.SourcePath()
		exclude := make(map[string]struct{})
		if imagePath != "" {
			exclude[absOrSelf(imagePath)] = struct{}{}
		}

		media, err := a.listMedia(filepath.Dir(entry.Path), exclude)
		if err != nil {
			return nil, err
		}

		source := SourceEntry{
			Path:        entry.RelPath,
			Folders:     parentFolders(entry.RelPath),
			OCR:         imagePath,
			Media:       media,
			RawResponse: entry.Record.RawResponse,
		}
		b.sources = append(b.sources, source)

		for _, item := range media {
			if _, seen := b.mediaSeen[item]; seen {
				continue
			}
			b.media = append(b.media, item)
			b.mediaSeen[item] = struct{}{}
		}

		if raw := entry.Record.RawResponse; raw != "" {
			if _, seen := b.rawSeen[raw]; !seen {
				b.rawResponses = append(b.rawResponses, raw)
				b.rawSeen[raw] = struct{}{}
			}
		}

		if entry.Record.Metadata != nil {
			merge.Maps(b.mergedMeta, entry.Record.Metadata, &b.conflicts, []string{"metadata"}, entry.RelPath)
		}
		if entry.Record.StructuredData != nil {
			merge.Maps(b.mergedStruct, entry.Record.StructuredData, &b.conflicts, []string{"structured_data"}, entry.RelPath)
		}
	}

	sort.Strings(keys)

	profiles := make([]Profile, 0, len(keys))
	for _, key := range keys {
		profiles = append(profiles, buckets[key].finalize())
	}

	return &Document{
		Summary: Summary{
			Root:           a.root,
			TotalFiles:     len(sourced),
			UniqueProfiles: len(profiles),
		},
		Profiles: profiles,
	}, nil
}

// finalize converts the accumulation state into the output shape. Empty
// merged mappings and conflict lists become nil so they serialize as null,
// distinguishing "no data observed" from "data intentionally empty".
func (b *bucket) finalize() Profile {
	p := Profile{
		Profile:              b.display,
		OccurrenceCount:      len(b.sources),
		Sources:              b.sources,
		RawResponses:         b.rawResponses,
		MergedMetadata:       b.mergedMeta,
		MergedStructuredData: b.mergedStruct,
		Conflicts:            b.conflicts,
		Media:                b.media,
	}
	if len(p.MergedMetadata) == 0 {
		p.MergedMetadata = nil
	}
	if len(p.MergedStructuredData) == 0 {
		p.MergedStructuredData = nil
	}
	if p.RawResponses == nil {
		p.RawResponses = []string{}
	}
	if p.Media == nil {
		p.Media = []string{}
	}
	return p
}

// listMedia collects media files under folder recursively, relative to the
// aggregator root, excluding the record's own source image. Results are
// sorted for determinism.
func (a *Aggregator) listMedia(folder string, exclude map[string]struct{}) ([]string, error) {
	media := []string{}
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d == nil {
				// Folder itself is gone; a record can outlive its images.
				return nil
			}
			return err
		}
		if d.IsDir() || !mediafile.IsMediaName(d.Name()) {
			return nil
		}
		if _, skip := exclude[absOrSelf(path)]; skip {
			return nil
		}
		rel, relErr := filepath.Rel(a.root, path)
		if relErr != nil {
			rel = path
		}
		media = append(media, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(media)
	return media, nil
}

func parentFolders(relPath string) []string {
	dir := filepath.Dir(relPath)
	if dir == "." || dir == string(filepath.Separator) {
		return []string{}
	}
	return strings.Split(dir, string(filepath.Separator))
}

func absOrSelf(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
