package catalog

import (
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/padron-media/perfilador/internal/gitstatus"
)

// UpdateResult reports what a delta update changed.
type UpdateResult struct {
	UpdatedProfiles int
	AddedProfiles   int
	Updated         bool
}

// UpdateFromDelta folds the difference between two git snapshots into the
// catalog: existing profiles whose folders gained media get their
// nuevas_fotos_videos flag set, and folders unknown to the catalog are
// appended as new-arrival profile blocks. The file is rewritten only when
// something changed.
func UpdateFromDelta(catalogPath, targetRoot string, pre, post gitstatus.Snapshot) (UpdateResult, error) {
	var result UpdateResult

	deltaMedia := gitstatus.Delta(pre.AddedMediaFolders, post.AddedMediaFolders)
	deltaDirs := gitstatus.Delta(pre.AddedTargetDirs, post.AddedTargetDirs)
	if len(deltaMedia) == 0 && len(deltaDirs) == 0 {
		return result, nil
	}

	doc, err := Load(catalogPath)
	if err != nil {
		return result, err
	}

	folderToIndexes := make(map[string][]int)
	for idx, raw := range doc.Profiles {
		profile, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		for key := range FolderKeys(profile) {
			folderToIndexes[key] = append(folderToIndexes[key], idx)
		}
	}

	changed := false
	updatedIndexes := make(map[int]struct{})

	sort.Strings(deltaMedia)
	for _, folder := range deltaMedia {
		for _, idx := range folderToIndexes[folder] {
			profile, ok := doc.Profiles[idx].(map[string]any)
			if !ok {
				continue
			}

			metadata, ok := profile["metadata"].(map[string]any)
			if !ok {
				metadata = make(map[string]any)
				profile["metadata"] = metadata
			}

			if metadata["nuevas_fotos_videos"] != true {
				metadata["nuevas_fotos_videos"] = true
				changed = true
			}
			updatedIndexes[idx] = struct{}{}
		}
	}
	result.UpdatedProfiles = len(updatedIndexes)

	catalogDir := filepath.Dir(catalogPath)
	for _, folder := range newProfileCandidates(deltaMedia, deltaDirs, folderToIndexes) {
		block := NewProfileBlock(catalogDir, targetRoot, folder)
		doc.Profiles = append(doc.Profiles, block)
		folderToIndexes[folder] = append(folderToIndexes[folder], len(doc.Profiles)-1)
		result.AddedProfiles++
		changed = true
		slog.Info("catalog profile added", "folder", folder)
	}

	if !changed {
		return result, nil
	}

	if err := doc.Save(catalogPath); err != nil {
		return result, err
	}
	result.Updated = true
	return result, nil
}

// newProfileCandidates returns the folders from either delta set that no
// existing catalog entry claims, sorted.
func newProfileCandidates(deltaMedia, deltaDirs []string, known map[string][]int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, group := range [][]string{deltaMedia, deltaDirs} {
		for _, folder := range group {
			if _, dup := seen[folder]; dup {
				continue
			}
			seen[folder] = struct{}{}
			if _, claimed := known[folder]; claimed {
				continue
			}
			out = append(out, folder)
		}
	}
	sort.Strings(out)
	return out
}
