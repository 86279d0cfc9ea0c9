package catalog

import (
	"fmt"
	"hash/fnv"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/padron-media/perfilador/internal/mediafile"
)

// ExpandOptions configures a catalog media expansion run.
type ExpandOptions struct {
	InputPath  string
	OutputPath string
	// MediaRoot is the directory folder references are resolved against.
	MediaRoot string
	// AdsRoot is the shared advertisement folder interleaved into every
	// profile, relative to MediaRoot.
	AdsRoot string
	// RequireMediaRoots fails profiles that list local media files without
	// declaring where they came from.
	RequireMediaRoots bool
}

// ExpandResult summarizes an expansion run.
type ExpandResult struct {
	Profiles        int
	TotalRoots      int
	RootsExpanded   int
	DiscoveredFiles int
	Changed         bool
}

// Expand rebuilds every profile's media list from its media_roots folders.
// Roots declared in media_roots win; profiles that only carry legacy media
// file entries get their roots derived from those paths. Advertisement media
// is interleaved deterministically into each profile, never first. The
// output is written only when the expansion changed something.
func Expand(opts ExpandOptions) (*ExpandResult, error) {
	doc, err := Load(opts.InputPath)
	if err != nil {
		return nil, err
	}

	adsRoot := normalizeMediaRoot(opts.AdsRoot)
	adMedia, err := expandMediaRoot(adsRoot, opts.MediaRoot)
	if err != nil {
		return nil, err
	}
	adMedia = dedupePreserveOrder(adMedia)
	adMediaSet := make(map[string]struct{}, len(adMedia))
	for _, item := range adMedia {
		adMediaSet[item] = struct{}{}
	}

	result := &ExpandResult{Profiles: len(doc.Profiles)}

	for index, raw := range doc.Profiles {
		profile, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		rawMedia := stringEntries(profile["media"])
		rawRoots := stringEntries(profile["media_roots"])
		hasDeclaredRoots := len(rawRoots) > 0

		profileID := strings.TrimSpace(stringOr(profile["profile"]))
		if profileID == "" {
			profileID = fmt.Sprintf("index_%d", index)
		}

		if opts.RequireMediaRoots && !hasDeclaredRoots && hasLocalMedia(rawMedia, adsRoot) {
			return nil, fmt.Errorf("profile %s has local media files but missing media_roots", profileID)
		}

		var collected []string
		for _, root := range rawRoots {
			if isHTTPLike(root) {
				return nil, fmt.Errorf("invalid media_roots entry (URLs are not allowed): %s", root)
			}
			collected = append(collected, normalizeMediaRoot(root))
		}

		for _, entry := range rawMedia {
			if isFolderReference(entry) {
				collected = append(collected, normalizeMediaRoot(entry))
				continue
			}
			if hasDeclaredRoots || !isLocalMediaFile(entry) || isUnderRoot(entry, adsRoot) {
				continue
			}
			if derived := path.Dir(normalizePathValue(entry)); derived != "" && derived != "." {
				collected = append(collected, derived)
			}
		}

		finalRoots := dedupePreserveOrder(collected)
		result.TotalRoots += len(finalRoots)

		var expanded []string
		for _, root := range finalRoots {
			files, err := expandMediaRoot(root, opts.MediaRoot)
			if err != nil {
				return nil, err
			}
			result.RootsExpanded++
			result.DiscoveredFiles += len(files)
			expanded = append(expanded, files...)
		}

		finalMedia := interleaveAds(profileID, dedupePreserveOrder(expanded), finalRoots, adMedia, adMediaSet, adsRoot)

		normalizedOld := make([]string, len(rawRoots))
		for i, root := range rawRoots {
			normalizedOld[i] = normalizeMediaRoot(root)
		}
		_, hadRoots := profile["media_roots"].([]any)
		_, hadMedia := profile["media"].([]any)
		if !stringsEqual(finalRoots, normalizedOld) || !stringsEqual(finalMedia, rawMedia) || !hadRoots || !hadMedia {
			result.Changed = true
		}

		profile["media_roots"] = toAnySlice(finalRoots)
		profile["media"] = toAnySlice(finalMedia)
	}

	if !result.Changed {
		if opts.OutputPath != opts.InputPath {
			data, err := os.ReadFile(opts.InputPath)
			if err != nil {
				return nil, fmt.Errorf("copy catalog: %w", err)
			}
			if err := os.WriteFile(opts.OutputPath, data, 0644); err != nil {
				return nil, fmt.Errorf("copy catalog: %w", err)
			}
		}
		return result, nil
	}

	if err := doc.Save(opts.OutputPath); err != nil {
		return nil, err
	}
	return result, nil
}

// expandMediaRoot lists the media files directly inside one folder
// reference, as posix paths prefixed with the reference itself. The folder
// must exist and stay inside the media root.
func expandMediaRoot(root, mediaRootAbs string) ([]string, error) {
	normalized := normalizeMediaRoot(root)
	folderAbs := filepath.Join(mediaRootAbs, filepath.FromSlash(normalized))

	rel, err := filepath.Rel(mediaRootAbs, folderAbs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("folder reference escapes media root: %s", root)
	}

	info, err := os.Stat(folderAbs)
	if err != nil {
		return nil, fmt.Errorf("folder not found for media root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("media root is not a directory: %s", root)
	}

	entries, err := os.ReadDir(folderAbs)
	if err != nil {
		return nil, fmt.Errorf("list media root %s: %w", root, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !mediafile.IsMediaName(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})

	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, path.Join(normalized, name))
	}
	return out, nil
}

// interleaveAds mixes the shared ad media into a profile's own media with a
// per-profile deterministic shuffle. Profiles without their own media, and
// the ad profile itself, are left untouched, and an ad never lands first.
func interleaveAds(profileID string, media, mediaRoots, adMedia []string, adMediaSet map[string]struct{}, adsRoot string) []string {
	if len(adMedia) == 0 {
		return media
	}
	for _, root := range mediaRoots {
		if root == adsRoot {
			return media
		}
	}

	own := make([]string, 0, len(media))
	for _, item := range media {
		if _, isAd := adMediaSet[item]; !isAd {
			own = append(own, item)
		}
	}
	if len(own) == 0 {
		return media
	}

	shuffledAds := deterministicShuffle(adMedia, "ads:"+profileID)
	pool := append(append([]string{}, own[1:]...), shuffledAds...)
	mixed := deterministicShuffle(pool, "mix:"+profileID)
	return dedupePreserveOrder(append([]string{own[0]}, mixed...))
}

// deterministicShuffle orders values by an FNV-1a rank derived from the seed,
// the value, and its position, so reruns produce identical output.
func deterministicShuffle(values []string, seed string) []string {
	type ranked struct {
		value string
		index int
		rank  uint32
	}
	items := make([]ranked, len(values))
	for i, value := range values {
		h := fnv.New32a()
		fmt.Fprintf(h, "%s::%s::%d", seed, value, i)
		items[i] = ranked{value: value, index: i, rank: h.Sum32()}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].rank != items[j].rank {
			return items[i].rank < items[j].rank
		}
		return items[i].index < items[j].index
	})
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.value
	}
	return out
}

func isHTTPLike(value string) bool {
	lower := strings.ToLower(value)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func normalizePathValue(value string) string {
	return strings.TrimLeft(strings.ReplaceAll(value, "\\", "/"), "/")
}

func normalizeMediaRoot(value string) string {
	return strings.TrimRight(normalizePathValue(strings.TrimSpace(value)), "/")
}

// isFolderReference reports whether a media entry names a folder rather than
// a file: no URL, no extension, or an explicit trailing slash.
func isFolderReference(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || isHTTPLike(trimmed) {
		return false
	}
	if strings.HasSuffix(trimmed, "/") {
		return true
	}
	return path.Ext(trimmed) == ""
}

func isLocalMediaFile(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || isHTTPLike(trimmed) {
		return false
	}
	return mediafile.IsMediaName(normalizePathValue(trimmed))
}

func isUnderRoot(filePath, root string) bool {
	normalized := normalizePathValue(filePath)
	return normalized == root || strings.HasPrefix(normalized, root+"/")
}

func hasLocalMedia(entries []string, adsRoot string) bool {
	for _, entry := range entries {
		if isLocalMediaFile(entry) && !isUnderRoot(entry, adsRoot) {
			return true
		}
	}
	return false
}

func stringEntries(raw any) []string {
	values, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stringOr(raw any) string {
	if s, ok := raw.(string); ok {
		return s
	}
	return ""
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func dedupePreserveOrder(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
