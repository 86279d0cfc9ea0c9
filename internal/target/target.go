// Package target resolves which profile folder a stray media file belongs
// to. Every existing profile folder is indexed under all plausible readings
// of its name, and source files are matched against the index by their own
// parent-folder labels, deepest component first.
package target

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/padron-media/perfilador/internal/naming"
)

// Generic organizational folder tokens that must never become profile
// folders: a file under "PATRON/perfiles/loose.jpg" is unresolved, not a
// profile named "perfiles".
var excludedFallbackTokens = map[string]struct{}{
	"perfiles":  {},
	"perfil":    {},
	"cortesia":  {},
	"anuncios":  {},
	"comunidad": {},
	"provincia": {},
	"patron":    {},
}

// Index maps normalized name tokens to the profile folders registered under
// them. One token can legitimately point at several folders; the resolver
// decides what to do with the ambiguity.
type Index map[string][]string

// BuildIndex scans the immediate children of targetRoot and registers every
// directory under all of its candidate labels.
func BuildIndex(targetRoot string) (Index, error) {
	entries, err := os.ReadDir(targetRoot)
	if err != nil {
		return nil, fmt.Errorf("scan target root %s: %w", targetRoot, err)
	}

	index := make(Index)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		index.Register(filepath.Join(targetRoot, entry.Name()))
	}
	return index, nil
}

// Register adds dir to the index under every normalized reading of its base
// name. Registering the same directory twice is harmless.
func (idx Index) Register(dir string) {
	base := filepath.Base(dir)
	labels := append([]string{base}, naming.CandidateLabels(base)...)

	for _, label := range labels {
		key := naming.NormalizeToken(label)
		if key == "" {
			continue
		}
		if containsPath(idx[key], dir) {
			continue
		}
		idx[key] = append(idx[key], dir)
	}
}

func containsPath(paths []string, dir string) bool {
	for _, p := range paths {
		if p == dir {
			return true
		}
	}
	return false
}

// Resolve finds the unique profile folder for a media file by walking its
// parent path components from deepest to shallowest and looking up each
// candidate label. An ambiguous token resolves only when exactly one of the
// matched folders carries that exact normalized name; otherwise the token is
// passed over. Returns "" when nothing matches.
func (idx Index) Resolve(filePath, sourceRoot string) string {
	rel, err := filepath.Rel(sourceRoot, filepath.Dir(filePath))
	if err != nil || rel == "." {
		return ""
	}

	components := strings.Split(rel, string(filepath.Separator))
	for i := len(components) - 1; i >= 0; i-- {
		for _, label := range naming.CandidateLabels(components[i]) {
			key := naming.NormalizeToken(label)
			if key == "" {
				continue
			}
			matches := idx[key]
			if len(matches) == 1 {
				return matches[0]
			}
			if len(matches) > 1 {
				if exact := exactNameMatch(matches, key); exact != "" {
					return exact
				}
			}
		}
	}
	return ""
}

func exactNameMatch(matches []string, key string) string {
	var found string
	for _, m := range matches {
		if naming.NormalizeToken(filepath.Base(m)) != key {
			continue
		}
		if found != "" {
			return ""
		}
		found = m
	}
	return found
}

// Resolver resolves media files to profile folders, optionally creating a
// missing folder from the file's leaf parent when nothing in the index
// matches.
type Resolver struct {
	SourceRoot    string
	TargetRoot    string
	CreateMissing bool
	Index         Index
}

// ResolveOrCreate returns the destination folder for filePath, or "" when
// the file cannot be placed. A newly inferred folder is registered in the
// index immediately so sibling files resolve to it; the directory itself is
// only created on disk when apply is set.
func (r *Resolver) ResolveOrCreate(filePath string, apply bool) (string, error) {
	if dir := r.Index.Resolve(filePath, r.SourceRoot); dir != "" {
		return dir, nil
	}
	if !r.CreateMissing {
		return "", nil
	}

	rel, err := filepath.Rel(r.SourceRoot, filepath.Dir(filePath))
	if err != nil || rel == "." {
		return "", nil
	}
	components := strings.Split(rel, string(filepath.Separator))
	leaf := components[len(components)-1]

	leafKey := naming.NormalizeToken(leaf)
	if leafKey == "" || isExcludedFallbackKey(leafKey) {
		return "", nil
	}

	folderName := naming.SanitizeFolderName(leaf)
	if folderName == "" {
		return "", nil
	}

	created := filepath.Join(r.TargetRoot, folderName)
	if apply {
		if err := os.MkdirAll(created, 0755); err != nil {
			return "", fmt.Errorf("create target folder %s: %w", created, err)
		}
	}
	r.Index.Register(created)
	return created, nil
}

// isExcludedFallbackKey reports whether any underscore-delimited token of the
// normalized key names a generic organizational folder.
func isExcludedFallbackKey(key string) bool {
	for _, token := range strings.Split(key, "_") {
		if token == "" {
			continue
		}
		if _, excluded := excludedFallbackTokens[token]; excluded {
			return true
		}
	}
	return false
}
