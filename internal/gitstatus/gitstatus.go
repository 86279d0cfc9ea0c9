// Package gitstatus reads which media files under a target tree are new
// according to git. The catalog updater diffs two snapshots, one taken
// before and one after a reconcile run, so only the files that run actually
// introduced count as new.
package gitstatus

import (
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/padron-media/perfilador/internal/mediafile"
)

// Snapshot records, per top-level target folder, whether git sees new media
// in it or a brand-new untracked directory.
type Snapshot struct {
	AddedMediaFolders map[string]struct{}
	AddedTargetDirs   map[string]struct{}
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() Snapshot {
	return Snapshot{
		AddedMediaFolders: make(map[string]struct{}),
		AddedTargetDirs:   make(map[string]struct{}),
	}
}

// RepoRoot finds the git working-tree root that contains path, or "" when
// path is not inside a repository.
func RepoRoot(path string) string {
	out, err := exec.Command("git", "-C", path, "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// Collect runs git status over the target tree and folds the entries into a
// snapshot. Only entries that are untracked or staged as added count.
func Collect(repoRoot, targetRoot string) (Snapshot, error) {
	targetRel, err := filepath.Rel(repoRoot, targetRoot)
	if err != nil {
		return Snapshot{}, fmt.Errorf("target %s outside repository %s: %w", targetRoot, repoRoot, err)
	}
	targetRel = filepath.ToSlash(targetRel)

	out, err := exec.Command(
		"git", "-C", repoRoot,
		"status", "--porcelain", "-z", "--untracked-files=all",
		"--", targetRel,
	).Output()
	if err != nil {
		return Snapshot{}, fmt.Errorf("git status for %s: %w", targetRel, err)
	}

	return Parse(out, targetRel), nil
}

// Parse interprets NUL-delimited porcelain output, keeping entries for new
// files under targetRel. Exported separately so the porcelain handling is
// testable without a live repository.
func Parse(output []byte, targetRel string) Snapshot {
	snapshot := NewSnapshot()
	prefix := strings.TrimSuffix(targetRel, "/") + "/"

	for _, raw := range bytes.Split(output, []byte{0}) {
		entry := string(raw)
		if len(entry) < 4 {
			continue
		}

		status := entry[:2]
		if status != "??" && status[0] != 'A' && status[1] != 'A' {
			continue
		}

		path := entry[3:]
		if !strings.HasPrefix(path, prefix) {
			continue
		}

		rel := path[len(prefix):]
		parts := splitNonEmpty(rel)
		if len(parts) == 0 {
			continue
		}
		folder := parts[0]

		// Empty untracked directories show up with a trailing slash.
		if strings.HasSuffix(path, "/") {
			snapshot.AddedTargetDirs[folder] = struct{}{}
			continue
		}

		// Files directly under the target root belong to no profile.
		if len(parts) == 1 {
			continue
		}

		name := parts[len(parts)-1]
		if mediafile.IsMediaName(name) && !mediafile.IsScreenshotName(name) {
			snapshot.AddedMediaFolders[folder] = struct{}{}
		}
	}

	return snapshot
}

// Delta returns the folders present in after but not in before.
func Delta(before, after map[string]struct{}) []string {
	var out []string
	for folder := range after {
		if _, ok := before[folder]; !ok {
			out = append(out, folder)
		}
	}
	return out
}

func splitNonEmpty(path string) []string {
	var parts []string
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
