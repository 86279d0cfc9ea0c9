// Package reconcile moves loose media from a drop tree into per-profile
// folders without ever duplicating content. Every decision is derived from
// the file itself: its parent folder labels pick the destination and its
// content fingerprint decides between a move and a duplicate delete. The
// whole run works identically in dry-run and apply mode, only the filesystem
// writes differ.
package reconcile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"

	"github.com/padron-media/perfilador/internal/catalog"
	"github.com/padron-media/perfilador/internal/fingerprint"
	"github.com/padron-media/perfilador/internal/gitstatus"
	"github.com/padron-media/perfilador/internal/mediafile"
	"github.com/padron-media/perfilador/internal/target"
)

// Options configures a reconcile run.
type Options struct {
	SourceRoot  string
	TargetRoot  string
	CatalogPath string
	// Apply executes moves and deletes; without it the run only reports
	// what it would do.
	Apply bool
	// CreateMissingTargets infers a new profile folder from a file's leaf
	// parent when nothing in the target tree matches.
	CreateMissingTargets bool
	// UpdateCatalog folds new media into the catalog after an apply run.
	UpdateCatalog bool
	// CleanupEmptyDirs removes directories the run emptied out.
	CleanupEmptyDirs bool
	// LockPath overrides where the apply-mode lock file lives. Defaults to
	// .reconcile.lock inside the target root.
	LockPath string
}

// Run reconciles the source tree into the target tree and returns the run
// statistics. Apply runs are serialized with an advisory file lock so two
// concurrent invocations cannot race on the same destination folders.
func Run(opts Options) (*Stats, error) {
	if err := requireDir(opts.SourceRoot, "source"); err != nil {
		return nil, err
	}
	if err := requireDir(opts.TargetRoot, "target"); err != nil {
		return nil, err
	}

	if opts.Apply {
		lockPath := opts.LockPath
		if lockPath == "" {
			lockPath = filepath.Join(opts.TargetRoot, ".reconcile.lock")
		}
		lock := flock.New(lockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire reconcile lock: %w", err)
		}
		if !ok {
			return nil, errors.New("another reconcile run is already in progress")
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				slog.Warn("failed to release reconcile lock", "path", lockPath, "error", err)
			}
		}()
	}

	var repoRoot string
	preSnapshot := gitstatus.NewSnapshot()
	if opts.Apply && opts.UpdateCatalog {
		repoRoot = gitstatus.RepoRoot(opts.TargetRoot)
		if repoRoot == "" {
			slog.Warn("git repository not found from target path, skipping catalog auto-update",
				"target", opts.TargetRoot)
		} else {
			snap, err := gitstatus.Collect(repoRoot, opts.TargetRoot)
			if err != nil {
				return nil, err
			}
			preSnapshot = snap
		}
	}

	stats, err := moveMedia(opts)
	if err != nil {
		return nil, err
	}

	if opts.Apply && opts.UpdateCatalog && repoRoot != "" {
		postSnapshot, err := gitstatus.Collect(repoRoot, opts.TargetRoot)
		if err != nil {
			stats.addError(fmt.Sprintf("catalog update error: %v", err))
			return stats, nil
		}
		result, err := catalog.UpdateFromDelta(opts.CatalogPath, opts.TargetRoot, preSnapshot, postSnapshot)
		if err != nil {
			stats.addError(fmt.Sprintf("catalog update error: %v", err))
			return stats, nil
		}
		stats.CatalogProfilesUpdated = result.UpdatedProfiles
		stats.CatalogProfilesAdded = result.AddedProfiles
		stats.CatalogUpdated = result.Updated
	}

	return stats, nil
}

func moveMedia(opts Options) (*Stats, error) {
	stats := &Stats{Mode: modeLabel(opts.Apply)}

	index, err := target.BuildIndex(opts.TargetRoot)
	if err != nil {
		return nil, err
	}
	resolver := &target.Resolver{
		SourceRoot:    opts.SourceRoot,
		TargetRoot:    opts.TargetRoot,
		CreateMissing: opts.CreateMissingTargets,
		Index:         index,
	}

	cache := fingerprint.NewCache()
	indexes := make(map[string]fingerprint.Index)

	files, err := listMediaFiles(opts.SourceRoot)
	if err != nil {
		return nil, err
	}
	stats.ScannedMediaFiles = len(files)

	for _, srcFile := range files {
		if mediafile.IsScreenshotName(filepath.Base(srcFile)) {
			stats.SkippedScreenshot++
			slog.Debug("skip screenshot", "file", srcFile)
			continue
		}

		targetDir, err := resolver.ResolveOrCreate(srcFile, opts.Apply)
		if err != nil {
			return nil, err
		}
		if targetDir == "" {
			rel := srcFile
			if r, relErr := filepath.Rel(opts.SourceRoot, srcFile); relErr == nil {
				rel = r
			}
			stats.addUnresolved(rel)
			slog.Debug("unresolved", "file", rel)
			continue
		}

		fpIndex, ok := indexes[targetDir]
		if !ok {
			fpIndex, err = fingerprint.BuildIndex(targetDir, cache)
			if err != nil {
				return nil, err
			}
			indexes[targetDir] = fpIndex
		}

		srcFP, err := cache.Get(srcFile)
		if err != nil {
			stats.addError(fmt.Sprintf("%s: fingerprint error: %v", srcFile, err))
			continue
		}

		if existing, dup := fpIndex[srcFP]; dup {
			slog.Debug("duplicate", "file", srcFile, "existing", existing, "apply", opts.Apply)
			if opts.Apply {
				if err := os.Remove(srcFile); err != nil {
					stats.addError(fmt.Sprintf("%s: delete duplicate: %v", srcFile, err))
					continue
				}
			}
			stats.DuplicatesDeleted++
			continue
		}

		destination := filepath.Join(targetDir, filepath.Base(srcFile))
		renamed := false
		if _, err := os.Stat(destination); err == nil {
			destination = uniqueDestination(destination)
			renamed = true
		}

		slog.Debug("move", "from", srcFile, "to", destination, "apply", opts.Apply)
		if opts.Apply {
			if err := os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
				stats.addError(fmt.Sprintf("%s: create destination: %v", srcFile, err))
				continue
			}
			if err := moveFile(srcFile, destination); err != nil {
				stats.addError(fmt.Sprintf("%s: move: %v", srcFile, err))
				continue
			}
		}

		fpIndex[srcFP] = destination
		stats.Moved++
		if renamed {
			stats.RenamedOnMove++
		}
	}

	if opts.Apply && opts.CleanupEmptyDirs {
		removeEmptyDirs(opts.SourceRoot)
	}

	return stats, nil
}

// listMediaFiles walks the source tree and returns all media files, sorted
// so runs are deterministic.
func listMediaFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !mediafile.IsMediaName(d.Name()) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan source tree %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// uniqueDestination appends a _movedN suffix before the extension until the
// name is free.
func uniqueDestination(destination string) string {
	ext := filepath.Ext(destination)
	stem := strings.TrimSuffix(destination, ext)
	for idx := 1; ; idx++ {
		candidate := fmt.Sprintf("%s_moved%d%s", stem, idx, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// moveFile renames the file, falling back to copy-and-delete when source and
// destination live on different filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}

// removeEmptyDirs prunes empty directories under root, deepest first. The
// root itself is kept. Failures are ignored; a directory that gained a file
// mid-run simply stays.
func removeEmptyDirs(root string) {
	var dirs []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})

	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) > strings.Count(dirs[j], string(filepath.Separator))
	})

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err == nil {
			slog.Debug("removed empty directory", "dir", dir)
		}
	}
}

func requireDir(path, role string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s folder not found: %w", role, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s path is not a directory: %s", role, path)
	}
	return nil
}

func modeLabel(apply bool) string {
	if apply {
		return "apply"
	}
	return "dry-run"
}
