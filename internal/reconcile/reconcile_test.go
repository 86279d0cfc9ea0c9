package reconcile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func fixture(t *testing.T) (source, targetRoot string) {
	t.Helper()
	source = t.TempDir()
	targetRoot = t.TempDir()
	if err := os.MkdirAll(filepath.Join(targetRoot, "KIMBERLY"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return source, targetRoot
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	source, targetRoot := fixture(t)
	src := filepath.Join(source, "4 - KIMBERLY", "photo.jpg")
	writeFile(t, src, "photo bytes")

	stats, err := Run(Options{SourceRoot: source, TargetRoot: targetRoot, CleanupEmptyDirs: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.Mode != "dry-run" || stats.Moved != 1 {
		t.Errorf("stats = %+v, want one planned move in dry-run", stats)
	}
	if !exists(src) {
		t.Error("dry-run must not move the source file")
	}
	if exists(filepath.Join(targetRoot, "KIMBERLY", "photo.jpg")) {
		t.Error("dry-run must not write to the target tree")
	}
}

func TestRunApplyMovesAndCleansUp(t *testing.T) {
	source, targetRoot := fixture(t)
	src := filepath.Join(source, "4 - KIMBERLY", "photo.jpg")
	writeFile(t, src, "photo bytes")

	stats, err := Run(Options{SourceRoot: source, TargetRoot: targetRoot, Apply: true, CleanupEmptyDirs: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.Moved != 1 || stats.Errors != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if exists(src) {
		t.Error("source file should be gone after apply")
	}
	if !exists(filepath.Join(targetRoot, "KIMBERLY", "photo.jpg")) {
		t.Error("file not moved into profile folder")
	}
	if exists(filepath.Join(source, "4 - KIMBERLY")) {
		t.Error("emptied source folder should be removed")
	}
}

func TestRunDeletesDuplicateContent(t *testing.T) {
	source, targetRoot := fixture(t)
	writeFile(t, filepath.Join(targetRoot, "KIMBERLY", "existing.jpg"), "same bytes")
	src := filepath.Join(source, "KIMBERLY", "incoming.jpg")
	writeFile(t, src, "same bytes")

	stats, err := Run(Options{SourceRoot: source, TargetRoot: targetRoot, Apply: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.DuplicatesDeleted != 1 || stats.Moved != 0 {
		t.Errorf("stats = %+v, want one duplicate delete", stats)
	}
	if exists(src) {
		t.Error("duplicate source file should be deleted")
	}
	if exists(filepath.Join(targetRoot, "KIMBERLY", "incoming.jpg")) {
		t.Error("duplicate must not be copied under a new name")
	}
}

func TestRunRenamesOnNameCollision(t *testing.T) {
	source, targetRoot := fixture(t)
	writeFile(t, filepath.Join(targetRoot, "KIMBERLY", "photo.jpg"), "old content")
	writeFile(t, filepath.Join(source, "KIMBERLY", "photo.jpg"), "new content")

	stats, err := Run(Options{SourceRoot: source, TargetRoot: targetRoot, Apply: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.Moved != 1 || stats.RenamedOnMove != 1 {
		t.Errorf("stats = %+v, want one renamed move", stats)
	}
	moved := filepath.Join(targetRoot, "KIMBERLY", "photo_moved1.jpg")
	if !exists(moved) {
		t.Errorf("expected %s", moved)
	}
	data, _ := os.ReadFile(filepath.Join(targetRoot, "KIMBERLY", "photo.jpg"))
	if string(data) != "old content" {
		t.Error("existing file must never be overwritten")
	}
}

func TestRunSkipsScreenshotsAndCountsUnresolved(t *testing.T) {
	source, targetRoot := fixture(t)
	writeFile(t, filepath.Join(source, "KIMBERLY", "Screenshot_1.jpg"), "shot")
	writeFile(t, filepath.Join(source, "UNKNOWN GIRL", "photo.jpg"), "photo")

	stats, err := Run(Options{SourceRoot: source, TargetRoot: targetRoot})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.ScannedMediaFiles != 2 || stats.SkippedScreenshot != 1 || stats.Unresolved != 1 {
		t.Errorf("stats = %+v", stats)
	}
	want := filepath.Join("UNKNOWN GIRL", "photo.jpg")
	if len(stats.UnresolvedExamples) != 1 || stats.UnresolvedExamples[0] != want {
		t.Errorf("unresolved examples = %v, want [%s]", stats.UnresolvedExamples, want)
	}
}

func TestRunCreateMissingTargets(t *testing.T) {
	source, targetRoot := fixture(t)
	writeFile(t, filepath.Join(source, "NUEVA CHICA", "photo.jpg"), "photo")

	stats, err := Run(Options{
		SourceRoot:           source,
		TargetRoot:           targetRoot,
		Apply:                true,
		CreateMissingTargets: true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.Moved != 1 || stats.Unresolved != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if !exists(filepath.Join(targetRoot, "NUEVA_CHICA", "photo.jpg")) {
		t.Error("file not moved into inferred profile folder")
	}
}

func TestRunApplyRefusesSecondLockHolder(t *testing.T) {
	source, targetRoot := fixture(t)
	lockPath := filepath.Join(t.TempDir(), "reconcile.lock")

	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("pre-acquire lock: ok=%v err=%v", ok, err)
	}
	defer lock.Unlock()

	if _, err := Run(Options{SourceRoot: source, TargetRoot: targetRoot, Apply: true, LockPath: lockPath}); err == nil {
		t.Error("expected error while lock is held")
	}
}

func TestRunMissingSourceFails(t *testing.T) {
	_, targetRoot := fixture(t)
	if _, err := Run(Options{SourceRoot: filepath.Join(targetRoot, "nope"), TargetRoot: targetRoot}); err == nil {
		t.Error("expected error for missing source root")
	}
}

func TestStatsExampleBoundAndReport(t *testing.T) {
	stats := &Stats{Mode: "dry-run"}
	for i := 0; i < maxExamples+5; i++ {
		stats.addUnresolved("file.jpg")
	}
	if stats.Unresolved != maxExamples+5 {
		t.Errorf("unresolved = %d", stats.Unresolved)
	}
	if len(stats.UnresolvedExamples) != maxExamples {
		t.Errorf("examples = %d, want capped at %d", len(stats.UnresolvedExamples), maxExamples)
	}

	path := filepath.Join(t.TempDir(), "report.yaml")
	if err := stats.WriteReport(path); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded Stats
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("parse report: %v", err)
	}
	if decoded.Unresolved != stats.Unresolved || decoded.Mode != "dry-run" {
		t.Errorf("decoded = %+v", decoded)
	}

	if out := stats.Render(); !strings.Contains(out, "unresolved") {
		t.Errorf("table output missing metric rows:\n%s", out)
	}
}
