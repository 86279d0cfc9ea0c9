package fingerprint

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestCacheIdentifiesIdenticalContent(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "photo.jpg", "same bytes")
	b := writeFile(t, dir, "photo_copy.jpg", "same bytes")
	c := writeFile(t, dir, "other.jpg", "different bytes")

	cache := NewCache()

	fpA, err := cache.Get(a)
	if err != nil {
		t.Fatalf("Get(a): %v", err)
	}
	fpB, err := cache.Get(b)
	if err != nil {
		t.Fatalf("Get(b): %v", err)
	}
	fpC, err := cache.Get(c)
	if err != nil {
		t.Fatalf("Get(c): %v", err)
	}

	if fpA != fpB {
		t.Errorf("identical content produced different fingerprints: %v vs %v", fpA, fpB)
	}
	if fpA == fpC {
		t.Errorf("different content produced equal fingerprints: %v", fpA)
	}
	if fpA.Size != int64(len("same bytes")) {
		t.Errorf("size = %d, want %d", fpA.Size, len("same bytes"))
	}
}

func TestCacheMemoizesByPath(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.jpg", "original")

	cache := NewCache()
	first, err := cache.Get(path)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	// Rewrite the file; the cached fingerprint must survive within the run.
	if err := os.WriteFile(path, []byte("rewritten content"), 0644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	second, err := cache.Get(path)
	if err != nil {
		t.Fatalf("Get (cached): %v", err)
	}
	if first != second {
		t.Errorf("cache returned fresh fingerprint after rewrite: %v vs %v", first, second)
	}
}

func TestCacheMissingFile(t *testing.T) {
	cache := NewCache()
	if _, err := cache.Get(filepath.Join(t.TempDir(), "absent.jpg")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBuildIndex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.jpg", "alpha")
	writeFile(t, dir, "b.jpg", "alpha") // duplicate content, first name wins
	writeFile(t, dir, "c.mp4", "video")
	writeFile(t, dir, "notes.txt", "not media")

	// Nested folders are ignored: the index is non-recursive.
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, sub, "d.jpg", "nested")

	cache := NewCache()
	index, err := BuildIndex(dir, cache)
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}

	if len(index) != 2 {
		t.Fatalf("index has %d entries, want 2 (a/b collapse, c distinct)", len(index))
	}

	fpAlpha, err := cache.Get(filepath.Join(dir, "a.jpg"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if index[fpAlpha] != filepath.Join(dir, "a.jpg") {
		t.Errorf("first-seen file should own the entry, got %s", index[fpAlpha])
	}
}

func TestBuildIndexMissingDir(t *testing.T) {
	index, err := BuildIndex(filepath.Join(t.TempDir(), "nope"), NewCache())
	if err != nil {
		t.Fatalf("BuildIndex on missing dir: %v", err)
	}
	if len(index) != 0 {
		t.Errorf("expected empty index, got %d entries", len(index))
	}
}
