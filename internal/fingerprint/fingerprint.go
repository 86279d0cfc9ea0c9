// Package fingerprint identifies file content independently of name or
// location. A fingerprint pairs byte size (cheap pre-check) with a SHA-1
// digest of the full content; two files with equal fingerprints are treated
// as identical, and a digest collision between differing contents is accepted
// as improbable rather than specially handled.
package fingerprint

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/padron-media/perfilador/internal/mediafile"
)

const chunkSize = 1024 * 1024

// Fingerprint is a comparable content identity.
type Fingerprint struct {
	Size   int64
	Digest string
}

// Cache memoizes fingerprints per file path for the duration of one run, so
// repeated scans of the same destination folder never re-hash a file. It is
// not safe for concurrent use; the reconciliation driver is single-threaded.
type Cache struct {
	entries map[string]Fingerprint
}

// NewCache returns an empty fingerprint cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Fingerprint)}
}

// Get returns the fingerprint for path, computing and caching it on first
// use. The file is streamed in fixed-size chunks.
func (c *Cache) Get(path string) (Fingerprint, error) {
	if fp, ok := c.entries[path]; ok {
		return fp, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("stat %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	hasher := sha1.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(hasher, f, buf); err != nil {
		return Fingerprint{}, fmt.Errorf("hash %s: %w", path, err)
	}

	fp := Fingerprint{
		Size:   info.Size(),
		Digest: hex.EncodeToString(hasher.Sum(nil)),
	}
	c.entries[path] = fp
	return fp, nil
}

// Index maps content fingerprints to the first file observed carrying them.
type Index map[Fingerprint]string

// BuildIndex fingerprints every media file directly inside dir
// (non-recursive) and returns the resulting index. A missing or non-directory
// dir yields an empty index, matching a destination folder that does not
// exist yet. The first file seen for a fingerprint wins its entry.
func BuildIndex(dir string, cache *Cache) (Index, error) {
	index := make(Index)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return index, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !mediafile.IsMediaName(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		fp, err := cache.Get(path)
		if err != nil {
			return nil, err
		}
		if _, exists := index[fp]; !exists {
			index[fp] = path
		}
	}
	return index, nil
}
