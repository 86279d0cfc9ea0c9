// Package mediafile centralizes the predicates that decide which files count
// as profile media and which are raw OCR screenshots to leave alone.
package mediafile

import (
	"path/filepath"
	"strings"
)

// extensions lists every media type observed across the curated folders.
var extensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
	".gif":  {},
	".bmp":  {},
	".heic": {},
	".mp4":  {},
	".mov":  {},
	".m4v":  {},
	".avi":  {},
	".mkv":  {},
	".webm": {},
}

// IsMediaName reports whether the file name has a supported media extension.
func IsMediaName(name string) bool {
	_, ok := extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// IsScreenshotName reports whether the file name follows the raw OCR
// screenshot convention (Screenshot_*.jpg / .jpeg). Screenshots are the
// extraction inputs, not profile media, and are excluded everywhere.
func IsScreenshotName(name string) bool {
	lower := strings.ToLower(name)
	if !strings.HasPrefix(lower, "screenshot_") {
		return false
	}
	ext := filepath.Ext(lower)
	return ext == ".jpg" || ext == ".jpeg"
}
