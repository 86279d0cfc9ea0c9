package gitstatus

import (
	"sort"
	"strings"
	"testing"
)

func porcelain(entries ...string) []byte {
	return []byte(strings.Join(entries, "\x00") + "\x00")
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestParseNewMediaFolders(t *testing.T) {
	out := porcelain(
		"?? web/media_profiles/Ana/photo.jpg",
		"A  web/media_profiles/Kim/clip.mp4",
		" M web/media_profiles/Ana/old.jpg",        // modified, not new
		"?? web/media_profiles/Ana/Screenshot_1.jpg", // screenshots never count
		"?? web/media_profiles/Ana/notes.txt",        // not media
		"?? web/media_profiles/loose.jpg",            // directly under root
		"?? web/other/Eva/photo.jpg",                 // outside target
	)

	snap := Parse(out, "web/media_profiles")
	if got := keys(snap.AddedMediaFolders); len(got) != 2 || got[0] != "Ana" || got[1] != "Kim" {
		t.Errorf("AddedMediaFolders = %v, want [Ana Kim]", got)
	}
	if len(snap.AddedTargetDirs) != 0 {
		t.Errorf("AddedTargetDirs = %v, want empty", keys(snap.AddedTargetDirs))
	}
}

func TestParseUntrackedDirectories(t *testing.T) {
	out := porcelain("?? web/media_profiles/Nueva/")
	snap := Parse(out, "web/media_profiles")
	if got := keys(snap.AddedTargetDirs); len(got) != 1 || got[0] != "Nueva" {
		t.Errorf("AddedTargetDirs = %v, want [Nueva]", got)
	}
	if len(snap.AddedMediaFolders) != 0 {
		t.Errorf("AddedMediaFolders = %v, want empty", keys(snap.AddedMediaFolders))
	}
}

func TestParseNestedMediaCountsTopFolder(t *testing.T) {
	out := porcelain("?? web/media_profiles/Ana/extra/deep/clip.webm")
	snap := Parse(out, "web/media_profiles")
	if got := keys(snap.AddedMediaFolders); len(got) != 1 || got[0] != "Ana" {
		t.Errorf("AddedMediaFolders = %v, want [Ana]", got)
	}
}

func TestParseIgnoresShortAndEmptyEntries(t *testing.T) {
	snap := Parse([]byte("??\x00\x00x\x00"), "web/media_profiles")
	if len(snap.AddedMediaFolders) != 0 || len(snap.AddedTargetDirs) != 0 {
		t.Errorf("snapshot should be empty, got %v / %v",
			keys(snap.AddedMediaFolders), keys(snap.AddedTargetDirs))
	}
}

func TestDelta(t *testing.T) {
	before := map[string]struct{}{"Ana": {}}
	after := map[string]struct{}{"Ana": {}, "Kim": {}, "Eva": {}}
	got := Delta(before, after)
	sort.Strings(got)
	if len(got) != 2 || got[0] != "Eva" || got[1] != "Kim" {
		t.Errorf("Delta = %v, want [Eva Kim]", got)
	}
}
