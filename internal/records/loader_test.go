package records

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
)

func TestLoadTreeSortedOrder(t *testing.T) {
	root := t.TempDir()

	folderB := filepath.Join(root, "2 - BETA")
	folderA := filepath.Join(root, "1 - ALFA")
	for _, dir := range []string{folderA, folderB} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	writeRecord := func(dir, name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	writeRecord(folderB, "Screenshot_02.json", `{"raw_response": "beta", "profile": "Beta"}`)
	writeRecord(folderA, "Screenshot_01.json", `{"raw_response": "alfa", "profile": "Alfa"}`)
	// Non-matching files are ignored.
	writeRecord(folderA, "notes.json", `{"raw_response": "ignored"}`)

	loader := NewLoader(root)
	sourced, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(sourced) != 2 {
		t.Fatalf("loaded %d records, want 2", len(sourced))
	}
	if sourced[0].Record.Profile != "Alfa" || sourced[1].Record.Profile != "Beta" {
		t.Errorf("records out of order: %s then %s", sourced[0].Record.Profile, sourced[1].Record.Profile)
	}
	if sourced[0].RelPath != filepath.Join("1 - ALFA", "Screenshot_01.json") {
		t.Errorf("rel path = %q", sourced[0].RelPath)
	}
}

func TestLoadJSONL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.jsonl")
	body := `{"image":"/img/a.jpg","raw_response":"uno","structured_data":{"name":"Ana"}}
{"ocr":"/img/b.jpg","raw_response":"dos","metadata":{"profile":"Beta"}}
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	sourced, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sourced) != 2 {
		t.Fatalf("loaded %d records, want 2", len(sourced))
	}
	if sourced[0].Record.StructuredString("name") != "Ana" {
		t.Errorf("structured name = %q", sourced[0].Record.StructuredString("name"))
	}
	if sourced[1].Path != "/img/b.jpg" {
		t.Errorf("ocr fallback path = %q, want /img/b.jpg", sourced[1].Path)
	}
	if sourced[1].Record.MetadataString("profile") != "Beta" {
		t.Errorf("metadata profile = %q", sourced[1].Record.MetadataString("profile"))
	}
}

func TestLoadParquet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.parquet")

	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	writer := parquet.NewGenericWriter[parquetRecord](file)
	rows := []parquetRecord{
		{Image: "/img/a.jpg", RawResponse: "uno", StructuredJSON: `{"name":"Ana"}`},
		{OCR: "/img/b.jpg", RawResponse: "dos", MetadataJSON: `{"profile":"Beta"}`},
	}
	if _, err := writer.Write(rows); err != nil {
		t.Fatalf("write rows: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	sourced, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sourced) != 2 {
		t.Fatalf("loaded %d records, want 2", len(sourced))
	}
	if sourced[0].Record.StructuredString("name") != "Ana" {
		t.Errorf("structured name = %q", sourced[0].Record.StructuredString("name"))
	}
	if sourced[1].Path != "/img/b.jpg" {
		t.Errorf("ocr fallback path = %q, want /img/b.jpg", sourced[1].Path)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.txt")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewLoader(path).Load(); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestLoadMissingPath(t *testing.T) {
	if _, err := NewLoader(filepath.Join(t.TempDir(), "nope")).Load(); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestSourcePathPrefersImage(t *testing.T) {
	r := Record{Image: "/a.jpg", OCR: "/b.jpg"}
	if got := r.SourcePath(); got != "/a.jpg" {
		t.Errorf("SourcePath = %q, want /a.jpg", got)
	}
	r = Record{OCR: "/b.jpg"}
	if got := r.SourcePath(); got != "/b.jpg" {
		t.Errorf("SourcePath = %q, want /b.jpg", got)
	}
}
