package records

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"
)

const recordGlob = "Screenshot_*.json"

// Loader reads extraction records from a directory tree or a dump file.
type Loader struct {
	path string
}

// NewLoader creates a loader for the given path: a directory of
// Screenshot_*.json files, a .jsonl stream, or a .parquet dump.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads every record, dispatching on what the path is.
func (l *Loader) Load() ([]Sourced, error) {
	info, err := os.Stat(l.path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", l.path, err)
	}
	if info.IsDir() {
		return l.loadTree()
	}

	switch strings.ToLower(filepath.Ext(l.path)) {
	case ".jsonl":
		return l.loadJSONL()
	case ".parquet":
		return l.loadParquet()
	default:
		return nil, fmt.Errorf("unsupported record format: %s (supported: directory, .jsonl, .parquet)", l.path)
	}
}

// loadTree walks the root for Screenshot_*.json files in sorted order. The
// stable order matters: first-seen-wins semantics downstream depend on it.
func (l *Loader) loadTree() ([]Sourced, error) {
	root, err := filepath.Abs(l.path)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(recordGlob, d.Name()); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(paths)

	slog.Debug("Discovered record files", "root", root, "count", len(paths))

	sourced := make([]Sourced, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read record %s: %w", path, err)
		}
		var record Record
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("parse record %s: %w", path, err)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		sourced = append(sourced, Sourced{Record: record, Path: path, RelPath: rel})
	}
	return sourced, nil
}

func (l *Loader) loadJSONL() ([]Sourced, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	defer file.Close()

	var sourced []Sourced
	scanner := bufio.NewScanner(file)

	// Raw responses can be long; allow large lines.
	const maxCapacity = 10 * 1024 * 1024
	scanner.Buffer(make([]byte, maxCapacity), maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record Record
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("parse line %d of %s: %w", lineNum, l.path, err)
		}
		path := record.SourcePath()
		sourced = append(sourced, Sourced{Record: record, Path: path, RelPath: path})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}

	slog.Debug("Loaded JSONL records", "path", l.path, "count", len(sourced))
	return sourced, nil
}

// parquetRecord is the flat row shape used for Parquet dumps. Schema-less
// mappings travel as JSON-encoded columns.
type parquetRecord struct {
	Image          string `parquet:"image,optional"`
	OCR            string `parquet:"ocr,optional"`
	Profile        string `parquet:"profile,optional"`
	RawResponse    string `parquet:"raw_response,optional"`
	StructuredJSON string `parquet:"structured_data_json,optional"`
	MetadataJSON   string `parquet:"metadata_json,optional"`
}

func (l *Loader) loadParquet() ([]Sourced, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", l.path, err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", l.path, err)
	}

	slog.Debug("Opened parquet dump", "path", l.path, "rows", pf.NumRows())

	reader := parquet.NewGenericReader[parquetRecord](pf)
	defer reader.Close()

	var sourced []Sourced
	rows := make([]parquetRecord, 128)
	for {
		n, err := reader.Read(rows)
		for i := range rows[:n] {
			record, convErr := rows[i].toRecord()
			if convErr != nil {
				return nil, fmt.Errorf("row %d of %s: %w", len(sourced), l.path, convErr)
			}
			path := record.SourcePath()
			sourced = append(sourced, Sourced{Record: record, Path: path, RelPath: path})
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read parquet %s: %w", l.path, err)
		}
	}
	return sourced, nil
}

func (p *parquetRecord) toRecord() (Record, error) {
	record := Record{
		Image:       p.Image,
		OCR:         p.OCR,
		Profile:     p.Profile,
		RawResponse: p.RawResponse,
	}
	if strings.TrimSpace(p.StructuredJSON) != "" {
		if err := json.Unmarshal([]byte(p.StructuredJSON), &record.StructuredData); err != nil {
			return Record{}, fmt.Errorf("parse structured_data_json: %w", err)
		}
	}
	if strings.TrimSpace(p.MetadataJSON) != "" {
		if err := json.Unmarshal([]byte(p.MetadataJSON), &record.Metadata); err != nil {
			return Record{}, fmt.Errorf("parse metadata_json: %w", err)
		}
	}
	return record, nil
}
