package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/padron-media/perfilador/internal/naming"
	"github.com/padron-media/perfilador/internal/providers"
	"github.com/padron-media/perfilador/internal/records"
)

// Service runs the two-step extraction: a vision pass transcribes the card,
// a text pass structures the transcript. Both go through the same provider.
type Service struct {
	Provider    providers.Provider
	Model       string
	Temperature float64
}

// ocrPrompt asks for a faithful transcription and nothing else.
const ocrPrompt = `You are performing OCR on a profile card screenshot.

Extract ALL visible text exactly as it appears, preserving line breaks,
capitalization, punctuation, and the order of text elements. Transcribe
every piece of visible text; use [?] for illegible portions.

Provide ONLY the extracted text. Do not include phrases like "Here is the
text:" and do not add commentary.`

// ExtractRecord produces one structured record for a card image.
func (s *Service) ExtractRecord(ctx context.Context, imagePath string, hints *Hints) (*records.Record, error) {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", imagePath, err)
	}

	raw, err := s.Provider.ExtractText(ctx, providers.Config{
		Model:       s.Model,
		Temperature: s.Temperature,
		Prompt:      ocrPrompt,
		Images:      [][]byte{imageData},
	})
	if err != nil {
		return nil, fmt.Errorf("transcribe %s: %w", imagePath, err)
	}
	raw = strings.TrimSpace(raw)
	parsed := StructureText(raw)

	structured := s.structureTranscript(ctx, raw, parsed, imagePath, hints)

	return &records.Record{
		Image:          imagePath,
		Task:           "text",
		RawResponse:    raw,
		StructuredData: structured,
	}, nil
}

// structureTranscript asks the model for the structured profile and falls
// back to heuristics when the response is unusable.
func (s *Service) structureTranscript(ctx context.Context, raw string, parsed Structured, imagePath string, hints *Hints) map[string]any {
	prompt := BuildPrompt(hints) + "\n\nRAW TEXT:\n" + raw

	response, err := s.Provider.ExtractText(ctx, providers.Config{
		Model:       s.Model,
		Temperature: s.Temperature,
		Prompt:      prompt,
	})
	if err != nil {
		slog.Warn("structuring request failed, using heuristic fallback",
			"image", imagePath, "error", err)
		return BaselineProfile(raw, parsed, imagePath)
	}

	structured, ok := ParseStructured(response)
	if !ok {
		slog.Warn("model response is not valid JSON, using heuristic fallback",
			"image", imagePath)
		return BaselineProfile(raw, parsed, imagePath)
	}
	return EnsureDefaults(structured, raw, imagePath)
}

// RunOptions configures a tree extraction run.
type RunOptions struct {
	Root string
	// Force reprocesses images whose record file already exists.
	Force bool
}

// Run extracts a record for every Screenshot_*.jpg/.jpeg under the root,
// writing a sibling .json file per image. Returns how many records were
// written.
func (s *Service) Run(ctx context.Context, opts RunOptions) (int, error) {
	var images []string
	err := filepath.WalkDir(opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		if strings.HasPrefix(name, "screenshot_") &&
			(strings.HasSuffix(name, ".jpg") || strings.HasSuffix(name, ".jpeg")) {
			images = append(images, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", opts.Root, err)
	}
	sort.Strings(images)

	written := 0
	for _, imagePath := range images {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		recordPath := strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + ".json"
		if !opts.Force {
			if _, err := os.Stat(recordPath); err == nil {
				slog.Debug("record exists, skipping", "image", imagePath)
				continue
			}
		}

		record, err := s.ExtractRecord(ctx, imagePath, hintsFor(imagePath, opts.Root))
		if err != nil {
			return written, err
		}
		if err := writeRecord(record, recordPath); err != nil {
			return written, err
		}
		slog.Info("extracted record", "image", imagePath, "record", recordPath)
		written++
	}
	return written, nil
}

// hintsFor derives prompt hints from an image's folder chain: the leaf
// folder names the profile, the folder above it usually names a location or
// category.
func hintsFor(imagePath, root string) *Hints {
	rel, err := filepath.Rel(root, imagePath)
	if err != nil {
		return nil
	}
	dir := filepath.Dir(rel)
	if dir == "." {
		return nil
	}
	folders := strings.Split(dir, string(filepath.Separator))

	hints := &Hints{}
	leaf, _ := naming.SeparateEmojis(naming.StripFolderPrefix(folders[len(folders)-1]))
	hints.Name = leaf
	if len(folders) > 1 {
		parent, _ := naming.SeparateEmojis(naming.StripFolderPrefix(folders[len(folders)-2]))
		hints.Category = parent
	}
	if len(folders) > 2 {
		top, _ := naming.SeparateEmojis(naming.StripFolderPrefix(folders[0]))
		hints.Location = top
	}
	return hints
}

func writeRecord(record *records.Record, path string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write record %s: %w", path, err)
	}
	return nil
}
