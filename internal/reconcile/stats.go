package reconcile

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

// maxExamples bounds the per-category sample lists so a badly organized
// source tree cannot balloon the report.
const maxExamples = 20

// Stats summarizes one reconcile run.
type Stats struct {
	Mode                   string   `json:"mode" yaml:"mode"`
	ScannedMediaFiles      int      `json:"scanned_media_files" yaml:"scanned_media_files"`
	SkippedScreenshot      int      `json:"skipped_screenshot" yaml:"skipped_screenshot"`
	Moved                  int      `json:"moved" yaml:"moved"`
	DuplicatesDeleted      int      `json:"duplicates_deleted" yaml:"duplicates_deleted"`
	RenamedOnMove          int      `json:"renamed_on_move" yaml:"renamed_on_move"`
	Unresolved             int      `json:"unresolved" yaml:"unresolved"`
	Errors                 int      `json:"errors" yaml:"errors"`
	CatalogProfilesUpdated int      `json:"catalog_profiles_updated" yaml:"catalog_profiles_updated"`
	CatalogProfilesAdded   int      `json:"catalog_profiles_added" yaml:"catalog_profiles_added"`
	CatalogUpdated         bool     `json:"catalog_updated" yaml:"catalog_updated"`
	UnresolvedExamples     []string `json:"unresolved_examples,omitempty" yaml:"unresolved_examples,omitempty"`
	ErrorExamples          []string `json:"error_examples,omitempty" yaml:"error_examples,omitempty"`
}

func (s *Stats) addUnresolved(relPath string) {
	s.Unresolved++
	if len(s.UnresolvedExamples) < maxExamples {
		s.UnresolvedExamples = append(s.UnresolvedExamples, relPath)
	}
}

func (s *Stats) addError(message string) {
	s.Errors++
	if len(s.ErrorExamples) < maxExamples {
		s.ErrorExamples = append(s.ErrorExamples, message)
	}
}

// Render returns the run summary as a terminal table.
func (s *Stats) Render() string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"metric", "value"})
	tw.AppendRows([]table.Row{
		{"mode", s.Mode},
		{"scanned media files", s.ScannedMediaFiles},
		{"skipped screenshots", s.SkippedScreenshot},
		{"moved", s.Moved},
		{"duplicates deleted", s.DuplicatesDeleted},
		{"renamed on move", s.RenamedOnMove},
		{"unresolved", s.Unresolved},
		{"errors", s.Errors},
	})
	if s.CatalogUpdated || s.CatalogProfilesUpdated > 0 || s.CatalogProfilesAdded > 0 {
		tw.AppendRows([]table.Row{
			{"catalog profiles updated", s.CatalogProfilesUpdated},
			{"catalog profiles added", s.CatalogProfilesAdded},
			{"catalog updated", s.CatalogUpdated},
		})
	}
	return tw.Render()
}

// WriteReport writes the stats as YAML.
func (s *Stats) WriteReport(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
