package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/padron-media/perfilador/internal/consolidate"
	"github.com/padron-media/perfilador/internal/records"
)

func newConsolidateCmd() *cobra.Command {
	var input string
	var output string
	var perProfileDir string
	var parquetOut string

	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Group per-image records into canonical profiles",
		Long: `Consolidate reads extraction records from a folder tree, a JSONL file, or
a Parquet file, groups them by canonical profile key, merges their fields
with conflict tracking, and writes a single consolidated document.`,
		Example: `  # Consolidate a screenshot tree
  perfilador consolidate --input ./PATRON --output ./consolidated.json

  # Also write one file per profile and a Parquet summary
  perfilador consolidate --input ./records.jsonl --output ./consolidated.json \
    --per-profile-dir ./profiles --parquet ./profiles.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sourced, err := records.NewLoader(input).Load()
			if err != nil {
				return fmt.Errorf("load records: %w", err)
			}

			doc, err := consolidate.NewAggregator(input).Aggregate(sourced)
			if err != nil {
				return fmt.Errorf("consolidate records: %w", err)
			}

			if err := consolidate.WriteDocument(doc, output); err != nil {
				return err
			}
			slog.Info("wrote consolidated document",
				"output", output,
				"records", doc.Summary.TotalFiles,
				"profiles", doc.Summary.UniqueProfiles)

			if perProfileDir != "" {
				if err := consolidate.WritePerProfile(doc, perProfileDir); err != nil {
					return err
				}
				slog.Info("wrote per-profile files", "dir", perProfileDir)
			}

			if parquetOut != "" {
				if err := consolidate.ExportParquet(doc, parquetOut); err != nil {
					return err
				}
				slog.Info("wrote parquet summary", "path", parquetOut)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Records source: folder tree, .jsonl, or .parquet (required)")
	cmd.Flags().StringVar(&output, "output", "consolidated.json", "Consolidated document output path")
	cmd.Flags().StringVar(&perProfileDir, "per-profile-dir", "", "Also write one JSON file per profile into this directory")
	cmd.Flags().StringVar(&parquetOut, "parquet", "", "Also write a flat Parquet summary to this path")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}
