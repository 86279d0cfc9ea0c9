package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/padron-media/perfilador/internal/metadata"
)

func newAnnotateCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Augment extraction records with folder-derived metadata",
		Long: `Annotate rewrites every Screenshot_*.json under the root with metadata
derived from its folder chain: breadcrumb labels for intermediate folders,
emoji rankings split into companion _emoji keys, and a Recomendacion flag
for records directly under a single top-level folder.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := metadata.Annotate(root)
			if err != nil {
				return err
			}
			if count == 0 {
				return fmt.Errorf("no Screenshot_*.json files found under %s", root)
			}
			slog.Info("annotated records", "root", root, "count", count)
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Root of the screenshot drop tree (required)")
	_ = cmd.MarkFlagRequired("root")

	return cmd
}
