package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/padron-media/perfilador/internal/reconcile"
)

func newReconcileCmd() *cobra.Command {
	var source string
	var targetRoot string
	var catalogPath string
	var apply bool
	var createMissing bool
	var noCatalogUpdate bool
	var noCleanup bool
	var reportPath string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Move loose media into profile folders without duplicates",
		Long: `Reconcile scans the source tree for media files, resolves each one to a
profile folder by matching folder names, and moves it there. Content already
present in the destination (by size and digest) is deleted instead of moved.
Without --apply the run is a dry-run that only reports what it would do.

In apply mode the catalog is updated from git-status deltas: existing
profiles that gained media are flagged nuevas_fotos_videos, and brand-new
folders are appended as nuevo_ingreso profile blocks.`,
		Example: `  # See what would happen
  perfilador reconcile --source ./PATRON --target ./media_profiles

  # Execute, creating folders for unknown profiles
  perfilador reconcile --source ./PATRON --target ./media_profiles \
    --apply --create-missing-targets`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if catalogPath == "" {
				catalogPath = filepath.Join(filepath.Dir(targetRoot), "catalog.json")
			}

			stats, err := reconcile.Run(reconcile.Options{
				SourceRoot:           source,
				TargetRoot:           targetRoot,
				CatalogPath:          catalogPath,
				Apply:                apply,
				CreateMissingTargets: createMissing,
				UpdateCatalog:        !noCatalogUpdate,
				CleanupEmptyDirs:     !noCleanup,
			})
			if err != nil {
				return err
			}

			fmt.Println(stats.Render())
			printExamples("Unresolved examples", stats.UnresolvedExamples)
			printExamples("Errors", stats.ErrorExamples)

			if reportPath != "" {
				if err := stats.WriteReport(reportPath); err != nil {
					return err
				}
			}

			if stats.Errors > 0 {
				return fmt.Errorf("%d errors during reconcile", stats.Errors)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Source root to scan recursively (required)")
	cmd.Flags().StringVar(&targetRoot, "target", "", "Target profile folder root (required)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Catalog JSON path (default: <target parent>/catalog.json)")
	cmd.Flags().BoolVar(&apply, "apply", false, "Execute move/delete operations instead of a dry-run")
	cmd.Flags().BoolVar(&createMissing, "create-missing-targets", false, "Create <target>/<name> when a profile-like folder has no match")
	cmd.Flags().BoolVar(&noCatalogUpdate, "no-catalog-update", false, "Do not update the catalog after an apply run")
	cmd.Flags().BoolVar(&noCleanup, "no-cleanup-empty-dirs", false, "Keep empty source directories after an apply run")
	cmd.Flags().StringVar(&reportPath, "report", "", "Also write the run statistics as YAML to this path")

	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func printExamples(title string, examples []string) {
	if len(examples) == 0 {
		return
	}
	fmt.Printf("%s (first %d):\n", title, len(examples))
	for _, item := range examples {
		fmt.Printf("  - %s\n", item)
	}
}
