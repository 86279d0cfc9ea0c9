package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/padron-media/perfilador/internal/catalog"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Catalog maintenance tools",
		Long:  `Tools that keep the published catalog.json in sync with the media folders on disk.`,
	}

	cmd.AddCommand(newCatalogExpandCmd())

	return cmd
}

func newCatalogExpandCmd() *cobra.Command {
	var input string
	var output string
	var mediaRoot string
	var adsRoot string
	var requireMediaRoots bool

	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Rebuild per-profile media lists from their media_roots folders",
		Long: `Expand reads each profile's media_roots folder references and rebuilds its
media list from the files actually on disk, interleaving shared ad media
deterministically. Profiles without declared roots get them derived from
legacy media entries. The file is rewritten only when something changed.`,
		Example: `  perfilador catalog expand --input web/catalog.json --media-root web

  # Fail on profiles with local media but no declared roots
  perfilador catalog expand --input web/catalog.json --media-root web --require-media-roots`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = input
			}

			result, err := catalog.Expand(catalog.ExpandOptions{
				InputPath:         input,
				OutputPath:        output,
				MediaRoot:         mediaRoot,
				AdsRoot:           adsRoot,
				RequireMediaRoots: requireMediaRoots,
			})
			if err != nil {
				return err
			}

			slog.Info("catalog media expansion complete",
				"profiles", result.Profiles,
				"roots", result.TotalRoots,
				"roots_expanded", result.RootsExpanded,
				"discovered_files", result.DiscoveredFiles,
				"output", output,
				"changed", result.Changed)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "web/catalog.json", "Catalog JSON input path")
	cmd.Flags().StringVar(&output, "output", "", "Output path (default: same as --input)")
	cmd.Flags().StringVar(&mediaRoot, "media-root", "web", "Directory folder references resolve against")
	cmd.Flags().StringVar(&adsRoot, "ads-root", "media_profiles/000", "Shared advertisement folder, relative to --media-root")
	cmd.Flags().BoolVar(&requireMediaRoots, "require-media-roots", false, "Fail profiles with local media but missing media_roots")

	return cmd
}
