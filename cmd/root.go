package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "perfilador",
		Short: "Profile consolidation and media deduplication tool",
		Long: `Perfilador maintains a profile catalog built from screenshot drops.

It extracts structured profiles from card screenshots using LLMs, annotates
records with folder-derived metadata, consolidates per-image records into
canonical profiles, reconciles loose media into per-profile folders without
duplicating content, and keeps the published catalog in sync.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log each planned/applied operation")

	// Add subcommands
	cmd.AddCommand(newConsolidateCmd())
	cmd.AddCommand(newReconcileCmd())
	cmd.AddCommand(newAnnotateCmd())
	cmd.AddCommand(newExtractCmd())
	cmd.AddCommand(newCatalogCmd())
	cmd.AddCommand(newInspectCmd())

	return cmd
}
