package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/padron-media/perfilador/internal/extraction"
	"github.com/padron-media/perfilador/internal/gemini"
	"github.com/padron-media/perfilador/internal/ollama"
	"github.com/padron-media/perfilador/internal/openai"
	"github.com/padron-media/perfilador/internal/providers"
)

func newExtractCmd() *cobra.Command {
	var root string
	var providerName string
	var model string
	var temperature float64
	var force bool

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract structured records from card screenshots",
		Long: `Extract runs every Screenshot_*.jpg under the root through an LLM: one
vision pass transcribes the card and one text pass structures the
transcript. Each image gets a sibling .json record. Images that already
have a record are skipped unless --force is set.`,
		Example: `  # Extract with a local Ollama model
  perfilador extract --root ./PATRON --model glm-ocr

  # Re-extract everything through Gemini
  perfilador extract --root ./PATRON --provider gemini --model gemini-2.0-flash --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := newProvider(providerName)
			if err != nil {
				return err
			}
			if model == "" {
				model = defaultModel(providerName)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc := &extraction.Service{
				Provider:    provider,
				Model:       model,
				Temperature: temperature,
			}
			written, err := svc.Run(ctx, extraction.RunOptions{Root: root, Force: force})
			if err != nil {
				return err
			}
			slog.Info("extraction complete", "root", root, "written", written)
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Root of the screenshot drop tree (required)")
	cmd.Flags().StringVar(&providerName, "provider", "ollama", "LLM provider: ollama, openai, or gemini")
	cmd.Flags().StringVar(&model, "model", "", "Model name (defaults per provider)")
	cmd.Flags().Float64Var(&temperature, "temperature", 0.1, "Sampling temperature")
	cmd.Flags().BoolVar(&force, "force", false, "Reprocess images whose record already exists")

	_ = cmd.MarkFlagRequired("root")

	return cmd
}

func newProvider(name string) (providers.Provider, error) {
	switch name {
	case "ollama":
		return ollama.New(), nil
	case "openai":
		return openai.New(), nil
	case "gemini":
		return gemini.New(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}

func defaultModel(provider string) string {
	switch provider {
	case "openai":
		if model := os.Getenv("OPENAI_MODEL"); model != "" {
			return model
		}
		return "gpt-4o"
	case "gemini":
		if model := os.Getenv("GEMINI_MODEL"); model != "" {
			return model
		}
		return "gemini-2.0-flash"
	default:
		if model := os.Getenv("OLLAMA_MODEL"); model != "" {
			return model
		}
		return "glm-ocr"
	}
}
