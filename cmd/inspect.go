package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/padron-media/perfilador/internal/records"
)

// newInspectCmd creates the inspect command
func newInspectCmd() *cobra.Command {
	var input string
	var limit int
	var interactive bool
	var showResponse bool
	var showStructured bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect extraction records (useful for examining raw responses)",
		Long: `Inspect records from a screenshot tree, a jsonl file, or a parquet dump.

This command is useful for examining what the model actually returned,
which structured fields got parsed out, and which folder metadata a
record picked up.`,
		Example: `  # Inspect first 5 records interactively
  perfilador inspect --input ./records.parquet --limit 5 --interactive

  # Show only raw responses
  perfilador inspect --input ./PATRON --structured=false

  # Inspect all records (no limit)
  perfilador inspect --input ./records.jsonl --limit 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Create a context that gets canceled on an interrupt signal (Ctrl+C)
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop() // Ensure the signal handler is cleaned up

			return executeInspect(ctx, input, limit, interactive, showResponse, showStructured)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Records source: folder tree, .jsonl, or .parquet (required)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of records to inspect (0 for all)")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Pause after each record (press Enter to continue)")
	cmd.Flags().BoolVar(&showResponse, "response", true, "Show the raw model response")
	cmd.Flags().BoolVar(&showStructured, "structured", true, "Show parsed structured fields and folder metadata")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func executeInspect(ctx context.Context, input string, limit int, interactive, showResponse, showStructured bool) error {
	sourced, err := records.NewLoader(input).Load()
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}
	if limit > 0 && len(sourced) > limit {
		sourced = sourced[:limit]
	}

	fmt.Printf("Loaded %d records from %s\n", len(sourced), input)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	for i, item := range sourced {
		// Check for context cancellation (e.g., Ctrl+C) at the start of each iteration
		select {
		case <-ctx.Done():
			fmt.Println("\nInspection interrupted.")
			return nil // Return nil for a clean exit
		default:
			// Continue processing the record
		}

		record := item.Record

		fmt.Printf("RECORD %d/%d\n", i+1, len(sourced))
		fmt.Println(strings.Repeat("-", 80))
		fmt.Printf("Source:         %s\n", item.RelPath)

		if showStructured {
			fmt.Printf("Image:          %s\n", record.SourcePath())
			fmt.Printf("Task:           %s\n", record.Task)
			fmt.Printf("Profile:        %s\n", record.Profile)
			fmt.Printf("Name:           %s\n", record.StructuredString("name"))
			fmt.Printf("Age:            %s\n", record.StructuredString("age"))
			fmt.Printf("Location:       %s\n", record.StructuredString("location"))

			printSortedMap("Structured keys", record.StructuredData)
			printSortedMap("Metadata", record.Metadata)
			fmt.Println()
		}

		if showResponse {
			raw := record.RawResponse
			fmt.Printf("Raw Response Length: %d characters\n", len(raw))
			fmt.Printf("Raw Response Length: %d words (approx)\n", len(strings.Fields(raw)))
			fmt.Println()

			// Show first 500 characters with indicator if truncated
			displayText := raw
			truncated := false
			maxChars := 500
			if len(displayText) > maxChars {
				displayText = displayText[:maxChars]
				truncated = true
			}

			fmt.Println("RAW RESPONSE PREVIEW:")
			fmt.Println(strings.Repeat("-", 80))
			fmt.Println(displayText)
			if truncated {
				fmt.Printf("\n[... truncated, showing first %d of %d characters ...]\n", maxChars, len(raw))
			}
			fmt.Println(strings.Repeat("-", 80))
		}

		fmt.Println()

		if interactive {
			fmt.Print("Press Enter to continue to next record (or Ctrl+C to quit)...")

			// Channel to signal user input
			inputCh := make(chan struct{})
			// Goroutine to wait for Enter key
			go func() {
				_, _ = reader.ReadString('\n')
				close(inputCh)
			}()

			// Wait for either user input (Enter) or context cancellation (Ctrl+C)
			select {
			case <-ctx.Done():
				fmt.Println("\nInspection interrupted.")
				return nil // Clean exit
			case <-inputCh:
				// User pressed Enter
				fmt.Println()
			}
		} else {
			fmt.Println()
		}
	}

	return nil
}

// printSortedMap prints map keys in stable order so consecutive runs are
// comparable.
func printSortedMap(title string, m map[string]any) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Printf("%s:\n", title)
	for _, key := range keys {
		fmt.Printf("  %-20s %v\n", key+":", m[key])
	}
}
