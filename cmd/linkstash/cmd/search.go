package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	searchLimit  int
	searchFormat string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search your bookmarks",
	Long: `Search bookmarks by meaning and keywords. When the embedding
provider is down, results fall back to keyword matching.

Examples:
  # Basic search
  linkstash search "rust borrow checker"

  # Find everything from a site
  linkstash search "github.com"

  # JSON output for scripting
  linkstash search "error handling" --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum number of results")
	searchCmd.Flags().StringVar(&searchFormat, "format", "text", "Output format: text or json")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	result, err := svc.engine.Search(ctx, cfg.User.ID, args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(result.Results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	if searchFormat == "json" {
		output, err := json.MarshalIndent(result.Results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Found %d results", len(result.Results))
	if result.UsedFallback {
		fmt.Print(" (keyword fallback)")
	}
	fmt.Print(":\n\n")
	for i, rb := range result.Results {
		fmt.Printf("─── Result %d ───\n", i+1)
		if rb.Title != "" {
			fmt.Printf("Title: %s\n", rb.Title)
		}
		fmt.Printf("URL:   %s\n", rb.URL)
		fmt.Printf("ID:    %s\n", rb.ID)
		if len(rb.Tags) > 0 {
			fmt.Printf("Tags:  %v\n", rb.Tags)
		}
		if rb.Notes != "" {
			notes := rb.Notes
			if len(notes) > 200 {
				notes = notes[:200] + "..."
			}
			fmt.Printf("Notes: %s\n", notes)
		}
		fmt.Println()
	}

	return nil
}
