package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex [id]",
	Short: "Refresh a bookmark's search embedding",
	Long: `Regenerate the embedding for a bookmark. When the bookmark's
searchable content has not changed since the last embedding, nothing is
re-generated.

Example:
  linkstash reindex 3f58a1bc92d04e71`,
	Args: cobra.ExactArgs(1),
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	result, err := svc.indexer.Reindex(ctx, args[0], cfg.User.ID)
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	if result.Skipped {
		fmt.Println("Embedding already current, skipped.")
		return nil
	}
	fmt.Println("Embedding refreshed.")
	return nil
}
