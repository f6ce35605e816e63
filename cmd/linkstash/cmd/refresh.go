package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh [id]",
	Short: "Re-fetch a bookmark's page metadata",
	Long: `Re-fetch the page behind a bookmark and update its stored
metadata. The search embedding is refreshed in the background when the
content actually changed.

Example:
  linkstash refresh 3f58a1bc92d04e71`,
	Args: cobra.ExactArgs(1),
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	result, err := svc.pipeline.Refresh(ctx, cfg.User.ID, args[0])
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	if !result.Updated {
		fmt.Println("Nothing to refresh.")
		return nil
	}
	fmt.Printf("Refreshed: %s\n", result.Bookmark.ID)
	if result.Bookmark.Title != "" {
		fmt.Printf("Title:     %s\n", result.Bookmark.Title)
	}
	return nil
}
