package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm [id]",
	Short: "Delete a bookmark",
	Long: `Delete a bookmark and its archived page snapshot.

Example:
  linkstash rm 3f58a1bc92d04e71`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.pipeline.Delete(ctx, cfg.User.ID, args[0]); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	fmt.Printf("Deleted: %s\n", args[0])
	return nil
}
