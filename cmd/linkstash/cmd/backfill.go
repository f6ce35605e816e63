package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"slices"
	"syscall"

	"github.com/linkstash/linkstash/internal/tagging"
	"github.com/spf13/cobra"
)

var (
	backfillLimit  int
	backfillDryRun bool
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Add missing type tags to existing bookmarks",
	Long: `Walk your bookmarks and add the URL-derived type tag (youtube,
x, websites, ...) where it is missing. Older bookmarks saved before
auto-tagging get their tags this way.

Examples:
  # See what would change
  linkstash backfill --dry-run

  # Apply
  linkstash backfill`,
	RunE: runBackfill,
}

func init() {
	rootCmd.AddCommand(backfillCmd)

	backfillCmd.Flags().IntVar(&backfillLimit, "limit", 1000, "Maximum bookmarks to scan")
	backfillCmd.Flags().BoolVar(&backfillDryRun, "dry-run", false, "Report changes without applying them")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	bookmarks, err := svc.store.ListByUser(ctx, cfg.User.ID, backfillLimit)
	if err != nil {
		return fmt.Errorf("listing bookmarks failed: %w", err)
	}

	var updated int
	for i := range bookmarks {
		b := &bookmarks[i]
		tags := tagging.EnsureTypeTag(b.URL, b.Tags)
		if slices.Equal(tags, b.Tags) {
			continue
		}
		updated++
		if backfillDryRun {
			fmt.Printf("would tag %s as %q (%s)\n", b.ID, tagging.DetectType(b.URL), b.URL)
			continue
		}
		b.Tags = tags
		if err := svc.store.Save(ctx, b); err != nil {
			return fmt.Errorf("updating %s failed: %w", b.ID, err)
		}
	}

	if backfillDryRun {
		fmt.Printf("Scanned %d bookmarks, %d would be updated.\n", len(bookmarks), updated)
	} else {
		fmt.Printf("Scanned %d bookmarks, updated %d.\n", len(bookmarks), updated)
	}
	return nil
}
