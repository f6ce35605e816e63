package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/linkstash/linkstash/internal/events"
	"github.com/linkstash/linkstash/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	addNotes string
	addTags  []string
	addWait  bool
)

var addCmd = &cobra.Command{
	Use:   "add [url]",
	Short: "Save a URL or note:// snippet",
	Long: `Save a bookmark. URLs get their page metadata fetched and their
search embedding refreshed in the background.

Examples:
  # Save a page
  linkstash add https://go.dev/blog/error-handling

  # Save with notes and tags
  linkstash add https://go.dev/blog --notes "read later" --tags golang,reading

  # Save a text snippet
  linkstash add "note://context.Cause returns the cancellation reason"`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVar(&addNotes, "notes", "", "Personal notes to attach")
	addCmd.Flags().StringSliceVar(&addTags, "tags", nil, "Tags to attach")
	addCmd.Flags().BoolVar(&addWait, "wait", false, "Wait for the embedding refresh and report it")
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	reindexDone := make(chan events.ReindexCompleteEvent, 1)
	if addWait {
		svc.pipeline.NotifyReindex(reindexDone)
	}

	bookmark, err := svc.pipeline.Save(ctx, pipeline.SaveRequest{
		UserID: cfg.User.ID,
		URL:    args[0],
		Notes:  addNotes,
		Tags:   addTags,
	})
	if err != nil {
		return fmt.Errorf("save failed: %w", err)
	}

	fmt.Printf("Saved: %s\n", bookmark.ID)
	if bookmark.Title != "" {
		fmt.Printf("Title: %s\n", bookmark.Title)
	}
	fmt.Printf("Tags:  %v\n", bookmark.Tags)

	if addWait {
		svc.Close()
		select {
		case ev := <-reindexDone:
			if ev.Skipped {
				fmt.Println("Embedding already current.")
			} else {
				fmt.Printf("Embedding refreshed in %v.\n", ev.Duration.Round(time.Millisecond))
			}
		default:
			fmt.Println("Embedding refresh did not complete.")
		}
	}
	return nil
}
