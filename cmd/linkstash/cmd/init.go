package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/linkstash/linkstash/internal/snapshot"
	"github.com/linkstash/linkstash/internal/store"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the Elasticsearch indices and snapshot bucket",
	Long: `Create the bookmark and query-cache indices, and the snapshot
bucket when archival is enabled. Safe to run repeatedly.

Example:
  linkstash init`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()

	es, err := store.New(store.Config{
		Addresses:     cfg.Elasticsearch.Addresses,
		BookmarkIndex: cfg.Elasticsearch.BookmarkIndex,
		CacheIndex:    cfg.Elasticsearch.CacheIndex,
		Username:      cfg.Elasticsearch.Username,
		Password:      cfg.Elasticsearch.Password,
		EmbeddingDims: cfg.Embeddings.Dims,
		Timeout:       cfg.Elasticsearch.Timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create Elasticsearch store: %w", err)
	}

	if !es.Ping(ctx) {
		return fmt.Errorf("Elasticsearch not reachable at %v", cfg.Elasticsearch.Addresses)
	}

	if err := es.CreateIndices(ctx); err != nil {
		return fmt.Errorf("failed to create indices: %w", err)
	}
	fmt.Printf("Indices ready: %s, %s\n", cfg.Elasticsearch.BookmarkIndex, cfg.Elasticsearch.CacheIndex)

	if cfg.Snapshot.Enabled {
		client, err := snapshot.New(snapshot.Config{
			Endpoint:        cfg.Snapshot.Endpoint,
			Bucket:          cfg.Snapshot.Bucket,
			AccessKeyID:     cfg.Snapshot.AccessKeyID,
			SecretAccessKey: cfg.Snapshot.SecretAccessKey,
			UseSSL:          cfg.Snapshot.UseSSL,
		})
		if err != nil {
			return fmt.Errorf("failed to create snapshot client: %w", err)
		}
		if err := client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure snapshot bucket: %w", err)
		}
		fmt.Printf("Snapshot bucket ready: %s\n", cfg.Snapshot.Bucket)
	}

	return nil
}
