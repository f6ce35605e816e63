package cmd

import (
	"fmt"
	"log/slog"

	"github.com/linkstash/linkstash/internal/config"
	"github.com/linkstash/linkstash/internal/embeddings"
	"github.com/linkstash/linkstash/internal/indexer"
	"github.com/linkstash/linkstash/internal/llm"
	"github.com/linkstash/linkstash/internal/metadata"
	"github.com/linkstash/linkstash/internal/pipeline"
	"github.com/linkstash/linkstash/internal/querycache"
	"github.com/linkstash/linkstash/internal/search"
	"github.com/linkstash/linkstash/internal/snapshot"
	"github.com/linkstash/linkstash/internal/store"
	"github.com/linkstash/linkstash/internal/tasks"
)

// services holds the wired application components a command needs.
type services struct {
	store    *store.Elastic
	engine   *search.Engine
	pipeline *pipeline.Pipeline
	indexer  *indexer.Indexer
	runner   *tasks.Runner
}

// Close waits for detached work to finish.
func (s *services) Close() {
	s.runner.Close()
}

// buildServices wires the full application from configuration.
func buildServices(cfg config.Config) (*services, error) {
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
		return nil, fmt.Errorf("failed to create Elasticsearch store: %w", err)
	}

	embedder, err := embeddings.New(embeddings.Config{
		BaseURL: cfg.Embeddings.BaseURL,
		APIKey:  cfg.Embeddings.APIKey,
		Model:   cfg.Embeddings.Model,
		Timeout: cfg.Embeddings.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings client: %w", err)
	}

	runner := tasks.NewRunner(tasks.DefaultTimeout)
	cache := querycache.New(es, embedder, runner, cfg.Cache.HotSize)
	engine := search.New(es, cache)
	idx := indexer.New(es, embedder)

	fetcher := metadata.New(metadata.Config{
		UserAgent:     cfg.Metadata.UserAgent,
		Timeout:       cfg.Metadata.Timeout,
		RenderAPIURL:  cfg.Metadata.RenderAPIURL,
		RenderTimeout: cfg.Metadata.RenderTimeout,
	})

	var snapshots pipeline.Snapshotter
	if cfg.Snapshot.Enabled {
		client, err := snapshot.New(snapshot.Config{
			Endpoint:        cfg.Snapshot.Endpoint,
			Bucket:          cfg.Snapshot.Bucket,
			AccessKeyID:     cfg.Snapshot.AccessKeyID,
			SecretAccessKey: cfg.Snapshot.SecretAccessKey,
			UseSSL:          cfg.Snapshot.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create snapshot client: %w", err)
		}
		snapshots = client
		slog.Info("snapshot archival enabled", "bucket", cfg.Snapshot.Bucket)
	}

	var suggester pipeline.Suggester
	if cfg.LLM.Enabled {
		client, err := llm.New(llm.Config{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		suggester = client
		slog.Info("LLM enrichment enabled", "model", cfg.LLM.Model)
	}

	pipe := pipeline.New(es, fetcher, idx, snapshots, suggester, runner)

	return &services{
		store:    es,
		engine:   engine,
		pipeline: pipe,
		indexer:  idx,
		runner:   runner,
	}, nil
}
