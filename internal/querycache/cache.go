// Package querycache memoizes query embeddings so repeated searches do
// not pay for redundant provider calls. Availability wins over strict
// caching: any cache-side fault degrades to regeneration instead of
// failing the lookup.
package querycache

import (
	"context"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/linkstash/linkstash/internal/apperr"
	"github.com/linkstash/linkstash/internal/tasks"
	"github.com/linkstash/linkstash/pkg/models"
)

// Store is the persistent side of the cache. A missing entry must be
// reported as a not-found error, which is the miss path.
type Store interface {
	GetCacheEntry(ctx context.Context, queryHash string) (*models.QueryCacheEntry, error)
	PutCacheEntry(ctx context.Context, entry *models.QueryCacheEntry) error
	TouchCacheEntry(ctx context.Context, queryHash string) error
}

// Embedder generates an embedding for text, returning the vector and
// the model that produced it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, string, error)
}

// QueryEmbedding is the result of a cache lookup.
type QueryEmbedding struct {
	Vector   []float32
	Model    string
	CacheHit bool
}

type hotEntry struct {
	vector []float32
	model  string
}

// Cache layers an in-process LRU over the persistent store. The LRU is
// a memory bound only; the store is the durable cache.
type Cache struct {
	store    Store
	embedder Embedder
	runner   *tasks.Runner
	hot      *lru.Cache[string, hotEntry]
}

// New creates a cache. hotSize bounds the in-process layer; values <= 0
// default to 1024 entries.
func New(store Store, embedder Embedder, runner *tasks.Runner, hotSize int) *Cache {
	if hotSize <= 0 {
		hotSize = 1024
	}
	hot, err := lru.New[string, hotEntry](hotSize)
	if err != nil {
		hot, _ = lru.New[string, hotEntry](1024)
	}
	return &Cache{store: store, embedder: embedder, runner: runner, hot: hot}
}

// GetOrCreate resolves the embedding for rawQuery, preferring the hot
// layer, then the store, then the provider. At-most-one-generation per
// normalized query is best effort; concurrent misses may each call the
// provider and the last persisted entry wins.
func (c *Cache) GetOrCreate(ctx context.Context, rawQuery string) (QueryEmbedding, error) {
	normalized := Normalize(rawQuery)
	queryHash := HashQuery(rawQuery)

	if entry, ok := c.hot.Get(queryHash); ok {
		c.touch(queryHash)
		return QueryEmbedding{Vector: copyVec(entry.vector), Model: entry.model, CacheHit: true}, nil
	}

	cached, err := c.store.GetCacheEntry(ctx, queryHash)
	switch {
	case err == nil:
		if qe, ok := c.validate(queryHash, cached); ok {
			c.touch(queryHash)
			return qe, nil
		}
		// Corrupt entry: fall through and regenerate.
	case apperr.HasCode(err, apperr.CodeNotFound):
		// Miss path, not an error.
	default:
		// A genuine storage fault degrades to generation.
		slog.Warn("query cache lookup failed, regenerating", "error", err)
	}

	vector, model, err := c.embedder.Embed(ctx, normalized)
	if err != nil {
		return QueryEmbedding{}, err
	}

	now := time.Now().UTC()
	entry := &models.QueryCacheEntry{
		QueryHash:  queryHash,
		QueryText:  normalized,
		Embedding:  models.VectorLiteral(vector),
		Model:      model,
		CreatedAt:  now,
		LastUsedAt: now,
		UseCount:   1,
	}
	if err := c.store.PutCacheEntry(ctx, entry); err != nil {
		slog.Warn("failed to persist query embedding", "error", err)
	}
	c.hot.Add(queryHash, hotEntry{vector: vector, model: model})

	// The hot layer keeps its own reference, so hand the caller a copy.
	return QueryEmbedding{Vector: copyVec(vector), Model: model, CacheHit: false}, nil
}

// validate checks a stored entry and promotes it to the hot layer. A
// corrupt vector is treated as a miss, never surfaced as an error.
func (c *Cache) validate(queryHash string, cached *models.QueryCacheEntry) (QueryEmbedding, bool) {
	vector, err := models.ParseVectorLiteral(cached.Embedding)
	if err != nil || len(vector) == 0 {
		slog.Warn("corrupt cached embedding, regenerating", "query_hash", queryHash, "error", err)
		return QueryEmbedding{}, false
	}
	c.hot.Add(queryHash, hotEntry{vector: vector, model: cached.Model})
	return QueryEmbedding{Vector: copyVec(vector), Model: cached.Model, CacheHit: true}, true
}

// touch schedules the best-effort usage-stat bump. Its failure can never
// affect the returned result.
func (c *Cache) touch(queryHash string) {
	c.runner.Go("cache-touch", func(ctx context.Context) error {
		return c.store.TouchCacheEntry(ctx, queryHash)
	})
}

func copyVec(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
