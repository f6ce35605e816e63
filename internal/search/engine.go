// Package search orchestrates hybrid bookmark search: query embedding
// via the cache, combined vector + text ranking, and the keyword
// fallback that keeps search answering when the semantic path is down.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linkstash/linkstash/internal/apperr"
	"github.com/linkstash/linkstash/internal/querycache"
	"github.com/linkstash/linkstash/internal/store"
	"github.com/linkstash/linkstash/pkg/models"
)

const (
	// MaxQueryLen bounds accepted query length.
	MaxQueryLen = 500
	// MaxLimit bounds the requested result count.
	MaxLimit = 100
	// DefaultLimit applies when the caller passes no limit.
	DefaultLimit = 50
)

// Ranker is the datastore side of search.
type Ranker interface {
	HybridRank(ctx context.Context, ownerID string, queryVector []float32, queryText string, limit int) ([]models.RankedBookmark, error)
	KeywordSearch(ctx context.Context, ownerID string, q store.KeywordQuery, limit int) ([]models.RankedBookmark, error)
}

// QueryEmbeddings resolves query embeddings, normally via the cache.
type QueryEmbeddings interface {
	GetOrCreate(ctx context.Context, rawQuery string) (querycache.QueryEmbedding, error)
}

// Result is a ranked result set. UsedFallback reports that the keyword
// path ran because the semantic path failed.
type Result struct {
	Results      []models.RankedBookmark
	UsedFallback bool
}

// Engine runs searches.
type Engine struct {
	ranker     Ranker
	embeddings QueryEmbeddings
}

// New creates a search engine.
func New(ranker Ranker, embeddings QueryEmbeddings) *Engine {
	return &Engine{ranker: ranker, embeddings: embeddings}
}

// Search returns the owner's top matches for rawQuery. A failure
// anywhere on the semantic path (embedding lookup or hybrid ranking) is
// absorbed into the keyword fallback; only both paths failing surfaces
// an error. No step is retried.
func (e *Engine) Search(ctx context.Context, ownerID, rawQuery string, limit int) (Result, error) {
	if ownerID == "" {
		return Result{}, apperr.Unauthorized("missing owner")
	}

	trimmed := strings.TrimSpace(rawQuery)
	if trimmed == "" {
		return Result{}, apperr.InvalidRequest("query must not be empty")
	}
	if len(trimmed) > MaxQueryLen {
		return Result{}, apperr.InvalidRequest(fmt.Sprintf("query exceeds %d characters", MaxQueryLen))
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 0 || limit > MaxLimit {
		return Result{}, apperr.InvalidRequest(fmt.Sprintf("limit must be between 1 and %d", MaxLimit))
	}

	results, err := e.hybrid(ctx, ownerID, trimmed, limit)
	if err == nil {
		return Result{Results: results}, nil
	}
	slog.Warn("semantic search unavailable, falling back to keywords", "error", err)

	results, fallbackErr := e.ranker.KeywordSearch(ctx, ownerID, buildKeywordQuery(trimmed), limit)
	if fallbackErr != nil {
		return Result{}, fmt.Errorf("search failed on both paths: %w", fallbackErr)
	}
	return Result{Results: results, UsedFallback: true}, nil
}

func (e *Engine) hybrid(ctx context.Context, ownerID, query string, limit int) ([]models.RankedBookmark, error) {
	emb, err := e.embeddings.GetOrCreate(ctx, query)
	if err != nil {
		return nil, err
	}
	return e.ranker.HybridRank(ctx, ownerID, emb.Vector, query, limit)
}

// buildKeywordQuery tokenizes the query and detects domain-style
// queries, which prefer exact-site URL matches over token matching.
func buildKeywordQuery(query string) store.KeywordQuery {
	return store.KeywordQuery{
		Raw:    query,
		Tokens: strings.Fields(strings.ToLower(query)),
		Domain: DetectDomain(query),
	}
}
