// Package indexer keeps stored bookmark embeddings consistent with
// bookmark content. Re-embedding is gated on a fingerprint of the
// semantic source fields so metadata refreshes that change nothing
// semantic never trigger a provider call.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/linkstash/linkstash/internal/apperr"
	"github.com/linkstash/linkstash/internal/fingerprint"
	"github.com/linkstash/linkstash/pkg/models"
)

// Store is the bookmark-side persistence the indexer needs.
type Store interface {
	Get(ctx context.Context, id string) (*models.Bookmark, error)
	UpsertEmbedding(ctx context.Context, emb models.DocumentEmbedding) error
}

// Embedder generates an embedding for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, string, error)
}

// Result reports what a reindex did.
type Result struct {
	// Skipped is true when the semantic source was unchanged and no
	// provider call was made.
	Skipped bool
}

// Indexer recomputes bookmark embeddings on content change.
type Indexer struct {
	store    Store
	embedder Embedder
}

// New creates an indexer.
func New(store Store, embedder Embedder) *Indexer {
	return &Indexer{store: store, embedder: embedder}
}

// BuildEmbeddingText concatenates the semantic source fields in priority
// order, one non-empty field per line. Explicit user intent (title,
// notes) comes first so it dominates under model-window truncation;
// low-signal fields (site name) come last.
func BuildEmbeddingText(content models.BookmarkContent) string {
	fields := []string{
		content.Title,
		content.Notes,
		content.ContentText,
		content.Description,
		strings.Join(content.Tags, ", "),
		content.SiteName,
	}

	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			lines = append(lines, f)
		}
	}
	return strings.Join(lines, "\n")
}

// Reindex recomputes the bookmark's embedding if its semantic source
// changed since the last run. Ownership is enforced before any write;
// a mismatched owner is forbidden, not silently skipped. Provider and
// store failures here are hard errors: an unembedded bookmark is
// missing data, not a degraded view.
func (ix *Indexer) Reindex(ctx context.Context, bookmarkID, ownerID string) (Result, error) {
	bookmark, err := ix.store.Get(ctx, bookmarkID)
	if err != nil {
		return Result{}, fmt.Errorf("reindex %s: %w", bookmarkID, err)
	}
	if bookmark.UserID != ownerID {
		return Result{}, apperr.Forbidden("bookmark belongs to another user")
	}

	content := bookmark.Content()
	sourceHash := fingerprint.Hash(content)

	if bookmark.SemanticSourceHash == sourceHash {
		slog.Debug("embedding up to date", "bookmark_id", bookmarkID)
		return Result{Skipped: true}, nil
	}

	// Document text bypasses the query cache: it is not normalized the
	// way queries are and is not expected to repeat.
	text := BuildEmbeddingText(content)
	vector, model, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return Result{}, fmt.Errorf("reindex %s: %w", bookmarkID, err)
	}

	emb := models.DocumentEmbedding{
		BookmarkID:          bookmarkID,
		Vector:              vector,
		Model:               model,
		SemanticSourceHash:  sourceHash,
		ContentForEmbedding: text,
		UpdatedAt:           time.Now().UTC(),
	}
	if err := ix.store.UpsertEmbedding(ctx, emb); err != nil {
		return Result{}, fmt.Errorf("reindex %s: %w", bookmarkID, err)
	}

	slog.Debug("embedding replaced", "bookmark_id", bookmarkID, "model", model, "dims", len(vector))
	return Result{}, nil
}
