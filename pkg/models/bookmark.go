package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Bookmark represents a saved URL or text note.
type Bookmark struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	URL         string    `json:"url"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	ContentText string    `json:"content_text,omitempty"`
	SiteName    string    `json:"site_name,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Embedding fields live on the same document and are replaced
	// as one unit by the indexer.
	Embedding           []float32 `json:"embedding,omitempty"`
	EmbeddingModel      string    `json:"embedding_model,omitempty"`
	SemanticSourceHash  string    `json:"semantic_source_hash,omitempty"`
	ContentForEmbedding string    `json:"content_for_embedding,omitempty"`
	EmbeddingUpdatedAt  time.Time `json:"embedding_updated_at,omitzero"`
}

// Content returns the subset of fields that determine the bookmark's
// embedding.
func (b *Bookmark) Content() BookmarkContent {
	return BookmarkContent{
		Title:       b.Title,
		Notes:       b.Notes,
		ContentText: b.ContentText,
		Description: b.Description,
		Tags:        b.Tags,
		SiteName:    b.SiteName,
	}
}

// BookmarkContent is the semantic source of a bookmark: the text fields
// whose values determine its embedding. Tag order is irrelevant.
type BookmarkContent struct {
	Title       string
	Notes       string
	ContentText string
	Description string
	Tags        []string
	SiteName    string
}

// DocumentEmbedding is the embedding record replaced in one unit when a
// bookmark's semantic source changes.
type DocumentEmbedding struct {
	BookmarkID          string    `json:"bookmark_id"`
	Vector              []float32 `json:"vector"`
	Model               string    `json:"model"`
	SemanticSourceHash  string    `json:"semantic_source_hash"`
	ContentForEmbedding string    `json:"content_for_embedding"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// RankedBookmark is a bookmark with its search relevance score.
type RankedBookmark struct {
	Bookmark
	Score float64 `json:"score"`
}

// QueryCacheEntry caches the embedding generated for a normalized search
// query, keyed by the hash of the normalized text.
type QueryCacheEntry struct {
	QueryHash  string    `json:"query_hash"`
	QueryText  string    `json:"query_text"`
	Embedding  string    `json:"embedding"` // vector literal, see VectorLiteral
	Model      string    `json:"embedding_model"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
	UseCount   int64     `json:"use_count"`
}

// GenerateBookmarkID creates a deterministic ID from the owning user and
// URL, so saving the same URL twice resolves to the same bookmark.
// The ID is the first 16 hex chars of a SHA-256 digest.
func GenerateBookmarkID(userID, url string) string {
	hash := sha256.Sum256([]byte(userID + "\n" + url))
	return hex.EncodeToString(hash[:])[:16]
}
