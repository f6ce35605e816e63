package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/linkstash/linkstash/internal/apperr"
	"github.com/linkstash/linkstash/pkg/models"
)

// Config holds Elasticsearch client configuration.
type Config struct {
	Addresses     []string
	BookmarkIndex string
	CacheIndex    string
	Username      string
	Password      string
	EmbeddingDims int           // dense_vector dims in the bookmark mapping
	Timeout       time.Duration // per-operation bound, defaults to 10s
}

// Elastic implements the bookmark and query-cache storage on
// Elasticsearch.
type Elastic struct {
	es            *elasticsearch.Client
	bookmarkIndex string
	cacheIndex    string
	dims          int
	timeout       time.Duration
}

// New creates a new Elasticsearch-backed store.
func New(config Config) (*Elastic, error) {
	if config.BookmarkIndex == "" || config.CacheIndex == "" {
		return nil, fmt.Errorf("bookmark and cache index names are required")
	}
	if config.EmbeddingDims == 0 {
		config.EmbeddingDims = 1536
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: config.Addresses,
		Username:  config.Username,
		Password:  config.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ES client: %w", err)
	}

	return &Elastic{
		es:            es,
		bookmarkIndex: config.BookmarkIndex,
		cacheIndex:    config.CacheIndex,
		dims:          config.EmbeddingDims,
		timeout:       config.Timeout,
	}, nil
}

// Ping checks if Elasticsearch is available.
func (s *Elastic) Ping(ctx context.Context) bool {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	res, err := s.es.Ping(s.es.Ping.WithContext(ctx))
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return !res.IsError()
}

func (s *Elastic) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// bookmarkMapping is the mapping for the bookmark index. The embedding
// is a dense_vector so hybrid ranking can blend knn with text matching.
const bookmarkMapping = `{
	"mappings": {
		"properties": {
			"id": { "type": "keyword" },
			"user_id": { "type": "keyword" },
			"url": { "type": "keyword" },
			"title": { "type": "text" },
			"description": { "type": "text" },
			"notes": { "type": "text" },
			"content_text": { "type": "text", "analyzer": "english" },
			"site_name": { "type": "keyword" },
			"image_url": { "type": "keyword", "index": false },
			"tags": { "type": "keyword" },
			"archived": { "type": "boolean" },
			"created_at": { "type": "date" },
			"updated_at": { "type": "date" },
			"embedding": {
				"type": "dense_vector",
				"dims": %d,
				"index": true,
				"similarity": "cosine"
			},
			"embedding_model": { "type": "keyword" },
			"semantic_source_hash": { "type": "keyword" },
			"content_for_embedding": { "type": "text", "index": false },
			"embedding_updated_at": { "type": "date" }
		}
	}
}`

// cacheMapping is the mapping for the query-embedding cache index. The
// vector is stored as its literal form because cache entries are point
// lookups by hash, never vector-searched.
const cacheMapping = `{
	"mappings": {
		"properties": {
			"query_hash": { "type": "keyword" },
			"query_text": { "type": "keyword" },
			"embedding": { "type": "keyword", "index": false },
			"embedding_model": { "type": "keyword" },
			"created_at": { "type": "date" },
			"last_used_at": { "type": "date" },
			"use_count": { "type": "long" }
		}
	}
}`

// CreateIndices creates both indices if they do not exist yet.
func (s *Elastic) CreateIndices(ctx context.Context) error {
	if err := s.createIndex(ctx, s.bookmarkIndex, fmt.Sprintf(bookmarkMapping, s.dims)); err != nil {
		return err
	}
	return s.createIndex(ctx, s.cacheIndex, cacheMapping)
}

func (s *Elastic) createIndex(ctx context.Context, index, mapping string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	res, err := s.es.Indices.Exists([]string{index}, s.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return apperr.Store("failed to check index", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = s.es.Indices.Create(
		index,
		s.es.Indices.Create.WithContext(ctx),
		s.es.Indices.Create.WithBody(bytes.NewReader([]byte(mapping))),
	)
	if err != nil {
		return apperr.Store("failed to create index", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperr.Store(fmt.Sprintf("error creating index %s: %s", index, res.String()), nil)
	}
	return nil
}

// Refresh forces an index refresh (useful for testing).
func (s *Elastic) Refresh(ctx context.Context) error {
	res, err := s.es.Indices.Refresh(
		s.es.Indices.Refresh.WithContext(ctx),
		s.es.Indices.Refresh.WithIndex(s.bookmarkIndex, s.cacheIndex),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return nil
}

// getResponse represents an ES get response.
type getResponse struct {
	Found  bool            `json:"found"`
	Source json.RawMessage `json:"_source"`
}

// Get retrieves a bookmark by ID.
func (s *Elastic) Get(ctx context.Context, id string) (*models.Bookmark, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	res, err := s.es.Get(s.bookmarkIndex, id, s.es.Get.WithContext(ctx))
	if err != nil {
		return nil, apperr.Store("get failed", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, apperr.NotFound("bookmark " + id)
	}
	if res.IsError() {
		return nil, apperr.Store("get error: "+res.String(), nil)
	}

	var gr getResponse
	if err := json.NewDecoder(res.Body).Decode(&gr); err != nil {
		return nil, apperr.Store("failed to decode get response", err)
	}
	if !gr.Found {
		return nil, apperr.NotFound("bookmark " + id)
	}

	var b models.Bookmark
	if err := json.Unmarshal(gr.Source, &b); err != nil {
		return nil, apperr.Store("failed to unmarshal bookmark", err)
	}
	return &b, nil
}

// Save indexes a bookmark document keyed by its ID.
func (s *Elastic) Save(ctx context.Context, b *models.Bookmark) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	data, err := json.Marshal(b)
	if err != nil {
		return apperr.Store("failed to marshal bookmark", err)
	}

	res, err := s.es.Index(
		s.bookmarkIndex,
		bytes.NewReader(data),
		s.es.Index.WithContext(ctx),
		s.es.Index.WithDocumentID(b.ID),
	)
	if err != nil {
		return apperr.Store("failed to index bookmark", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperr.Store(fmt.Sprintf("error indexing bookmark (status %d): %s", res.StatusCode, res.String()), nil)
	}
	return nil
}

// Delete removes a bookmark. The embedding fields live on the same
// document, so the cascade is implicit.
func (s *Elastic) Delete(ctx context.Context, id string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	res, err := s.es.Delete(s.bookmarkIndex, id, s.es.Delete.WithContext(ctx))
	if err != nil {
		return apperr.Store("delete failed", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return apperr.NotFound("bookmark " + id)
	}
	if res.IsError() {
		return apperr.Store("delete error: "+res.String(), nil)
	}
	return nil
}

// StoredSourceHash returns the semantic source hash recorded with the
// bookmark's current embedding, or "" when the bookmark has never been
// embedded.
func (s *Elastic) StoredSourceHash(ctx context.Context, bookmarkID string) (string, error) {
	b, err := s.Get(ctx, bookmarkID)
	if err != nil {
		return "", err
	}
	return b.SemanticSourceHash, nil
}

// UpsertEmbedding replaces the bookmark's embedding fields in one unit.
func (s *Elastic) UpsertEmbedding(ctx context.Context, emb models.DocumentEmbedding) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	update := map[string]any{
		"doc": map[string]any{
			"embedding":             emb.Vector,
			"embedding_model":       emb.Model,
			"semantic_source_hash":  emb.SemanticSourceHash,
			"content_for_embedding": emb.ContentForEmbedding,
			"embedding_updated_at":  emb.UpdatedAt,
		},
	}
	data, err := json.Marshal(update)
	if err != nil {
		return apperr.Store("failed to marshal embedding update", err)
	}

	res, err := s.es.Update(s.bookmarkIndex, emb.BookmarkID, bytes.NewReader(data),
		s.es.Update.WithContext(ctx))
	if err != nil {
		return apperr.Store("embedding upsert failed", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return apperr.NotFound("bookmark " + emb.BookmarkID)
	}
	if res.IsError() {
		return apperr.Store("embedding upsert error: "+res.String(), nil)
	}
	return nil
}

// searchResponse represents an ES search response.
type searchResponse struct {
	Hits struct {
		Hits []struct {
			Score  *float64        `json:"_score"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// ownerFilter builds the mandatory scoping filter for bookmark reads.
func ownerFilter(ownerID string) []map[string]any {
	return []map[string]any{
		{"term": map[string]any{"user_id": ownerID}},
		{"term": map[string]any{"archived": false}},
	}
}

// HybridRank runs the combined text + vector ranking, scoped to the
// owner's non-archived bookmarks. The blend itself (reciprocal rank
// fusion) is Elasticsearch's concern; one ranked list comes back.
func (s *Elastic) HybridRank(ctx context.Context, ownerID string, queryVector []float32, queryText string, limit int) ([]models.RankedBookmark, error) {
	searchQuery := map[string]any{
		"retriever": map[string]any{
			"rrf": map[string]any{
				"retrievers": []map[string]any{
					{
						"standard": map[string]any{
							"query": map[string]any{
								"bool": map[string]any{
									"must": map[string]any{
										"multi_match": map[string]any{
											"query":  queryText,
											"fields": []string{"title^2", "notes^2", "content_text", "description", "tags"},
										},
									},
									"filter": ownerFilter(ownerID),
								},
							},
						},
					},
					{
						"knn": map[string]any{
							"field":          "embedding",
							"query_vector":   queryVector,
							"k":              limit,
							"num_candidates": limit * 2,
							"filter": map[string]any{
								"bool": map[string]any{"filter": ownerFilter(ownerID)},
							},
						},
					},
				},
			},
		},
		"size": limit,
	}

	return s.runSearch(ctx, searchQuery, "hybrid rank")
}

// KeywordSearch runs the fallback text-only search, most recent first.
func (s *Elastic) KeywordSearch(ctx context.Context, ownerID string, q KeywordQuery, limit int) ([]models.RankedBookmark, error) {
	filter := ownerFilter(ownerID)

	var match map[string]any
	if q.Domain != "" {
		// Domain query: users searching "github.com" expect exact-site
		// hits over loosely related keyword matches.
		match = map[string]any{
			"wildcard": map[string]any{
				"url": map[string]any{
					"value":            "*" + q.Domain + "*",
					"case_insensitive": true,
				},
			},
		}
	} else {
		should := make([]map[string]any, 0, len(q.Tokens)*5)
		for _, token := range q.Tokens {
			pattern := "*" + token + "*"
			for _, field := range []string{"title", "notes", "content_text", "description", "url"} {
				should = append(should, map[string]any{
					"wildcard": map[string]any{
						field: map[string]any{"value": pattern, "case_insensitive": true},
					},
				})
			}
		}
		match = map[string]any{
			"bool": map[string]any{
				"should":               should,
				"minimum_should_match": 1,
			},
		}
	}

	searchQuery := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must":   match,
				"filter": filter,
			},
		},
		"sort": []map[string]any{
			{"created_at": map[string]any{"order": "desc"}},
		},
		"size": limit,
	}

	return s.runSearch(ctx, searchQuery, "keyword search")
}

// ListByUser returns a user's bookmarks newest first, for maintenance
// passes like tag backfills.
func (s *Elastic) ListByUser(ctx context.Context, userID string, limit int) ([]models.Bookmark, error) {
	searchQuery := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []map[string]any{
					{"term": map[string]any{"user_id": userID}},
				},
			},
		},
		"sort": []map[string]any{
			{"created_at": map[string]any{"order": "desc"}},
		},
		"size": limit,
	}

	ranked, err := s.runSearch(ctx, searchQuery, "list bookmarks")
	if err != nil {
		return nil, err
	}
	bookmarks := make([]models.Bookmark, len(ranked))
	for i, rb := range ranked {
		bookmarks[i] = rb.Bookmark
	}
	return bookmarks, nil
}

func (s *Elastic) runSearch(ctx context.Context, query map[string]any, op string) ([]models.RankedBookmark, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	data, err := json.Marshal(query)
	if err != nil {
		return nil, apperr.Store(op+": failed to marshal query", err)
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.bookmarkIndex),
		s.es.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, apperr.Store(op+" failed", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperr.Store(op+" error: "+res.String(), nil)
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, apperr.Store(op+": failed to decode response", err)
	}

	results := make([]models.RankedBookmark, 0, len(sr.Hits.Hits))
	for _, hit := range sr.Hits.Hits {
		var b models.Bookmark
		if err := json.Unmarshal(hit.Source, &b); err != nil {
			return nil, apperr.Store(op+": failed to unmarshal hit", err)
		}
		rb := models.RankedBookmark{Bookmark: b}
		if hit.Score != nil {
			rb.Score = *hit.Score
		}
		results = append(results, rb)
	}
	return results, nil
}

// GetCacheEntry looks up a query-cache entry by hash. A missing entry is
// a not-found error, which callers treat as the miss path.
func (s *Elastic) GetCacheEntry(ctx context.Context, queryHash string) (*models.QueryCacheEntry, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	res, err := s.es.Get(s.cacheIndex, queryHash, s.es.Get.WithContext(ctx))
	if err != nil {
		return nil, apperr.Store("cache get failed", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, apperr.NotFound("cache entry")
	}
	if res.IsError() {
		return nil, apperr.Store("cache get error: "+res.String(), nil)
	}

	var gr getResponse
	if err := json.NewDecoder(res.Body).Decode(&gr); err != nil {
		return nil, apperr.Store("failed to decode cache response", err)
	}
	if !gr.Found {
		return nil, apperr.NotFound("cache entry")
	}

	var entry models.QueryCacheEntry
	if err := json.Unmarshal(gr.Source, &entry); err != nil {
		return nil, apperr.Store("failed to unmarshal cache entry", err)
	}
	return &entry, nil
}

// PutCacheEntry stores a query-cache entry keyed by its hash.
func (s *Elastic) PutCacheEntry(ctx context.Context, entry *models.QueryCacheEntry) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	data, err := json.Marshal(entry)
	if err != nil {
		return apperr.Store("failed to marshal cache entry", err)
	}

	res, err := s.es.Index(
		s.cacheIndex,
		bytes.NewReader(data),
		s.es.Index.WithContext(ctx),
		s.es.Index.WithDocumentID(entry.QueryHash),
	)
	if err != nil {
		return apperr.Store("cache put failed", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperr.Store("cache put error: "+res.String(), nil)
	}
	return nil
}

// TouchCacheEntry bumps last_used_at and use_count on a cache entry.
// Callers invoke this best-effort; failures are theirs to swallow.
func (s *Elastic) TouchCacheEntry(ctx context.Context, queryHash string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	update := map[string]any{
		"script": map[string]any{
			"source": "ctx._source.use_count += 1; ctx._source.last_used_at = params.now",
			"params": map[string]any{"now": time.Now().UTC().Format(time.RFC3339)},
		},
	}
	data, err := json.Marshal(update)
	if err != nil {
		return apperr.Store("failed to marshal cache touch", err)
	}

	res, err := s.es.Update(s.cacheIndex, queryHash, bytes.NewReader(data),
		s.es.Update.WithContext(ctx))
	if err != nil {
		return apperr.Store("cache touch failed", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperr.Store("cache touch error: "+res.String(), nil)
	}
	return nil
}
