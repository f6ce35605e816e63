// Package pipeline orchestrates the bookmark save and refresh flows:
// URL normalization, auto-tagging, metadata extraction, persistence,
// and the follow-up work (snapshot archival, embedding refresh) that
// runs detached from the request.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/linkstash/linkstash/internal/apperr"
	"github.com/linkstash/linkstash/internal/events"
	"github.com/linkstash/linkstash/internal/indexer"
	"github.com/linkstash/linkstash/internal/llm"
	"github.com/linkstash/linkstash/internal/metadata"
	"github.com/linkstash/linkstash/internal/tagging"
	"github.com/linkstash/linkstash/internal/tasks"
	"github.com/linkstash/linkstash/pkg/models"
)

// Store is the persistence surface the pipeline needs.
type Store interface {
	Get(ctx context.Context, id string) (*models.Bookmark, error)
	Save(ctx context.Context, bookmark *models.Bookmark) error
	Delete(ctx context.Context, id string) error
}

// Fetcher retrieves page metadata for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*metadata.PageMetadata, error)
}

// Reindexer refreshes a bookmark's embedding after its content changed.
type Reindexer interface {
	Reindex(ctx context.Context, bookmarkID, ownerID string) (indexer.Result, error)
}

// Snapshotter archives raw page HTML.
type Snapshotter interface {
	Put(ctx context.Context, userID, bookmarkID, html string) error
	Delete(ctx context.Context, userID, bookmarkID string) error
}

// Suggester proposes tags and a description for sparse bookmarks.
type Suggester interface {
	SuggestBookmark(ctx context.Context, title, content string) (*llm.Suggestion, error)
}

// Pipeline wires the save and refresh flows together.
type Pipeline struct {
	store     Store
	fetcher   Fetcher
	indexer   Reindexer
	snapshots Snapshotter // nil when snapshot archival is disabled
	suggester Suggester   // nil when LLM enrichment is disabled
	runner    *tasks.Runner

	reindexEvents chan<- events.ReindexCompleteEvent
}

// New creates a pipeline. snapshots and suggester may be nil.
func New(store Store, fetcher Fetcher, reindexer Reindexer, snapshots Snapshotter, suggester Suggester, runner *tasks.Runner) *Pipeline {
	return &Pipeline{
		store:     store,
		fetcher:   fetcher,
		indexer:   reindexer,
		snapshots: snapshots,
		suggester: suggester,
		runner:    runner,
	}
}

// SaveRequest describes a bookmark to save.
type SaveRequest struct {
	UserID string
	URL    string // page URL, or note:// followed by the note text
	Notes  string
	Tags   []string
}

// Save stores a bookmark. URLs get their metadata fetched inline;
// metadata failure degrades to a bare bookmark rather than failing the
// save. Snapshot archival and embedding refresh run detached.
func (p *Pipeline) Save(ctx context.Context, req SaveRequest) (*models.Bookmark, error) {
	if req.UserID == "" {
		return nil, apperr.Unauthorized("missing user")
	}
	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		return nil, apperr.InvalidRequest("url is required")
	}

	isNote := strings.HasPrefix(rawURL, tagging.NotePrefix)
	if !isNote && !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	now := time.Now().UTC()
	bookmark := &models.Bookmark{
		ID:        models.GenerateBookmarkID(req.UserID, rawURL),
		UserID:    req.UserID,
		URL:       rawURL,
		Notes:     req.Notes,
		Tags:      tagging.EnsureTypeTag(rawURL, req.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if isNote {
		bookmark.Notes = strings.TrimSpace(strings.TrimPrefix(rawURL, tagging.NotePrefix))
		if req.Notes != "" {
			bookmark.Notes = req.Notes
		}
	}

	// Saving the same URL twice updates the existing record in place.
	if existing, err := p.store.Get(ctx, bookmark.ID); err == nil {
		bookmark.CreatedAt = existing.CreatedAt
	} else if !apperr.HasCode(err, apperr.CodeNotFound) {
		return nil, fmt.Errorf("checking existing bookmark: %w", err)
	}

	var rawHTML string
	if !isNote {
		meta, err := p.fetcher.Fetch(ctx, rawURL)
		if err != nil {
			slog.Warn("metadata fetch failed, saving bare bookmark", "url", rawURL, "error", err)
		} else {
			bookmark.Title = meta.Title
			bookmark.Description = meta.Description
			bookmark.SiteName = meta.SiteName
			bookmark.ImageURL = meta.ImageURL
			bookmark.ContentText = meta.ContentText
			rawHTML = meta.RawHTML
		}
		p.enrich(ctx, bookmark)
	}

	if err := p.store.Save(ctx, bookmark); err != nil {
		return nil, fmt.Errorf("saving bookmark: %w", err)
	}

	p.archiveAndReindex(bookmark, rawHTML)
	return bookmark, nil
}

// RefreshResult reports what a refresh did.
type RefreshResult struct {
	Bookmark *models.Bookmark
	Updated  bool // false when there was nothing to re-fetch
}

// Refresh re-fetches metadata for an existing bookmark and triggers an
// embedding refresh. Notes have no page to fetch and are reported as
// not updated.
func (p *Pipeline) Refresh(ctx context.Context, userID, bookmarkID string) (*RefreshResult, error) {
	bookmark, err := p.store.Get(ctx, bookmarkID)
	if err != nil {
		return nil, err
	}
	if bookmark.UserID != userID {
		return nil, apperr.Forbidden("bookmark belongs to another user")
	}
	if strings.HasPrefix(bookmark.URL, tagging.NotePrefix) {
		return &RefreshResult{Bookmark: bookmark}, nil
	}

	meta, err := p.fetcher.Fetch(ctx, bookmark.URL)
	if err != nil {
		slog.Warn("refresh fetch failed", "url", bookmark.URL, "error", err)
		return &RefreshResult{Bookmark: bookmark}, nil
	}

	bookmark.Title = meta.Title
	bookmark.Description = meta.Description
	bookmark.SiteName = meta.SiteName
	if meta.ImageURL != "" {
		bookmark.ImageURL = meta.ImageURL
	}
	if meta.ContentText != "" {
		bookmark.ContentText = meta.ContentText
	}
	bookmark.UpdatedAt = time.Now().UTC()
	p.enrich(ctx, bookmark)

	if err := p.store.Save(ctx, bookmark); err != nil {
		return nil, fmt.Errorf("saving refreshed bookmark: %w", err)
	}

	p.archiveAndReindex(bookmark, meta.RawHTML)
	return &RefreshResult{Bookmark: bookmark, Updated: true}, nil
}

// Delete removes a bookmark and its archived snapshot.
func (p *Pipeline) Delete(ctx context.Context, userID, bookmarkID string) error {
	bookmark, err := p.store.Get(ctx, bookmarkID)
	if err != nil {
		return err
	}
	if bookmark.UserID != userID {
		return apperr.Forbidden("bookmark belongs to another user")
	}
	if err := p.store.Delete(ctx, bookmarkID); err != nil {
		return fmt.Errorf("deleting bookmark: %w", err)
	}
	if p.snapshots != nil {
		p.runner.Go("snapshot-delete", func(ctx context.Context) error {
			return p.snapshots.Delete(ctx, userID, bookmarkID)
		})
	}
	return nil
}

// enrich asks the LLM for tags and a description when extraction came
// back thin. Failures are logged and ignored.
func (p *Pipeline) enrich(ctx context.Context, bookmark *models.Bookmark) {
	if p.suggester == nil {
		return
	}
	if bookmark.Description != "" && len(bookmark.Tags) > 1 {
		return
	}
	suggestion, err := p.suggester.SuggestBookmark(ctx, bookmark.Title, bookmark.ContentText)
	if err != nil {
		slog.Warn("bookmark enrichment failed", "url", bookmark.URL, "error", err)
		return
	}
	if bookmark.Description == "" {
		bookmark.Description = suggestion.Description
	}
	bookmark.Tags = mergeTags(bookmark.Tags, suggestion.Tags)
}

// archiveAndReindex schedules the detached follow-up work for a saved
// bookmark.
func (p *Pipeline) archiveAndReindex(bookmark *models.Bookmark, rawHTML string) {
	if p.snapshots != nil && rawHTML != "" {
		userID, bookmarkID := bookmark.UserID, bookmark.ID
		p.runner.Go("snapshot-put", func(ctx context.Context) error {
			return p.snapshots.Put(ctx, userID, bookmarkID, rawHTML)
		})
	}
	userID, bookmarkID := bookmark.UserID, bookmark.ID
	p.runner.Go("reindex", func(ctx context.Context) error {
		start := time.Now()
		result, err := p.indexer.Reindex(ctx, bookmarkID, userID)
		if err != nil {
			return err
		}
		if p.reindexEvents != nil {
			// Non-blocking so a full channel never wedges the runner.
			select {
			case p.reindexEvents <- events.ReindexCompleteEvent{
				BookmarkID: bookmarkID,
				Skipped:    result.Skipped,
				Duration:   time.Since(start),
			}:
			default:
			}
		}
		return nil
	})
}

// NotifyReindex directs reindex completion events to ch. Events are
// dropped when ch is full; pass a buffered channel.
func (p *Pipeline) NotifyReindex(ch chan<- events.ReindexCompleteEvent) {
	p.reindexEvents = ch
}

// mergeTags appends suggested tags that are not already present.
func mergeTags(existing, suggested []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, tag := range existing {
		seen[strings.ToLower(tag)] = true
	}
	merged := existing
	for _, tag := range suggested {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[strings.ToLower(tag)] {
			continue
		}
		seen[strings.ToLower(tag)] = true
		merged = append(merged, tag)
	}
	return merged
}
