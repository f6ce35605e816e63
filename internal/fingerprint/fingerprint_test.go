package fingerprint

import (
	"testing"

	"github.com/linkstash/linkstash/pkg/models"
)

func baseContent() models.BookmarkContent {
	return models.BookmarkContent{
		Title:       "Rust Ownership",
		Notes:       "read later",
		ContentText: "borrow checker explained",
		Description: "a guide to ownership",
		Tags:        []string{"rust", "systems"},
		SiteName:    "example.com",
	}
}

func TestHash_Deterministic(t *testing.T) {
	c := baseContent()
	if Hash(c) != Hash(c) {
		t.Error("hash of identical content differs")
	}
	if len(Hash(c)) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(Hash(c)))
	}
}

func TestHash_TagOrderIrrelevant(t *testing.T) {
	a := baseContent()
	b := baseContent()
	b.Tags = []string{"systems", "rust"}

	if Hash(a) != Hash(b) {
		t.Error("reordered tags changed the hash")
	}
}

func TestHash_AnyFieldChange(t *testing.T) {
	base := Hash(baseContent())

	mutations := map[string]func(*models.BookmarkContent){
		"title":       func(c *models.BookmarkContent) { c.Title = "Go Ownership" },
		"notes":       func(c *models.BookmarkContent) { c.Notes = "read now" },
		"contentText": func(c *models.BookmarkContent) { c.ContentText = "lifetimes explained" },
		"description": func(c *models.BookmarkContent) { c.Description = "another guide" },
		"tags":        func(c *models.BookmarkContent) { c.Tags = []string{"rust"} },
		"siteName":    func(c *models.BookmarkContent) { c.SiteName = "other.com" },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			c := baseContent()
			mutate(&c)
			if Hash(c) == base {
				t.Errorf("changing %s did not change the hash", name)
			}
		})
	}
}

func TestHash_FieldBoundaries(t *testing.T) {
	// Content shifted across adjacent fields must not collide.
	a := models.BookmarkContent{Title: "ab", Description: "c"}
	b := models.BookmarkContent{Title: "a", Description: "bc"}
	if Hash(a) == Hash(b) {
		t.Error("field boundary collision between title and description")
	}

	c := models.BookmarkContent{Tags: []string{"a", "b"}}
	d := models.BookmarkContent{Tags: []string{"a"}, SiteName: "b"}
	if Hash(c) == Hash(d) {
		t.Error("field boundary collision between tags and siteName")
	}
}

func TestHash_Empty(t *testing.T) {
	if Hash(models.BookmarkContent{}) == "" {
		t.Error("empty content should still hash")
	}
	if Hash(models.BookmarkContent{}) == Hash(models.BookmarkContent{Title: "x"}) {
		t.Error("empty and non-empty content collided")
	}
}
