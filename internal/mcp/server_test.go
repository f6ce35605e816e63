package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/linkstash/linkstash/internal/apperr"
	"github.com/linkstash/linkstash/internal/querycache"
	"github.com/linkstash/linkstash/internal/search"
	"github.com/linkstash/linkstash/internal/store"
	"github.com/linkstash/linkstash/pkg/models"
)

type fakeGetter struct {
	bookmarks map[string]*models.Bookmark
}

func (f *fakeGetter) Get(_ context.Context, id string) (*models.Bookmark, error) {
	b, ok := f.bookmarks[id]
	if !ok {
		return nil, apperr.NotFound("bookmark " + id)
	}
	return b, nil
}

type fakeRanker struct {
	results []models.RankedBookmark
}

func (f *fakeRanker) HybridRank(_ context.Context, _ string, _ []float32, _ string, _ int) ([]models.RankedBookmark, error) {
	return f.results, nil
}

func (f *fakeRanker) KeywordSearch(_ context.Context, _ string, _ store.KeywordQuery, _ int) ([]models.RankedBookmark, error) {
	return nil, nil
}

type fakeEmbeddings struct{}

func (fakeEmbeddings) GetOrCreate(_ context.Context, _ string) (querycache.QueryEmbedding, error) {
	return querycache.QueryEmbedding{Vector: []float32{0.1, 0.2}, Model: "test-model"}, nil
}

func toolRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("tool result content is %T, want TextContent", result.Content[0])
	}
	return tc.Text
}

func newTestServer(store Getter, ranker *fakeRanker) *Server {
	engine := search.New(ranker, fakeEmbeddings{})
	return NewServer(Config{Name: "linkstash", Version: "1.0.0", UserID: "alice"}, engine, nil, store)
}

func TestNewServer(t *testing.T) {
	s := newTestServer(&fakeGetter{}, &fakeRanker{})
	if s == nil {
		t.Fatal("NewServer() returned nil")
	}
	if s.mcpServer == nil {
		t.Error("mcpServer should not be nil")
	}
	if s.userID != "alice" {
		t.Errorf("userID = %q, want alice", s.userID)
	}
}

func TestGetHandler_OwnBookmark(t *testing.T) {
	s := newTestServer(&fakeGetter{bookmarks: map[string]*models.Bookmark{
		"b1": {ID: "b1", UserID: "alice", URL: "https://go.dev/blog", Title: "Go Blog"},
	}}, &fakeRanker{})

	result, err := s.getHandler(context.Background(), toolRequest(map[string]any{"id": "b1"}))
	if err != nil {
		t.Fatalf("getHandler() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("getHandler() returned tool error: %s", resultText(t, result))
	}
	if text := resultText(t, result); !strings.Contains(text, "https://go.dev/blog") {
		t.Errorf("result missing bookmark data: %s", text)
	}
}

func TestGetHandler_CrossUserBookmarkHidden(t *testing.T) {
	s := newTestServer(&fakeGetter{bookmarks: map[string]*models.Bookmark{
		"b2": {ID: "b2", UserID: "bob", URL: "https://secret.example.com"},
	}}, &fakeRanker{})

	result, err := s.getHandler(context.Background(), toolRequest(map[string]any{"id": "b2"}))
	if err != nil {
		t.Fatalf("getHandler() error = %v", err)
	}
	if !result.IsError {
		t.Fatal("another user's bookmark should read as an error")
	}
	text := resultText(t, result)
	if !strings.Contains(text, "not found") {
		t.Errorf("cross-user result = %q, want a not-found message", text)
	}
	if strings.Contains(text, "secret.example.com") {
		t.Errorf("cross-user result leaks bookmark data: %s", text)
	}
}

func TestGetHandler_MissingBookmark(t *testing.T) {
	s := newTestServer(&fakeGetter{}, &fakeRanker{})

	result, err := s.getHandler(context.Background(), toolRequest(map[string]any{"id": "nope"}))
	if err != nil {
		t.Fatalf("getHandler() error = %v", err)
	}
	if !result.IsError {
		t.Error("missing bookmark should read as an error")
	}
}

func TestGetHandler_MissingArgument(t *testing.T) {
	s := newTestServer(&fakeGetter{}, &fakeRanker{})

	result, err := s.getHandler(context.Background(), toolRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("getHandler() error = %v", err)
	}
	if !result.IsError {
		t.Error("missing id argument should read as an error")
	}
}

func TestSearchHandler(t *testing.T) {
	ranker := &fakeRanker{results: []models.RankedBookmark{
		{Bookmark: models.Bookmark{ID: "b1", UserID: "alice", URL: "https://go.dev/blog", Title: "Go Blog"}, Score: 1.5},
	}}
	s := newTestServer(&fakeGetter{}, ranker)

	result, err := s.searchHandler(context.Background(), toolRequest(map[string]any{"query": "go blog"}))
	if err != nil {
		t.Fatalf("searchHandler() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("searchHandler() returned tool error: %s", resultText(t, result))
	}
	if text := resultText(t, result); !strings.Contains(text, "https://go.dev/blog") {
		t.Errorf("result missing ranked bookmark: %s", text)
	}
}

func TestSearchHandler_MissingQuery(t *testing.T) {
	s := newTestServer(&fakeGetter{}, &fakeRanker{})

	result, err := s.searchHandler(context.Background(), toolRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("searchHandler() error = %v", err)
	}
	if !result.IsError {
		t.Error("missing query argument should read as an error")
	}
}
