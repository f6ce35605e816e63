package querycache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/linkstash/linkstash/internal/apperr"
	"github.com/linkstash/linkstash/internal/tasks"
	"github.com/linkstash/linkstash/pkg/models"
)

type fakeStore struct {
	mu      sync.Mutex
	entries map[string]*models.QueryCacheEntry

	getErr   error
	putErr   error
	touchErr error

	touches int
	puts    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: map[string]*models.QueryCacheEntry{}}
}

func (f *fakeStore) GetCacheEntry(ctx context.Context, hash string) (*models.QueryCacheEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	e, ok := f.entries[hash]
	if !ok {
		return nil, apperr.NotFound("cache entry")
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) PutCacheEntry(ctx context.Context, entry *models.QueryCacheEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.putErr != nil {
		return f.putErr
	}
	cp := *entry
	f.entries[entry.QueryHash] = &cp
	return nil
}

func (f *fakeStore) TouchCacheEntry(ctx context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touches++
	return f.touchErr
}

type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
	vec   []float32
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	vec := f.vec
	if vec == nil {
		vec = []float32{0.1, 0.2, 0.3}
	}
	return vec, "test-model", nil
}

func (f *fakeEmbedder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newCache(store *fakeStore, emb *fakeEmbedder) (*Cache, *tasks.Runner) {
	runner := tasks.NewRunner(time.Second)
	return New(store, emb, runner, 16), runner
}

func TestGetOrCreate_MissThenHit(t *testing.T) {
	store := newFakeStore()
	emb := &fakeEmbedder{}
	cache, runner := newCache(store, emb)

	first, err := cache.GetOrCreate(context.Background(), "Rust Ownership")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if first.CacheHit {
		t.Error("first call reported a cache hit")
	}
	if len(first.Vector) == 0 || first.Model != "test-model" {
		t.Errorf("unexpected result: %+v", first)
	}

	second, err := cache.GetOrCreate(context.Background(), "rust ownership")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if !second.CacheHit {
		t.Error("second call with equivalent query missed the cache")
	}
	if emb.Calls() != 1 {
		t.Errorf("provider called %d times, want 1", emb.Calls())
	}

	runner.Close()
	if store.touches == 0 {
		t.Error("hit did not schedule a cache touch")
	}
}

func TestGetOrCreate_CallerMutationDoesNotCorruptCache(t *testing.T) {
	store := newFakeStore()
	emb := &fakeEmbedder{vec: []float32{0.5, 0.25}}
	cache, runner := newCache(store, emb)
	defer runner.Close()

	miss, err := cache.GetOrCreate(context.Background(), "rust ownership")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	miss.Vector[0] = 99

	hit, err := cache.GetOrCreate(context.Background(), "rust ownership")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if !hit.CacheHit {
		t.Fatal("second call missed the cache")
	}
	if hit.Vector[0] != 0.5 {
		t.Errorf("cached vector[0] = %v, caller mutation leaked into the cache", hit.Vector[0])
	}
	hit.Vector[1] = 99

	again, err := cache.GetOrCreate(context.Background(), "rust ownership")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if again.Vector[1] != 0.25 {
		t.Errorf("cached vector[1] = %v, hot-hit result shares cache memory", again.Vector[1])
	}
	if emb.Calls() != 1 {
		t.Errorf("provider called %d times, want 1", emb.Calls())
	}

	// Same persisted entry read through a fresh cache exercises the
	// store-hit path.
	fresh, runner2 := newCache(store, emb)
	defer runner2.Close()

	stored, err := fresh.GetOrCreate(context.Background(), "rust ownership")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	stored.Vector[0] = 99

	after, err := fresh.GetOrCreate(context.Background(), "rust ownership")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if after.Vector[0] != 0.5 {
		t.Errorf("cached vector[0] = %v, store-hit result shares cache memory", after.Vector[0])
	}
}

func TestGetOrCreate_EquivalentQueriesShareEntry(t *testing.T) {
	store := newFakeStore()
	emb := &fakeEmbedder{}
	cache, runner := newCache(store, emb)
	defer runner.Close()

	if _, err := cache.GetOrCreate(context.Background(), "  Rust   Ownership  "); err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	res, err := cache.GetOrCreate(context.Background(), "rust ownership")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if !res.CacheHit {
		t.Error("equivalent query did not hit the shared entry")
	}
	if len(store.entries) != 1 {
		t.Errorf("expected 1 persisted entry, got %d", len(store.entries))
	}
	for _, e := range store.entries {
		if e.QueryText != "rust ownership" {
			t.Errorf("stored query text = %q, want normalized form", e.QueryText)
		}
		if e.UseCount != 1 {
			t.Errorf("stored use count = %d, want 1", e.UseCount)
		}
	}
}

func TestGetOrCreate_StoreHitWithoutHotLayer(t *testing.T) {
	store := newFakeStore()
	hash := HashQuery("rust ownership")
	store.entries[hash] = &models.QueryCacheEntry{
		QueryHash: hash,
		QueryText: "rust ownership",
		Embedding: models.VectorLiteral([]float32{1, 2, 3}),
		Model:     "stored-model",
	}

	emb := &fakeEmbedder{}
	cache, runner := newCache(store, emb)
	defer runner.Close()

	res, err := cache.GetOrCreate(context.Background(), "rust ownership")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if !res.CacheHit {
		t.Error("persisted entry was not a hit")
	}
	if res.Model != "stored-model" {
		t.Errorf("model = %q, want stored-model", res.Model)
	}
	if emb.Calls() != 0 {
		t.Error("provider called despite a valid persisted entry")
	}
}

func TestGetOrCreate_CorruptEntryRegenerates(t *testing.T) {
	store := newFakeStore()
	hash := HashQuery("rust ownership")
	store.entries[hash] = &models.QueryCacheEntry{
		QueryHash: hash,
		Embedding: "not a vector",
		Model:     "stored-model",
	}

	emb := &fakeEmbedder{}
	cache, runner := newCache(store, emb)
	defer runner.Close()

	res, err := cache.GetOrCreate(context.Background(), "rust ownership")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if res.CacheHit {
		t.Error("corrupt entry reported as a hit")
	}
	if emb.Calls() != 1 {
		t.Errorf("provider called %d times, want 1", emb.Calls())
	}
}

func TestGetOrCreate_StoreFaultDegradesToGeneration(t *testing.T) {
	store := newFakeStore()
	store.getErr = apperr.Store("es down", errors.New("connection refused"))

	emb := &fakeEmbedder{}
	cache, runner := newCache(store, emb)
	defer runner.Close()

	res, err := cache.GetOrCreate(context.Background(), "rust ownership")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v, want degradation to generation", err)
	}
	if res.CacheHit {
		t.Error("store fault reported as a hit")
	}
	if emb.Calls() != 1 {
		t.Errorf("provider called %d times, want 1", emb.Calls())
	}
}

func TestGetOrCreate_PersistFailureStillReturns(t *testing.T) {
	store := newFakeStore()
	store.putErr = apperr.Store("write refused", nil)

	emb := &fakeEmbedder{}
	cache, runner := newCache(store, emb)
	defer runner.Close()

	res, err := cache.GetOrCreate(context.Background(), "rust ownership")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v, want freshly generated embedding", err)
	}
	if len(res.Vector) == 0 {
		t.Error("no vector returned despite successful generation")
	}
}

func TestGetOrCreate_TouchFailureDoesNotAffectResult(t *testing.T) {
	store := newFakeStore()
	hash := HashQuery("rust ownership")
	store.entries[hash] = &models.QueryCacheEntry{
		QueryHash: hash,
		Embedding: models.VectorLiteral([]float32{1, 2}),
		Model:     "stored-model",
	}
	store.touchErr = errors.New("touch refused")

	emb := &fakeEmbedder{}
	cache, runner := newCache(store, emb)

	res, err := cache.GetOrCreate(context.Background(), "rust ownership")
	runner.Close()
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if !res.CacheHit {
		t.Error("touch failure turned a hit into a miss")
	}
}

func TestGetOrCreate_ProviderFailurePropagates(t *testing.T) {
	store := newFakeStore()
	emb := &fakeEmbedder{err: apperr.Provider("down", nil)}
	cache, runner := newCache(store, emb)
	defer runner.Close()

	_, err := cache.GetOrCreate(context.Background(), "rust ownership")
	if !apperr.HasCode(err, apperr.CodeProvider) {
		t.Errorf("expected provider error, got %v", err)
	}
}
