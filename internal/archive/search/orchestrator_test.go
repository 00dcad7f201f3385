package search

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sync"
	"testing"

	"github.com/planquery/appealvault/internal/archive/cache"
	"github.com/planquery/appealvault/internal/archive/crypt"
	"github.com/planquery/appealvault/internal/archive/manifest"
	"github.com/planquery/appealvault/internal/archive/models"
	"github.com/planquery/appealvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore serves marshalled payloads from memory and records fetch order.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	fetched []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) put(name string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	f.mu.Lock()
	f.objects[name] = data
	f.mu.Unlock()
}

func (f *fakeStore) GetJSON(ctx context.Context, name string, v any) error {
	f.mu.Lock()
	data, ok := f.objects[name]
	f.fetched = append(f.fetched, name)
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrBatchNotFound, name)
	}
	return json.Unmarshal(data, v)
}

func (f *fakeStore) Root() string { return "fake://" }

func (f *fakeStore) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetched)
}

type fixture struct {
	orch  *Orchestrator
	store *fakeStore
	cache *cache.Cache
	crypt *crypt.Service
}

const testPassword = "letmein"

// newFixture builds an authenticated orchestrator over n encrypted batches.
// Batch i carries keywords ["kw-i"] and one document mentioning both
// "appeal" and its own marker "marker-i".
func newFixture(t *testing.T, n int) *fixture {
	t.Helper()

	st := newFakeStore()
	descs := make([]models.BatchDescriptor, 0, n)

	for i := 0; i < n; i++ {
		id := fmt.Sprintf("batch-%03d", i)
		batch := &models.DecryptedBatch{
			BatchID: id,
			Documents: []models.ArchivedDocument{
				{
					ID:       fmt.Sprintf("doc-%03d", i),
					Filename: fmt.Sprintf("decision_%03d.pdf", i),
					Content:  fmt.Sprintf("The planning appeal is dismissed. marker-%d", i),
					Metadata: map[string]string{"outcome": "dismissed"},
				},
			},
		}
		payload, err := crypt.EncryptBatch(batch, []byte(testPassword), []byte("salt-"+id))
		require.NoError(t, err)
		st.put("batches/"+id+".json", payload)

		descs = append(descs, models.BatchDescriptor{
			BatchID:       id,
			URL:           "batches/" + id + ".json",
			DocumentCount: 1,
			Keywords:      []string{fmt.Sprintf("kw-%d", i)},
			Size:          1000,
			Encrypted:     true,
		})
	}

	cr := crypt.NewService()
	cr.InitializeWithPassword([]byte(testPassword))
	t.Cleanup(cr.Close)

	c := cache.New(cache.DefaultMaxSize)
	orch := NewOrchestrator(cr, c, nil, Options{ChunkSize: 3})
	orch.SetManifest(&manifest.Result{
		Manifest: &models.StorageManifest{
			TotalDocuments: n,
			TotalBatches:   n,
			Batches:        descs,
		},
		Store: st,
	})

	return &fixture{orch: orch, store: st, cache: c, crypt: cr}
}

func TestSearch_PreflightRejections(t *testing.T) {
	t.Run("not authenticated", func(t *testing.T) {
		cr := crypt.NewService()
		orch := NewOrchestrator(cr, cache.New(0), nil, Options{})
		_, err := orch.Search(context.Background(), models.SearchRequest{Query: "appeal"}, nil)
		assert.ErrorIs(t, err, common.ErrNotAuthenticated)
		assert.Equal(t, StateError, orch.State())
	})

	t.Run("manifest not loaded", func(t *testing.T) {
		cr := crypt.NewService()
		cr.InitializeWithPassword([]byte("pw"))
		defer cr.Close()
		orch := NewOrchestrator(cr, cache.New(0), nil, Options{})
		_, err := orch.Search(context.Background(), models.SearchRequest{Query: "appeal"}, nil)
		assert.ErrorIs(t, err, common.ErrManifestNotLoaded)
	})
}

// Every batch is searched even when no descriptor keyword matches the
// query: the prefilter floor schedules everything.
func TestSearch_Completeness(t *testing.T) {
	const n = 7
	fx := newFixture(t, n)

	resp, err := fx.orch.Search(context.Background(), models.SearchRequest{Query: "appeal"}, nil)
	require.NoError(t, err)

	assert.Equal(t, n, resp.BatchesSearched)
	assert.Equal(t, n, resp.Total)
	assert.Equal(t, StateComplete, fx.orch.State())
}

func TestSearch_ProgressMonotonicAndFinalMatches(t *testing.T) {
	const n = 8
	fx := newFixture(t, n)

	var events []models.ProgressEvent
	resp, err := fx.orch.Search(context.Background(),
		models.SearchRequest{Query: "appeal"},
		func(ev models.ProgressEvent) { events = append(events, ev) })
	require.NoError(t, err)
	require.NotEmpty(t, events)

	prev := 0
	for _, ev := range events {
		assert.GreaterOrEqual(t, ev.CompletedBatches, prev, "progress must be non-decreasing")
		assert.Equal(t, n, ev.TotalBatches)
		prev = ev.CompletedBatches
	}
	assert.Equal(t, resp.BatchesSearched, events[len(events)-1].CompletedBatches)

	// chunk size 3 over 8 batches: events after 3, 6 and 8
	assert.Len(t, events, 3)
}

// High-priority batches (real keyword hits) are fetched before any
// floor-scored batch.
func TestSearch_TwoPhaseOrdering(t *testing.T) {
	fx := newFixture(t, 6)

	// kw-4 matches batch-004 only; everything else is floor-scored
	_, err := fx.orch.Search(context.Background(), models.SearchRequest{Query: "kw-4"}, nil)
	require.NoError(t, err)

	require.NotEmpty(t, fx.store.fetched)
	assert.Equal(t, "batches/batch-004.json", fx.store.fetched[0],
		"the keyword-matched batch must be fetched in the high-priority phase")
	assert.Len(t, fx.store.fetched, 6, "low-priority batches are still searched")
}

func TestSearch_LimitAndLimitedFlag(t *testing.T) {
	fx := newFixture(t, 5)

	resp, err := fx.orch.Search(context.Background(), models.SearchRequest{
		Query:   "appeal",
		Options: models.SearchOptions{Limit: 2},
	}, nil)
	require.NoError(t, err)

	assert.Len(t, resp.Results, 2)
	assert.Equal(t, 5, resp.Total)
	assert.True(t, resp.Limited)
}

func TestSearch_ResultShape(t *testing.T) {
	fx := newFixture(t, 1)

	resp, err := fx.orch.Search(context.Background(), models.SearchRequest{Query: "dismissed"}, nil)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)

	r := resp.Results[0]
	assert.Equal(t, "doc-000", r.ID)
	assert.Equal(t, models.TierCold, r.Tier)
	assert.True(t, r.Archived)
	assert.Equal(t, "batch-000", r.BatchID)
	assert.Contains(t, r.Snippet, "dismissed")
	assert.Equal(t, 1, r.Score)
	assert.False(t, resp.Limited)
}

func TestSearch_ZeroMatchDocumentsDropped(t *testing.T) {
	fx := newFixture(t, 3)

	resp, err := fx.orch.Search(context.Background(), models.SearchRequest{Query: "marker-1"}, nil)
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "doc-001", resp.Results[0].ID)
	assert.Equal(t, 3, resp.BatchesSearched, "non-matching batches still count as searched")
}

func TestSearch_SingleBadBatchIsSkipped(t *testing.T) {
	fx := newFixture(t, 4)

	// corrupt one payload in place
	fx.store.put("batches/batch-002.json", map[string]any{"version": "1.0"})

	resp, err := fx.orch.Search(context.Background(), models.SearchRequest{Query: "appeal"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, resp.BatchesSearched)
	assert.Equal(t, 3, resp.Total)
}

// Skipped batches still advance progress, so the bar completes even when
// BatchesSearched ends up lower than the scheduled total.
func TestSearch_ProgressReachesTotalDespiteSkippedBatches(t *testing.T) {
	const n = 4
	fx := newFixture(t, n)
	fx.store.put("batches/batch-002.json", map[string]any{"version": "1.0"})

	var events []models.ProgressEvent
	resp, err := fx.orch.Search(context.Background(),
		models.SearchRequest{Query: "appeal"},
		func(ev models.ProgressEvent) { events = append(events, ev) })
	require.NoError(t, err)
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	assert.Equal(t, n, last.TotalBatches)
	assert.Equal(t, n, last.CompletedBatches)
	assert.Equal(t, n-1, resp.BatchesSearched)
}

// A wrong password fails the GCM check on every batch; the orchestrator
// reports an aggregate error instead of an empty success.
func TestSearch_AllBatchesFailed(t *testing.T) {
	fx := newFixture(t, 3)
	fx.crypt.InitializeWithPassword([]byte("wrong-password"))

	resp, err := fx.orch.Search(context.Background(), models.SearchRequest{Query: "appeal"}, nil)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, common.ErrAllBatchesFailed)
	assert.Equal(t, StateError, fx.orch.State())
}

func TestSearch_EmptyManifestSucceedsWithZeroResults(t *testing.T) {
	fx := newFixture(t, 0)

	resp, err := fx.orch.Search(context.Background(), models.SearchRequest{Query: "appeal"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.BatchesSearched)
	assert.Empty(t, resp.Results)
}

// A second identical search reuses cached decrypted batches: no new
// fetches.
func TestSearch_CacheReuseAcrossRequests(t *testing.T) {
	fx := newFixture(t, 4)

	_, err := fx.orch.Search(context.Background(), models.SearchRequest{Query: "appeal"}, nil)
	require.NoError(t, err)
	fetchesAfterFirst := fx.store.fetchCount()
	assert.Equal(t, 4, fetchesAfterFirst)

	_, err = fx.orch.Search(context.Background(), models.SearchRequest{Query: "dismissed"}, nil)
	require.NoError(t, err)
	assert.Equal(t, fetchesAfterFirst, fx.store.fetchCount())
}

func TestSearch_HeapPressureClearsCache(t *testing.T) {
	fx := newFixture(t, 2)

	_, err := fx.orch.Search(context.Background(), models.SearchRequest{Query: "appeal"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, fx.cache.Stats().CachedBatches)

	// simulate a heap probe over the threshold
	fx.orch.readMemStats = func(ms *runtime.MemStats) {
		ms.HeapAlloc = fx.orch.opts.HeapThreshold + 1
	}

	_, err = fx.orch.Search(context.Background(), models.SearchRequest{Query: "appeal"}, nil)
	require.NoError(t, err)

	// the pressure check cleared the cache before each lookup, so both
	// batches were fetched again instead of served from cache
	assert.Equal(t, 4, fx.store.fetchCount())
}

func TestSearch_CancelledBetweenChunks(t *testing.T) {
	fx := newFixture(t, 9)

	ctx, cancel := context.WithCancel(context.Background())
	var once sync.Once
	_, err := fx.orch.Search(ctx, models.SearchRequest{Query: "appeal"},
		func(models.ProgressEvent) { once.Do(cancel) })

	assert.ErrorIs(t, err, context.Canceled)
}

func TestMakeSnippet(t *testing.T) {
	content := "Before text. The appeal is dismissed because of Green Belt harm. After text."
	lower := "before text. the appeal is dismissed because of green belt harm. after text."

	t.Run("short content returned whole", func(t *testing.T) {
		s := makeSnippet(content, lower, "appeal")
		assert.Contains(t, s, "appeal is dismissed")
		assert.NotContains(t, s, "...")
	})

	t.Run("long content windows around match", func(t *testing.T) {
		long := ""
		for i := 0; i < 50; i++ {
			long += "padding words here "
		}
		long += "the unique needle sits here "
		for i := 0; i < 50; i++ {
			long += "more padding follows "
		}
		s := makeSnippet(long, long, "needle")
		assert.Contains(t, s, "needle")
		assert.Less(t, len(s), len(long))
		assert.Contains(t, s, "...")
	})
}
