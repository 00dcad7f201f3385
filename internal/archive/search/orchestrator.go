// Package search drives the cold-storage traversal: it ranks batches,
// processes them in two priority phases with bounded concurrency, streams
// progress, and aggregates the ranked result set.
package search

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/planquery/appealvault/internal/archive/cache"
	"github.com/planquery/appealvault/internal/archive/crypt"
	"github.com/planquery/appealvault/internal/archive/manifest"
	"github.com/planquery/appealvault/internal/archive/models"
	"github.com/planquery/appealvault/internal/archive/prefilter"
	"github.com/planquery/appealvault/internal/archive/store"
	"github.com/planquery/appealvault/internal/common"
	"github.com/planquery/appealvault/internal/logging"
)

// State names the orchestrator's position in its per-request lifecycle.
type State string

const (
	StateIdle            State = "idle"
	StateAuthenticating  State = "authenticating"
	StateManifestLoading State = "manifest_loading"
	StateRanking         State = "ranking"
	StateSearchingHigh   State = "searching_high_priority"
	StateSearchingLow    State = "searching_low_priority"
	StateAggregating     State = "aggregating"
	StateComplete        State = "complete"
	StateError           State = "error"
)

// ProgressFunc receives progress events as batch chunks complete. May be nil.
type ProgressFunc func(models.ProgressEvent)

// Options tunes the traversal. Zero values fall back to the archive
// defaults.
type Options struct {
	// ChunkSize is how many batch fetch+search operations overlap.
	ChunkSize int
	// ChunkYield is the cooperative pause between chunks.
	ChunkYield time.Duration
	// HeapThreshold triggers a proactive cache clear when exceeded.
	HeapThreshold uint64
	// DefaultLimit caps results when the request does not set its own limit.
	DefaultLimit int
}

// Orchestrator owns one worker's search pipeline. It is driven serially by
// the worker loop; only batch operations inside a chunk overlap.
type Orchestrator struct {
	crypt *crypt.Service
	cache *cache.Cache
	log   logging.Logger
	opts  Options

	mu       sync.Mutex
	state    State
	manifest *models.StorageManifest
	store    store.Store
	degraded bool

	// readMemStats is a seam so tests can simulate heap pressure.
	readMemStats func(*runtime.MemStats)
}

func NewOrchestrator(cr *crypt.Service, c *cache.Cache, log logging.Logger, opts Options) *Orchestrator {
	if log == nil {
		log = logging.NewDiscardLogger()
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 3
	}
	if opts.HeapThreshold == 0 {
		opts.HeapThreshold = 200 * 1024 * 1024
	}
	return &Orchestrator{
		crypt:        cr,
		cache:        c,
		log:          log,
		opts:         opts,
		state:        StateIdle,
		readMemStats: runtime.ReadMemStats,
	}
}

// SetManifest installs a loaded manifest and the store that served it.
// A degraded load (empty substituted batch list) is remembered so the
// archive reports zero documents rather than failing searches outright.
func (o *Orchestrator) SetManifest(res *manifest.Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.manifest = res.Manifest
	o.store = res.Store
	o.degraded = res.Degraded
}

// ManifestLoaded reports whether a manifest is installed.
func (o *Orchestrator) ManifestLoaded() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.manifest != nil
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Search runs one query across every batch in the manifest. Pre-flight
// conditions (no password, no manifest) are rejected before any batch work;
// per-batch failures are logged and skipped. When every scheduled batch
// fails, the search reports common.ErrAllBatchesFailed so callers can tell
// a broken archive (or wrong password) from a genuine zero-match result.
//
// Progress counts processed batches, skipped ones included, so the final
// event always reaches the scheduled total. BatchesSearched in the response
// counts only the batches actually searched and can be lower.
func (o *Orchestrator) Search(ctx context.Context, req models.SearchRequest, progress ProgressFunc) (*models.SearchResponse, error) {
	o.setState(StateAuthenticating)
	if !o.crypt.Initialized() {
		o.setState(StateError)
		return nil, common.ErrNotAuthenticated
	}

	o.setState(StateManifestLoading)
	o.mu.Lock()
	m := o.manifest
	st := o.store
	o.mu.Unlock()
	if m == nil {
		o.setState(StateError)
		return nil, common.ErrManifestNotLoaded
	}

	o.setState(StateRanking)
	ranked := prefilter.Rank(req.Query, m.Batches, req.Options)
	var high, low []prefilter.Ranked
	for _, r := range ranked {
		if r.KeywordMatch {
			high = append(high, r)
		} else {
			low = append(low, r)
		}
	}
	terms := prefilter.Tokenize(req.Query)

	trav := &traversal{
		orch:     o,
		store:    st,
		terms:    terms,
		total:    len(ranked),
		progress: progress,
	}

	o.setState(StateSearchingHigh)
	if err := trav.runPhase(ctx, high, "Searching likely batches"); err != nil {
		o.setState(StateError)
		return nil, err
	}
	o.setState(StateSearchingLow)
	if err := trav.runPhase(ctx, low, "Searching remaining archive"); err != nil {
		o.setState(StateError)
		return nil, err
	}

	o.setState(StateAggregating)
	resp, err := trav.aggregate(req)
	if err != nil {
		o.setState(StateError)
		return nil, err
	}

	o.setState(StateComplete)
	return resp, nil
}

// traversal accumulates state for one search request across both phases.
type traversal struct {
	orch     *Orchestrator
	store    store.Store
	terms    []string
	total    int
	progress ProgressFunc

	completed int
	failed    int
	results   []models.SearchResult
}

// runPhase walks one priority partition in fixed-size chunks. The chunk
// members overlap; the traversal waits for the whole chunk, reports
// progress, then yields briefly before the next chunk. Context
// cancellation is honored at chunk boundaries.
func (t *traversal) runPhase(ctx context.Context, batches []prefilter.Ranked, message string) error {
	chunkSize := t.orch.opts.ChunkSize

	for start := 0; start < len(batches); start += chunkSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + chunkSize
		if end > len(batches) {
			end = len(batches)
		}
		chunk := batches[start:end]

		chunkResults := make([][]models.SearchResult, len(chunk))
		chunkErrs := make([]error, len(chunk))

		g, gctx := errgroup.WithContext(ctx)
		for i, r := range chunk {
			i, r := i, r
			g.Go(func() error {
				res, err := t.orch.searchBatch(gctx, t.store, r.Descriptor, t.terms)
				chunkResults[i] = res
				chunkErrs[i] = err
				return nil
			})
		}
		_ = g.Wait()

		var partial []models.SearchResult
		for i, r := range chunk {
			if chunkErrs[i] != nil {
				t.failed++
				t.orch.log.Warn(ctx, "batch skipped",
					"batch_id", r.Descriptor.BatchID,
					"op", "fetch_decrypt_search",
					"error", chunkErrs[i].Error())
				continue
			}
			partial = append(partial, chunkResults[i]...)
		}
		t.completed += len(chunk)
		t.results = append(t.results, partial...)

		if t.progress != nil {
			t.progress(models.ProgressEvent{
				Message:          fmt.Sprintf("%s (%d/%d)", message, t.completed, t.total),
				TotalBatches:     t.total,
				CompletedBatches: t.completed,
				PartialResults:   partial,
			})
		}

		// cooperative yield so the host can interleave other work
		if t.orch.opts.ChunkYield > 0 && end < len(batches) {
			select {
			case <-time.After(t.orch.opts.ChunkYield):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

func (t *traversal) aggregate(req models.SearchRequest) (*models.SearchResponse, error) {
	searched := t.total - t.failed
	if t.total > 0 && searched == 0 {
		return nil, common.ErrAllBatchesFailed
	}

	sort.SliceStable(t.results, func(i, j int) bool {
		return t.results[i].Score > t.results[j].Score
	})

	limit := req.Options.Limit
	if limit <= 0 {
		limit = t.orch.opts.DefaultLimit
	}

	total := len(t.results)
	limited := false
	results := t.results
	if limit > 0 && total > limit {
		results = results[:limit]
		limited = true
	}
	if results == nil {
		results = []models.SearchResult{}
	}

	return &models.SearchResponse{
		Results:         results,
		Total:           total,
		Query:           req.Query,
		BatchesSearched: searched,
		Limited:         limited,
	}, nil
}

// searchBatch resolves one batch's content (cache, else fetch and decrypt)
// and scans its documents. Errors are per-batch: the caller logs and skips.
func (o *Orchestrator) searchBatch(ctx context.Context, st store.Store, desc models.BatchDescriptor, terms []string) ([]models.SearchResult, error) {
	o.checkMemoryPressure(ctx)

	batch, ok := o.cache.Get(desc.BatchID)
	if !ok {
		var payload models.EncryptedBatchPayload
		if err := st.GetJSON(ctx, desc.URL, &payload); err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}

		decrypted, err := o.crypt.DecryptBatch(&payload)
		if err != nil {
			return nil, err
		}
		batch = decrypted
		o.cache.Put(desc.BatchID, batch, approxBatchSize(desc, batch))
	}

	return searchDocuments(batch, terms), nil
}

// checkMemoryPressure clears the cache proactively when the heap probe
// exceeds the configured threshold, trading cache hits for headroom.
func (o *Orchestrator) checkMemoryPressure(ctx context.Context) {
	var ms runtime.MemStats
	o.readMemStats(&ms)
	if ms.HeapAlloc > o.opts.HeapThreshold {
		o.log.Warn(ctx, "heap above threshold, clearing batch cache",
			"heap_alloc", ms.HeapAlloc,
			"threshold", o.opts.HeapThreshold)
		o.cache.Clear()
	}
}

// approxBatchSize prefers the manifest's size estimate and falls back to
// summing document content lengths.
func approxBatchSize(desc models.BatchDescriptor, batch *models.DecryptedBatch) int64 {
	if desc.Size > 0 {
		return desc.Size
	}
	var size int64
	for _, d := range batch.Documents {
		size += int64(len(d.Content)) + int64(len(d.Filename)) + 64
	}
	return size
}

// searchDocuments counts case-insensitive term occurrences per document.
// Relevance is the sum of occurrence counts; zero-match documents are
// dropped. Each document yields at most one result.
func searchDocuments(batch *models.DecryptedBatch, terms []string) []models.SearchResult {
	if len(terms) == 0 {
		return nil
	}

	var results []models.SearchResult
	for _, doc := range batch.Documents {
		content := strings.ToLower(doc.Content)

		score := 0
		firstTerm := ""
		for _, term := range terms {
			n := strings.Count(content, term)
			if n > 0 && firstTerm == "" {
				firstTerm = term
			}
			score += n
		}
		if score == 0 {
			continue
		}

		results = append(results, models.SearchResult{
			ID:       doc.ID,
			Filename: doc.Filename,
			Metadata: doc.Metadata,
			Snippet:  makeSnippet(doc.Content, content, firstTerm),
			Score:    score,
			Tier:     models.TierCold,
			Archived: true,
			BatchID:  batch.BatchID,
		})
	}
	return results
}

const (
	snippetBefore = 60
	snippetAfter  = 160
)

// makeSnippet extracts a context window around the first occurrence of
// term. lower is the pre-lowercased content so the scan and the original
// text share byte offsets.
func makeSnippet(content, lower, term string) string {
	idx := strings.Index(lower, term)
	if idx < 0 {
		if len(content) > snippetAfter {
			return content[:snippetAfter] + "..."
		}
		return content
	}

	start := idx - snippetBefore
	if start < 0 {
		start = 0
	}
	end := idx + len(term) + snippetAfter
	if end > len(content) {
		end = len(content)
	}

	// back off to rune boundaries so multi-byte characters survive the cut
	for start > 0 && !utf8RuneStart(content[start]) {
		start--
	}
	for end < len(content) && !utf8RuneStart(content[end]) {
		end++
	}

	snippet := content[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(content) {
		snippet += "..."
	}
	return snippet
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
