// Package worker runs the archive engine on a dedicated goroutine and
// exposes it through a message protocol: requests go in on one channel,
// correlated responses and progress events come out on another. The engine
// owns the password, the manifest and the batch cache; callers only ever
// exchange messages with it.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/planquery/appealvault/internal/archive/cache"
	"github.com/planquery/appealvault/internal/archive/crypt"
	"github.com/planquery/appealvault/internal/archive/manifest"
	"github.com/planquery/appealvault/internal/archive/models"
	"github.com/planquery/appealvault/internal/archive/search"
	"github.com/planquery/appealvault/internal/common"
	"github.com/planquery/appealvault/internal/logging"
)

// Op identifies a worker operation.
type Op string

const (
	OpUnlock         Op = "unlock"
	OpLoadManifest   Op = "load_manifest"
	OpReloadManifest Op = "reload_manifest"
	OpSearch         Op = "search"
	OpCacheStats     Op = "cache_stats"
	OpClearCache     Op = "clear_cache"
)

// Kind distinguishes terminal responses from progress events.
type Kind string

const (
	KindResult   Kind = "result"
	KindProgress Kind = "progress"
)

// Request is one message into the worker. ID correlates the eventual
// response; callers that stop waiting simply forget the ID.
type Request struct {
	ID string
	Op Op

	// Password accompanies OpUnlock. The worker wipes it after copying.
	Password []byte
	// Search accompanies OpSearch.
	Search models.SearchRequest
}

// Message is one message out of the worker: either the terminal result of
// the request with the same ID, or an intermediate progress event.
type Message struct {
	ID       string
	Op       Op
	Kind     Kind
	Result   any
	Progress *models.ProgressEvent
	Err      error
}

// ManifestInfo summarizes a loaded manifest for the caller. The descriptors
// themselves stay inside the worker.
type ManifestInfo struct {
	TotalDocuments int    `json:"totalDocuments"`
	TotalBatches   int    `json:"totalBatches"`
	Root           string `json:"root"`
	Degraded       bool   `json:"degraded"`
}

// Worker processes requests one at a time on its own goroutine. Batch-level
// concurrency happens inside a search; the request stream itself is serial,
// which keeps the engine state free of cross-request races.
type Worker struct {
	log    logging.Logger
	crypt  *crypt.Service
	cache  *cache.Cache
	loader *manifest.Loader
	orch   *search.Orchestrator

	requests chan Request
	out      chan Message

	closeOnce sync.Once
	closed    chan struct{}
}

func New(cr *crypt.Service, c *cache.Cache, loader *manifest.Loader, orch *search.Orchestrator, log logging.Logger) *Worker {
	if log == nil {
		log = logging.NewDiscardLogger()
	}
	return &Worker{
		log:      log,
		crypt:    cr,
		cache:    c,
		loader:   loader,
		orch:     orch,
		requests: make(chan Request, 16),
		out:      make(chan Message, 16),
		closed:   make(chan struct{}),
	}
}

// Start launches the worker loop. The loop exits when ctx is cancelled or
// Close is called; either way the stored password is wiped on the way out.
func (w *Worker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Messages is the stream of responses and progress events.
func (w *Worker) Messages() <-chan Message {
	return w.out
}

// Submit enqueues a request. Returns common.ErrWorkerClosed once the worker
// has shut down.
func (w *Worker) Submit(req Request) error {
	select {
	case <-w.closed:
		return common.ErrWorkerClosed
	default:
	}
	select {
	case w.requests <- req:
		return nil
	case <-w.closed:
		return common.ErrWorkerClosed
	}
}

// Close stops the worker loop. Safe to call more than once.
func (w *Worker) Close() {
	w.closeOnce.Do(func() { close(w.closed) })
}

func (w *Worker) run(ctx context.Context) {
	// all emits happen on this goroutine, so closing out here is safe and
	// lets message consumers terminate
	defer close(w.out)
	defer w.crypt.Close()

	for {
		select {
		case <-ctx.Done():
			w.Close()
			return
		case <-w.closed:
			return
		case req := <-w.requests:
			w.handle(ctx, req)
		}
	}
}

func (w *Worker) handle(ctx context.Context, req Request) {
	var (
		result any
		err    error
	)

	switch req.Op {
	case OpUnlock:
		w.crypt.InitializeWithPassword(req.Password)
		common.WipeByteArray(req.Password)
		result = true

	case OpLoadManifest:
		result, err = w.loadManifest(ctx)

	case OpReloadManifest:
		// a reload invalidates everything decrypted under the old manifest
		w.cache.Clear()
		result, err = w.loadManifest(ctx)

	case OpSearch:
		result, err = w.orch.Search(ctx, req.Search, func(ev models.ProgressEvent) {
			w.emit(Message{ID: req.ID, Op: req.Op, Kind: KindProgress, Progress: &ev})
		})

	case OpCacheStats:
		result = w.cache.Stats()

	case OpClearCache:
		w.cache.Clear()
		result = true

	default:
		err = fmt.Errorf("unknown operation %q", req.Op)
	}

	if err != nil {
		w.log.Error(ctx, "request failed", "op", string(req.Op), "error", err.Error())
	}
	w.emit(Message{ID: req.ID, Op: req.Op, Kind: KindResult, Result: result, Err: err})
}

func (w *Worker) loadManifest(ctx context.Context) (ManifestInfo, error) {
	res, err := w.loader.Load(ctx)
	if err != nil {
		return ManifestInfo{}, err
	}
	w.orch.SetManifest(res)
	return ManifestInfo{
		TotalDocuments: res.Manifest.TotalDocuments,
		TotalBatches:   len(res.Manifest.Batches),
		Root:           res.Store.Root(),
		Degraded:       res.Degraded,
	}, nil
}

// emit delivers a message unless the worker is shutting down and nobody is
// draining the stream anymore.
func (w *Worker) emit(m Message) {
	select {
	case w.out <- m:
	case <-w.closed:
	}
}
