package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/planquery/appealvault/internal/archive/models"
	"github.com/planquery/appealvault/internal/common"
	"github.com/planquery/appealvault/internal/logging"
)

const (
	// DefaultColdTimeout bounds operations that traverse the archive
	// (search, manifest loads).
	DefaultColdTimeout = 60 * time.Second
	// DefaultLightTimeout bounds cheap in-memory operations.
	DefaultLightTimeout = 10 * time.Second
)

// ProgressFunc receives progress events for an in-flight search. May be nil.
type ProgressFunc func(models.ProgressEvent)

// Client is the request/response view over a Worker. It assigns a
// correlation ID to each request, enforces per-class timeouts, and routes
// the worker's message stream back to the matching waiter. A response
// arriving after its waiter gave up is dropped; the worker is never told.
type Client struct {
	w   *Worker
	log logging.Logger

	coldTimeout  time.Duration
	lightTimeout time.Duration

	mu      sync.Mutex
	pending map[string]*call
}

type call struct {
	resp     chan Message
	progress ProgressFunc
}

// ClientOptions tunes the client's timeouts. Zero values use the defaults.
type ClientOptions struct {
	ColdTimeout  time.Duration
	LightTimeout time.Duration
}

// NewClient wraps w and starts routing its message stream. The worker must
// already be started.
func NewClient(w *Worker, log logging.Logger, opts ClientOptions) *Client {
	if log == nil {
		log = logging.NewDiscardLogger()
	}
	if opts.ColdTimeout <= 0 {
		opts.ColdTimeout = DefaultColdTimeout
	}
	if opts.LightTimeout <= 0 {
		opts.LightTimeout = DefaultLightTimeout
	}
	c := &Client{
		w:            w,
		log:          log,
		coldTimeout:  opts.ColdTimeout,
		lightTimeout: opts.LightTimeout,
		pending:      make(map[string]*call),
	}
	go c.dispatch()
	return c
}

// dispatch routes worker messages to their waiting calls. Messages whose ID
// is no longer pending (the caller timed out) are logged and dropped.
func (c *Client) dispatch() {
	for m := range c.w.Messages() {
		c.mu.Lock()
		p, ok := c.pending[m.ID]
		if ok && m.Kind == KindResult {
			delete(c.pending, m.ID)
		}
		c.mu.Unlock()

		if !ok {
			c.log.Debug(context.Background(), "late response ignored",
				"op", string(m.Op), "request_id", m.ID)
			continue
		}

		switch m.Kind {
		case KindProgress:
			if p.progress != nil && m.Progress != nil {
				p.progress(*m.Progress)
			}
		case KindResult:
			p.resp <- m
		}
	}
}

// Unlock stores the password in the worker for per-batch key derivation.
func (c *Client) Unlock(ctx context.Context, password []byte) error {
	_, err := c.roundTrip(ctx, Request{Op: OpUnlock, Password: password}, nil, c.lightTimeout)
	return err
}

// LoadManifest fetches and validates the storage manifest.
func (c *Client) LoadManifest(ctx context.Context) (ManifestInfo, error) {
	return c.manifestOp(ctx, OpLoadManifest)
}

// ReloadManifest clears the batch cache and fetches the manifest again.
func (c *Client) ReloadManifest(ctx context.Context) (ManifestInfo, error) {
	return c.manifestOp(ctx, OpReloadManifest)
}

func (c *Client) manifestOp(ctx context.Context, op Op) (ManifestInfo, error) {
	m, err := c.roundTrip(ctx, Request{Op: op}, nil, c.coldTimeout)
	if err != nil {
		return ManifestInfo{}, err
	}
	info, ok := m.Result.(ManifestInfo)
	if !ok {
		return ManifestInfo{}, fmt.Errorf("unexpected %s result %T", op, m.Result)
	}
	return info, nil
}

// Search runs a query across the archive, streaming progress to the given
// callback while the traversal runs.
func (c *Client) Search(ctx context.Context, req models.SearchRequest, progress ProgressFunc) (*models.SearchResponse, error) {
	m, err := c.roundTrip(ctx, Request{Op: OpSearch, Search: req}, progress, c.coldTimeout)
	if err != nil {
		return nil, err
	}
	resp, ok := m.Result.(*models.SearchResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected search result %T", m.Result)
	}
	return resp, nil
}

// CacheStats reports the worker's batch cache usage.
func (c *Client) CacheStats(ctx context.Context) (models.CacheStats, error) {
	m, err := c.roundTrip(ctx, Request{Op: OpCacheStats}, nil, c.lightTimeout)
	if err != nil {
		return models.CacheStats{}, err
	}
	stats, ok := m.Result.(models.CacheStats)
	if !ok {
		return models.CacheStats{}, fmt.Errorf("unexpected stats result %T", m.Result)
	}
	return stats, nil
}

// ClearCache drops every cached decrypted batch.
func (c *Client) ClearCache(ctx context.Context) error {
	_, err := c.roundTrip(ctx, Request{Op: OpClearCache}, nil, c.lightTimeout)
	return err
}

// roundTrip registers a waiter, submits the request and blocks for the
// correlated result. On timeout the waiter is deregistered, so a late
// result for this ID falls on the floor in dispatch.
func (c *Client) roundTrip(ctx context.Context, req Request, progress ProgressFunc, timeout time.Duration) (Message, error) {
	req.ID = uuid.NewString()
	p := &call{resp: make(chan Message, 1), progress: progress}

	c.mu.Lock()
	c.pending[req.ID] = p
	c.mu.Unlock()

	if err := c.w.Submit(req); err != nil {
		c.forget(req.ID)
		return Message{}, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case m := <-p.resp:
		return m, m.Err
	case <-timer.C:
		c.forget(req.ID)
		return Message{}, fmt.Errorf("%w: %s after %s", common.ErrRequestTimeout, req.Op, timeout)
	case <-ctx.Done():
		c.forget(req.ID)
		return Message{}, ctx.Err()
	}
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}
