// Package cli is the interactive front-end to the archive worker: a small
// REPL that unlocks the archive, runs searches with live progress, and
// inspects the batch cache.
package cli

import (
	"bufio"
	"context"
	"log/slog"
	"os"

	"github.com/planquery/appealvault/internal/archive/cache"
	"github.com/planquery/appealvault/internal/archive/config"
	"github.com/planquery/appealvault/internal/archive/crypt"
	"github.com/planquery/appealvault/internal/archive/manifest"
	"github.com/planquery/appealvault/internal/archive/search"
	"github.com/planquery/appealvault/internal/archive/store"
	"github.com/planquery/appealvault/internal/archive/worker"
	"github.com/planquery/appealvault/internal/hotindex"
	"github.com/planquery/appealvault/internal/logging"
)

type App struct {
	config *config.Config
	log    logging.Logger

	stores []store.Store
	wrk    *worker.Worker
	client *worker.Client
	hot    *hotindex.Index

	reader   *bufio.Reader
	unlocked bool
	loaded   bool
}

// NewApp wires the engine: stores from config, the crypt service, the batch
// cache and the search orchestrator, all running behind the worker.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	stores, err := store.Build(ctx, cfg)
	if err != nil {
		return nil, err
	}

	cr := crypt.NewService()
	c := cache.New(cfg.CacheMaxSize)
	loader := manifest.NewLoader(stores, cfg.ManifestName, log)
	orch := search.NewOrchestrator(cr, c, log, search.Options{
		ChunkSize:     cfg.ChunkSize,
		ChunkYield:    cfg.ChunkYield,
		HeapThreshold: cfg.HeapThreshold,
		DefaultLimit:  cfg.DefaultLimit,
	})

	w := worker.New(cr, c, loader, orch, log)
	w.Start(ctx)
	client := worker.NewClient(w, log, worker.ClientOptions{
		ColdTimeout:  cfg.ColdTimeout,
		LightTimeout: cfg.LightTimeout,
	})

	return &App{
		config: cfg,
		log:    log,
		stores: stores,
		wrk:    w,
		client: client,
		hot:    hotindex.New(),
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.wrk.Close()
	a.Root(ctx)
}

func (a *App) isUnlocked() bool {
	return a.unlocked
}
