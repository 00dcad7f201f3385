package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/planquery/appealvault/internal/archive/worker"
	"github.com/planquery/appealvault/internal/common"
)

// Unlock prompts for the archive password, hands it to the worker and then
// loads the manifest. The local password copy is wiped as soon as the
// worker has taken it.
func (a *App) Unlock(ctx context.Context) error {
	pw, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	if err := a.client.Unlock(ctx, pw); err != nil {
		return err
	}
	a.unlocked = true
	printlnFn("Archive unlocked.")

	return a.LoadManifest(ctx)
}

// LoadManifest fetches the storage index and reports its shape, then picks
// up the hot-tier document list if the archive publishes one.
func (a *App) LoadManifest(ctx context.Context) error {
	info, err := a.client.LoadManifest(ctx)
	if err != nil {
		return err
	}
	a.loaded = true
	printlnFn(manifestSummary(info))
	a.loadHotIndex(ctx)
	return nil
}

// ReloadManifest drops the batch cache and fetches the index again.
func (a *App) ReloadManifest(ctx context.Context) error {
	info, err := a.client.ReloadManifest(ctx)
	if err != nil {
		return err
	}
	a.loaded = true
	printlnFn("Manifest reloaded.")
	printlnFn(manifestSummary(info))
	a.loadHotIndex(ctx)
	return nil
}

// loadHotIndex populates the hot tier from the deployment roots. The hot
// list is plaintext and optional, so failures never block the cold archive.
func (a *App) loadHotIndex(ctx context.Context) {
	n, err := a.hot.LoadFrom(ctx, a.stores, a.config.HotIndexName)
	if err != nil {
		a.log.Warn(ctx, "hot index load failed", "error", err.Error())
		return
	}
	if n > 0 {
		printlnFn(fmt.Sprintf("%d recent documents in the hot tier", n))
	}
}

func manifestSummary(info worker.ManifestInfo) string {
	s := fmt.Sprintf("%d documents in %d batches at %s",
		info.TotalDocuments, info.TotalBatches, info.Root)
	if info.Degraded {
		s += " (degraded: no batch list)"
	}
	return s
}
