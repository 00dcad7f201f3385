package cli

import (
	"context"
	"fmt"

	"github.com/planquery/appealvault/internal/archive/models"
)

// Search runs a query over both tiers: the hot index answers immediately,
// then the cold archive streams progress while it decrypts batches.
func (a *App) Search(ctx context.Context, query string) error {
	for _, r := range a.hot.Search(query, a.config.DefaultLimit) {
		printResult(r)
	}

	resp, err := a.client.Search(ctx, models.SearchRequest{Query: query},
		func(ev models.ProgressEvent) {
			fmt.Printf("\r%s", ev.Message)
		})
	fmt.Println()
	if err != nil {
		return err
	}

	for _, r := range resp.Results {
		printResult(r)
	}
	if resp.Limited {
		printlnFn(fmt.Sprintf("Showing %d of %d matches.", len(resp.Results), resp.Total))
	}
	printlnFn(fmt.Sprintf("%d matches across %d batches.", resp.Total, resp.BatchesSearched))
	return nil
}

func printResult(r models.SearchResult) {
	printlnFn(fmt.Sprintf("[%s] %s (score %d)", r.Tier, r.Filename, r.Score))
	if r.Snippet != "" {
		printlnFn("  " + r.Snippet)
	}
}

// Stats prints the batch cache usage.
func (a *App) Stats(ctx context.Context) error {
	stats, err := a.client.CacheStats(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Cache: %d batches, %d / %d bytes",
		stats.CachedBatches, stats.CacheSize, stats.MaxCacheSize))
	return nil
}

// ClearCache drops every cached decrypted batch.
func (a *App) ClearCache(ctx context.Context) error {
	if err := a.client.ClearCache(ctx); err != nil {
		return err
	}
	printlnFn("Cache cleared.")
	return nil
}
