package models

// Result tiers. Cold results come from the encrypted batch archive, hot
// results from the in-memory index of not-yet-archived documents.
const (
	TierCold = "cold"
	TierHot  = "hot"
)

// SearchOptions narrows a search: an optional result limit and an optional
// decision-date window. A zero limit means "no truncation".
type SearchOptions struct {
	Limit      int        `json:"limit,omitempty"`
	DateFilter *DateRange `json:"dateFilter,omitempty"`
}

// SearchRequest is the query submitted to the worker.
type SearchRequest struct {
	Query   string        `json:"query"`
	Options SearchOptions `json:"options"`
}

// SearchResult is one matching document. Each document yields at most one
// result per search.
type SearchResult struct {
	ID       string            `json:"id"`
	Filename string            `json:"filename"`
	Metadata map[string]string `json:"metadata"`
	Snippet  string            `json:"snippet"`
	Score    int               `json:"score"`
	Tier     string            `json:"tier"`
	Archived bool              `json:"archived"`
	BatchID  string            `json:"batchId"`
}

// SearchResponse is the terminal answer to a SearchRequest. Total is the
// untruncated match count; Limited reports whether truncation to the
// caller's limit occurred.
type SearchResponse struct {
	Results         []SearchResult `json:"results"`
	Total           int            `json:"total"`
	Query           string         `json:"query"`
	BatchesSearched int            `json:"batchesSearched"`
	Limited         bool           `json:"limited"`
}

// ProgressEvent is streamed while a search traverses the archive.
// Ephemeral: delivered and forgotten, never stored.
type ProgressEvent struct {
	Message          string         `json:"message"`
	TotalBatches     int            `json:"totalBatches"`
	CompletedBatches int            `json:"completedBatches"`
	PartialResults   []SearchResult `json:"partialResults"`
}

// CacheStats is the answer to a cache stats query.
type CacheStats struct {
	CacheSize     int64 `json:"cacheSize"`
	CachedBatches int   `json:"cachedBatches"`
	MaxCacheSize  int64 `json:"maxCacheSize"`
}
