package store

import (
	"context"
	"net/http"
	"strings"

	"github.com/planquery/appealvault/internal/netx"
)

// HTTPStore serves assets from a static HTTP(S) deployment root.
type HTTPStore struct {
	base   string
	client *http.Client
}

// NewHTTPStore creates a store rooted at base. A nil client falls back to
// http.DefaultClient; per-request deadlines come from the caller's context.
func NewHTTPStore(base string, client *http.Client) *HTTPStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPStore{base: strings.TrimRight(base, "/"), client: client}
}

func (s *HTTPStore) GetJSON(ctx context.Context, name string, v any) error {
	url := name
	if !strings.HasPrefix(name, "http://") && !strings.HasPrefix(name, "https://") {
		url = s.base + "/" + strings.TrimLeft(name, "/")
	}
	return netx.GetJSON(ctx, s.client, url, v)
}

func (s *HTTPStore) Root() string {
	return s.base
}
