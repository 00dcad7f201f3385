// Package store abstracts retrieval of cold-archive assets (the manifest
// and encrypted batch files) from one deployment root. Backends exist for
// static HTTP hosting, local directories, and S3/MinIO buckets.
package store

import (
	"context"
	"strings"

	"github.com/planquery/appealvault/internal/archive/config"
)

// Store fetches a JSON asset by its path relative to the store's root and
// unmarshals it into v. Absolute http(s) URLs are honored as-is by backends
// that can reach them.
type Store interface {
	// GetJSON retrieves and decodes one asset.
	GetJSON(ctx context.Context, name string, v any) error

	// Root describes the deployment root for logging.
	Root() string
}

// Build constructs one Store per configured base path. When an S3 bucket is
// configured, every base path is interpreted as a key prefix inside that
// bucket; otherwise http(s) paths get an HTTP store and everything else a
// local directory store.
func Build(ctx context.Context, cfg *config.Config) ([]Store, error) {
	stores := make([]Store, 0, len(cfg.BasePaths))

	if cfg.S3Bucket != "" {
		client, err := newS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		for _, base := range cfg.BasePaths {
			stores = append(stores, newS3StoreWithClient(client, cfg.S3Bucket, base))
		}
		return stores, nil
	}

	for _, base := range cfg.BasePaths {
		if strings.HasPrefix(base, "http://") || strings.HasPrefix(base, "https://") {
			stores = append(stores, NewHTTPStore(base, nil))
		} else {
			stores = append(stores, NewFileStore(base))
		}
	}
	return stores, nil
}
