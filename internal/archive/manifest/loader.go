// Package manifest fetches and validates the cold-storage index: the
// catalog of encrypted batch files making up the archive.
package manifest

import (
	"context"
	"fmt"

	"github.com/planquery/appealvault/internal/archive/models"
	"github.com/planquery/appealvault/internal/archive/store"
	"github.com/planquery/appealvault/internal/common"
	"github.com/planquery/appealvault/internal/logging"
)

// EncryptionPolicyRequired is the only accepted encryption policy. The
// archive never serves plaintext batches.
const EncryptionPolicyRequired = "required"

// Result is a successfully loaded manifest plus the store that served it
// (subsequent batch fetches go through the same deployment root). Degraded
// is set when the manifest lacked a batches array and an empty one was
// substituted.
type Result struct {
	Manifest *models.StorageManifest
	Store    store.Store
	Degraded bool
}

// Loader tries each candidate store once, in order. No retries.
type Loader struct {
	stores []store.Store
	name   string
	log    logging.Logger
}

func NewLoader(stores []store.Store, manifestName string, log logging.Logger) *Loader {
	if log == nil {
		log = logging.NewDiscardLogger()
	}
	return &Loader{stores: stores, name: manifestName, log: log}
}

// Load fetches the manifest from the first reachable store and validates
// it. A policy violation (an unencrypted batch, or a policy flag other than
// "required") is fatal and reported immediately; fetch failures fall
// through to the next candidate. When every candidate fails, Load returns
// common.ErrStorageUnavailable and the caller degrades to a zero-document
// archive.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	var lastErr error

	for _, s := range l.stores {
		var raw rawManifest
		if err := s.GetJSON(ctx, l.name, &raw); err != nil {
			l.log.Warn(ctx, "manifest fetch failed", "root", s.Root(), "error", err.Error())
			lastErr = err
			continue
		}

		m, degraded := raw.toManifest()
		if degraded {
			l.log.Warn(ctx, "manifest has no batches array, substituting empty", "root", s.Root())
		}

		if err := validate(m); err != nil {
			return nil, err
		}

		l.log.Info(ctx, "manifest loaded",
			"root", s.Root(),
			"batches", len(m.Batches),
			"documents", m.TotalDocuments)
		return &Result{Manifest: m, Store: s, Degraded: degraded}, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStorageUnavailable, lastErr)
	}
	return nil, common.ErrStorageUnavailable
}

// rawManifest distinguishes an absent batches field from an empty one.
type rawManifest struct {
	Version        string                    `json:"version"`
	TotalDocuments int                       `json:"totalDocuments"`
	TotalBatches   int                       `json:"totalBatches"`
	LastUpdated    string                    `json:"lastUpdated"`
	Batches        *[]models.BatchDescriptor `json:"batches"`
	Metadata       models.ManifestMetadata   `json:"metadata"`
}

func (r *rawManifest) toManifest() (*models.StorageManifest, bool) {
	m := &models.StorageManifest{
		Version:        r.Version,
		TotalDocuments: r.TotalDocuments,
		TotalBatches:   r.TotalBatches,
		LastUpdated:    r.LastUpdated,
		Metadata:       r.Metadata,
	}
	if r.Batches == nil {
		m.Batches = []models.BatchDescriptor{}
		return m, true
	}
	m.Batches = *r.Batches
	return m, false
}

func validate(m *models.StorageManifest) error {
	if p := m.Metadata.EncryptionPolicy; p != "" && p != EncryptionPolicyRequired {
		return fmt.Errorf("%w: policy %q", common.ErrPolicyViolation, p)
	}
	for _, b := range m.Batches {
		if !b.Encrypted {
			return fmt.Errorf("%w: batch %s", common.ErrPolicyViolation, b.BatchID)
		}
	}
	return nil
}
