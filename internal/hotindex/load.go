package hotindex

import (
	"context"
	"errors"
	"fmt"

	"github.com/planquery/appealvault/internal/archive/models"
	"github.com/planquery/appealvault/internal/archive/store"
	"github.com/planquery/appealvault/internal/common"
)

// hotDocumentList is the on-disk shape of the hot-tier document file
// published next to the manifest. The file is optional; archives whose
// recent documents have all been sealed into batches simply omit it.
type hotDocumentList struct {
	Documents []models.ArchivedDocument `json:"documents"`
}

// LoadFrom fetches the hot document list named name from the first store
// that has it and adds every document to the index. Each candidate store is
// tried once, in order. A store that does not publish the file is skipped;
// when no store has it, LoadFrom returns (0, nil) because an absent hot
// tier is the normal state of a fully sealed archive. Any other failure on
// every candidate is reported.
func (x *Index) LoadFrom(ctx context.Context, stores []store.Store, name string) (int, error) {
	var lastErr error

	for _, s := range stores {
		var list hotDocumentList
		if err := s.GetJSON(ctx, name, &list); err != nil {
			if !errors.Is(err, common.ErrBatchNotFound) {
				lastErr = fmt.Errorf("%s: %w", s.Root(), err)
			}
			continue
		}

		for _, doc := range list.Documents {
			x.Add(doc)
		}
		return len(list.Documents), nil
	}

	return 0, lastErr
}
