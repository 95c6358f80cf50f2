package infrastructure

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/JaimeStill/counsel/pkg/formatting"
	"github.com/JaimeStill/counsel/pkg/storage"
)

// ReadInput reads name from the configured storage when fromStorage is set,
// otherwise from the local filesystem. Either way the content is capped at
// max_document_size.
func (i *Infrastructure) ReadInput(ctx context.Context, name string, fromStorage bool) ([]byte, error) {
	limit := i.Config.MaxDocumentBytes()

	if fromStorage {
		if i.Storage == nil {
			return nil, storage.ErrNotConfigured
		}
		return storage.ReadAll(ctx, i.Storage, name, limit)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s is over %s", storage.ErrTooLarge, name, formatting.FormatBytes(limit, 1))
	}
	return data, nil
}
