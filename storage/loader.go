package storage

import (
	"context"
	"errors"
	"fmt"

	"credit-dashboard/models"
	"credit-dashboard/utils"
)

var (
	// ErrSourceUnavailable means the backing store could not be reached or read.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrEmptyResult means the fetch succeeded but returned no rows.
	ErrEmptyResult = errors.New("source returned no rows")
)

// Load fetches every row of the source. A zero-row result is an error so the
// caller never builds a dashboard over nothing.
func Load(ctx context.Context, src Source, logger *utils.Logger) (*models.RawTable, error) {
	raw, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if raw.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyResult, src.Name())
	}

	logger.Info("[loader] Loaded %d rows × %d columns from %s", raw.Len(), len(raw.Columns), src.Name())
	return raw, nil
}
