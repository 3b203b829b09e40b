package storage

import (
	"context"

	"credit-dashboard/models"
)

// Source is anything that can produce the raw customer dataset.
type Source interface {
	// Name identifies the source in logs and errors.
	Name() string
	Fetch(ctx context.Context) (*models.RawTable, error)
	Close() error
}

// TableWriter persists a raw table into a backing store.
type TableWriter interface {
	Write(ctx context.Context, raw *models.RawTable) (int, error)
	Close() error
}

// ExportWriter writes a rendered view (header plus text rows).
type ExportWriter interface {
	WriteTable(header []string, rows [][]string) error
	Close() error
}
