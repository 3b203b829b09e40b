package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"credit-dashboard/models"
	"credit-dashboard/utils"
)

// openPostgres opens a pool and pings it with bounded retries.
func openPostgres(ctx context.Context, dsn string, logger *utils.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: postgres: open: %w", ErrSourceUnavailable, err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, Logger: logger}
	if err := retry.Do(ctx, "postgres-ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: postgres: %w", ErrSourceUnavailable, err)
	}
	return db, nil
}

// PostgresSource reads the whole customer relation from PostgreSQL.
type PostgresSource struct {
	db    *sql.DB
	table string
}

// NewPostgresSource connects to PostgreSQL and returns a source for table.
func NewPostgresSource(ctx context.Context, dsn, table string, logger *utils.Logger) (*PostgresSource, error) {
	db, err := openPostgres(ctx, dsn, logger)
	if err != nil {
		return nil, err
	}
	return &PostgresSource{db: db, table: table}, nil
}

func (s *PostgresSource) Name() string { return "postgres:" + s.table }

// Fetch runs SELECT * against the relation.
func (s *PostgresSource) Fetch(ctx context.Context) (*models.RawTable, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+pq.QuoteIdentifier(s.table))
	if err != nil {
		return nil, fmt.Errorf("%w: postgres: query %s: %w", ErrSourceUnavailable, s.table, err)
	}
	defer rows.Close()

	t, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", s.table, err)
	}
	return t, nil
}

func (s *PostgresSource) Close() error {
	return s.db.Close()
}
