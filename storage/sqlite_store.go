package storage

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"credit-dashboard/models"
	"credit-dashboard/utils"
)

// sqliteMaxVars keeps a multi-row insert under SQLite's bound-parameter limit.
const sqliteMaxVars = 900

// SQLiteStore is the embedded mirror of the customer relation. Every
// column is stored as TEXT; typing happens in the cleaner.
type SQLiteStore struct {
	db     *gorm.DB
	path   string
	table  string
	logger *utils.Logger
}

// OpenSQLiteStore opens (or creates) the database file at path.
// ":memory:" is accepted.
func OpenSQLiteStore(path, table string, logger *utils.Logger) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: sqlite: open %s: %w", ErrSourceUnavailable, path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite: pool: %w", err)
	}
	// One connection so an in-memory database is shared by every query.
	sqlDB.SetMaxOpenConns(1)

	return &SQLiteStore{db: db, path: path, table: table, logger: logger}, nil
}

func (s *SQLiteStore) Name() string { return "sqlite:" + s.path + "/" + s.table }

// Write replaces the table with the contents of raw in one transaction.
func (s *SQLiteStore) Write(ctx context.Context, raw *models.RawTable) (int, error) {
	if raw == nil || len(raw.Columns) == 0 {
		return 0, fmt.Errorf("sqlite: mirror %s: no columns", s.table)
	}

	cols := make([]string, len(raw.Columns))
	defs := make([]string, len(raw.Columns))
	for i, c := range raw.Columns {
		cols[i] = quoteIdent(c)
		defs[i] = quoteIdent(c) + " TEXT"
	}
	table := quoteIdent(s.table)

	batchRows := sqliteMaxVars / len(cols)
	if batchRows < 1 {
		batchRows = 1
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DROP TABLE IF EXISTS " + table).Error; err != nil {
			return fmt.Errorf("drop: %w", err)
		}
		if err := tx.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))).Error; err != nil {
			return fmt.Errorf("create: %w", err)
		}

		for start := 0; start < raw.Len(); start += batchRows {
			end := start + batchRows
			if end > raw.Len() {
				end = raw.Len()
			}

			groups := make([]string, 0, end-start)
			args := make([]any, 0, (end-start)*len(cols))
			for _, row := range raw.Rows[start:end] {
				groups = append(groups, placeholders(len(cols), func(int) string { return "?" }))
				for i := range cols {
					var v any
					if i < len(row) {
						v = textValue(row[i])
					}
					args = append(args, v)
				}
			}

			query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, strings.Join(cols, ", "), strings.Join(groups, ", "))
			if err := tx.Exec(query, args...).Error; err != nil {
				return fmt.Errorf("insert rows %d-%d: %w", start, end-1, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("sqlite: mirror %s: %w", s.table, err)
	}

	s.logger.Info("[sqlite] Mirrored %d rows × %d columns into %s", raw.Len(), len(cols), s.table)
	return raw.Len(), nil
}

// Fetch reads the mirrored table back as text cells.
func (s *SQLiteStore) Fetch(ctx context.Context) (*models.RawTable, error) {
	rows, err := s.db.WithContext(ctx).Raw("SELECT * FROM " + quoteIdent(s.table)).Rows()
	if err != nil {
		return nil, fmt.Errorf("%w: sqlite: query %s: %w", ErrSourceUnavailable, s.table, err)
	}
	defer rows.Close()

	t, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", s.table, err)
	}
	return t, nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
