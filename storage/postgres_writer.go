package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/lib/pq"
	"github.com/spf13/cast"

	"credit-dashboard/models"
	"credit-dashboard/utils"
)

// ColumnKind is the storage class of a schema column.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindInt
	KindFloat
)

// SchemaColumn is one column of the typed customer table.
type SchemaColumn struct {
	Name    string
	SQLType string
	Kind    ColumnKind
}

// CustomerSchema is the full_customers layout.
var CustomerSchema = []SchemaColumn{
	{"ID", "VARCHAR(255)", KindText},
	{"Customer_ID", "VARCHAR(255)", KindText},
	{"Month", "VARCHAR(50)", KindText},
	{"Name", "VARCHAR(255)", KindText},
	{"Age", "INT", KindInt},
	{"SSN", "VARCHAR(255)", KindText},
	{"Occupation", "VARCHAR(255)", KindText},
	{"Annual_Income", "FLOAT", KindFloat},
	{"Monthly_Inhand_Salary", "FLOAT", KindFloat},
	{"Num_Bank_Accounts", "INT", KindInt},
	{"Num_Credit_Card", "INT", KindInt},
	{"Interest_Rate", "INT", KindInt},
	{"Num_of_Loan", "INT", KindInt},
	{"Type_of_Loan", "TEXT", KindText},
	{"Delay_from_due_date", "INT", KindInt},
	{"Num_of_Delayed_Payment", "INT", KindInt},
	{"Changed_Credit_Limit", "FLOAT", KindFloat},
	{"Num_Credit_Inquiries", "INT", KindInt},
	{"Credit_Mix", "VARCHAR(50)", KindText},
	{"Outstanding_Debt", "FLOAT", KindFloat},
	{"Credit_Utilization_Ratio", "FLOAT", KindFloat},
	{"Credit_History_Age", "VARCHAR(255)", KindText},
	{"Payment_of_Min_Amount", "VARCHAR(255)", KindText},
	{"Total_EMI_per_month", "FLOAT", KindFloat},
	{"Amount_invested_monthly", "FLOAT", KindFloat},
	{"Payment_Behaviour", "VARCHAR(255)", KindText},
	{"Monthly_Balance", "FLOAT", KindFloat},
}

const pgBatchSize = 200

// PostgresWriter loads raw tables into the typed customer table.
type PostgresWriter struct {
	db     *sql.DB
	table  string
	schema []SchemaColumn
	logger *utils.Logger
}

// NewPostgresWriter connects to PostgreSQL for writes into table.
func NewPostgresWriter(ctx context.Context, dsn, table string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := openPostgres(ctx, dsn, logger)
	if err != nil {
		return nil, err
	}
	return newPostgresWriter(db, table, logger), nil
}

func newPostgresWriter(db *sql.DB, table string, logger *utils.Logger) *PostgresWriter {
	return &PostgresWriter{db: db, table: table, schema: CustomerSchema, logger: logger}
}

// CreateTableSQL renders the DDL that drops and recreates the table.
func (pw *PostgresWriter) CreateTableSQL() string {
	defs := make([]string, len(pw.schema))
	for i, c := range pw.schema {
		defs[i] = fmt.Sprintf("\t%s %s", c.Name, c.SQLType)
	}
	name := pq.QuoteIdentifier(pw.table)
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;\n\nCREATE TABLE %s (\n%s\n);", name, name, strings.Join(defs, ",\n"))
}

// Migrate drops and recreates the customer table.
func (pw *PostgresWriter) Migrate(ctx context.Context) error {
	if _, err := pw.db.ExecContext(ctx, pw.CreateTableSQL()); err != nil {
		return fmt.Errorf("postgres: migrate %s: %w", pw.table, err)
	}
	pw.logger.Info("[postgres] Recreated table %s (%d columns)", pw.table, len(pw.schema))
	return nil
}

// Write recreates the table and inserts every row of raw in one
// transaction. Source columns are matched to the schema ignoring case;
// unknown columns are skipped and cells that do not fit the column type
// are stored as NULL.
func (pw *PostgresWriter) Write(ctx context.Context, raw *models.RawTable) (int, error) {
	if raw.Len() == 0 {
		return 0, nil
	}

	mapping := make([]int, len(pw.schema))
	matched := 0
	for i, c := range pw.schema {
		mapping[i] = raw.ColumnIndex(c.Name)
		if mapping[i] >= 0 {
			matched++
		}
	}
	if matched == 0 {
		return 0, fmt.Errorf("postgres: no source column matches the %s schema", pw.table)
	}
	for _, col := range raw.Columns {
		if !pw.hasColumn(col) {
			pw.logger.Warn("[postgres] Skipping unknown column %q", col)
		}
	}

	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// The previous table survives any failure below.
	if _, err := tx.ExecContext(ctx, pw.CreateTableSQL()); err != nil {
		return 0, fmt.Errorf("postgres: recreate %s: %w", pw.table, err)
	}

	nulled := 0
	for start := 0; start < raw.Len(); start += pgBatchSize {
		end := start + pgBatchSize
		if end > raw.Len() {
			end = raw.Len()
		}
		n, err := pw.insertBatch(ctx, tx, raw.Rows[start:end], mapping)
		if err != nil {
			return 0, fmt.Errorf("postgres: insert rows %d-%d: %w", start, end-1, err)
		}
		nulled += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", err)
	}
	pw.logger.Info("[postgres] Replaced %s with %d rows", pw.table, raw.Len())
	if nulled > 0 {
		pw.logger.Warn("[postgres] %d cells did not fit their column type and were stored as NULL", nulled)
	}
	return raw.Len(), nil
}

func (pw *PostgresWriter) insertBatch(ctx context.Context, tx *sql.Tx, batch [][]any, mapping []int) (int, error) {
	width := len(pw.schema)
	names := make([]string, width)
	for i, c := range pw.schema {
		names[i] = c.Name
	}

	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*width)
	nulled := 0

	for idx, row := range batch {
		base := idx * width
		valueStrings = append(valueStrings, placeholders(width, func(i int) string {
			return fmt.Sprintf("$%d", base+i+1)
		}))
		for i, c := range pw.schema {
			var v any
			if src := mapping[i]; src >= 0 && src < len(row) {
				var ok bool
				v, ok = typedValue(row[src], c.Kind)
				if !ok {
					nulled++
				}
			}
			valueArgs = append(valueArgs, v)
		}
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		pq.QuoteIdentifier(pw.table), strings.Join(names, ", "), strings.Join(valueStrings, ","))

	_, err := tx.ExecContext(ctx, query, valueArgs...)
	return nulled, err
}

func (pw *PostgresWriter) hasColumn(name string) bool {
	for _, c := range pw.schema {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// typedValue converts a cell for a column kind. Blank cells become NULL;
// ok is false when a present value had to be dropped.
func typedValue(v any, kind ColumnKind) (any, bool) {
	text, isText := textValue(v).(string)
	if v == nil || (isText && strings.TrimSpace(text) == "") {
		return nil, true
	}

	switch kind {
	case KindInt:
		f, err := cast.ToFloat64E(strings.TrimSpace(text))
		if err != nil || math.IsNaN(f) || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
			return nil, false
		}
		return int64(f), true
	case KindFloat:
		f, err := cast.ToFloat64E(strings.TrimSpace(text))
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		return f, true
	default:
		return text, true
	}
}
