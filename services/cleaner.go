package services

import (
	"errors"
	"fmt"
	"strings"

	"credit-dashboard/models"
	"credit-dashboard/utils"
)

var (
	// ErrEmptyDataset is returned when there is nothing to clean, or nothing
	// survives cleaning.
	ErrEmptyDataset = errors.New("dataset is empty")
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("required column missing")
)

// RuleOccupationMissing is the drop reason for rows without an occupation.
const RuleOccupationMissing = "occupation_missing"

// Rule is a row-level domain predicate on one numeric column. A missing
// value never satisfies a rule. Unset bounds are open.
type Rule struct {
	Name   string
	Column string
	Min    models.Number
	Max    models.Number
}

// Allows reports whether n lies within the rule's bounds.
func (r Rule) Allows(n models.Number) bool {
	if !n.Valid {
		return false
	}
	if r.Min.Valid && n.Value < r.Min.Value {
		return false
	}
	if r.Max.Valid && n.Value > r.Max.Value {
		return false
	}
	return true
}

// CleanOptions parameterizes Normalize.
type CleanOptions struct {
	// NumericColumns are coerced to numbers. Age, Credit_History_Age and
	// every rule column are always numeric.
	NumericColumns []string
	Rules          []Rule
}

// DefaultNumericColumns mirrors the columns the dashboards chart.
var DefaultNumericColumns = []string{
	models.ColAnnualIncome,
	models.ColNumBankAccounts,
	models.ColNumCreditCard,
	models.ColInterestRate,
	models.ColNumCreditInquiries,
	models.ColOutstandingDebt,
	models.ColCreditUtilization,
	models.ColAmountInvested,
}

// RuleLimits are the thresholds behind the default domain rules.
// A zero CreditHistoryMax disables that rule.
type RuleLimits struct {
	AgeMin           float64
	AgeMax           float64
	IncomeMax        float64
	BankAccountsMax  float64
	CreditCardsMax   float64
	CreditHistoryMax float64
}

// DefaultLimits are the bounds used by the first two dashboards.
var DefaultLimits = RuleLimits{
	AgeMin:          1,
	AgeMax:          100,
	IncomeMax:       1e6,
	BankAccountsMax: 10,
	CreditCardsMax:  10,
}

// StrictLimits raise the minimum age to 14, as the tabbed dashboard does.
var StrictLimits = RuleLimits{
	AgeMin:          14,
	AgeMax:          100,
	IncomeMax:       1e6,
	BankAccountsMax: 10,
	CreditCardsMax:  10,
}

// Rules builds the domain rules for the limits.
func (l RuleLimits) Rules() []Rule {
	rules := []Rule{
		{Name: "age_out_of_range", Column: models.ColAge, Min: models.Num(l.AgeMin), Max: models.Num(l.AgeMax)},
		{Name: "income_too_high", Column: models.ColAnnualIncome, Max: models.Num(l.IncomeMax)},
		{Name: "too_many_bank_accounts", Column: models.ColNumBankAccounts, Max: models.Num(l.BankAccountsMax)},
		{Name: "too_many_credit_cards", Column: models.ColNumCreditCard, Max: models.Num(l.CreditCardsMax)},
	}
	if l.CreditHistoryMax > 0 {
		rules = append(rules, Rule{
			Name: "credit_history_too_long", Column: models.ColCreditHistoryAge, Max: models.Num(l.CreditHistoryMax),
		})
	}
	return rules
}

// Cleaner validates and normalizes a raw table into a Dataset.
type Cleaner struct {
	opts   CleanOptions
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given options and logger.
func NewCleaner(opts CleanOptions, logger *utils.Logger) *Cleaner {
	return &Cleaner{opts: opts, logger: logger}
}

type numericColumn struct {
	name     string
	index    int
	duration bool
}

// Normalize validates the raw table, coerces numeric columns and drops rows
// that fail a domain rule. The input is not modified. The returned report
// lists every dropped row.
func (c *Cleaner) Normalize(raw *models.RawTable) (*Dataset, *models.CleanReport, error) {
	if raw.Len() == 0 {
		return nil, nil, ErrEmptyDataset
	}

	occIdx := raw.ColumnIndex(models.ColOccupation)
	if occIdx < 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, models.ColOccupation)
	}
	required := []string{models.ColAge}
	for _, r := range c.opts.Rules {
		required = append(required, r.Column)
	}
	for _, col := range required {
		if raw.ColumnIndex(col) < 0 {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	numeric := c.numericColumns(raw)
	claimed := map[int]bool{occIdx: true}
	for _, nc := range numeric {
		if nc.index >= 0 {
			claimed[nc.index] = true
		}
	}

	report := &models.CleanReport{
		InputRows:        raw.Len(),
		DroppedByRule:    make(map[string]int),
		CoercionFailures: make(map[string]int),
	}
	records := make([]*models.Record, 0, raw.Len())

	for i, row := range raw.Rows {
		rec := &models.Record{
			Row:        i,
			Occupation: strings.TrimSpace(CellText(cell(row, occIdx))),
			Numbers:    make(map[string]models.Number, len(numeric)),
			Attrs:      make(map[string]string, len(raw.Columns)-len(claimed)),
		}

		for _, nc := range numeric {
			if nc.index < 0 {
				rec.Numbers[nc.name] = models.Missing
				continue
			}
			var n models.Number
			var ok bool
			if nc.duration {
				n, ok = ParseCreditHistoryAge(cell(row, nc.index))
			} else {
				n, ok = CoerceNumber(cell(row, nc.index))
			}
			if !ok {
				report.CoercionFailures[nc.name]++
			}
			rec.Numbers[nc.name] = n
		}

		for j, col := range raw.Columns {
			if !claimed[j] {
				rec.Attrs[col] = CellText(cell(row, j))
			}
		}

		if reason := c.rejectReason(rec); reason != "" {
			report.Dropped = append(report.Dropped, models.DroppedRow{Row: i, Rule: reason})
			report.DroppedByRule[reason]++
			c.logger.Debug("[cleaner] Dropping row %d: %s", i, reason)
			continue
		}
		records = append(records, rec)
	}

	report.KeptRows = len(records)
	c.logger.Info("[cleaner] Cleaned %d → %d rows (dropped %d)",
		report.InputRows, report.KeptRows, report.DroppedRows())
	for col, n := range report.CoercionFailures {
		c.logger.Warn("[cleaner] %d values in %s could not be read as numbers", n, col)
	}

	if len(records) == 0 {
		return nil, report, fmt.Errorf("%w: all %d rows dropped during cleaning", ErrEmptyDataset, report.InputRows)
	}

	return newDataset(records, report, numericNames(numeric), raw.Columns), report, nil
}

func (c *Cleaner) rejectReason(rec *models.Record) string {
	if rec.Occupation == "" {
		return RuleOccupationMissing
	}
	for _, r := range c.opts.Rules {
		if !r.Allows(rec.Number(r.Column)) {
			return r.Name
		}
	}
	return ""
}

// numericColumns resolves every numeric column to its raw index, keeping the
// canonical spelling as the key. Absent optional columns get index -1.
func (c *Cleaner) numericColumns(raw *models.RawTable) []numericColumn {
	names := []string{models.ColAge}
	names = append(names, c.opts.NumericColumns...)
	for _, r := range c.opts.Rules {
		names = append(names, r.Column)
	}
	names = append(names, models.ColCreditHistoryAge)

	seen := make(map[string]bool, len(names))
	cols := make([]numericColumn, 0, len(names))
	for _, name := range names {
		name = models.CanonicalColumn(name)
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true

		idx := raw.ColumnIndex(name)
		if idx < 0 {
			c.logger.Warn("[cleaner] Numeric column %s not in source, treating as missing", name)
		}
		cols = append(cols, numericColumn{
			name:     name,
			index:    idx,
			duration: strings.EqualFold(name, models.ColCreditHistoryAge),
		})
	}
	return cols
}

func numericNames(cols []numericColumn) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}

func cell(row []any, i int) any {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}
