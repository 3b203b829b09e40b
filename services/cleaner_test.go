package services

import (
	"errors"
	"testing"

	"credit-dashboard/models"
)

func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		raw    any
		want   models.Number
		wantOK bool
	}{
		{"50000", models.Num(50000), true},
		{" 34847.84 ", models.Num(34847.84), true},
		{[]byte("12"), models.Num(12), true},
		{int64(7), models.Num(7), true},
		{3.5, models.Num(3.5), true},
		{nil, models.Missing, true},
		{"", models.Missing, true},
		{"NaN", models.Missing, true},
		{"28_", models.Missing, false},
		{"__10000__", models.Missing, false},
		{"inf", models.Missing, false},
		{true, models.Missing, false},
	}

	for _, tt := range tests {
		got, ok := CoerceNumber(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("CoerceNumber(%#v) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseCreditHistoryAge(t *testing.T) {
	tests := []struct {
		raw  any
		want models.Number
	}{
		{"22 Years 1 Months", models.Num(22)},
		{"22 Years and 1 Months", models.Num(22)},
		{"7", models.Num(7)},
		{7.0, models.Num(7)},
		{int64(31), models.Num(31)},
		{nil, models.Missing},
		{"", models.Missing},
		{"NA", models.Missing},
		{"unknown years", models.Missing},
	}

	for _, tt := range tests {
		got, _ := ParseCreditHistoryAge(tt.raw)
		if got != tt.want {
			t.Errorf("ParseCreditHistoryAge(%#v) = %v; want %v", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeDropsOutOfDomainAge(t *testing.T) {
	raw := rawTable(
		customerRow("a", "Engineer", "25", "50000"),
		customerRow("b", "Engineer", "150", "50000"),
	)

	ds, report, err := newTestCleaner(DefaultLimits).Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if ds.Len() != 1 {
		t.Fatalf("expected 1 row after cleaning, got %d", ds.Len())
	}
	if got := ds.Table().At(0).Attrs["Customer_ID"]; got != "a" {
		t.Errorf("kept row: got %q, want %q", got, "a")
	}
	if len(report.Dropped) != 1 || report.Dropped[0].Row != 1 || report.Dropped[0].Rule != "age_out_of_range" {
		t.Errorf("dropped: got %+v, want row 1 age_out_of_range", report.Dropped)
	}
}

func TestNormalizeDomainInvariants(t *testing.T) {
	raw := rawTable(
		customerRow("1", "Engineer", "0", "50000"),
		customerRow("2", "Engineer", "100", "1000000"),
		customerRow("3", "Engineer", "30", "1000000.01"),
		customerRow("4", "Doctor", "28_", "50000"),
		customerRow("5", "Doctor", "45", "__x__"),
		[]any{"6", "Doctor", "40", "40000", "11", "2", "5", "3", "1 Years", "10"},
		[]any{"7", "Doctor", "40", "40000", "2", "11", "5", "3", "1 Years", "10"},
		customerRow("8", "", "40", "40000"),
		customerRow("9", "Lawyer", int64(33), 72000.5),
	)

	ds, report, err := newTestCleaner(DefaultLimits).Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	for _, r := range ds.Table().Records() {
		age := r.Age()
		if !age.Valid || age.Value < 1 || age.Value > 100 {
			t.Errorf("row %d: age %v outside [1,100]", r.Row, age)
		}
		if inc := r.Number(models.ColAnnualIncome); !inc.Valid || inc.Value > 1e6 {
			t.Errorf("row %d: income %v above cap", r.Row, inc)
		}
		if n := r.Number(models.ColNumBankAccounts); n.Value > 10 {
			t.Errorf("row %d: bank accounts %v above cap", r.Row, n)
		}
		if n := r.Number(models.ColNumCreditCard); n.Value > 10 {
			t.Errorf("row %d: credit cards %v above cap", r.Row, n)
		}
	}

	if ds.Len() != 2 {
		t.Errorf("kept: got %d, want 2", ds.Len())
	}
	if report.InputRows != 9 || report.KeptRows+report.DroppedRows() != report.InputRows {
		t.Errorf("report does not account for every row: %+v", report)
	}

	wantRules := map[string]int{
		"age_out_of_range":       2,
		"income_too_high":        2,
		"too_many_bank_accounts": 1,
		"too_many_credit_cards":  1,
		RuleOccupationMissing:    1,
	}
	for rule, n := range wantRules {
		if report.DroppedByRule[rule] != n {
			t.Errorf("DroppedByRule[%s]: got %d, want %d", rule, report.DroppedByRule[rule], n)
		}
	}
	if report.CoercionFailures[models.ColAge] != 1 || report.CoercionFailures[models.ColAnnualIncome] != 1 {
		t.Errorf("coercion failures: got %v", report.CoercionFailures)
	}
}

func TestNormalizeStrictAge(t *testing.T) {
	raw := rawTable(
		customerRow("a", "Engineer", "13", "50000"),
		customerRow("b", "Engineer", "14", "50000"),
	)

	ds, _, err := newTestCleaner(StrictLimits).Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if ds.Len() != 1 || ds.Table().At(0).Age().Value != 14 {
		t.Errorf("strict variant should keep only age 14, got %v", ages(View{Table: ds.Table()}))
	}
}

func TestNormalizeOptionalCreditHistoryRule(t *testing.T) {
	limits := DefaultLimits
	limits.CreditHistoryMax = 60
	raw := rawTable(
		[]any{"a", "Engineer", "30", "100", "1", "1", "1", "1", "61 Years and 2 Months", "1"},
		[]any{"b", "Engineer", "30", "100", "1", "1", "1", "1", "12 Years and 2 Months", "1"},
	)

	ds, report, err := newTestCleaner(limits).Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if ds.Len() != 1 {
		t.Errorf("expected 1 row, got %d", ds.Len())
	}
	if report.DroppedByRule["credit_history_too_long"] != 1 {
		t.Errorf("expected credit_history_too_long drop, got %v", report.DroppedByRule)
	}
}

func TestNormalizeCaseInsensitiveColumns(t *testing.T) {
	raw := &models.RawTable{
		Columns: []string{"occupation", "age", "annual_income", "num_bank_accounts", "num_credit_card", "credit_history_age"},
		Rows: [][]any{
			{"Engineer", int64(25), 50000.0, int64(2), int64(3), "5 Years and 3 Months"},
		},
	}

	ds, _, err := newTestCleaner(DefaultLimits).Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	r := ds.Table().At(0)
	if got := r.Number(models.ColCreditHistoryAge); got != models.Num(5) {
		t.Errorf("credit history: got %v, want 5", got)
	}
	if got := r.Number("ANNUAL_INCOME"); got != models.Num(50000) {
		t.Errorf("lookup by other case: got %v, want 50000", got)
	}
}

func TestNormalizeEmptyDataset(t *testing.T) {
	_, _, err := newTestCleaner(DefaultLimits).Normalize(rawTable())
	if !errors.Is(err, ErrEmptyDataset) {
		t.Errorf("got %v, want ErrEmptyDataset", err)
	}

	_, _, err = newTestCleaner(DefaultLimits).Normalize(nil)
	if !errors.Is(err, ErrEmptyDataset) {
		t.Errorf("nil table: got %v, want ErrEmptyDataset", err)
	}
}

func TestNormalizeAllRowsDropped(t *testing.T) {
	_, report, err := newTestCleaner(DefaultLimits).Normalize(rawTable(customerRow("a", "Engineer", "500", "1")))
	if !errors.Is(err, ErrEmptyDataset) {
		t.Errorf("got %v, want ErrEmptyDataset", err)
	}
	if report == nil || report.DroppedRows() != 1 {
		t.Errorf("report should still describe the drop: %+v", report)
	}
}

func TestNormalizeMissingOccupation(t *testing.T) {
	raw := &models.RawTable{
		Columns: []string{"Age", "Annual_Income", "Num_Bank_Accounts", "Num_Credit_Card"},
		Rows:    [][]any{{"25", "100", "1", "1"}},
	}
	_, _, err := newTestCleaner(DefaultLimits).Normalize(raw)
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("got %v, want ErrMissingColumn", err)
	}
}

func TestNormalizeMissingRuleColumn(t *testing.T) {
	raw := &models.RawTable{
		Columns: []string{"Occupation", "Age"},
		Rows:    [][]any{{"Engineer", "25"}},
	}
	_, _, err := newTestCleaner(DefaultLimits).Normalize(raw)
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("got %v, want ErrMissingColumn", err)
	}
}

func TestNormalizeLeavesInputUntouched(t *testing.T) {
	raw := rawTable(customerRow("a", "Engineer", " 25 ", "50000"))
	if _, _, err := newTestCleaner(DefaultLimits).Normalize(raw); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if raw.Rows[0][2] != " 25 " {
		t.Errorf("raw cell mutated: %#v", raw.Rows[0][2])
	}
}
