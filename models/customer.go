package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Source column names, as created by the full_customers DDL.
const (
	ColID                 = "ID"
	ColCustomerID         = "Customer_ID"
	ColMonth              = "Month"
	ColName               = "Name"
	ColOccupation         = "Occupation"
	ColAge                = "Age"
	ColAnnualIncome       = "Annual_Income"
	ColNumBankAccounts    = "Num_Bank_Accounts"
	ColNumCreditCard      = "Num_Credit_Card"
	ColInterestRate       = "Interest_Rate"
	ColNumCreditInquiries = "Num_Credit_Inquiries"
	ColCreditHistoryAge   = "Credit_History_Age"
	ColOutstandingDebt    = "Outstanding_Debt"
	ColCreditUtilization  = "Credit_Utilization_Ratio"
	ColAmountInvested     = "Amount_invested_monthly"
)

var knownColumns = []string{
	ColID, ColCustomerID, ColMonth, ColName, ColOccupation, ColAge,
	ColAnnualIncome, ColNumBankAccounts, ColNumCreditCard, ColInterestRate,
	ColNumCreditInquiries, ColCreditHistoryAge, ColOutstandingDebt,
	ColCreditUtilization, ColAmountInvested,
}

// CanonicalColumn returns the DDL spelling of a known column name regardless
// of case, or the trimmed name unchanged.
func CanonicalColumn(name string) string {
	name = strings.TrimSpace(name)
	for _, k := range knownColumns {
		if strings.EqualFold(k, name) {
			return k
		}
	}
	return name
}

// RawTable is a dataset exactly as fetched from a source: column names in
// source order and one cell slice per row. Cells hold whatever the driver
// produced (nil, string, []byte, int64, float64, bool, time.Time).
type RawTable struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (t *RawTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex finds a column by name, ignoring case. PostgreSQL folds
// unquoted identifiers to lower case while CSV headers keep theirs.
// It returns -1 when the column is absent.
func (t *RawTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(strings.TrimSpace(c), name) {
			return i
		}
	}
	return -1
}

// Number is a numeric cell that may be missing.
type Number struct {
	Value float64
	Valid bool
}

// Num wraps a present value.
func Num(v float64) Number { return Number{Value: v, Valid: true} }

// Missing is the explicit "no value" marker.
var Missing = Number{}

// MarshalJSON encodes missing values as null.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON reads null as Missing.
func (n *Number) UnmarshalJSON(b []byte) error {
	if string(bytes.TrimSpace(b)) == "null" {
		*n = Missing
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = Num(v)
	return nil
}

func (n Number) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// Record is one cleaned customer-month observation.
type Record struct {
	// Row is the zero-based position in the raw table.
	Row        int
	Occupation string
	// Numbers is keyed by canonical column name (the Col* constants or the
	// configured numeric column names).
	Numbers map[string]Number
	// Attrs holds every other source column as text, keyed by source name.
	Attrs map[string]string
}

// Number returns the value of a numeric column, Missing if absent.
func (r *Record) Number(col string) Number {
	if n, ok := r.Numbers[col]; ok {
		return n
	}
	return r.Numbers[CanonicalColumn(col)]
}

// Age is shorthand for the age column.
func (r *Record) Age() Number {
	return r.Numbers[ColAge]
}
