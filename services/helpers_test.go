package services

import (
	"credit-dashboard/models"
	"credit-dashboard/utils"
)

var testColumns = []string{
	"Customer_ID", "Occupation", "Age", "Annual_Income", "Num_Bank_Accounts",
	"Num_Credit_Card", "Interest_Rate", "Num_Credit_Inquiries", "Credit_History_Age",
	"Outstanding_Debt",
}

// customerRow builds a row that passes every default rule unless overridden.
func customerRow(id, occupation string, age, income any) []any {
	return []any{id, occupation, age, income, "3", "4", "12", "5", "22 Years and 1 Months", "809.98"}
}

func rawTable(rows ...[]any) *models.RawTable {
	return &models.RawTable{Columns: testColumns, Rows: rows}
}

func newTestCleaner(limits RuleLimits) *Cleaner {
	return NewCleaner(CleanOptions{
		NumericColumns: DefaultNumericColumns,
		Rules:          limits.Rules(),
	}, utils.NewDiscardLogger())
}

func mustNormalize(raw *models.RawTable) *Dataset {
	ds, _, err := newTestCleaner(DefaultLimits).Normalize(raw)
	if err != nil {
		panic(err)
	}
	return ds
}

func ages(v View) []float64 {
	out := make([]float64, 0, v.Len())
	for _, r := range v.Records() {
		out = append(out, r.Age().Value)
	}
	return out
}
