package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-dashboard/models"
)

func sumCounts(h models.HistogramSpec) int {
	total := 0
	for _, c := range h.Counts {
		total += c
	}
	return total
}

func TestHistogramContinuous(t *testing.T) {
	ds := mustNormalize(rawTable(
		customerRow("1", "Engineer", "30", "10000"),
		customerRow("2", "Engineer", "31", "20000"),
		customerRow("3", "Engineer", "32", "30000"),
		customerRow("4", "Engineer", "33", "50000"),
	))
	v := ds.Filter("Engineer", AgeRange{Min: 0, Max: 100})

	h := Histogram(v, ViewSpec{Name: "income", Column: models.ColAnnualIncome, Bins: 4})

	require.False(t, h.Empty)
	assert.Equal(t, []float64{10000, 20000, 30000, 40000, 50000}, h.Edges)
	assert.Equal(t, []int{1, 1, 1, 1}, h.Counts)
	assert.Equal(t, 4, h.Total)
	assert.Equal(t, 4, h.Rows)
}

func TestHistogramDiscreteBucketsPerInteger(t *testing.T) {
	ds := mustNormalize(rawTable(
		[]any{"1", "Engineer", "30", "1", "2", "1", "1", "1", "1", "1"},
		[]any{"2", "Engineer", "30", "1", "2", "1", "1", "1", "1", "1"},
		[]any{"3", "Engineer", "30", "1", "4", "1", "1", "1", "1", "1"},
	))
	v := ds.Filter("Engineer", AgeRange{Min: 0, Max: 100})

	h := Histogram(v, ViewSpec{Name: "bank_accounts", Column: models.ColNumBankAccounts, Discrete: true})

	assert.Equal(t, []float64{1.5, 2.5, 3.5, 4.5}, h.Edges)
	assert.Equal(t, []int{2, 0, 1}, h.Counts)
}

func TestHistogramAppliesCap(t *testing.T) {
	ds := mustNormalize(rawTable(
		[]any{"1", "Engineer", "30", "1", "1", "1", "12", "1", "1", "1"},
		[]any{"2", "Engineer", "30", "1", "1", "1", "48", "1", "1", "1"},
		[]any{"3", "Engineer", "30", "1", "1", "1", "5797", "1", "1", "1"},
		[]any{"4", "Engineer", "30", "1", "1", "1", "bad", "1", "1", "1"},
	))
	v := ds.Filter("Engineer", AgeRange{Min: 0, Max: 100})
	reg, err := NewViewRegistry(DefaultViews(DefaultCaps)...)
	require.NoError(t, err)

	h, err := reg.Histogram(v, "interest_rate")
	require.NoError(t, err)

	assert.Equal(t, 2, h.Total)
	assert.Equal(t, 1, h.Capped)
	assert.Equal(t, 1, h.Missing)
	assert.Equal(t, h.Total, sumCounts(h))
	assert.LessOrEqual(t, h.Edges[len(h.Edges)-1], 50.5)
}

func TestHistogramSingleValue(t *testing.T) {
	ds := mustNormalize(rawTable(
		customerRow("1", "Engineer", "30", "5000"),
		customerRow("2", "Engineer", "31", "5000"),
	))
	v := ds.Filter("Engineer", AgeRange{Min: 0, Max: 100})

	h := Histogram(v, ViewSpec{Name: "income", Column: models.ColAnnualIncome})

	assert.Equal(t, []float64{4999.5, 5000.5}, h.Edges)
	assert.Equal(t, []int{2}, h.Counts)
}

func TestHistogramCountsSumToTotal(t *testing.T) {
	var rows [][]any
	for i, inc := range []string{"1.1", "2.7", "3.3", "9.9", "7.25", "0.4", "5.5", "6.6", "8.1"} {
		rows = append(rows, customerRow(string(rune('a'+i)), "Engineer", "40", inc))
	}
	v := mustNormalize(rawTable(rows...)).Filter("Engineer", AgeRange{Min: 0, Max: 100})

	h := Histogram(v, ViewSpec{Name: "income", Column: models.ColAnnualIncome, Bins: 7})

	assert.Equal(t, 9, sumCounts(h))
	assert.Len(t, h.Edges, 8)
	assert.Equal(t, 0.4, h.Edges[0])
	assert.Equal(t, 9.9, h.Edges[7])
}

func TestHistogramEmptyView(t *testing.T) {
	v := engineerTable().Filter("Astronaut", AgeRange{Min: 0, Max: 100})

	h := Histogram(v, ViewSpec{Name: "income", Column: models.ColAnnualIncome})

	assert.True(t, h.Empty)
	assert.Equal(t, string(ReasonNoMatch), h.Reason)
	assert.Empty(t, h.Counts)
	assert.Zero(t, h.Rows)
}

func TestHistogramAllMissing(t *testing.T) {
	v := engineerTable().Filter("Engineer", AgeRange{Min: 0, Max: 100})

	h := Histogram(v, ViewSpec{Name: "investment", Column: models.ColAmountInvested})

	assert.True(t, h.Empty)
	assert.Equal(t, 3, h.Missing)
	assert.Equal(t, 3, h.Rows, "rows counts the view even when no value is plotted")
}

func TestViewRegistryUnknownView(t *testing.T) {
	reg, err := NewViewRegistry(DefaultViews(DefaultCaps)...)
	require.NoError(t, err)

	_, err = reg.Histogram(View{}, "nope")
	assert.True(t, errors.Is(err, ErrUnknownView))
}

func TestViewRegistryRejectsDuplicates(t *testing.T) {
	spec := ViewSpec{Name: "income", Column: models.ColAnnualIncome}

	_, err := NewViewRegistry(spec, spec)
	assert.Error(t, err)
}

func TestDefaultViewsCoverDashboards(t *testing.T) {
	reg, err := NewViewRegistry(DefaultViews(DefaultCaps)...)
	require.NoError(t, err)

	names := make([]string, 0)
	for _, s := range reg.Specs() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"income", "age", "bank_accounts", "credit_cards", "interest_rate",
		"credit_inquiries", "credit_history", "debt", "credit_utilization", "investment",
	}, names)

	s, err := reg.Lookup("credit_inquiries")
	require.NoError(t, err)
	assert.Equal(t, models.Num(20), s.Cap)
}

func TestRadarNormalizedMeans(t *testing.T) {
	ds := mustNormalize(rawTable(
		customerRow("1", "Engineer", "20", "10000"),
		customerRow("2", "Engineer", "30", "20000"),
		customerRow("3", "Engineer", "40", "60000"),
	))
	v := ds.Filter("Engineer", AgeRange{Min: 0, Max: 100})

	spec, err := ds.Radar(v, []string{models.ColAnnualIncome, models.ColNumCreditCard})
	require.NoError(t, err)
	require.Len(t, spec.Axes, 2)

	income := spec.Axes[0]
	assert.InDelta(t, 30000, income.Mean.Value, 1e-9)
	assert.InDelta(t, 0.4, income.Normalized.Value, 1e-9)
	assert.Equal(t, models.Num(10000), income.Min)

	cards := spec.Axes[1]
	assert.True(t, cards.Mean.Valid)
	assert.False(t, cards.Normalized.Valid, "zero spread has no normalized mean")
}

func TestRadarUnknownColumn(t *testing.T) {
	ds := engineerTable()

	_, err := ds.Radar(ds.Filter("Engineer", AgeRange{Min: 0, Max: 100}), []string{"Name"})
	assert.True(t, errors.Is(err, ErrUnknownColumn))
}

func TestRadarEmpty(t *testing.T) {
	ds := engineerTable()

	spec := Radar(ds.Filter("", AgeRange{}), []string{models.ColAnnualIncome})
	assert.True(t, spec.Empty)

	spec = Radar(ds.Filter("Engineer", AgeRange{Min: 0, Max: 100}), nil)
	assert.True(t, spec.Empty)
	assert.Equal(t, 3, spec.Rows)
}
