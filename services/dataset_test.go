package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func engineerTable() *Dataset {
	return mustNormalize(rawTable(
		customerRow("e1", "Engineer", "25", "50000"),
		customerRow("d1", "Doctor", "27", "90000"),
		customerRow("e2", "Engineer", "35", "61000"),
		customerRow("e3", "Engineer", "28", "58000"),
	))
}

func TestFilterSelectsOccupationAndAgeRange(t *testing.T) {
	ds := engineerTable()

	v := ds.Filter("Engineer", AgeRange{Min: 20, Max: 30})

	require.False(t, v.Empty())
	assert.Equal(t, []float64{25, 28}, ages(v))
	assert.Equal(t, ReasonNone, v.Reason)
}

func TestFilterBoundsAreInclusive(t *testing.T) {
	ds := engineerTable()

	v := ds.Filter("Engineer", AgeRange{Min: 25, Max: 28})

	assert.Equal(t, []float64{25, 28}, ages(v))
}

func TestFilterIsIdempotent(t *testing.T) {
	ds := engineerTable()
	r := AgeRange{Min: 20, Max: 30}

	once := ds.Filter("Engineer", r)
	twice := once.Filter("Engineer", r)

	assert.Equal(t, once.Records(), twice.Records())
}

func TestFilterUnknownOccupationIsEmpty(t *testing.T) {
	ds := engineerTable()

	v := ds.Filter("Astronaut", AgeRange{Min: 0, Max: 100})

	assert.True(t, v.Empty())
	assert.Equal(t, ReasonNoMatch, v.Reason)
}

func TestFilterUnsetOccupationIsEmpty(t *testing.T) {
	ds := engineerTable()

	v := ds.Filter("", AgeRange{Min: 0, Max: 100})

	assert.True(t, v.Empty())
	assert.Equal(t, ReasonNoOccupation, v.Reason)
}

func TestFilterInvertedRangeIsEmpty(t *testing.T) {
	ds := engineerTable()

	assert.True(t, ds.Filter("Engineer", AgeRange{Min: 30, Max: 20}).Empty())
}

func TestFilterIsExactMatch(t *testing.T) {
	ds := engineerTable()

	assert.True(t, ds.Filter("engineer", AgeRange{Min: 0, Max: 100}).Empty())
	assert.True(t, ds.Filter("Engine", AgeRange{Min: 0, Max: 100}).Empty())
}

func TestFilterDoesNotMutateDataset(t *testing.T) {
	ds := engineerTable()
	before := ds.Table().Records()

	v := ds.Filter("Engineer", AgeRange{Min: 20, Max: 30})
	recs := v.Records()
	recs[0] = nil

	assert.Equal(t, before, ds.Table().Records())
	assert.NotNil(t, v.At(0))
}

func TestDatasetOptions(t *testing.T) {
	ds := engineerTable()

	assert.Equal(t, []string{"Engineer", "Doctor"}, ds.Occupations())
	assert.Equal(t, AgeRange{Min: 25, Max: 35}, ds.AgeBounds())
	assert.True(t, ds.HasColumn("outstanding_debt"))
	assert.False(t, ds.HasColumn("Name"))
}

func TestNilDatasetPanics(t *testing.T) {
	var ds *Dataset

	assert.Panics(t, func() { ds.Filter("Engineer", AgeRange{Min: 0, Max: 100}) })
	assert.Panics(t, func() { _, _ = ds.Radar(View{}, nil) })
}
