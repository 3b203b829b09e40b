package services

import (
	"math"

	"credit-dashboard/models"
)

// AgeRange is an inclusive age bound.
type AgeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether age lies within the range.
func (r AgeRange) Contains(age models.Number) bool {
	return age.Valid && age.Value >= float64(r.Min) && age.Value <= float64(r.Max)
}

// EmptyReason explains why a view has no rows.
type EmptyReason string

const (
	ReasonNone         EmptyReason = ""
	ReasonNoOccupation EmptyReason = "no_occupation"
	ReasonNoMatch      EmptyReason = "no_match"
)

// Table is an ordered, read-only sequence of cleaned records.
type Table struct {
	records []*models.Record
}

// Len returns the number of records.
func (t Table) Len() int { return len(t.records) }

// At returns the i-th record.
func (t Table) At(i int) *models.Record { return t.records[i] }

// Records returns the records in order. The slice is a copy; the records
// themselves must be treated as read-only.
func (t Table) Records() []*models.Record {
	out := make([]*models.Record, len(t.records))
	copy(out, t.records)
	return out
}

// Filter selects the records with exactly the given occupation and an age
// inside ages, preserving order. An unset occupation or an empty selection
// yields an empty View, never an error.
func (t Table) Filter(occupation string, ages AgeRange) View {
	v := View{Occupation: occupation, Ages: ages}
	if occupation == "" {
		v.Reason = ReasonNoOccupation
		return v
	}

	var out []*models.Record
	for _, r := range t.records {
		if r.Occupation == occupation && ages.Contains(r.Age()) {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		v.Reason = ReasonNoMatch
		return v
	}
	v.Table = Table{records: out}
	return v
}

// View is a filtered subset of a Dataset. Filtering a View again produces a
// new View.
type View struct {
	Table
	Occupation string
	Ages       AgeRange
	Reason     EmptyReason
}

// Empty reports whether the view has no rows. Callers render a "no data"
// state for it.
func (v View) Empty() bool { return v.Len() == 0 }

// Dataset is the cleaned table. It only exists after a successful Normalize;
// a nil *Dataset is the uninitialized state and using it panics.
type Dataset struct {
	table       Table
	report      *models.CleanReport
	columns     []string
	source      []string
	occupations []string
	ages        AgeRange
}

func newDataset(records []*models.Record, report *models.CleanReport, columns, source []string) *Dataset {
	d := &Dataset{
		table:   Table{records: records},
		report:  report,
		columns: columns,
		source:  append([]string(nil), source...),
	}

	seen := make(map[string]bool)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range records {
		if !seen[r.Occupation] {
			seen[r.Occupation] = true
			d.occupations = append(d.occupations, r.Occupation)
		}
		if age := r.Age(); age.Valid {
			lo = math.Min(lo, age.Value)
			hi = math.Max(hi, age.Value)
		}
	}
	d.ages = AgeRange{Min: int(math.Floor(lo)), Max: int(math.Ceil(hi))}
	return d
}

func (d *Dataset) mustReady() {
	if d == nil {
		panic("services: dataset used before Normalize")
	}
}

// Table returns the full cleaned table.
func (d *Dataset) Table() Table {
	d.mustReady()
	return d.table
}

// Len returns the number of cleaned rows.
func (d *Dataset) Len() int {
	d.mustReady()
	return d.table.Len()
}

// Filter is Table().Filter.
func (d *Dataset) Filter(occupation string, ages AgeRange) View {
	d.mustReady()
	return d.table.Filter(occupation, ages)
}

// Report returns what Normalize dropped and failed to coerce.
func (d *Dataset) Report() *models.CleanReport {
	d.mustReady()
	return d.report
}

// Occupations lists distinct occupations in first-seen order.
func (d *Dataset) Occupations() []string {
	d.mustReady()
	out := make([]string, len(d.occupations))
	copy(out, d.occupations)
	return out
}

// AgeBounds is the smallest range covering every cleaned age.
func (d *Dataset) AgeBounds() AgeRange {
	d.mustReady()
	return d.ages
}

// NumericColumns lists the coerced columns.
func (d *Dataset) NumericColumns() []string {
	d.mustReady()
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

// HasColumn reports whether col is one of the coerced columns.
func (d *Dataset) HasColumn(col string) bool {
	d.mustReady()
	col = models.CanonicalColumn(col)
	for _, c := range d.columns {
		if c == col {
			return true
		}
	}
	return false
}
