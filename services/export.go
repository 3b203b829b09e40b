package services

import (
	"strings"

	"credit-dashboard/models"
)

// Export renders a view as text rows in the source column order. Numeric
// columns carry their cleaned values; missing values are blank.
func (d *Dataset) Export(v View) ([]string, [][]string, []bool) {
	d.mustReady()

	header := make([]string, len(d.source))
	copy(header, d.source)

	cells := make([]func(*models.Record) string, len(header))
	numeric := make([]bool, len(header))
	for i, col := range header {
		cells[i] = d.cellFunc(col)
		numeric[i] = d.HasColumn(col) && !strings.EqualFold(strings.TrimSpace(col), models.ColOccupation)
	}

	rows := make([][]string, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		rec := v.At(i)
		row := make([]string, len(cells))
		for j, cell := range cells {
			row[j] = cell(rec)
		}
		rows = append(rows, row)
	}
	return header, rows, numeric
}

func (d *Dataset) cellFunc(col string) func(*models.Record) string {
	if strings.EqualFold(strings.TrimSpace(col), models.ColOccupation) {
		return func(r *models.Record) string { return r.Occupation }
	}
	if d.HasColumn(col) {
		name := models.CanonicalColumn(col)
		return func(r *models.Record) string { return r.Numbers[name].String() }
	}
	return func(r *models.Record) string { return r.Attrs[col] }
}
