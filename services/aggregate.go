package services

import (
	"errors"
	"fmt"
	"math"

	"credit-dashboard/models"
)

// ErrUnknownColumn is returned when a radar axis names a non-numeric column.
var ErrUnknownColumn = errors.New("unknown numeric column")

const (
	defaultBins = 20
	// Discrete columns fall back to equal-width bins past this many integers.
	maxDiscreteBuckets = 200

	reasonNoValues  = "no_values"
	reasonNoColumns = "no_columns"
)

// Histogram buckets one column of the view. Values above spec.Cap are
// excluded and counted as capped; missing values are counted separately.
func Histogram(v View, spec ViewSpec) models.HistogramSpec {
	h := models.HistogramSpec{View: spec.Name, Column: spec.Column, Title: spec.Title, Rows: v.Len()}
	if v.Empty() {
		h.Empty = true
		h.Reason = string(v.Reason)
		return h
	}

	values := make([]float64, 0, v.Len())
	for _, r := range v.records {
		n := r.Number(spec.Column)
		switch {
		case !n.Valid:
			h.Missing++
		case spec.Cap.Valid && n.Value > spec.Cap.Value:
			h.Capped++
		default:
			values = append(values, n.Value)
		}
	}
	if len(values) == 0 {
		h.Empty = true
		h.Reason = reasonNoValues
		return h
	}

	lo, hi := values[0], values[0]
	for _, x := range values[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}

	h.Edges = bucketEdges(lo, hi, spec)
	h.Counts = make([]int, len(h.Edges)-1)
	for _, x := range values {
		h.Counts[bucketIndex(h.Edges, x)]++
	}
	h.Total = len(values)
	return h
}

func bucketEdges(lo, hi float64, spec ViewSpec) []float64 {
	if spec.Discrete {
		start := math.Round(lo) - 0.5
		end := math.Round(hi) + 0.5
		if n := int(end - start); n <= maxDiscreteBuckets {
			edges := make([]float64, n+1)
			for i := range edges {
				edges[i] = start + float64(i)
			}
			return edges
		}
	}

	if lo == hi {
		return []float64{lo - 0.5, lo + 0.5}
	}

	bins := spec.Bins
	if bins <= 0 {
		bins = defaultBins
	}
	width := (hi - lo) / float64(bins)
	edges := make([]float64, bins+1)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[bins] = hi
	return edges
}

// bucketIndex places x in [edges[i], edges[i+1]); the last bucket is closed.
func bucketIndex(edges []float64, x float64) int {
	last := len(edges) - 2
	width := edges[1] - edges[0]
	i := int(math.Floor((x - edges[0]) / width))
	if i < 0 {
		i = 0
	}
	if i > last {
		i = last
	}
	// float steps can land one bucket off near an edge
	for i > 0 && x < edges[i] {
		i--
	}
	for i < last && x >= edges[i+1] {
		i++
	}
	return i
}

// Radar computes, per column, the mean of min-max normalized values across
// the view together with the raw mean. A column with no spread has a missing
// normalized mean.
func Radar(v View, columns []string) models.RadarSpec {
	if v.Empty() {
		return models.RadarSpec{Empty: true, Reason: string(v.Reason)}
	}
	if len(columns) == 0 {
		return models.RadarSpec{Empty: true, Reason: reasonNoColumns, Rows: v.Len()}
	}

	spec := models.RadarSpec{Axes: make([]models.RadarAxis, 0, len(columns)), Rows: v.Len()}
	for _, col := range columns {
		axis := models.RadarAxis{Column: col}

		var sum float64
		var count int
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, r := range v.records {
			n := r.Number(col)
			if !n.Valid {
				continue
			}
			sum += n.Value
			count++
			lo = math.Min(lo, n.Value)
			hi = math.Max(hi, n.Value)
		}

		if count > 0 {
			mean := sum / float64(count)
			axis.Mean = models.Num(mean)
			axis.Min = models.Num(lo)
			axis.Max = models.Num(hi)
			if hi > lo {
				axis.Normalized = models.Num((mean - lo) / (hi - lo))
			}
		}
		spec.Axes = append(spec.Axes, axis)
	}
	return spec
}

// Radar validates the columns against the dataset before aggregating.
func (d *Dataset) Radar(v View, columns []string) (models.RadarSpec, error) {
	d.mustReady()
	for _, col := range columns {
		if !d.HasColumn(col) {
			return models.RadarSpec{}, fmt.Errorf("%w: %s", ErrUnknownColumn, col)
		}
	}
	return Radar(v, columns), nil
}
