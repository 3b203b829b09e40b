package storage

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

// XLSXSheet is the worksheet name used for exports.
const XLSXSheet = "customers"

// XLSXWriter renders an exported view into a single-sheet workbook.
// Only the columns flagged in numeric are stored as numbers; the rest
// stay text so identifiers like "00123" keep their leading zeros.
// The workbook is written out on Close.
type XLSXWriter struct {
	book    *excelize.File
	path    string
	out     io.Writer
	numeric []bool
}

// NewXLSXWriter targets a file at path, created on Close.
func NewXLSXWriter(path string, numeric []bool) (*XLSXWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("xlsx: create output dir: %w", err)
	}
	return newXLSXWriter(path, nil, numeric)
}

// NewXLSXStreamWriter targets w, which the caller owns.
func NewXLSXStreamWriter(w io.Writer, numeric []bool) (*XLSXWriter, error) {
	return newXLSXWriter("", w, numeric)
}

func newXLSXWriter(path string, w io.Writer, numeric []bool) (*XLSXWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), XLSXSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("xlsx: rename sheet: %w", err)
	}
	return &XLSXWriter{book: f, path: path, out: w, numeric: numeric}, nil
}

// WriteTable fills the sheet with the header in row 1. Numeric text in
// numeric columns is stored as numbers so spreadsheets can sort and sum it.
func (x *XLSXWriter) WriteTable(header []string, rows [][]string) error {
	if err := x.setRow(1, toCells(header, nil)); err != nil {
		return fmt.Errorf("xlsx: write header: %w", err)
	}
	for i, row := range rows {
		if err := x.setRow(i+2, toCells(row, x.numeric)); err != nil {
			return fmt.Errorf("xlsx: write row %d: %w", i, err)
		}
	}
	return nil
}

func (x *XLSXWriter) setRow(n int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	return x.book.SetSheetRow(XLSXSheet, cell, &cells)
}

func toCells(row []string, numeric []bool) []any {
	cells := make([]any, len(row))
	for i, v := range row {
		cells[i] = v
		if i >= len(numeric) || !numeric[i] || strings.TrimSpace(v) == "" {
			continue
		}
		if f, err := cast.ToFloat64E(strings.TrimSpace(v)); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			cells[i] = f
		}
	}
	return cells
}

// Close saves the workbook to its target and releases it.
func (x *XLSXWriter) Close() error {
	defer func() { _ = x.book.Close() }()

	if x.out != nil {
		if _, err := x.book.WriteTo(x.out); err != nil {
			return fmt.Errorf("xlsx: write: %w", err)
		}
		return nil
	}
	if err := x.book.SaveAs(x.path); err != nil {
		return fmt.Errorf("xlsx: save %q: %w", x.path, err)
	}
	return nil
}
