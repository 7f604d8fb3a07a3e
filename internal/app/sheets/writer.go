// Package sheets renders fetched records into a rectangular string grid and
// replaces a destination sheet's contents with it. Every sync is a total
// replace: resolve-or-create the sheet, clear it, write the whole grid in one
// bulk operation, then apply cosmetics.
package sheets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"exchangesync/internal/models"
)

// Destination is the tabular surface a grid is written to.
type Destination interface {
	// Ensure creates the named sheet when it does not exist yet.
	Ensure(sheet string) error
	// Clear removes all values and formatting so nothing from a previous
	// dataset survives.
	Clear(sheet string) error
	// Update writes the whole grid as one bulk operation starting at A1.
	Update(sheet string, grid [][]string) error
	// Format applies the cosmetic layer: header style, frozen header row,
	// borders, banded rows, capped column widths.
	Format(sheet string, rows, cols int) error
}

// WriteError is a data-phase failure while replacing a sheet's contents.
type WriteError struct {
	Stage string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("sheet write failed (%s): %v", e.Stage, e.Err)
}
func (e *WriteError) Unwrap() error { return e.Err }

type Writer struct {
	dest Destination
}

func NewWriter(dest Destination) *Writer {
	return &Writer{dest: dest}
}

// Write replaces the sheet's contents with the rendered records and returns
// the number of grid rows written (header included). Formatting failures are
// logged and swallowed: cosmetics must never fail a successful data write.
func (w *Writer) Write(records []models.Record, sheet string) (int, error) {
	grid, err := RenderGrid(records)
	if err != nil {
		return 0, &WriteError{Stage: "render", Err: err}
	}
	if err := w.dest.Ensure(sheet); err != nil {
		return 0, &WriteError{Stage: "ensure", Err: err}
	}
	if err := w.dest.Clear(sheet); err != nil {
		return 0, &WriteError{Stage: "clear", Err: err}
	}
	if err := w.dest.Update(sheet, grid); err != nil {
		return 0, &WriteError{Stage: "update", Err: err}
	}
	if err := w.dest.Format(sheet, len(grid), len(grid[0])); err != nil {
		logrus.WithFields(logrus.Fields{"sheet": sheet}).Warnf("formatting failed, data is intact: %v", err)
	}
	return len(grid), nil
}

// RenderGrid turns records into header + one row per record. The first
// record's field names, in insertion order, are the header and fix the
// column set: later records' extra fields are dropped and missing fields
// render empty. Whether that asymmetry is the right call is an open question
// (see README); it matches the behavior sheets consumers already rely on.
func RenderGrid(records []models.Record) ([][]string, error) {
	if len(records) == 0 {
		return nil, errors.New("no records to render")
	}
	headers := records[0].Keys()
	if len(headers) == 0 {
		return nil, errors.New("first record has no fields")
	}
	grid := make([][]string, 0, len(records)+1)
	grid = append(grid, headers)
	for _, rec := range records {
		row := make([]string, len(headers))
		for i, name := range headers {
			v, ok := rec.Get(name)
			if !ok {
				continue
			}
			row[i] = cellText(v)
		}
		grid = append(grid, row)
	}
	return grid, nil
}

// Line breaks and tabs would tear the grid apart, so each becomes one space.
var flattenWhitespace = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")

func cellText(v models.Value) string {
	return flattenWhitespace.Replace(v.String())
}
