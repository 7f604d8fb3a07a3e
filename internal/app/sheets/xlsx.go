package sheets

import (
	"errors"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

const (
	// Excel column widths are in characters, not pixels; the configured
	// pixel cap converts at roughly 7 px per character.
	pixelsPerChar = 7.0

	headerFillHex = "4285F4"
	bandFillHex   = "F2F2F2"
	borderHex     = "D9D9D9"

	scratchSheet = "__scratch__"
)

// Workbook writes grids into sheets of one local .xlsx file. Every operation
// opens the file, mutates it and saves, so the file on disk is consistent
// after each step.
type Workbook struct {
	path        string
	maxColWidth float64
}

func NewWorkbook(path string, maxColWidthPx int) *Workbook {
	if maxColWidthPx <= 0 {
		maxColWidthPx = defaultMaxColumnWidthPx
	}
	return &Workbook{path: path, maxColWidth: float64(maxColWidthPx) / pixelsPerChar}
}

func (w *Workbook) open() (*excelize.File, error) {
	if _, err := os.Stat(w.path); errors.Is(err, os.ErrNotExist) {
		return excelize.NewFile(), nil
	}
	return excelize.OpenFile(w.path)
}

func (w *Workbook) Ensure(sheet string) error {
	_, statErr := os.Stat(w.path)
	isNew := errors.Is(statErr, os.ErrNotExist)
	f, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return err
	}
	if idx >= 0 && !isNew {
		return nil
	}
	if idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}
	// A fresh workbook comes with a default sheet we did not ask for.
	if isNew && sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return err
		}
	}
	return f.SaveAs(w.path)
}

// Clear drops the sheet entirely and recreates it blank, which removes both
// values and formatting in one move. A scratch sheet keeps the workbook from
// ever holding zero sheets, which excelize rejects.
func (w *Workbook) Clear(sheet string) error {
	f, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return err
	}
	if idx < 0 {
		return fmt.Errorf("sheet %q not found", sheet)
	}
	if _, err := f.NewSheet(scratchSheet); err != nil {
		return err
	}
	if err := f.DeleteSheet(sheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := f.DeleteSheet(scratchSheet); err != nil {
		return err
	}
	return f.SaveAs(w.path)
}

// Update writes the whole grid; the single SaveAs is the bulk-write point,
// so a reader of the file never observes a half-written grid.
func (w *Workbook) Update(sheet string, grid [][]string) error {
	f, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()
	for i, row := range grid {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		start, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, start, &cells); err != nil {
			return err
		}
	}
	return f.SaveAs(w.path)
}

func (w *Workbook) Format(sheet string, rows, cols int) error {
	f, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	border := []excelize.Border{
		{Type: "left", Color: borderHex, Style: 1},
		{Type: "right", Color: borderHex, Style: 1},
		{Type: "top", Color: borderHex, Style: 1},
		{Type: "bottom", Color: borderHex, Style: 1},
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFillHex}},
		Border: border,
	})
	if err != nil {
		return err
	}
	plainStyle, err := f.NewStyle(&excelize.Style{Border: border})
	if err != nil {
		return err
	}
	bandStyle, err := f.NewStyle(&excelize.Style{
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{bandFillHex}},
		Border: border,
	})
	if err != nil {
		return err
	}

	if err := styleRow(f, sheet, 1, cols, headerStyle); err != nil {
		return err
	}
	// Banded rows: data rows alternate plain and gray.
	for row := 2; row <= rows; row++ {
		style := plainStyle
		if row%2 != 0 {
			style = bandStyle
		}
		if err := styleRow(f, sheet, row, cols, style); err != nil {
			return err
		}
	}

	if err := w.sizeColumns(f, sheet, cols); err != nil {
		return err
	}

	// Frozen header row.
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	return f.SaveAs(w.path)
}

func styleRow(f *excelize.File, sheet string, row, cols, style int) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, start, end, style)
}

// sizeColumns fits each column to its widest cell, capped at the configured
// maximum width.
func (w *Workbook) sizeColumns(f *excelize.File, sheet string, cols int) error {
	grid, err := f.GetRows(sheet)
	if err != nil {
		return err
	}
	for col := 1; col <= cols; col++ {
		widest := 0
		for _, row := range grid {
			if col-1 < len(row) && len(row[col-1]) > widest {
				widest = len(row[col-1])
			}
		}
		width := float64(widest) + 2
		if width > w.maxColWidth {
			width = w.maxColWidth
		}
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}
	return nil
}
