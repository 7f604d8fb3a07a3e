package sheets

import (
	"context"
	b64 "encoding/base64"
	"fmt"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

const (
	spreadsheetScope = "https://www.googleapis.com/auth/spreadsheets"

	// Columns are auto-resized to their content, then capped.
	defaultMaxColumnWidthPx = 250
)

var (
	headerBlue = &sheets.Color{Red: 0.26, Green: 0.52, Blue: 0.96}
	bandGray   = &sheets.Color{Red: 0.95, Green: 0.95, Blue: 0.95}
	borderGray = &sheets.Color{Red: 0.85, Green: 0.85, Blue: 0.85}
	white      = &sheets.Color{Red: 1, Green: 1, Blue: 1}
)

// GoogleSheets writes grids into one spreadsheet, addressing sheets by
// title. Credentials are a base64-encoded service account JSON key.
type GoogleSheets struct {
	srv           *sheets.Service
	spreadsheetID string
	maxColWidth   int64
}

func NewGoogleSheets(credentials, spreadsheetID string, maxColWidthPx int) (*GoogleSheets, error) {
	if maxColWidthPx <= 0 {
		maxColWidthPx = defaultMaxColumnWidthPx
	}
	ctx := context.Background()

	credBytes, err := b64.StdEncoding.DecodeString(credentials)
	if err != nil {
		return nil, fmt.Errorf("decoding service account credentials: %w", err)
	}
	config, err := google.JWTConfigFromJSON(credBytes, spreadsheetScope)
	if err != nil {
		return nil, err
	}
	client := config.Client(ctx)

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, err
	}
	return &GoogleSheets{
		srv:           srv,
		spreadsheetID: spreadsheetID,
		maxColWidth:   int64(maxColWidthPx),
	}, nil
}

// sheet looks the named sheet up by title.
func (g *GoogleSheets) sheet(title string) (*sheets.Sheet, bool, error) {
	spreadSheet, err := g.srv.Spreadsheets.Get(g.spreadsheetID).Context(context.Background()).Do()
	if err != nil {
		return nil, false, err
	}
	for _, s := range spreadSheet.Sheets {
		if s.Properties.Title == title {
			return s, true, nil
		}
	}
	return nil, false, nil
}

func (g *GoogleSheets) batchUpdate(requests []*sheets.Request) error {
	if len(requests) == 0 {
		return nil
	}
	_, err := g.srv.Spreadsheets.BatchUpdate(g.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(context.Background()).Do()
	return err
}

func (g *GoogleSheets) Ensure(title string) error {
	_, exists, err := g.sheet(title)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	err = g.batchUpdate([]*sheets.Request{
		{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title: title,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to add new sheet: %w", err)
	}
	return nil
}

// Clear wipes values, cell formats and banded ranges. Banded ranges must be
// deleted explicitly or the next AddBanding request is rejected as
// overlapping.
func (g *GoogleSheets) Clear(title string) error {
	s, exists, err := g.sheet(title)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("sheet %q not found", title)
	}
	_, err = g.srv.Spreadsheets.Values.Clear(g.spreadsheetID, title, &sheets.ClearValuesRequest{}).
		Context(context.Background()).Do()
	if err != nil {
		return err
	}
	requests := []*sheets.Request{
		{
			UpdateCells: &sheets.UpdateCellsRequest{
				Range:  &sheets.GridRange{SheetId: s.Properties.SheetId},
				Fields: "userEnteredFormat",
			},
		},
	}
	for _, banded := range s.BandedRanges {
		requests = append(requests, &sheets.Request{
			DeleteBanding: &sheets.DeleteBandingRequest{BandedRangeId: banded.BandedRangeId},
		})
	}
	return g.batchUpdate(requests)
}

func (g *GoogleSheets) Update(title string, grid [][]string) error {
	values := make([][]interface{}, len(grid))
	for i, row := range grid {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		values[i] = cells
	}
	body := &sheets.ValueRange{Values: values}
	_, err := g.srv.Spreadsheets.Values.Update(g.spreadsheetID, title+"!A1", body).
		ValueInputOption("USER_ENTERED").
		Context(context.Background()).Do()
	return err
}

func (g *GoogleSheets) Format(title string, rows, cols int) error {
	s, exists, err := g.sheet(title)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("sheet %q not found", title)
	}
	sheetID := s.Properties.SheetId

	if err := g.batchUpdate(formatRequests(sheetID, rows, cols)); err != nil {
		return err
	}

	// Auto-resize leaves very long columns unreadable, so widths get capped
	// in a second pass after reading the resized values back.
	widths, err := g.columnWidths(title, cols)
	if err != nil {
		return err
	}
	return g.batchUpdate(capWidthRequests(sheetID, widths, g.maxColWidth))
}

// formatRequests builds the cosmetic batch for one freshly written grid:
// header style, frozen header row, borders, banded rows, column auto-resize.
func formatRequests(sheetID int64, rows, cols int) []*sheets.Request {
	full := &sheets.GridRange{
		SheetId:          sheetID,
		StartRowIndex:    0,
		EndRowIndex:      int64(rows),
		StartColumnIndex: 0,
		EndColumnIndex:   int64(cols),
	}
	headerRow := &sheets.GridRange{
		SheetId:          sheetID,
		StartRowIndex:    0,
		EndRowIndex:      1,
		StartColumnIndex: 0,
		EndColumnIndex:   int64(cols),
	}
	border := &sheets.Border{Style: "SOLID", Color: borderGray}

	return []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: headerRow,
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						BackgroundColor: headerBlue,
						TextFormat: &sheets.TextFormat{
							Bold:            true,
							ForegroundColor: white,
						},
					},
				},
				Fields: "userEnteredFormat(backgroundColor,textFormat)",
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: sheetID,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount: 1,
					},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
		{
			UpdateBorders: &sheets.UpdateBordersRequest{
				Range:           full,
				Top:             border,
				Bottom:          border,
				Left:            border,
				Right:           border,
				InnerHorizontal: border,
				InnerVertical:   border,
			},
		},
		{
			AddBanding: &sheets.AddBandingRequest{
				BandedRange: &sheets.BandedRange{
					Range: full,
					RowProperties: &sheets.BandingProperties{
						HeaderColor:     headerBlue,
						FirstBandColor:  white,
						SecondBandColor: bandGray,
					},
				},
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   int64(cols),
				},
			},
		},
	}
}

// capWidthRequests shrinks every column wider than maxWidth pixels.
func capWidthRequests(sheetID int64, widths []int64, maxWidth int64) []*sheets.Request {
	var requests []*sheets.Request
	for i, width := range widths {
		if width <= maxWidth {
			continue
		}
		requests = append(requests, &sheets.Request{
			UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: int64(i),
					EndIndex:   int64(i + 1),
				},
				Properties: &sheets.DimensionProperties{PixelSize: maxWidth},
				Fields:     "pixelSize",
			},
		})
	}
	return requests
}

func (g *GoogleSheets) columnWidths(title string, cols int) ([]int64, error) {
	resp, err := g.srv.Spreadsheets.Get(g.spreadsheetID).
		Ranges(title).
		Fields(googleapi.Field("sheets(properties(title),data(columnMetadata(pixelSize)))")).
		Context(context.Background()).Do()
	if err != nil {
		return nil, err
	}
	if len(resp.Sheets) == 0 || len(resp.Sheets[0].Data) == 0 {
		return nil, fmt.Errorf("no column metadata for sheet %q", title)
	}
	meta := resp.Sheets[0].Data[0].ColumnMetadata
	widths := make([]int64, 0, cols)
	for i, m := range meta {
		if i >= cols {
			break
		}
		widths = append(widths, m.PixelSize)
	}
	return widths, nil
}
