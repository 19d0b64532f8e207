package rowsource

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/dqrepair/pipeline/internal/dqmodel"
)

// GSheetSource loads rows from one range of a Google Sheet via a
// credentials-file-backed service account, grounded on the teacher's
// gsheet_handler.go getSheetsService/fetchGoogleSheetValuesWithService
// pattern. The first row of the range is treated as headers.
type GSheetSource struct {
	SpreadsheetID string
	SheetRange    string // e.g. "Sheet1!A1:Z" or "" for the whole first sheet
	CredsPath     string
}

func NewGSheetSource(spreadsheetID, sheetRange, credsPath string) *GSheetSource {
	return &GSheetSource{SpreadsheetID: spreadsheetID, SheetRange: sheetRange, CredsPath: credsPath}
}

func (s *GSheetSource) Load(ctx context.Context, limit int) ([]dqmodel.Row, []string, error) {
	credsPath := strings.TrimSpace(s.CredsPath)
	if credsPath == "" {
		credsPath = strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"))
	}
	if credsPath == "" {
		return nil, nil, fmt.Errorf("rowsource: no Google Sheets credentials configured")
	}

	service, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credsPath),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, nil, fmt.Errorf("rowsource: sheets service: %w", err)
	}

	sheetRange := s.SheetRange
	if sheetRange == "" {
		sheetRange = "A1:ZZ"
	}

	resp, err := service.Spreadsheets.Values.Get(s.SpreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("rowsource: fetch values: %w", err)
	}
	if len(resp.Values) == 0 {
		return nil, nil, nil
	}

	header := make([]string, len(resp.Values[0]))
	for i, v := range resp.Values[0] {
		header[i] = fmt.Sprintf("%v", v)
	}

	var rows []dqmodel.Row
	for _, record := range resp.Values[1:] {
		if limit > 0 && len(rows) >= limit {
			break
		}
		row := make(dqmodel.Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = fmt.Sprintf("%v", record[i])
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, header, nil
}
