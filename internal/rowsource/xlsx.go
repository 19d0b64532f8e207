package rowsource

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/dqrepair/pipeline/internal/dqmodel"
)

// XLSXSource loads rows from one sheet of an Excel workbook, grounded on
// the teacher's converter.XLSXParser/excelize usage. An empty Sheet loads
// the workbook's first sheet.
type XLSXSource struct {
	Path  string
	Sheet string
}

func NewXLSXSource(path, sheet string) *XLSXSource {
	return &XLSXSource{Path: path, Sheet: sheet}
}

func (s *XLSXSource) Load(ctx context.Context, limit int) ([]dqmodel.Row, []string, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("rowsource: open %s: %w", s.Path, err)
	}
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, fmt.Errorf("rowsource: no sheets found in %s", s.Path)
		}
		sheet = sheets[0]
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("rowsource: read sheet %s: %w", sheet, err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	header := records[0]
	var rows []dqmodel.Row
	for _, record := range records[1:] {
		if limit > 0 && len(rows) >= limit {
			break
		}
		row := make(dqmodel.Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, header, nil
}
