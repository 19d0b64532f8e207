package rowsource

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/dqrepair/pipeline/internal/dqmodel"
)

// CSVSource loads rows from a CSV file, first row treated as headers.
type CSVSource struct {
	Path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

func (s *CSVSource) Load(ctx context.Context, limit int) ([]dqmodel.Row, []string, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("rowsource: open %s: %w", s.Path, err)
	}
	defer f.Close()
	return parseCSV(f, limit)
}

func parseCSV(r io.Reader, limit int) ([]dqmodel.Row, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("rowsource: read header: %w", err)
	}

	var rows []dqmodel.Row
	for {
		if limit > 0 && len(rows) >= limit {
			break
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("rowsource: read row %d: %w", len(rows), err)
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
