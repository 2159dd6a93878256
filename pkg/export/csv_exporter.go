package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Table is ordered tabular content destined for a downloadable file. Rows
// are positional and must line up with Columns.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// AddRow appends one row. Short rows are padded with empty cells; rows
// longer than the column set are rejected.
func (t *Table) AddRow(cells ...string) error {
	if len(cells) > len(t.Columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(cells), len(t.Columns))
	}
	row := make([]string, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
	return nil
}

// CSVExporter renders tables as RFC 4180 CSV.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render encodes the table, header row first.
func (e *CSVExporter) Render(t Table) ([]byte, error) {
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("csv requires at least one column")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(t.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}

	return buf.Bytes(), nil
}
