// Package export renders attendance tables into downloadable artifacts.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is a flat table: a fixed header order plus one map per row. Rows
// missing a column render as an empty cell.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// row projects a record onto the header order.
func (d Dataset) row(r map[string]string) []string {
	out := make([]string, len(d.Headers))
	for i, h := range d.Headers {
		out[i] = r[h]
	}
	return out
}

// CSVExporter writes datasets as RFC 4180 CSV.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render encodes the dataset, header row first.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv export needs a header row")
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	for i, r := range data.Rows {
		if err := w.Write(data.row(r)); err != nil {
			return nil, fmt.Errorf("csv row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}
	return buf.Bytes(), nil
}
