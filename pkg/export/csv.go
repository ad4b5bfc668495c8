package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// CSV writes RFC 4180 output. Cells that spreadsheets would evaluate as formulas are quoted with a leading apostrophe.
type CSV struct{}

func NewCSV() *CSV {
	return &CSV{}
}

func (CSV) Extension() string { return "csv" }

func (c CSV) Render(data Dataset) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(data.Headers))
	for _, row := range data.Rows {
		for i := range record {
			record[i] = neutralizeFormula(data.cell(row, i))
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func neutralizeFormula(value string) string {
	if value == "" {
		return value
	}
	switch value[0] {
	case '=', '+', '@', '\t', '\r':
		return "'" + value
	case '-':
		// negative numbers stay untouched
		if strings.Trim(value[1:], "0123456789.") == "" && len(value) > 1 {
			return value
		}
		return "'" + value
	}
	return value
}
