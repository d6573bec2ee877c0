package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// RenderCSV encodes the table as CSV with a header row.
func RenderCSV(table Table) ([]byte, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(table.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := writer.WriteAll(table.Rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}
