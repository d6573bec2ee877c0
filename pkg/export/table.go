package export

import "fmt"

// Table is the tabular content shared by the CSV and PDF renderers.
type Table struct {
	Title    string
	Subtitle string
	Columns  []string
	Rows     [][]string
}

// Validate reports structural problems before rendering.
func (t Table) Validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("table requires at least one column")
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(t.Columns))
		}
	}
	return nil
}
