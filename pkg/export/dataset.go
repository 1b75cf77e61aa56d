// Package export renders tabular data as downloadable CSV or PDF files.
package export

import "fmt"

// Dataset is an ordered table. Every row must have len(Headers) cells.
type Dataset struct {
	Headers []string
	Rows    [][]string
}

// Validate reports malformed datasets before rendering.
func (d Dataset) Validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset requires at least one header")
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Headers) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(d.Headers))
		}
	}
	return nil
}
