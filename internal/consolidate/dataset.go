// Package consolidate merges the per-worker sink files into one dataset and
// renders the export artifacts: CSV, JSON, SQL, XLSX, and the summary.
package consolidate

import "mnsos/pkg/contracts/domain"

// Dataset is an ordered collection of business rows, unique by file_number.
// Rows are column-name to value maps so sink files with reordered headers
// merge cleanly. On a duplicate key the later row wins and takes the later
// position.
type Dataset struct {
	index map[string]int
	rows  []map[string]string
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{index: make(map[string]int)}
}

// Upsert adds a row, replacing any earlier row with the same file_number.
// Rows without a file_number are kept as-is; they cannot collide.
func (d *Dataset) Upsert(row map[string]string) {
	key := row["file_number"]
	if key == "" {
		d.rows = append(d.rows, row)
		return
	}
	if i, ok := d.index[key]; ok {
		d.rows[i] = nil
	}
	d.index[key] = len(d.rows)
	d.rows = append(d.rows, row)
}

// Len returns the number of live rows.
func (d *Dataset) Len() int {
	n := 0
	for _, row := range d.rows {
		if row != nil {
			n++
		}
	}
	return n
}

// Rows returns the live rows in insertion order (duplicates at their final
// position).
func (d *Dataset) Rows() []map[string]string {
	out := make([]map[string]string, 0, len(d.rows))
	for _, row := range d.rows {
		if row != nil {
			out = append(out, row)
		}
	}
	return out
}

// cell returns the row's value for col, defaulting to the empty string.
func cell(row map[string]string, col string) string {
	return row[col]
}

// rowToCells renders a row in the canonical column order.
func rowToCells(row map[string]string) []string {
	cells := make([]string, len(domain.Columns))
	for i, col := range domain.Columns {
		cells[i] = cell(row, col)
	}
	return cells
}
