// Package model defines the data types shared across the validation pipeline.
package model

// Record is one row of the input dataset. Columns preserves the original
// column order; Values maps column name to the raw cell value. Records are
// immutable once loaded; the pipeline never writes back into them.
type Record struct {
	RowID   string            `json:"row_id"`
	Columns []string          `json:"columns"`
	Values  map[string]string `json:"values"`
}

// NewRecord builds a Record from an ordered header and a row of cells.
// Missing cells default to the empty string.
func NewRecord(rowID string, header []string, cells []string) Record {
	values := make(map[string]string, len(header))
	for i, col := range header {
		if i < len(cells) {
			values[col] = cells[i]
		} else {
			values[col] = ""
		}
	}
	cols := make([]string, len(header))
	copy(cols, header)
	return Record{RowID: rowID, Columns: cols, Values: values}
}

// Value returns the raw value for the given column, or "" if absent.
func (r Record) Value(column string) string {
	return r.Values[column]
}

// Has reports whether the record carries the given column.
func (r Record) Has(column string) bool {
	_, ok := r.Values[column]
	return ok
}
