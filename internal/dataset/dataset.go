// Package dataset loads source records from CSV and XLSX files and field
// mappings from YAML.
package dataset

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/validate-cli/internal/model"
)

// Load reads records from a dataset file, dispatching on extension.
func Load(path string) ([]model.Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".xlsx":
		return LoadXLSX(path)
	default:
		return nil, eris.Errorf("dataset: unsupported file type %q", filepath.Ext(path))
	}
}

// buildRecords turns a header row plus data rows into records. The row ID
// comes from an "id" column when present, otherwise the 1-based row number.
func buildRecords(header []string, rows [][]string) []model.Record {
	idCol := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "id") {
			idCol = i
			break
		}
	}

	records := make([]model.Record, 0, len(rows))
	for i, cells := range rows {
		rowID := strconv.Itoa(i + 1)
		if idCol >= 0 && idCol < len(cells) && strings.TrimSpace(cells[idCol]) != "" {
			rowID = strings.TrimSpace(cells[idCol])
		}
		records = append(records, model.NewRecord(rowID, header, cells))
	}
	return records
}
