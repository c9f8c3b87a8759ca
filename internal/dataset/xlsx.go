package dataset

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/validate-cli/internal/model"
)

// LoadXLSX reads all records from the first sheet of an XLSX workbook. The
// first row is the header.
func LoadXLSX(path string) ([]model.Record, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("dataset: xlsx workbook has no sheets")
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("dataset: xlsx sheet is empty")
	}

	header := rowToStrings(sheet.Rows[0])
	rows := make([][]string, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		rows = append(rows, rowToStrings(row))
	}

	return buildRecords(header, rows), nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
