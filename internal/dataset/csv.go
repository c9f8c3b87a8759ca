package dataset

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/validate-cli/internal/model"
)

// LoadCSV reads all records from a CSV file. The first row is the header;
// rows may be ragged (missing trailing cells read as empty).
func LoadCSV(path string) ([]model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open csv")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read csv")
	}
	if len(rows) == 0 {
		return nil, eris.New("dataset: csv file is empty")
	}

	return buildRecords(rows[0], rows[1:]), nil
}
