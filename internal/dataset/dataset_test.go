package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/validate-cli/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "data.csv", "id,name,revenue\nc-1,Acme Inc,1200\nc-2,Globex,\n")

	records, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "c-1", records[0].RowID)
	assert.Equal(t, "Acme Inc", records[0].Value("name"))
	assert.Equal(t, []string{"id", "name", "revenue"}, records[0].Columns)

	assert.Equal(t, "c-2", records[1].RowID)
	assert.Equal(t, "", records[1].Value("revenue"))
}

func TestLoadCSVNoIDColumn(t *testing.T) {
	path := writeFile(t, "data.csv", "name,city\nAcme,Springfield\nGlobex,Shelbyville\n")

	records, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].RowID)
	assert.Equal(t, "2", records[1].RowID)
}

func TestLoadCSVRaggedRows(t *testing.T) {
	path := writeFile(t, "data.csv", "name,city,phone\nAcme,Springfield\n")

	records, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "", records[0].Value("phone"))
}

func TestLoadCSVEmpty(t *testing.T) {
	path := writeFile(t, "data.csv", "")
	_, err := LoadCSV(path)
	assert.Error(t, err)
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.xlsx")

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("records")
	require.NoError(t, err)
	for _, cells := range [][]string{
		{"id", "name"},
		{"x-1", "Acme Inc"},
		{"x-2", "Globex"},
	} {
		row := sheet.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}
	require.NoError(t, f.Save(path))

	records, err := LoadXLSX(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "x-1", records[0].RowID)
	assert.Equal(t, "Globex", records[1].Value("name"))
}

func TestLoadDispatch(t *testing.T) {
	path := writeFile(t, "data.csv", "name\nAcme\n")

	records, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = Load(filepath.Join(t.TempDir(), "data.parquet"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestLoadMappings(t *testing.T) {
	path := writeFile(t, "mappings.yaml", `
fields:
  - source_field: name
    target_selector: "#company-name"
    field_type: name
    required: true
  - source_field: revenue
    target_selector: "#revenue"
    field_type: currency
    strategy: structural
  - source_field: notes
    target_selector: ".notes"
`)

	set, err := LoadMappings(path)
	require.NoError(t, err)
	require.Len(t, set.Mappings, 3)

	name := set.ByField("name")
	require.NotNil(t, name)
	assert.True(t, name.Required)
	assert.Equal(t, model.FieldTypeName, name.FieldType)
	assert.Equal(t, model.StrategyHybrid, name.Strategy, "empty strategy defaults to hybrid")

	revenue := set.ByField("revenue")
	require.NotNil(t, revenue)
	assert.Equal(t, model.StrategyStructural, revenue.Strategy)

	notes := set.ByField("notes")
	require.NotNil(t, notes)
	assert.Equal(t, model.FieldTypeText, notes.FieldType, "empty type defaults to text")

	assert.Len(t, set.Required(), 1)
}

func TestLoadMappingsValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"no fields", "fields: []", "no fields"},
		{"empty source field", "fields:\n  - target_selector: '#x'", "empty source_field"},
		{"duplicate field", "fields:\n  - source_field: a\n  - source_field: a", "duplicate mapping"},
		{"bad type", "fields:\n  - source_field: a\n    field_type: geopoint", "unknown field type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "mappings.yaml", tt.content)
			_, err := LoadMappings(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
