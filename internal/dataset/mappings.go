package dataset

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/validate-cli/internal/model"
)

// mappingFile is the on-disk shape of a field mapping config.
type mappingFile struct {
	Fields []model.FieldMapping `yaml:"fields"`
}

// LoadMappings reads field mappings from a YAML file and validates them.
func LoadMappings(path string) (*model.MappingSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read mappings")
	}

	var mf mappingFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, eris.Wrap(err, "dataset: parse mappings")
	}
	if len(mf.Fields) == 0 {
		return nil, eris.New("dataset: mapping file defines no fields")
	}

	seen := make(map[string]bool, len(mf.Fields))
	for _, m := range mf.Fields {
		if m.SourceField == "" {
			return nil, eris.New("dataset: mapping with empty source_field")
		}
		if seen[m.SourceField] {
			return nil, eris.Errorf("dataset: duplicate mapping for field %q", m.SourceField)
		}
		seen[m.SourceField] = true
		if m.FieldType != "" && !m.FieldType.Valid() {
			return nil, eris.Errorf("dataset: unknown field type %q for %q", m.FieldType, m.SourceField)
		}
	}

	return model.NewMappingSet(mf.Fields), nil
}
