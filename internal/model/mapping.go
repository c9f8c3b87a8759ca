package model

// FieldType categorizes a field for comparison-time normalization.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeEmail    FieldType = "email"
	FieldTypePhone    FieldType = "phone"
	FieldTypeCurrency FieldType = "currency"
	FieldTypeDate     FieldType = "date"
	FieldTypeName     FieldType = "name"
	FieldTypeAddress  FieldType = "address"
	FieldTypeNumber   FieldType = "number"
	FieldTypeBoolean  FieldType = "boolean"
)

// Valid reports whether the field type is one of the known values.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeEmail, FieldTypePhone, FieldTypeCurrency,
		FieldTypeDate, FieldTypeName, FieldTypeAddress, FieldTypeNumber, FieldTypeBoolean:
		return true
	}
	return false
}

// Strategy selects which extraction channels a field mapping may use.
type Strategy string

const (
	// StrategyStructural reads only from the page's structured content.
	StrategyStructural Strategy = "structural"
	// StrategyRecognition reads only from the rendered image.
	StrategyRecognition Strategy = "recognition"
	// StrategyHybrid tries structural first and escalates to recognition
	// when structural confidence falls below the threshold.
	StrategyHybrid Strategy = "hybrid"
)

// AllowsStructural reports whether structural extraction may run.
func (s Strategy) AllowsStructural() bool {
	return s != StrategyRecognition
}

// AllowsRecognition reports whether recognition escalation may run.
func (s Strategy) AllowsRecognition() bool {
	return s != StrategyStructural
}

// FieldMapping links a record column to a page location and comparison type.
// Loaded from the mapping config; read-only during a run.
type FieldMapping struct {
	SourceField    string    `json:"source_field" yaml:"source_field"`
	TargetSelector string    `json:"target_selector" yaml:"target_selector"`
	FieldType      FieldType `json:"field_type" yaml:"field_type"`
	Required       bool      `json:"required" yaml:"required"`
	Strategy       Strategy  `json:"strategy" yaml:"strategy"`
}

// MappingSet is an indexed collection of field mappings.
type MappingSet struct {
	Mappings []FieldMapping
	byField  map[string]*FieldMapping
	required []*FieldMapping
}

// NewMappingSet indexes the given mappings and applies defaults: an empty
// field type becomes text, an empty strategy becomes hybrid.
func NewMappingSet(mappings []FieldMapping) *MappingSet {
	s := &MappingSet{
		Mappings: mappings,
		byField:  make(map[string]*FieldMapping, len(mappings)),
	}
	for i := range s.Mappings {
		m := &s.Mappings[i]
		if m.FieldType == "" {
			m.FieldType = FieldTypeText
		}
		if m.Strategy == "" {
			m.Strategy = StrategyHybrid
		}
		s.byField[m.SourceField] = m
		if m.Required {
			s.required = append(s.required, m)
		}
	}
	return s
}

// ByField returns the mapping for the given source field, or nil.
func (s *MappingSet) ByField(field string) *FieldMapping {
	return s.byField[field]
}

// Required returns all required mappings.
func (s *MappingSet) Required() []*FieldMapping {
	return s.required
}
