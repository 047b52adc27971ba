package plan

import "fmt"

// FieldType classifies a result column for presentation.
type FieldType string

const (
	FieldMoney      FieldType = "MONEY"
	FieldPercentage FieldType = "PERCENTAGE"
	FieldYear       FieldType = "YEAR"
	FieldQuarter    FieldType = "QUARTER"
	FieldMonth      FieldType = "MONTH"
	FieldDate       FieldType = "DATE"
	FieldNumeric    FieldType = "NUMERIC"
	FieldText       FieldType = "TEXT"
)

// Valid reports whether the field type is one of the known values.
func (t FieldType) Valid() bool {
	switch t {
	case FieldMoney, FieldPercentage, FieldYear, FieldQuarter, FieldMonth,
		FieldDate, FieldNumeric, FieldText:
		return true
	default:
		return false
	}
}

// Column describes one column of the result set.
type Column struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// Plan is a generated aggregation pipeline together with the builder's
// explanation and the expected result columns. Each stage is a single-key
// mapping from an operator name to its specification.
type Plan struct {
	Stages      []*Node  `json:"pipeline"`
	Explanation string   `json:"explanation"`
	Columns     []Column `json:"columns"`
}

// StageCount returns the number of pipeline stages.
func (p Plan) StageCount() int {
	return len(p.Stages)
}

// CheckColumns verifies that every declared column carries a known type.
func (p Plan) CheckColumns() error {
	for _, col := range p.Columns {
		if !col.Type.Valid() {
			return fmt.Errorf("column %q has unknown type %q", col.Name, col.Type)
		}
	}
	return nil
}
