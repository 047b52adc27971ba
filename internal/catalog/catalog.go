// Package catalog embeds the static dataset context supplied to every
// model-backed stage: a prose overview of the data and a field catalog.
package catalog

import (
	_ "embed"
	"encoding/json"
	"strings"
)

//go:embed data_overview.txt
var dataOverview string

//go:embed field_catalog.json
var fieldCatalog string

// Overview returns the dataset overview text.
func Overview() string {
	return strings.TrimSpace(dataOverview)
}

// FieldCatalog returns the field catalog as a JSON string.
func FieldCatalog() string {
	return strings.TrimSpace(fieldCatalog)
}

// FieldNames returns the catalog field names in declaration order.
func FieldNames() ([]string, error) {
	var doc struct {
		Fields []struct {
			Name string `json:"name"`
		} `json:"fields"`
	}
	if err := json.Unmarshal([]byte(fieldCatalog), &doc); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(doc.Fields))
	for _, f := range doc.Fields {
		names = append(names, f.Name)
	}
	return names, nil
}
