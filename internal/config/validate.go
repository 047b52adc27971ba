package config

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var configSchema string

// SchemaError reports config keys rejected by the embedded JSON schema, as
// opposed to semantically invalid values caught by Config.Validate. Issues
// are sorted for deterministic messages.
type SchemaError struct {
	Issues []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("config schema validation failed: %s", strings.Join(e.Issues, "; "))
}

// ValidateSettings checks raw config settings against the embedded schema.
// A schema violation surfaces as a *SchemaError.
func ValidateSettings(settings map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(configSchema),
		gojsonschema.NewGoLoader(settings),
	)
	if err != nil {
		return fmt.Errorf("validate config schema: %w", err)
	}
	if result.Valid() {
		return nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, schemaErr := range result.Errors() {
		issues = append(issues, schemaErr.String())
	}
	sort.Strings(issues)

	return &SchemaError{Issues: issues}
}
