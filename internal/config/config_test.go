package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spendlens.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Listen)
	assert.Equal(t, "purchases", cfg.Mongo.Collection)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 2*time.Minute, cfg.LLM.Timeout)
	assert.Equal(t, 1, cfg.Limits.MaxRefinements)
	assert.Equal(t, 1, cfg.Limits.MaxExecutionRetries)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"listen": ":9090",
		"mongo": {"database": "procurement", "collection": "orders"},
		"llm": {"provider": "gemini", "model": "gemini-2.5-flash", "timeout": "30s"},
		"limits": {"max_refinements": 2, "result_cap": 500}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "procurement", cfg.Mongo.Database)
	assert.Equal(t, "orders", cfg.Mongo.Collection)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 2, cfg.Limits.MaxRefinements)
	assert.Equal(t, 500, cfg.Limits.ResultCap)
	// Untouched keys keep their defaults.
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `{"mongo": {"uri": "mongodb://from-file:27017"}}`)
	t.Setenv("MONGODB_URI", "mongodb://from-env:27017")
	t.Setenv("MONGODB_COLLECTION", "po_lines")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mongodb://from-env:27017", cfg.Mongo.URI)
	assert.Equal(t, "po_lines", cfg.Mongo.Collection)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t, `{"llm": {"provider": "anthropic"}}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.provider")
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `{"listne": ":9090"}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config schema validation failed")
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := writeConfig(t, `{"listen": `)

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateSettings(t *testing.T) {
	err := ValidateSettings(map[string]any{
		"limits": map[string]any{"max_refinements": -1},
	})
	require.Error(t, err)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr, "schema violations carry a typed error")
	assert.NotEmpty(t, schemaErr.Issues)
	assert.Contains(t, err.Error(), "config schema validation failed")

	err = ValidateSettings(map[string]any{
		"limits": map[string]any{"max_refinements": 1},
	})
	require.NoError(t, err)
}

func TestSemanticFailureIsNotSchemaError(t *testing.T) {
	// Provider enum violations are caught by the schema; an empty mongo URI
	// passes the schema and fails Config.Validate instead.
	path := writeConfig(t, `{"mongo": {"uri": ""}}`)
	t.Setenv("MONGODB_URI", "")

	_, err := Load(path)
	require.Error(t, err)
	var schemaErr *SchemaError
	assert.False(t, errors.As(err, &schemaErr))
	assert.Contains(t, err.Error(), "mongo.uri")
}
