package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// envBindings maps config keys to the environment variables that override
// them. The names mirror the variables the ingestion tooling already uses.
var envBindings = map[string]string{
	"mongo.uri":        "MONGODB_URI",
	"mongo.database":   "MONGODB_DATABASE",
	"mongo.collection": "MONGODB_COLLECTION",
	"llm.provider":     "LLM_PROVIDER",
	"llm.model":        "LLM_MODEL",
	"llm.base_url":     "LLM_BASE_URL",
	"listen":           "SPENDLENS_LISTEN",
	"history_path":     "SPENDLENS_HISTORY_PATH",
}

// Load reads configuration from the given JSON file, layered over the
// built-in defaults and under the environment overrides. A missing config
// file is not an error: the defaults plus environment are a complete
// configuration.
func Load(path string) (Config, error) {
	v := viper.New()
	defaults := Default()
	v.SetDefault("listen", defaults.Listen)
	v.SetDefault("mongo.uri", defaults.Mongo.URI)
	v.SetDefault("mongo.database", defaults.Mongo.Database)
	v.SetDefault("mongo.collection", defaults.Mongo.Collection)
	v.SetDefault("llm.provider", defaults.LLM.Provider)
	v.SetDefault("llm.model", defaults.LLM.Model)
	v.SetDefault("llm.timeout", defaults.LLM.Timeout.String())
	v.SetDefault("limits.max_refinements", defaults.Limits.MaxRefinements)
	v.SetDefault("limits.max_execution_retries", defaults.Limits.MaxExecutionRetries)
	v.SetDefault("limits.result_cap", defaults.Limits.ResultCap)
	v.SetDefault("history_path", defaults.HistoryPath)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if err := ValidateSettings(v.AllSettings()); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(
		mapstructure.StringToTimeDurationHookFunc(),
	)); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
