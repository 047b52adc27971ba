// Package config provides configuration loading and management for spendlens.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration.
type Config struct {
	Listen      string      `json:"listen"                 mapstructure:"listen"`
	Mongo       MongoConfig `json:"mongo"                  mapstructure:"mongo"`
	LLM         LLMConfig   `json:"llm"                    mapstructure:"llm"`
	Limits      Limits      `json:"limits"                 mapstructure:"limits"`
	HistoryPath string      `json:"history_path,omitempty" mapstructure:"history_path"`
}

// MongoConfig locates the document store and the collection to query.
type MongoConfig struct {
	URI        string `json:"uri"        mapstructure:"uri"`
	Database   string `json:"database"   mapstructure:"database"`
	Collection string `json:"collection" mapstructure:"collection"`
}

// LLMConfig selects and configures the model provider. APIKey takes
// precedence over APIKeyEnv; when both are empty the provider default
// environment variable is consulted.
type LLMConfig struct {
	Provider  string        `json:"provider"              mapstructure:"provider"`
	Model     string        `json:"model"                 mapstructure:"model"`
	APIKey    string        `json:"api_key,omitempty"     mapstructure:"api_key"`
	APIKeyEnv string        `json:"api_key_env,omitempty" mapstructure:"api_key_env"`
	BaseURL   string        `json:"base_url,omitempty"    mapstructure:"base_url"`
	Timeout   time.Duration `json:"timeout,omitempty"     mapstructure:"timeout"`
}

// Limits bounds the per-request retry budgets and result size.
type Limits struct {
	MaxRefinements      int `json:"max_refinements,omitempty"       mapstructure:"max_refinements"`
	MaxExecutionRetries int `json:"max_execution_retries,omitempty" mapstructure:"max_execution_retries"`
	ResultCap           int `json:"result_cap,omitempty"            mapstructure:"result_cap"`
}

// Default returns the built-in configuration. Every field can be overridden
// by the config file or environment.
func Default() Config {
	return Config{
		Listen: ":8000",
		Mongo: MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "spendlens",
			Collection: "purchases",
		},
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			Timeout:  2 * time.Minute,
		},
		Limits: Limits{
			MaxRefinements:      1,
			MaxExecutionRetries: 1,
			ResultCap:           1000,
		},
		HistoryPath: "spendlens.db",
	}
}

// Validate checks semantic constraints the JSON schema cannot express.
func (c Config) Validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo.uri must not be empty")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("mongo.database must not be empty")
	}
	if c.Mongo.Collection == "" {
		return fmt.Errorf("mongo.collection must not be empty")
	}
	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("llm.provider must be one of openai, gemini; got %q", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model must not be empty")
	}
	if c.Limits.MaxRefinements < 0 || c.Limits.MaxExecutionRetries < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	return nil
}
