package main

import (
	"context"
	"fmt"

	"github.com/spendlens/spendlens/internal/agent"
	"github.com/spendlens/spendlens/internal/config"
	"github.com/spendlens/spendlens/internal/mongodb"
	"github.com/spendlens/spendlens/internal/orchestrator"
)

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// buildController wires the model provider, the document store and the
// orchestrator from configuration. The returned handle must be closed when
// the caller is done.
func buildController(ctx context.Context, cfg config.Config) (*orchestrator.Controller, *mongodb.Handle, error) {
	invoker, err := agent.NewInvoker(ctx, agent.Config{
		Provider:  cfg.LLM.Provider,
		Model:     cfg.LLM.Model,
		APIKey:    cfg.LLM.APIKey,
		APIKeyEnv: cfg.LLM.APIKeyEnv,
		BaseURL:   cfg.LLM.BaseURL,
		Timeout:   cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create model client: %w", err)
	}

	handle := mongodb.NewHandle(cfg.Mongo.URI)
	executor := mongodb.NewExecutor(handle, cfg.Mongo.Database)

	controller := orchestrator.New(invoker, executor, orchestrator.Config{
		MaxRefinements:      cfg.Limits.MaxRefinements,
		MaxExecutionRetries: cfg.Limits.MaxExecutionRetries,
		ResultCap:           cfg.Limits.ResultCap,
	})
	return controller, handle, nil
}
