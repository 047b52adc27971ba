package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spendlens/spendlens/internal/agent/openaiapi"
	"google.golang.org/genai"
)

// Config selects and configures the model-inference provider.
type Config struct {
	Provider  string
	Model     string
	APIKey    string
	APIKeyEnv string
	BaseURL   string
	Timeout   time.Duration
}

// NewInvoker constructs the invoker for the configured provider.
func NewInvoker(ctx context.Context, cfg Config) (Invoker, error) {
	switch cfg.Provider {
	case "openai":
		return newOpenAIInvoker(cfg)
	case "gemini":
		return newGeminiInvoker(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

type openAIInvoker struct {
	client *openaiapi.Client
}

func newOpenAIInvoker(cfg Config) (*openAIInvoker, error) {
	client, err := openaiapi.NewClient(openaiapi.Config{
		Model:     cfg.Model,
		BaseURL:   cfg.BaseURL,
		APIKey:    cfg.APIKey,
		APIKeyEnv: cfg.APIKeyEnv,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return &openAIInvoker{client: client}, nil
}

func (o *openAIInvoker) Invoke(ctx context.Context, req Request) (json.RawMessage, error) {
	system, user, err := renderPrompts(req)
	if err != nil {
		return nil, err
	}
	out, err := o.client.Complete(ctx, openaiapi.CompletionRequest{
		Instructions: system,
		Input:        user,
	})
	if err != nil {
		return nil, err
	}
	return parseStageOutput(req.Stage, []byte(out))
}

const defaultGeminiKeyEnv = "GEMINI_API_KEY"

type geminiInvoker struct {
	client *genai.Client
	model  string
}

func newGeminiInvoker(ctx context.Context, cfg Config) (*geminiInvoker, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("gemini model is required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		envKey := strings.TrimSpace(cfg.APIKeyEnv)
		if envKey == "" {
			envKey = defaultGeminiKeyEnv
		}
		apiKey = strings.TrimSpace(os.Getenv(envKey))
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required (set api_key or %s)", defaultGeminiKeyEnv)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &geminiInvoker{client: client, model: model}, nil
}

func (g *geminiInvoker) Invoke(ctx context.Context, req Request) (json.RawMessage, error) {
	system, user, err := renderPrompts(req)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(user, genai.RoleUser)},
		&genai.GenerateContentConfig{
			Temperature:       genai.Ptr[float32](0),
			ResponseMIMEType:  "application/json",
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		})
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("gemini response did not contain output text")
	}
	return parseStageOutput(req.Stage, []byte(text))
}
