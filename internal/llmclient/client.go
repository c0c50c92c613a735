package llmclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrNotInitialized = errors.New("llm client not initialized")

type Config struct {
	Backend      string
	Model        string
	VisionModel  string
	OllamaHost   string
	GeminiAPIKey string
}

// Provider is one LLM backend. Image inputs go through GenerateVisionJSON;
// both built-in providers force strict-JSON output for the JSON variants.
type Provider interface {
	Init(cfg Config) error
	DefaultModel() string
	AllowedModelOrDefault(model string) string
	Generate(ctx context.Context, prompt, model string) (string, error)
	GenerateJSON(ctx context.Context, prompt, model string, schema any) (string, error)
	GenerateVisionJSON(ctx context.Context, prompt, model string, image []byte) (string, error)
}

// Client wraps the selected provider with the configured default models.
type Client struct {
	provider    Provider
	backend     string
	model       string
	visionModel string
}

func New(cfg Config) (*Client, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = "ollama"
	}
	var p Provider
	switch backend {
	case "ollama":
		p = &ollamaProvider{}
	case "gemini":
		p = &geminiProvider{}
	default:
		return nil, fmt.Errorf("unsupported LLM backend: %s", backend)
	}
	if err := p.Init(cfg); err != nil {
		return nil, err
	}
	c := &Client{provider: p, backend: backend, model: cfg.Model, visionModel: cfg.VisionModel}
	if strings.TrimSpace(c.model) == "" {
		c.model = p.DefaultModel()
	}
	if strings.TrimSpace(c.visionModel) == "" {
		c.visionModel = c.model
	}
	return c, nil
}

func (c *Client) Backend() string { return c.backend }

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.provider.Generate(ctx, prompt, c.model)
}

func (c *Client) GenerateJSON(ctx context.Context, prompt string, schema any) (string, error) {
	return c.provider.GenerateJSON(ctx, prompt, c.model, schema)
}

func (c *Client) GenerateVisionJSON(ctx context.Context, prompt string, image []byte) (string, error) {
	return c.provider.GenerateVisionJSON(ctx, prompt, c.visionModel, image)
}
