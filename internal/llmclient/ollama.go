package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

type ollamaProvider struct {
	client *api.Client
	model  string
}

const ollamaDefault = "llama3:8b-instruct"

func (p *ollamaProvider) Init(cfg Config) error {
	c, err := api.ClientFromEnvironment()
	if err != nil {
		host := cfg.OllamaHost
		if host == "" {
			host = "http://localhost:11434"
		}
		u, uerr := url.Parse(host)
		if uerr != nil {
			return fmt.Errorf("ollama: bad host %q: %w", host, uerr)
		}
		c = api.NewClient(u, nil)
	}
	p.client = c
	if strings.TrimSpace(cfg.Model) != "" {
		p.model = cfg.Model
	} else {
		p.model = ollamaDefault
	}
	return nil
}

func (p *ollamaProvider) DefaultModel() string { return p.model }

func (p *ollamaProvider) AllowedModelOrDefault(model string) string {
	m := strings.TrimSpace(model)
	if m == "" {
		return p.model
	}
	return m
}

func (p *ollamaProvider) Generate(ctx context.Context, prompt, model string) (string, error) {
	return p.generate(ctx, prompt, model, nil, nil)
}

func (p *ollamaProvider) GenerateJSON(ctx context.Context, prompt, model string, schema any) (string, error) {
	format, err := jsonFormat(schema)
	if err != nil {
		return "", err
	}
	return p.generate(ctx, prompt+"\n\nReturn ONLY strict JSON. No extra text.", model, format, nil)
}

func (p *ollamaProvider) GenerateVisionJSON(ctx context.Context, prompt, model string, image []byte) (string, error) {
	format, err := jsonFormat(nil)
	if err != nil {
		return "", err
	}
	return p.generate(ctx, prompt, model, format, []api.ImageData{image})
}

func (p *ollamaProvider) generate(ctx context.Context, prompt, model string, format json.RawMessage, images []api.ImageData) (string, error) {
	if p.client == nil {
		return "", ErrNotInitialized
	}
	stream := false
	req := &api.GenerateRequest{
		Model:  p.AllowedModelOrDefault(model),
		Prompt: prompt,
		Format: format,
		Images: images,
		Stream: &stream,
	}
	var out strings.Builder
	if err := p.client.Generate(ctx, req, func(gr api.GenerateResponse) error {
		out.WriteString(gr.Response)
		return nil
	}); err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return out.String(), nil
}

// Force JSON output. If schema supplied, pass it; else "json".
func jsonFormat(schema any) (json.RawMessage, error) {
	if schema == nil {
		return json.RawMessage(`"json"`), nil
	}
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("ollama marshal schema: %w", err)
	}
	return b, nil
}
