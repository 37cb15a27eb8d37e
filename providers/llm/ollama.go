// Package llm adapts text generation and embedding backends to the assistant.
package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Generator turns a prompt into text through any langchaingo model.
type Generator struct {
	model       llms.Model
	name        string
	temperature float64
}

// NewGenerator wraps a langchaingo model. name is only used for logs.
func NewGenerator(model llms.Model, name string, temperature float64) *Generator {
	return &Generator{model: model, name: name, temperature: temperature}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt, llms.WithTemperature(g.temperature))
	if err != nil {
		return "", fmt.Errorf("%s generate: %w", g.name, err)
	}
	return out, nil
}

func (g *Generator) Name() string { return g.name }

// NewOllamaGenerator talks to an Ollama server, e.g. gemma3:4b at temperature 0.3.
func NewOllamaGenerator(serverURL, model string, temperature float64, client *http.Client) (*Generator, error) {
	llm, err := newOllama(serverURL, model, client)
	if err != nil {
		return nil, err
	}
	return NewGenerator(llm, "ollama/"+model, temperature), nil
}

// NewOllamaEmbedder returns a langchaingo embedder backed by an Ollama embedding model.
func NewOllamaEmbedder(serverURL, model string, client *http.Client) (*embeddings.EmbedderImpl, error) {
	llm, err := newOllama(serverURL, model, client)
	if err != nil {
		return nil, err
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("ollama embedder: %w", err)
	}
	return embedder, nil
}

func newOllama(serverURL, model string, client *http.Client) (*ollama.LLM, error) {
	opts := []ollama.Option{ollama.WithModel(model), ollama.WithServerURL(serverURL)}
	if client != nil {
		opts = append(opts, ollama.WithHTTPClient(client))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("ollama client for %s: %w", model, err)
	}
	return llm, nil
}
