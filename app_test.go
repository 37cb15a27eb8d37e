package main

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/itish2003/assistant/config"
)

func noGemini(string) (*genai.Client, error) {
	panic("gemini client must not be requested")
}

func TestNewGeneratorOllama(t *testing.T) {
	gen, err := newGenerator(config.LLMConfig{
		Provider:    "ollama",
		Temperature: 0.3,
		Ollama:      config.OllamaConfig{URL: "http://localhost:11434", Model: "gemma3:4b"},
	}, http.DefaultClient, noGemini)
	require.NoError(t, err)
	assert.NotNil(t, gen)

	_, err = newGenerator(config.LLMConfig{Provider: "openai"}, http.DefaultClient, noGemini)
	assert.Error(t, err)
}

func TestNewEmbedderRecordsModelIdentity(t *testing.T) {
	e, model, err := newEmbedder(config.EmbeddingConfig{
		Provider: "ollama",
		Ollama:   config.OllamaConfig{URL: "http://localhost:11434", Model: "nomic-embed-text"},
	}, http.DefaultClient, noGemini)
	require.NoError(t, err)
	assert.NotNil(t, e)
	assert.Equal(t, "ollama/nomic-embed-text", model)
}

func TestNewClassifier(t *testing.T) {
	cls, err := newClassifier(config.ClassifierConfig{
		Provider:    "huggingface",
		HuggingFace: config.HuggingFaceConfig{URL: "https://router.huggingface.co/hf-inference/models", Model: "MoritzLaurer/mDeBERTa-v3-base-mnli-xnli"},
	}, http.DefaultClient, nil, noGemini)
	require.NoError(t, err)
	assert.NotNil(t, cls)

	_, err = newClassifier(config.ClassifierConfig{Provider: "embedding"}, http.DefaultClient, nil, noGemini)
	assert.Error(t, err)

	_, err = newClassifier(config.ClassifierConfig{Provider: "regex"}, http.DefaultClient, nil, noGemini)
	assert.Error(t, err)
}
