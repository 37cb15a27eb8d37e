package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "log:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "gemma3:4b", cfg.LLM.Ollama.Model)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 1000, cfg.Ingest.ChunkSize)
	assert.Equal(t, 200, cfg.Ingest.ChunkOverlap)
	assert.Equal(t, 4, cfg.Index.TopK)
	assert.False(t, cfg.Index.LoadOnStart)
	assert.Equal(t, "chat", cfg.Router.ClassifierFailure)
	assert.Equal(t, DefaultChatKeywords, cfg.Router.ChatKeywords)
	assert.Equal(t, DefaultSearchKeywords, cfg.Router.SearchKeywords)
	assert.Equal(t, 120*time.Second, cfg.Timeouts.Generation)
	assert.Equal(t, 20*time.Second, cfg.Timeouts.Search)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("ASSISTANT_INDEX_TOP_K", "7")
	t.Setenv("ASSISTANT_SEARCH_PROVIDER", "serper")
	t.Setenv("SERPER_API_KEY", "serper-secret")

	cfg, err := LoadConfig(writeConfig(t, "index:\n  top_k: 3\n"))
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Index.TopK)
	assert.Equal(t, "serper", cfg.Search.Provider)
	assert.Equal(t, "serper-secret", cfg.Search.APIKey)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := LoadConfig(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown llm provider", func(c *Config) { c.LLM.Provider = "openai" }},
		{"unknown classifier", func(c *Config) { c.Classifier.Provider = "bert" }},
		{"zero chunk size", func(c *Config) { c.Ingest.ChunkSize = 0 }},
		{"overlap not below size", func(c *Config) { c.Ingest.ChunkOverlap = c.Ingest.ChunkSize }},
		{"zero top k", func(c *Config) { c.Index.TopK = 0 }},
		{"zero timeout", func(c *Config) { c.Timeouts.Search = 0 }},
		{"bad failure policy", func(c *Config) { c.Router.ClassifierFailure = "search" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, base.Validate())
}
