package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the assistant service.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Search     SearchConfig     `mapstructure:"search"`
	Index      IndexConfig      `mapstructure:"index"`
	Ingest     IngestConfig     `mapstructure:"ingest"`
	Memory     MemoryConfig     `mapstructure:"memory"`
	Router     RouterConfig     `mapstructure:"router"`
	Timeouts   TimeoutsConfig   `mapstructure:"timeouts"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// LLMConfig selects the text generator.
type LLMConfig struct {
	Provider    string       `mapstructure:"provider"` // ollama or gemini
	Temperature float64      `mapstructure:"temperature"`
	Ollama      OllamaConfig `mapstructure:"ollama"`
	Gemini      GeminiConfig `mapstructure:"gemini"`
}

type OllamaConfig struct {
	URL   string `mapstructure:"url"`
	Model string `mapstructure:"model"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// EmbeddingConfig selects the embedding model. Its identity is fixed for the process lifetime.
type EmbeddingConfig struct {
	Provider string       `mapstructure:"provider"` // ollama or gemini
	Ollama   OllamaConfig `mapstructure:"ollama"`
	Gemini   GeminiConfig `mapstructure:"gemini"`
}

type ClassifierConfig struct {
	Provider    string            `mapstructure:"provider"` // huggingface, gemini or embedding
	HuggingFace HuggingFaceConfig `mapstructure:"huggingface"`
	Gemini      GeminiConfig      `mapstructure:"gemini"`
}

type HuggingFaceConfig struct {
	URL   string `mapstructure:"url"`
	Model string `mapstructure:"model"`
	Token string `mapstructure:"token"`
}

type SearchConfig struct {
	Provider string `mapstructure:"provider"` // serpapi, serper or brave
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	Results  int    `mapstructure:"results"`
}

type IndexConfig struct {
	Path        string       `mapstructure:"path"`
	LoadOnStart bool         `mapstructure:"load_on_start"`
	TopK        int          `mapstructure:"top_k"`
	Chroma      ChromaConfig `mapstructure:"chroma"`
}

type ChromaConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	Collection string `mapstructure:"collection"`
}

type IngestConfig struct {
	ChunkSize        int    `mapstructure:"chunk_size"`
	ChunkOverlap     int    `mapstructure:"chunk_overlap"`
	WatchDir         string `mapstructure:"watch_dir"`
	UnidocLicenseKey string `mapstructure:"unidoc_license_key"`
}

type MemoryConfig struct {
	Backend string      `mapstructure:"backend"` // memory or redis
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Prefix   string        `mapstructure:"prefix"`
}

// RouterConfig tunes the rule stages and the classifier failure policy.
type RouterConfig struct {
	ClassifierFailure string   `mapstructure:"classifier_failure"` // chat or fail
	ChatKeywords      []string `mapstructure:"chat_keywords"`
	SearchKeywords    []string `mapstructure:"search_keywords"`
}

// TimeoutsConfig bounds every external collaborator call.
type TimeoutsConfig struct {
	Generation     time.Duration `mapstructure:"generation"`
	Embedding      time.Duration `mapstructure:"embedding"`
	Search         time.Duration `mapstructure:"search"`
	Classification time.Duration `mapstructure:"classification"`
}

// DefaultChatKeywords force general_chat when present in the lowercased query.
var DefaultChatKeywords = []string{
	"merhaba", "selam", "günaydın", "iyi geceler", "kimsin", "adın ne",
	"sen kimsin", "nasılsın", "naber", "benim adım", "ben hasan",
}

// DefaultSearchKeywords force web_search_query when present in the lowercased query.
var DefaultSearchKeywords = []string{
	"konser", "bilet", "maç", "etkinlik", "hava durumu", "dolar", "euro",
	"altın", "kaç tl", "kaç para", "fiyatı", "nerede", "ne zaman", "kimdir", "nedir",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_upload_bytes", int64(32<<20))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.ollama.url", "http://localhost:11434")
	v.SetDefault("llm.ollama.model", "gemma3:4b")
	v.SetDefault("llm.gemini.model", "gemini-2.5-flash")
	v.SetDefault("llm.gemini.api_key", "")

	v.SetDefault("embedding.provider", "ollama")
	v.SetDefault("embedding.ollama.url", "http://localhost:11434")
	v.SetDefault("embedding.ollama.model", "nomic-embed-text")
	v.SetDefault("embedding.gemini.model", "gemini-embedding-001")
	v.SetDefault("embedding.gemini.api_key", "")

	v.SetDefault("classifier.provider", "huggingface")
	v.SetDefault("classifier.huggingface.url", "https://router.huggingface.co/hf-inference/models")
	v.SetDefault("classifier.huggingface.model", "MoritzLaurer/mDeBERTa-v3-base-mnli-xnli")
	v.SetDefault("classifier.huggingface.token", "")
	v.SetDefault("classifier.gemini.model", "gemini-2.5-flash")
	v.SetDefault("classifier.gemini.api_key", "")

	v.SetDefault("search.provider", "serpapi")
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.base_url", "")
	v.SetDefault("search.results", 5)

	v.SetDefault("index.path", "./index_db")
	v.SetDefault("index.load_on_start", false)
	v.SetDefault("index.top_k", 4)
	v.SetDefault("index.chroma.enabled", false)
	v.SetDefault("index.chroma.url", "http://localhost:8000")
	v.SetDefault("index.chroma.collection", "assistant-documents")

	v.SetDefault("ingest.chunk_size", 1000)
	v.SetDefault("ingest.chunk_overlap", 200)
	v.SetDefault("ingest.watch_dir", "")
	v.SetDefault("ingest.unidoc_license_key", "")

	v.SetDefault("memory.backend", "memory")
	v.SetDefault("memory.redis.addr", "localhost:6379")
	v.SetDefault("memory.redis.password", "")
	v.SetDefault("memory.redis.db", 0)
	v.SetDefault("memory.redis.ttl", 24*time.Hour)
	v.SetDefault("memory.redis.prefix", "assistant:conversation:")

	v.SetDefault("router.classifier_failure", "chat")
	v.SetDefault("router.chat_keywords", DefaultChatKeywords)
	v.SetDefault("router.search_keywords", DefaultSearchKeywords)

	v.SetDefault("timeouts.generation", 120*time.Second)
	v.SetDefault("timeouts.embedding", 60*time.Second)
	v.SetDefault("timeouts.search", 20*time.Second)
	v.SetDefault("timeouts.classification", 30*time.Second)
}

// LoadConfig reads configuration from an optional file, the environment and a .env file.
// An empty path searches ./config and the working directory for config.{yaml,json}.
func LoadConfig(path string) (*Config, error) {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("ASSISTANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applySecretFallbacks()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applySecretFallbacks fills provider secrets from their conventional environment variables.
func (c *Config) applySecretFallbacks() {
	fallback := func(dst *string, env string) {
		if *dst == "" {
			*dst = os.Getenv(env)
		}
	}
	fallback(&c.LLM.Gemini.APIKey, "GEMINI_API_KEY")
	fallback(&c.Embedding.Gemini.APIKey, "GEMINI_API_KEY")
	fallback(&c.Classifier.Gemini.APIKey, "GEMINI_API_KEY")
	fallback(&c.Classifier.HuggingFace.Token, "HF_TOKEN")
	fallback(&c.Ingest.UnidocLicenseKey, "UNIDOC_LICENSE_KEY")
	switch c.Search.Provider {
	case "serpapi":
		fallback(&c.Search.APIKey, "SERPAPI_API_KEY")
	case "serper":
		fallback(&c.Search.APIKey, "SERPER_API_KEY")
	case "brave":
		fallback(&c.Search.APIKey, "BRAVE_API_KEY")
	}
}

// Validate checks provider names and numeric bounds.
func (c *Config) Validate() error {
	oneOf := func(field, value string, allowed ...string) error {
		for _, a := range allowed {
			if value == a {
				return nil
			}
		}
		return fmt.Errorf("%s must be one of %v, got %q", field, allowed, value)
	}

	checks := []error{
		oneOf("llm.provider", c.LLM.Provider, "ollama", "gemini"),
		oneOf("embedding.provider", c.Embedding.Provider, "ollama", "gemini"),
		oneOf("classifier.provider", c.Classifier.Provider, "huggingface", "gemini", "embedding"),
		oneOf("search.provider", c.Search.Provider, "serpapi", "serper", "brave"),
		oneOf("memory.backend", c.Memory.Backend, "memory", "redis"),
		oneOf("router.classifier_failure", c.Router.ClassifierFailure, "chat", "fail"),
		oneOf("log.format", c.Log.Format, "console", "json"),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}

	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("ingest.chunk_size must be > 0")
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap must be in [0, chunk_size)")
	}
	if c.Index.TopK <= 0 {
		return fmt.Errorf("index.top_k must be > 0")
	}
	if c.Index.Path == "" {
		return fmt.Errorf("index.path must not be empty")
	}

	t := c.Timeouts
	if t.Generation <= 0 || t.Embedding <= 0 || t.Search <= 0 || t.Classification <= 0 {
		return fmt.Errorf("timeouts must be > 0")
	}
	return nil
}
