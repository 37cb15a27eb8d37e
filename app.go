package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/phuslu/log"
	"github.com/tmc/langchaingo/embeddings"
	"google.golang.org/genai"

	"github.com/itish2003/assistant/config"
	"github.com/itish2003/assistant/metrics"
	"github.com/itish2003/assistant/providers/classifier"
	"github.com/itish2003/assistant/providers/llm"
	"github.com/itish2003/assistant/providers/search"
	"github.com/itish2003/assistant/services"
	"github.com/itish2003/assistant/store"
)

// app owns everything built from the configuration.
type app struct {
	cfg       *config.Config
	metrics   *metrics.Metrics
	index     *services.SemanticIndex
	ingestor  *services.Ingestor
	assistant services.Assistant
	closers   []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}
}

// newApp connects every collaborator named by cfg. Search is optional: without it the
// web search strategy degrades to a bare generation.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, metrics: metrics.New()}
	httpClient := &http.Client{Timeout: 5 * time.Minute}
	geminiClients := map[string]*genai.Client{}
	gemini := func(apiKey string) (*genai.Client, error) {
		if c, ok := geminiClients[apiKey]; ok {
			return c, nil
		}
		c, err := llm.NewGeminiClient(ctx, apiKey, "", httpClient)
		if err != nil {
			return nil, err
		}
		geminiClients[apiKey] = c
		return c, nil
	}

	if err := services.SetPDFLicense(cfg.Ingest.UnidocLicenseKey); err != nil {
		log.Warn().Str("component", "ingest").Err(err).Msg("PDF uploads will be rejected as unparseable")
	}

	gen, err := newGenerator(cfg.LLM, httpClient, gemini)
	if err != nil {
		return nil, err
	}
	embedder, embedModel, err := newEmbedder(cfg.Embedding, httpClient, gemini)
	if err != nil {
		return nil, err
	}
	cls, err := newClassifier(cfg.Classifier, httpClient, embedder, gemini)
	if err != nil {
		return nil, err
	}

	var searcher services.Searcher
	s, err := search.New(search.Provider(cfg.Search.Provider), search.Options{
		APIKey:     cfg.Search.APIKey,
		BaseURL:    cfg.Search.BaseURL,
		Results:    cfg.Search.Results,
		HTTPClient: httpClient,
	})
	if err != nil {
		log.Warn().Str("component", "search").Str("provider", cfg.Search.Provider).Err(err).Msg("web search disabled")
	} else {
		searcher = s
	}

	memory, err := a.newConversationStore(ctx, cfg.Memory)
	if err != nil {
		a.Close()
		return nil, err
	}

	indexStore, err := store.NewSQLiteIndexStore(cfg.Index.Path)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, indexStore.Close)

	opts := []services.IndexOption{
		services.WithSwapHook(func(snap *services.Snapshot) { a.metrics.SetIndexChunks(len(snap.Chunks)) }),
	}
	if cfg.Index.Chroma.Enabled {
		mirror, err := store.NewChromaMirror(ctx, cfg.Index.Chroma.URL, cfg.Index.Chroma.Collection)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, mirror.Close)
		opts = append(opts, services.WithIndexMirror(mirror))
	}
	a.index = services.NewSemanticIndex(indexStore, embedModel, opts...)
	if cfg.Index.LoadOnStart {
		if _, err := a.index.Load(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.ingestor = services.NewIngestor(services.IngestorConfig{
		Embedder:     embedder,
		Index:        a.index,
		ChunkSize:    cfg.Ingest.ChunkSize,
		ChunkOverlap: cfg.Ingest.ChunkOverlap,
		EmbedTimeout: cfg.Timeouts.Embedding,
		Recorder:     a.metrics,
	})

	a.assistant = services.NewAssistant(services.AssistantDeps{
		Generator:  gen,
		Embedder:   embedder,
		Searcher:   searcher,
		Classifier: cls,
		Memory:     memory,
		Index:      a.index,
		Ingestor:   a.ingestor,
		Router: services.RouterConfig{
			ChatKeywords:      cfg.Router.ChatKeywords,
			SearchKeywords:    cfg.Router.SearchKeywords,
			ClassifierFailure: cfg.Router.ClassifierFailure,
		},
		TopK: cfg.Index.TopK,
		Timeouts: services.Timeouts{
			Generation:     cfg.Timeouts.Generation,
			Embedding:      cfg.Timeouts.Embedding,
			Search:         cfg.Timeouts.Search,
			Classification: cfg.Timeouts.Classification,
		},
		Recorder: a.metrics,
	})
	return a, nil
}

func (a *app) newConversationStore(ctx context.Context, cfg config.MemoryConfig) (services.ConversationStore, error) {
	if cfg.Backend != "redis" {
		return services.NewInMemoryConversations(), nil
	}
	r, err := store.NewRedisConversations(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix, cfg.Redis.TTL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, r.Close)
	return r, nil
}

type geminiFactory func(apiKey string) (*genai.Client, error)

func newGenerator(cfg config.LLMConfig, httpClient *http.Client, gemini geminiFactory) (services.Generator, error) {
	switch cfg.Provider {
	case "gemini":
		client, err := gemini(cfg.Gemini.APIKey)
		if err != nil {
			return nil, err
		}
		return llm.NewGeminiGenerator(client, cfg.Gemini.Model, cfg.Temperature), nil
	case "ollama":
		g, err := llm.NewOllamaGenerator(cfg.Ollama.URL, cfg.Ollama.Model, cfg.Temperature, httpClient)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// newEmbedder also returns the model identity recorded in index snapshots.
func newEmbedder(cfg config.EmbeddingConfig, httpClient *http.Client, gemini geminiFactory) (embeddings.Embedder, string, error) {
	switch cfg.Provider {
	case "gemini":
		client, err := gemini(cfg.Gemini.APIKey)
		if err != nil {
			return nil, "", err
		}
		return llm.NewGeminiEmbedder(client, cfg.Gemini.Model), "gemini/" + cfg.Gemini.Model, nil
	case "ollama":
		e, err := llm.NewOllamaEmbedder(cfg.Ollama.URL, cfg.Ollama.Model, httpClient)
		if err != nil {
			return nil, "", err
		}
		return e, "ollama/" + cfg.Ollama.Model, nil
	default:
		return nil, "", fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

func newClassifier(cfg config.ClassifierConfig, httpClient *http.Client, embedder embeddings.Embedder, gemini geminiFactory) (services.Classifier, error) {
	switch cfg.Provider {
	case "huggingface":
		if cfg.HuggingFace.Token == "" {
			log.Warn().Str("component", "router").Msg("no Hugging Face token configured, requests may be rate limited")
		}
		return classifier.NewHuggingFace(httpClient, cfg.HuggingFace.URL, cfg.HuggingFace.Model, cfg.HuggingFace.Token), nil
	case "gemini":
		client, err := gemini(cfg.Gemini.APIKey)
		if err != nil {
			return nil, err
		}
		return classifier.NewGemini(client, cfg.Gemini.Model), nil
	case "embedding":
		if embedder == nil {
			return nil, errors.New("embedding classifier needs an embedder")
		}
		return classifier.NewEmbedding(embedder), nil
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", cfg.Provider)
	}
}
