package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"
	"github.com/tmc/langchaingo/embeddings"

	"github.com/itish2003/assistant/models"
)

// ErrEmptyQuery rejects blank utterances before any routing happens.
var ErrEmptyQuery = errors.New("query must not be empty")

// Assistant is the single entry point used by the HTTP layer and the CLI.
type Assistant interface {
	Ask(ctx context.Context, q models.Query) (*models.ChatResponse, error)
	Ingest(ctx context.Context, name string, data []byte) (*models.IngestResponse, error)
	ResetSession(ctx context.Context, sessionID string) error
	IndexStatus() models.IndexStatusResponse
	Chunks(ctx context.Context) (*models.ListChunksResponse, error)
}

// Timeouts bounds each kind of collaborator call.
type Timeouts struct {
	Generation     time.Duration
	Embedding      time.Duration
	Search         time.Duration
	Classification time.Duration
}

// AssistantDeps holds the collaborators and stores an Assistant is built from.
type AssistantDeps struct {
	Generator  Generator
	Embedder   embeddings.Embedder
	Searcher   Searcher
	Classifier Classifier
	Memory     ConversationStore
	Index      *SemanticIndex
	Ingestor   *Ingestor
	Router     RouterConfig
	TopK       int
	Timeouts   Timeouts
	Recorder   Recorder
	// Now defaults to time.Now.
	Now func() time.Time
}

type assistantImpl struct {
	router    *Router
	executors map[models.Intent]executor
	ingestor  *Ingestor
	index     *SemanticIndex
	memory    ConversationStore
	rec       Recorder
}

// NewAssistant wires the router and the three strategies around shared collaborators.
func NewAssistant(d AssistantDeps) Assistant {
	if d.Recorder == nil {
		d.Recorder = nopRecorder{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.TopK <= 0 {
		d.TopK = 4
	}
	if d.Memory == nil {
		d.Memory = NewInMemoryConversations()
	}
	d.Timeouts = d.Timeouts.withDefaults()
	if d.Router.Classifier == nil {
		d.Router.Classifier = d.Classifier
	}
	if d.Router.Timeout <= 0 {
		d.Router.Timeout = d.Timeouts.Classification
	}
	if d.Router.Recorder == nil {
		d.Router.Recorder = d.Recorder
	}

	return &assistantImpl{
		router: NewRouter(d.Router, d.Index.Available),
		executors: map[models.Intent]executor{
			models.IntentGeneralChat: &chatExecutor{
				gen:     d.Generator,
				memory:  d.Memory,
				timeout: d.Timeouts.Generation,
				rec:     d.Recorder,
			},
			models.IntentWebSearch: &searchExecutor{
				searcher:      d.Searcher,
				gen:           d.Generator,
				searchTimeout: d.Timeouts.Search,
				genTimeout:    d.Timeouts.Generation,
				now:           d.Now,
				rec:           d.Recorder,
			},
			models.IntentDocumentQA: &documentExecutor{
				index:        d.Index,
				embedder:     d.Embedder,
				gen:          d.Generator,
				topK:         d.TopK,
				embedTimeout: d.Timeouts.Embedding,
				genTimeout:   d.Timeouts.Generation,
				rec:          d.Recorder,
			},
		},
		ingestor: d.Ingestor,
		index:    d.Index,
		memory:   d.Memory,
		rec:      d.Recorder,
	}
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Generation <= 0 {
		t.Generation = 120 * time.Second
	}
	if t.Embedding <= 0 {
		t.Embedding = 60 * time.Second
	}
	if t.Search <= 0 {
		t.Search = 20 * time.Second
	}
	if t.Classification <= 0 {
		t.Classification = 30 * time.Second
	}
	return t
}

// Ask routes the query, runs exactly one strategy and assembles its answer.
func (a *assistantImpl) Ask(ctx context.Context, q models.Query) (*models.ChatResponse, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, ErrEmptyQuery
	}
	q.SessionID = sessionKey(q.SessionID)
	if q.ReceivedAt.IsZero() {
		q.ReceivedAt = time.Now()
	}
	log.Debug().Str("component", "router").Str("session", q.SessionID).Str("query", q.Text).Msg("received query")

	decision, err := a.router.Route(ctx, q.Text)
	if err != nil {
		return nil, err
	}

	exec, ok := a.executors[decision.Intent]
	if !ok {
		return nil, &RoutingError{Err: fmt.Errorf("no strategy for intent %q", decision.Intent)}
	}
	out, err := exec.execute(ctx, q)
	if errors.Is(err, ErrIndexUnavailable) {
		// the index went away after routing
		log.Warn().Str("component", "router").Str("session", q.SessionID).Msg("index unavailable at retrieval, answering as chat")
		decision.Intent, decision.Downgraded = models.IntentGeneralChat, true
		out, err = a.executors[models.IntentGeneralChat].execute(ctx, q)
	}
	if err != nil {
		log.Error().Str("component", "router").Str("intent", decision.Intent.String()).Err(err).Msg("strategy failed")
		return nil, err
	}
	if decision.ClassifierFailed && out.intent == models.IntentGeneralChat {
		out.source = models.SourceClassifierFailed
	}

	resp := assemble(out.answer, out.intent, out.source, q.SessionID, out.sources)
	a.rec.ObserveResponse(resp.Intent.String(), resp.Source)
	log.Info().Str("component", "router").Str("session", q.SessionID).Str("intent", resp.Intent.String()).
		Str("source", resp.Source).Str("stage", decision.Stage).Dur("elapsed", time.Since(q.ReceivedAt)).Msg("answered query")
	return resp, nil
}

// assemble packages a strategy's answer with its provenance.
func assemble(answer string, intent models.Intent, source, sessionID string, sources []models.SourceDocument) *models.ChatResponse {
	return &models.ChatResponse{
		Response:  answer,
		Intent:    intent,
		Source:    source,
		SessionID: sessionID,
		Sources:   sources,
	}
}

func (a *assistantImpl) Ingest(ctx context.Context, name string, data []byte) (*models.IngestResponse, error) {
	return a.ingestor.Ingest(ctx, name, data)
}

func (a *assistantImpl) ResetSession(ctx context.Context, sessionID string) error {
	if err := a.memory.Clear(ctx, sessionKey(sessionID)); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	log.Info().Str("component", "chat").Str("session", sessionKey(sessionID)).Msg("session cleared")
	return nil
}

func (a *assistantImpl) IndexStatus() models.IndexStatusResponse {
	return a.index.Stats()
}

// Chunks lists what the current index holds.
func (a *assistantImpl) Chunks(ctx context.Context) (*models.ListChunksResponse, error) {
	chunks, err := a.index.Chunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	if chunks == nil {
		chunks = []models.DocumentChunk{}
	}
	return &models.ListChunksResponse{Count: len(chunks), Chunks: chunks}, nil
}
