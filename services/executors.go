package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"
	"github.com/tmc/langchaingo/embeddings"

	"github.com/itish2003/assistant/models"
)

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Searcher returns raw result text for a query and names itself for provenance.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
	Name() string
}

// minSearchResult is the length below which a search result is treated as empty.
const minSearchResult = 5

// outcome is what an executor hands to the assembler.
type outcome struct {
	answer  string
	intent  models.Intent
	source  string
	sources []models.SourceDocument
}

type executor interface {
	execute(ctx context.Context, q models.Query) (outcome, error)
}

func generate(ctx context.Context, rec Recorder, gen Generator, timeout time.Duration, prompt string) (string, error) {
	return callCollaborator(ctx, rec, CollaboratorGeneration, "generate", timeout,
		func(ctx context.Context) (string, error) {
			return gen.Generate(ctx, prompt)
		})
}

// chatExecutor answers from the persona and the session transcript.
type chatExecutor struct {
	gen     Generator
	memory  ConversationStore
	timeout time.Duration
	rec     Recorder
}

func (e *chatExecutor) execute(ctx context.Context, q models.Query) (outcome, error) {
	history, err := e.memory.History(ctx, q.SessionID)
	if err != nil {
		return outcome{}, fmt.Errorf("load conversation: %w", err)
	}
	text, err := transcript(history)
	if err != nil {
		return outcome{}, fmt.Errorf("render conversation: %w", err)
	}
	prompt, err := buildChatPrompt(text, q.Text)
	if err != nil {
		return outcome{}, err
	}

	answer, err := generate(ctx, e.rec, e.gen, e.timeout, prompt)
	if err != nil {
		return outcome{}, err
	}
	if err := e.memory.Append(ctx, q.SessionID, q.Text, answer); err != nil {
		// The answer is still valid; only the next turn loses this exchange.
		log.Error().Str("component", "chat").Str("session", sessionKey(q.SessionID)).Err(err).Msg("failed to record exchange")
	}
	return outcome{answer: answer, intent: models.IntentGeneralChat, source: models.SourceChatMemory}, nil
}

// searchExecutor grounds the answer in fresh search results and degrades to a bare generation.
type searchExecutor struct {
	searcher      Searcher
	gen           Generator
	searchTimeout time.Duration
	genTimeout    time.Duration
	now           func() time.Time
	rec           Recorder
}

func (e *searchExecutor) execute(ctx context.Context, q models.Query) (outcome, error) {
	answer, err := e.searchAndAnswer(ctx, q.Text)
	if err == nil {
		return outcome{answer: answer, intent: models.IntentWebSearch, source: e.searcher.Name()}, nil
	}
	if ctx.Err() != nil {
		return outcome{}, err
	}
	log.Warn().Str("component", "search").Err(err).Msg("search strategy failed, answering without results")

	answer, err = generate(ctx, e.rec, e.gen, e.genTimeout, q.Text)
	if err != nil {
		return outcome{}, err
	}
	return outcome{answer: answer, intent: models.IntentGeneralChat, source: models.SourceSearchFailed}, nil
}

func (e *searchExecutor) searchAndAnswer(ctx context.Context, question string) (string, error) {
	if e.searcher == nil {
		return "", &CollaboratorError{Collaborator: CollaboratorSearch, Op: "search", Err: fmt.Errorf("no search provider configured")}
	}
	today := e.now()
	enriched := fmt.Sprintf("%s %d", question, today.Year())

	results, err := e.search(ctx, enriched)
	if err != nil {
		return "", err
	}
	if len([]rune(strings.TrimSpace(results))) < minSearchResult {
		log.Debug().Str("component", "search").Msg("enriched query found nothing, retrying with the original")
		if results, err = e.search(ctx, question); err != nil {
			return "", err
		}
	}

	prompt, err := buildSearchPrompt(today.Format("2006-01-02"), question, results)
	if err != nil {
		return "", err
	}
	return generate(ctx, e.rec, e.gen, e.genTimeout, prompt)
}

func (e *searchExecutor) search(ctx context.Context, query string) (string, error) {
	return callCollaborator(ctx, e.rec, CollaboratorSearch, "search", e.searchTimeout,
		func(ctx context.Context) (string, error) {
			return e.searcher.Search(ctx, query)
		})
}

// documentExecutor answers strictly from the chunks closest to the question.
type documentExecutor struct {
	index        *SemanticIndex
	embedder     embeddings.Embedder
	gen          Generator
	topK         int
	embedTimeout time.Duration
	genTimeout   time.Duration
	rec          Recorder
}

func (e *documentExecutor) execute(ctx context.Context, q models.Query) (outcome, error) {
	if !e.index.Available() {
		return outcome{}, ErrIndexUnavailable
	}
	vec, err := callCollaborator(ctx, e.rec, CollaboratorEmbedding, "embed_query", e.embedTimeout,
		func(ctx context.Context) ([]float32, error) {
			return e.embedder.EmbedQuery(ctx, q.Text)
		})
	if err != nil {
		return outcome{}, err
	}

	hits, err := e.index.Retrieve(ctx, vec, e.topK)
	if err != nil {
		return outcome{}, err
	}

	texts := make([]string, len(hits))
	sources := make([]models.SourceDocument, len(hits))
	for i, h := range hits {
		texts[i] = h.Chunk.Text
		sources[i] = models.SourceDocument{Source: h.Chunk.Source, Page: h.Chunk.Page, Index: h.Chunk.Index, Score: h.Score}
	}
	log.Debug().Str("component", "rag").Int("hits", len(hits)).Msg("retrieved context")

	prompt, err := buildDocumentPrompt(strings.Join(texts, "\n\n"), q.Text)
	if err != nil {
		return outcome{}, err
	}
	answer, err := generate(ctx, e.rec, e.gen, e.genTimeout, prompt)
	if err != nil {
		return outcome{}, err
	}
	return outcome{answer: answer, intent: models.IntentDocumentQA, source: models.SourceUploadedDocument, sources: sources}, nil
}
