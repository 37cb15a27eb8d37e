package services

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"

	"github.com/itish2003/assistant/models"
)

// scriptedGenerator records every prompt and answers through reply.
type scriptedGenerator struct {
	mu      sync.Mutex
	prompts []string
	reply   func(prompt string) (string, error)
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.reply == nil {
		return "cevap", nil
	}
	return g.reply(prompt)
}

func (g *scriptedGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

type stubClassifier struct {
	ranked []models.LabelScore
	err    error
	block  chan struct{}
	calls  atomic.Int32
}

func (c *stubClassifier) Classify(ctx context.Context, _ string, labels []string) ([]models.LabelScore, error) {
	c.calls.Add(1)
	if c.block != nil {
		<-c.block
	}
	return c.ranked, c.err
}

func rankedFirst(label string) *stubClassifier {
	return &stubClassifier{ranked: []models.LabelScore{{Label: label, Score: 0.9}, {Label: labelChat, Score: 0.1}}}
}

type stubSearcher struct {
	mu      sync.Mutex
	queries []string
	results func(query string) (string, error)
}

func (s *stubSearcher) Search(_ context.Context, query string) (string, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	return s.results(query)
}

func (s *stubSearcher) Name() string { return "Stub Search" }

var testVocabulary = []string{"kira", "depozito", "toplantı", "bütçe", "tatil"}

// keywordVector counts vocabulary words; the trailing constant keeps vectors non-zero.
func keywordVector(text string) []float32 {
	lowered := strings.ToLower(text)
	v := make([]float32, len(testVocabulary)+1)
	for i, w := range testVocabulary {
		v[i] = float32(strings.Count(lowered, w))
	}
	v[len(testVocabulary)] = 0.1
	return v
}

func newKeywordEmbedder(t *testing.T) embeddings.Embedder {
	t.Helper()
	e, err := embeddings.NewEmbedder(embeddings.EmbedderClientFunc(func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = keywordVector(text)
		}
		return out, nil
	}))
	require.NoError(t, err)
	return e
}

// pagedExtractor stands in for PDF extraction by returning one segment per page.
func pagedExtractor(pages ...string) Extractor {
	return ExtractorFunc(func([]byte) ([]Segment, error) {
		segs := make([]Segment, len(pages))
		for i, p := range pages {
			segs[i] = Segment{Page: i + 1, Text: p}
		}
		return segs, nil
	})
}
