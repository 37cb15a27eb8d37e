package classifier

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/tmc/langchaingo/embeddings"

	"github.com/itish2003/assistant/models"
)

// Embedding ranks labels by cosine similarity between the text and each label description.
// It needs no classifier service, only the embedding model already used for retrieval.
type Embedding struct {
	embedder embeddings.Embedder

	mu     sync.Mutex
	labels map[string][]float32
}

func NewEmbedding(embedder embeddings.Embedder) *Embedding {
	return &Embedding{embedder: embedder, labels: make(map[string][]float32)}
}

func (e *Embedding) Classify(ctx context.Context, text string, labels []string) ([]models.LabelScore, error) {
	labelVecs, err := e.labelVectors(ctx, labels)
	if err != nil {
		return nil, err
	}
	q, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	ranked := make([]models.LabelScore, len(labels))
	for i, l := range labels {
		ranked[i] = models.LabelScore{Label: l, Score: cosine(q, labelVecs[i])}
	}
	sortRanked(ranked)
	return ranked, nil
}

// labelVectors embeds labels not seen before and returns vectors in label order.
func (e *Embedding) labelVectors(ctx context.Context, labels []string) ([][]float32, error) {
	e.mu.Lock()
	var missing []string
	for _, l := range labels {
		if _, ok := e.labels[l]; !ok {
			missing = append(missing, l)
		}
	}
	e.mu.Unlock()

	if len(missing) > 0 {
		vecs, err := e.embedder.EmbedDocuments(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("embed labels: %w", err)
		}
		if len(vecs) != len(missing) {
			return nil, fmt.Errorf("embed labels: got %d vectors for %d labels", len(vecs), len(missing))
		}
		e.mu.Lock()
		for i, l := range missing {
			e.labels[l] = vecs[i]
		}
		e.mu.Unlock()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]float32, len(labels))
	for i, l := range labels {
		out[i] = e.labels[l]
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
