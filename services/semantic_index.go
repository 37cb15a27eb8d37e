package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/phuslu/log"

	"github.com/itish2003/assistant/models"
)

// Snapshot is an immutable, complete index content. Readers never see a partially built one.
type Snapshot struct {
	Generation uint64
	Source     string
	Model      string
	Chunks     []models.DocumentChunk
	Vectors    [][]float32
	CreatedAt  time.Time

	norms []float64
}

// Dimension is the embedding length shared by every vector of the snapshot.
func (s *Snapshot) Dimension() int {
	if len(s.Vectors) == 0 {
		return 0
	}
	return len(s.Vectors[0])
}

// ScoredChunk is a retrieval hit.
type ScoredChunk struct {
	Chunk models.DocumentChunk
	Score float64
}

// IndexStore persists snapshots so they survive a restart.
type IndexStore interface {
	Save(ctx context.Context, snap *Snapshot) error
	// Load returns nil and no error when nothing has been persisted.
	Load(ctx context.Context) (*Snapshot, error)
	// Exists reports whether the persistence location is still present.
	Exists() bool
}

// IndexMirror receives a copy of each new snapshot, e.g. a Chroma collection for browsing.
type IndexMirror interface {
	Sync(ctx context.Context, snap *Snapshot) error
	List(ctx context.Context, generation uint64) ([]models.DocumentChunk, error)
}

// SemanticIndex holds the current snapshot behind an atomic pointer. Writers are serialized;
// readers take no lock.
type SemanticIndex struct {
	current atomic.Pointer[Snapshot]
	writeMu sync.Mutex
	lastGen uint64

	store  IndexStore
	mirror IndexMirror
	model  string
	onSwap func(*Snapshot)
}

type IndexOption func(*SemanticIndex)

func WithIndexMirror(m IndexMirror) IndexOption {
	return func(s *SemanticIndex) { s.mirror = m }
}

// WithSwapHook is called after every successful swap, outside the writer lock.
func WithSwapHook(fn func(*Snapshot)) IndexOption {
	return func(s *SemanticIndex) { s.onSwap = fn }
}

// NewSemanticIndex creates an empty index. model names the embedding model recorded in snapshots.
func NewSemanticIndex(store IndexStore, model string, opts ...IndexOption) *SemanticIndex {
	s := &SemanticIndex{store: store, model: model}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Replace builds a new snapshot from chunks and vectors, persists it and swaps it in.
// The previous content is discarded.
func (s *SemanticIndex) Replace(ctx context.Context, source string, chunks []models.DocumentChunk, vectors [][]float32) (*Snapshot, error) {
	if len(chunks) == 0 {
		return nil, errors.New("replace index: no chunks")
	}
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("replace index: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, errors.New("replace index: empty embedding")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("replace index: vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}

	s.writeMu.Lock()
	snap := newSnapshot(s.lastGen+1, source, s.model, chunks, vectors, time.Now().UTC())
	if s.store != nil {
		if err := s.store.Save(ctx, snap); err != nil {
			s.writeMu.Unlock()
			return nil, fmt.Errorf("persist index: %w", err)
		}
	}
	s.lastGen = snap.Generation
	s.current.Store(snap)
	s.writeMu.Unlock()

	log.Info().Str("component", "index").Uint64("generation", snap.Generation).
		Str("source", source).Int("chunks", len(chunks)).Int("dimension", dim).Msg("index swapped")

	s.afterSwap(ctx, snap)
	return snap, nil
}

// Load restores the last persisted snapshot. It reports whether one was found.
func (s *SemanticIndex) Load(ctx context.Context) (bool, error) {
	if s.store == nil {
		return false, nil
	}
	snap, err := s.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load index: %w", err)
	}
	if snap == nil || len(snap.Chunks) == 0 {
		return false, nil
	}
	if snap.Model != s.model {
		log.Warn().Str("component", "index").Str("stored_model", snap.Model).Str("model", s.model).
			Msg("persisted index was built with a different embedding model")
	}

	snap = newSnapshot(snap.Generation, snap.Source, snap.Model, snap.Chunks, snap.Vectors, snap.CreatedAt)

	s.writeMu.Lock()
	if snap.Generation > s.lastGen {
		s.lastGen = snap.Generation
	}
	s.current.Store(snap)
	s.writeMu.Unlock()

	log.Info().Str("component", "index").Uint64("generation", snap.Generation).
		Str("source", snap.Source).Int("chunks", len(snap.Chunks)).Msg("index restored")

	s.afterSwap(ctx, snap)
	return true, nil
}

func (s *SemanticIndex) afterSwap(ctx context.Context, snap *Snapshot) {
	if s.mirror != nil {
		if err := s.mirror.Sync(ctx, snap); err != nil {
			log.Warn().Str("component", "index").Err(err).Uint64("generation", snap.Generation).Msg("index mirror sync failed")
		}
	}
	if s.onSwap != nil {
		s.onSwap(snap)
	}
}

// Available reports whether a snapshot exists in this process and its persisted copy is still present.
func (s *SemanticIndex) Available() bool {
	if s.current.Load() == nil {
		return false
	}
	return s.store == nil || s.store.Exists()
}

// Current returns the active snapshot or nil.
func (s *SemanticIndex) Current() *Snapshot {
	return s.current.Load()
}

// Retrieve returns the k chunks most similar to query by cosine similarity, best first.
// Equal scores keep the original chunk order.
func (s *SemanticIndex) Retrieve(ctx context.Context, query []float32, k int) ([]ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := s.current.Load()
	if snap == nil || !s.Available() {
		return nil, ErrIndexUnavailable
	}
	if len(query) != snap.Dimension() {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), snap.Dimension())
	}
	if k <= 0 {
		return nil, nil
	}
	if k > len(snap.Chunks) {
		k = len(snap.Chunks)
	}

	qnorm := norm(query)
	order := make([]int, len(snap.Chunks))
	scores := make([]float64, len(snap.Chunks))
	for i, v := range snap.Vectors {
		order[i] = i
		scores[i] = cosine(query, qnorm, v, snap.norms[i])
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case scores[a] > scores[b]:
			return -1
		case scores[a] < scores[b]:
			return 1
		}
		return 0
	})

	hits := make([]ScoredChunk, k)
	for i := 0; i < k; i++ {
		hits[i] = ScoredChunk{Chunk: snap.Chunks[order[i]], Score: scores[order[i]]}
	}
	return hits, nil
}

// Stats describes the current index.
func (s *SemanticIndex) Stats() models.IndexStatusResponse {
	snap := s.current.Load()
	if snap == nil {
		return models.IndexStatusResponse{Available: false}
	}
	return models.IndexStatusResponse{
		Available:  s.Available(),
		Generation: snap.Generation,
		Source:     snap.Source,
		Chunks:     len(snap.Chunks),
		Model:      snap.Model,
		CreatedAt:  snap.CreatedAt.Format(time.RFC3339),
	}
}

// Chunks lists indexed chunks, from the mirror when one is configured.
func (s *SemanticIndex) Chunks(ctx context.Context) ([]models.DocumentChunk, error) {
	snap := s.current.Load()
	if snap == nil {
		return []models.DocumentChunk{}, nil
	}
	if s.mirror != nil {
		return s.mirror.List(ctx, snap.Generation)
	}
	return slices.Clone(snap.Chunks), nil
}

func newSnapshot(gen uint64, source, model string, chunks []models.DocumentChunk, vectors [][]float32, created time.Time) *Snapshot {
	snap := &Snapshot{
		Generation: gen,
		Source:     source,
		Model:      model,
		Chunks:     slices.Clone(chunks),
		Vectors:    make([][]float32, len(vectors)),
		CreatedAt:  created,
		norms:      make([]float64, len(vectors)),
	}
	for i, v := range vectors {
		snap.Vectors[i] = slices.Clone(v)
		snap.norms[i] = norm(v)
	}
	return snap
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, anorm float64, b []float32, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (anorm * bnorm)
}
