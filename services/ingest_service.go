package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/itish2003/assistant/models"
)

var errNoText = errors.New("no extractable text")

// chunkNamespace seeds deterministic chunk ids so re-ingesting a file yields the same ids.
var chunkNamespace = uuid.MustParse("6f1c2b1e-6a43-4f0e-9a5e-7c1d1e0b9a11")

// IngestorConfig wires an Ingestor.
type IngestorConfig struct {
	Extractors   map[string]Extractor
	Embedder     embeddings.Embedder
	Index        *SemanticIndex
	ChunkSize    int
	ChunkOverlap int
	EmbedTimeout time.Duration
	Recorder     Recorder
}

// Ingestor turns an uploaded file into chunks and embeddings and replaces the semantic index with them.
type Ingestor struct {
	extractors   map[string]Extractor
	splitter     textsplitter.TextSplitter
	embedder     embeddings.Embedder
	index        *SemanticIndex
	embedTimeout time.Duration
	rec          Recorder
}

func NewIngestor(cfg IngestorConfig) *Ingestor {
	if cfg.Extractors == nil {
		cfg.Extractors = DefaultExtractors()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = 60 * time.Second
	}
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(cfg.ChunkSize),
		textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
	)
	return &Ingestor{
		extractors:   cfg.Extractors,
		splitter:     splitter,
		embedder:     cfg.Embedder,
		index:        cfg.Index,
		embedTimeout: cfg.EmbedTimeout,
		rec:          cfg.Recorder,
	}
}

// Supports reports whether name has an extension with a registered extractor.
func (i *Ingestor) Supports(name string) bool {
	_, ok := i.extractors[extensionOf(name)]
	return ok
}

// Ingest extracts, chunks and embeds data, then replaces the index. On any failure the index is unchanged.
func (i *Ingestor) Ingest(ctx context.Context, name string, data []byte) (*models.IngestResponse, error) {
	res, err := i.ingest(ctx, name, data)
	outcome := ingestOutcome(err)
	i.rec.ObserveIngestion(outcome)
	if err != nil {
		log.Error().Str("component", "ingest").Str("file", name).Str("outcome", outcome).Err(err).Msg("ingestion failed")
		return nil, err
	}
	return res, nil
}

func (i *Ingestor) ingest(ctx context.Context, name string, data []byte) (*models.IngestResponse, error) {
	file := sanitizeFilename(name)
	if file == "" {
		return nil, unsupportedFormat("")
	}
	ext := extensionOf(file)
	extractor, ok := i.extractors[ext]
	if !ok {
		return nil, unsupportedFormat(ext)
	}

	segments, err := extractor.Extract(data)
	if err != nil {
		return nil, &ParseError{File: file, Err: err}
	}

	chunks, err := i.split(file, segments)
	if err != nil {
		return nil, &ParseError{File: file, Err: err}
	}
	if len(chunks) == 0 {
		return nil, &ParseError{File: file, Err: errNoText}
	}
	log.Info().Str("component", "ingest").Str("file", file).Int("segments", len(segments)).Int("chunks", len(chunks)).Msg("split document")

	texts := make([]string, len(chunks))
	for j, c := range chunks {
		texts[j] = c.Text
	}
	vectors, err := callCollaborator(ctx, i.rec, CollaboratorEmbedding, "embed_documents", i.embedTimeout,
		func(ctx context.Context) ([][]float32, error) {
			return i.embedder.EmbedDocuments(ctx, texts)
		})
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, &CollaboratorError{
			Collaborator: CollaboratorEmbedding,
			Op:           "embed_documents",
			Err:          fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks)),
		}
	}

	snap, err := i.index.Replace(ctx, file, chunks, vectors)
	if err != nil {
		return nil, err
	}

	pages := 0
	if ext == ".pdf" {
		pages = len(segments)
	}
	return &models.IngestResponse{
		Message:    fmt.Sprintf("%s başarıyla analiz edildi.", file),
		File:       file,
		Chunks:     len(chunks),
		Pages:      pages,
		Generation: snap.Generation,
	}, nil
}

// split chunks every segment on its own so no chunk straddles two pages.
func (i *Ingestor) split(file string, segments []Segment) ([]models.DocumentChunk, error) {
	var chunks []models.DocumentChunk
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		parts, err := i.splitter.SplitText(seg.Text)
		if err != nil {
			return nil, fmt.Errorf("split page %d: %w", seg.Page, err)
		}
		for _, p := range parts {
			if strings.TrimSpace(p) == "" {
				continue
			}
			idx := len(chunks)
			chunks = append(chunks, models.DocumentChunk{
				ID:     uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s|%d|%d", file, seg.Page, idx))).String(),
				Source: file,
				Page:   seg.Page,
				Index:  idx,
				Text:   p,
			})
		}
	}
	return chunks, nil
}

func ingestOutcome(err error) string {
	var perr *ParseError
	var cerr *CollaboratorError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported"
	case errors.As(err, &perr):
		return "parse_error"
	case errors.As(err, &cerr):
		return "collaborator_error"
	default:
		return "index_error"
	}
}
