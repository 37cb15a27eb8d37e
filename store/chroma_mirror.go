package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/phuslu/log"

	"github.com/itish2003/assistant/models"
	"github.com/itish2003/assistant/services"
)

// ChromaMirror copies each index snapshot into a Chroma collection so it can be browsed
// with Chroma tooling. Retrieval never reads from it.
type ChromaMirror struct {
	client     chromago.Client
	collection chromago.Collection
}

// NewChromaMirror connects to Chroma and gets or creates the mirror collection.
func NewChromaMirror(ctx context.Context, baseURL, collectionName string) (*ChromaMirror, error) {
	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create chroma client: %w", err)
	}

	collection, err := client.GetOrCreateCollection(
		ctx,
		collectionName,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "assistant semantic index mirror"),
				chromago.NewStringAttribute("created_by", "assistant"),
			),
		),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get or create collection %q: %w", collectionName, err)
	}

	log.Info().Str("component", "store").Str("collection", collectionName).Str("url", baseURL).Msg("chroma mirror ready")
	return &ChromaMirror{client: client, collection: collection}, nil
}

// Sync adds the snapshot's chunks tagged with its generation, then deletes every older generation.
func (m *ChromaMirror) Sync(ctx context.Context, snap *services.Snapshot) error {
	if len(snap.Chunks) == 0 {
		return nil
	}
	gen := strconv.FormatUint(snap.Generation, 10)

	stale, err := m.generations(ctx)
	if err != nil {
		return err
	}

	ids := make([]chromago.DocumentID, len(snap.Chunks))
	texts := make([]string, len(snap.Chunks))
	vectors := make([]embeddings.Embedding, len(snap.Chunks))
	metadatas := make([]chromago.DocumentMetadata, len(snap.Chunks))
	for i, chunk := range snap.Chunks {
		ids[i] = chromago.DocumentID(fmt.Sprintf("g%s-%s", gen, chunk.ID))
		texts[i] = chunk.Text
		vectors[i] = embeddings.NewEmbeddingFromFloat32(snap.Vectors[i])
		metadatas[i] = chromago.NewDocumentMetadata(
			chromago.NewStringAttribute("source_file", chunk.Source),
			chromago.NewStringAttribute("generation", gen),
			chromago.NewStringAttribute("chunk_id", chunk.ID),
			chromago.NewIntAttribute("page", int64(chunk.Page)),
			chromago.NewIntAttribute("chunk_num", int64(chunk.Index)),
		)
	}

	err = m.collection.Add(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(vectors...),
		chromago.WithMetadatas(metadatas...),
	)
	if err != nil {
		return fmt.Errorf("failed to add generation %s to chromadb: %w", gen, err)
	}

	for _, old := range stale {
		if old == gen {
			continue
		}
		if err := m.collection.Delete(ctx, chromago.WithWhereDelete(chromago.EqString("generation", old))); err != nil {
			return fmt.Errorf("failed to delete generation %s from chromadb: %w", old, err)
		}
	}
	return nil
}

// generations lists the distinct generation tags currently stored.
func (m *ChromaMirror) generations(ctx context.Context) ([]string, error) {
	results, err := m.collection.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents from chromadb: %w", err)
	}
	var gens []string
	for _, meta := range results.GetMetadatas() {
		if g, ok := metadataMap(meta)["generation"].(string); ok && !slices.Contains(gens, g) {
			gens = append(gens, g)
		}
	}
	return gens, nil
}

// List returns the mirrored chunks of the given generation in chunk order.
func (m *ChromaMirror) List(ctx context.Context, generation uint64) ([]models.DocumentChunk, error) {
	gen := strconv.FormatUint(generation, 10)
	results, err := m.collection.Get(ctx, chromago.WithWhereGet(chromago.EqString("generation", gen)))
	if err != nil {
		return nil, fmt.Errorf("failed to get documents from chromadb: %w", err)
	}

	ids := results.GetIDs()
	documents := results.GetDocuments()
	metadatas := results.GetMetadatas()

	rows := make([]mirroredRow, len(ids))
	for i := range ids {
		rows[i].id = string(ids[i])
		if i < len(metadatas) {
			rows[i].meta = metadataMap(metadatas[i])
		}
		if i < len(documents) {
			rows[i].text = documents[i].ContentString()
		}
	}
	return chunksForGeneration(gen, rows), nil
}

type mirroredRow struct {
	id   string
	text string
	meta map[string]interface{}
}

// chunksForGeneration drops rows left over from other generations and orders the rest.
func chunksForGeneration(gen string, rows []mirroredRow) []models.DocumentChunk {
	chunks := make([]models.DocumentChunk, 0, len(rows))
	for _, row := range rows {
		if g, _ := row.meta["generation"].(string); g != gen {
			continue
		}
		chunk := chunkFromMetadata(row.id, row.meta)
		chunk.Text = row.text
		chunks = append(chunks, chunk)
	}
	slices.SortStableFunc(chunks, func(a, b models.DocumentChunk) int { return a.Index - b.Index })
	return chunks
}

func (m *ChromaMirror) Close() error {
	return m.client.Close()
}

// metadataMap converts Chroma document metadata to a plain map. DocumentMetadata exposes no
// accessor for all values, so it goes through JSON.
func metadataMap(meta chromago.DocumentMetadata) map[string]interface{} {
	if meta == nil {
		return nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		log.Warn().Str("component", "store").Err(err).Msg("could not marshal chroma metadata")
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Warn().Str("component", "store").Err(err).Msg("could not unmarshal chroma metadata")
		return nil
	}
	return out
}

func chunkFromMetadata(id string, meta map[string]interface{}) models.DocumentChunk {
	chunk := models.DocumentChunk{ID: id}
	if v, ok := meta["chunk_id"].(string); ok {
		chunk.ID = v
	}
	if v, ok := meta["source_file"].(string); ok {
		chunk.Source = v
	}
	if v, ok := meta["page"].(float64); ok {
		chunk.Page = int(v)
	}
	if v, ok := meta["chunk_num"].(float64); ok {
		chunk.Index = int(v)
	}
	return chunk
}
