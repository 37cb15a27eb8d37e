package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itish2003/assistant/models"
)

func TestChunkFromMetadata(t *testing.T) {
	meta := map[string]interface{}{
		"chunk_id":    "abc",
		"source_file": "report.pdf",
		"generation":  "4",
		"page":        float64(2),
		"chunk_num":   float64(7),
	}
	got := chunkFromMetadata("g4-abc", meta)
	assert.Equal(t, models.DocumentChunk{ID: "abc", Source: "report.pdf", Page: 2, Index: 7}, got)
}

func TestChunkFromMetadataMissingFields(t *testing.T) {
	got := chunkFromMetadata("g1-x", nil)
	assert.Equal(t, models.DocumentChunk{ID: "g1-x"}, got)
}

func TestChunksForGenerationSkipsStaleGenerations(t *testing.T) {
	rows := []mirroredRow{
		{id: "g2-b", text: "yeni ikinci", meta: map[string]interface{}{"chunk_id": "b", "generation": "2", "chunk_num": float64(1)}},
		{id: "g1-a", text: "eski", meta: map[string]interface{}{"chunk_id": "a", "generation": "1", "chunk_num": float64(0)}},
		{id: "g2-a", text: "yeni ilk", meta: map[string]interface{}{"chunk_id": "a", "generation": "2", "chunk_num": float64(0)}},
		{id: "orphan", text: "etiketsiz"},
	}

	got := chunksForGeneration("2", rows)
	require.Len(t, got, 2)
	assert.Equal(t, "yeni ilk", got[0].Text)
	assert.Equal(t, "yeni ikinci", got[1].Text)
	for _, c := range got {
		assert.NotEqual(t, "eski", c.Text)
	}
	assert.Empty(t, chunksForGeneration("3", rows))
}
