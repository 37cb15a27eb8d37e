package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"
	"google.golang.org/genai"
)

var testLabels = []string{"chat label", "search label", "document label"}

func TestHuggingFacePipelineShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/test-model", r.URL.Path)
		assert.Equal(t, "Bearer hf-token", r.Header.Get("Authorization"))

		var req hfRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Şiir yaz", req.Inputs)
		assert.Equal(t, testLabels, req.Parameters.CandidateLabels)

		_, _ = w.Write([]byte(`{"sequence":"Şiir yaz","labels":["chat label","document label","search label"],"scores":[0.7,0.2,0.1]}`))
	}))
	defer server.Close()

	hf := NewHuggingFace(server.Client(), server.URL+"/models/", "test-model", "hf-token")
	ranked, err := hf.Classify(context.Background(), "Şiir yaz", testLabels)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, "chat label", ranked[0].Label)
	assert.InDelta(t, 0.7, ranked[0].Score, 1e-9)
}

func TestHuggingFaceListShapeIsSorted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"label":"chat label","score":0.1},{"label":"search label","score":0.8},{"label":"document label","score":0.1}]`))
	}))
	defer server.Close()

	ranked, err := NewHuggingFace(server.Client(), server.URL, "m", "").Classify(context.Background(), "x", testLabels)
	require.NoError(t, err)
	assert.Equal(t, "search label", ranked[0].Label)
	assert.Equal(t, "chat label", ranked[1].Label)
	assert.Equal(t, "document label", ranked[2].Label)
}

func TestHuggingFaceErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusServiceUnavailable, `{"error":"Model is loading"}`},
		{"mismatched arrays", http.StatusOK, `{"labels":["a","b"],"scores":[1]}`},
		{"empty list", http.StatusOK, `[]`},
		{"garbage", http.StatusOK, `<html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewHuggingFace(server.Client(), server.URL, "m", "").Classify(context.Background(), "x", testLabels)
			assert.Error(t, err)
		})
	}
}

func TestGeminiClassifier(t *testing.T) {
	var gotSchema map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if gc, ok := body["generationConfig"].(map[string]any); ok {
			gotSchema, _ = gc["responseSchema"].(map[string]any)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"document label"}]}}]}`))
	}))
	defer server.Close()

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  server.Client(),
		HTTPOptions: genai.HTTPOptions{BaseURL: server.URL},
	})
	require.NoError(t, err)

	ranked, err := NewGemini(client, "gemini-2.5-flash").Classify(context.Background(), "Bu dosyada ne yazıyor?", testLabels)
	require.NoError(t, err)
	assert.Equal(t, "document label", ranked[0].Label)
	assert.Equal(t, 1.0, ranked[0].Score)
	assert.Equal(t, "chat label", ranked[1].Label)
	require.NotNil(t, gotSchema)
	assert.Len(t, gotSchema["enum"], 3)
}

func TestEmbeddingClassifier(t *testing.T) {
	calls := 0
	client := embeddings.EmbedderClientFunc(func(_ context.Context, texts []string) ([][]float32, error) {
		calls++
		out := make([][]float32, len(texts))
		for i, text := range texts {
			switch {
			case strings.Contains(text, "chat"):
				out[i] = []float32{1, 0, 0}
			case strings.Contains(text, "search"):
				out[i] = []float32{0, 1, 0}
			case strings.Contains(text, "document"):
				out[i] = []float32{0, 0, 1}
			default:
				out[i] = []float32{0.1, 0.9, 0.2}
			}
		}
		return out, nil
	})
	embedder, err := embeddings.NewEmbedder(client)
	require.NoError(t, err)

	c := NewEmbedding(embedder)
	ranked, err := c.Classify(context.Background(), "fiyat bilgisi", testLabels)
	require.NoError(t, err)
	assert.Equal(t, "search label", ranked[0].Label)

	_, err = c.Classify(context.Background(), "başka bir soru", testLabels)
	require.NoError(t, err)
	// labels embedded once, then one query per call
	assert.Equal(t, 3, calls)
}
