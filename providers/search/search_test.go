package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerper(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "serper-key", r.Header.Get("X-API-KEY"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Dolar kaç TL? 2026", body["q"])

		_, _ = w.Write([]byte(`{
			"answerBox": {"answer": "1 USD = 41,2 TRY"},
			"organic": [
				{"title": "Dolar kuru", "link": "https://example.com/a", "snippet": "Güncel dolar kuru"},
				{"title": "Piyasalar", "link": "https://example.com/b", "snippet": "Döviz"},
				{"title": "Fazla", "link": "https://example.com/c", "snippet": "kesilmeli"}
			]
		}`))
	}))
	defer server.Close()

	s := NewSerper(Options{APIKey: "serper-key", BaseURL: server.URL, Results: 2, HTTPClient: server.Client()})
	out, err := s.Search(context.Background(), "Dolar kaç TL? 2026")
	require.NoError(t, err)

	assert.Contains(t, out, "1 USD = 41,2 TRY")
	assert.Contains(t, out, "1. Dolar kuru: Güncel dolar kuru (https://example.com/a)")
	assert.Contains(t, out, "2. Piyasalar")
	assert.NotContains(t, out, "Fazla")
	assert.Equal(t, "Serper (Google)", s.Name())
}

func TestSerperEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"organic": []}`))
	}))
	defer server.Close()

	out, err := NewSerper(Options{BaseURL: server.URL, Results: 5, HTTPClient: server.Client()}).Search(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestBrave(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "brave-key", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "Tarkan konseri ne zaman", r.URL.Query().Get("q"))
		assert.Equal(t, "3", r.URL.Query().Get("count"))
		_, _ = w.Write([]byte(`{"web":{"results":[{"title":"Konser takvimi","url":"https://example.com","description":"Haziran"}]}}`))
	}))
	defer server.Close()

	b := NewBrave(Options{APIKey: "brave-key", BaseURL: server.URL, Results: 3, HTTPClient: server.Client()})
	out, err := b.Search(context.Background(), "Tarkan konseri ne zaman")
	require.NoError(t, err)
	assert.Equal(t, "1. Konser takvimi: Haziran (https://example.com)", out)
	assert.Equal(t, "Brave Search", b.Name())
}

func TestProviderErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	opts := Options{BaseURL: server.URL, Results: 3, HTTPClient: server.Client()}
	_, err := NewSerper(opts).Search(context.Background(), "x")
	assert.Error(t, err)
	_, err = NewBrave(opts).Search(context.Background(), "x")
	assert.Error(t, err)
}

type stubTool struct {
	out string
	err error
}

func (s stubTool) Name() string                                 { return "GoogleSearch" }
func (s stubTool) Description() string                          { return "" }
func (s stubTool) Call(context.Context, string) (string, error) { return s.out, s.err }

func TestSerpAPINoResultIsEmpty(t *testing.T) {
	s := &SerpAPI{tool: stubTool{out: serpAPINoResult}}
	out, err := s.Search(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, out)

	s = &SerpAPI{tool: stubTool{err: errors.New("quota exceeded")}}
	_, err = s.Search(context.Background(), "x")
	assert.Error(t, err)

	assert.Equal(t, "SerpApi (Google)", s.Name())
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New("bing", Options{})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}
