package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservers(t *testing.T) {
	m := New()

	m.ObserveRoute("general_chat", "chat_keywords")
	m.ObserveRoute("general_chat", "chat_keywords")
	m.ObserveResponse("web_search_query", "SerpApi (Google)")
	m.ObserveIngestion("success")
	m.SetIndexChunks(12)
	m.ObserveCollaborator("generation", "ok", 150*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RouteDecisions.WithLabelValues("general_chat", "chat_keywords")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Responses.WithLabelValues("web_search_query", "SerpApi (Google)")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Ingestions.WithLabelValues("success")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.IndexChunks))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveIngestion("unsupported")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `assistant_ingestions_total{outcome="unsupported"} 1`)
	assert.Contains(t, string(body), "assistant_index_chunks 0")
}
