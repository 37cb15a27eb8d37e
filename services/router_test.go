package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itish2003/assistant/models"
)

var (
	testChatKeywords   = []string{"merhaba", "selam", "kimsin", "sen kimsin", "nasılsın"}
	testSearchKeywords = []string{"dolar", "kaç tl", "konser", "hava durumu", "nedir"}
)

func newTestRouter(cls Classifier, failure string, available bool) (*Router, *spyRecorder) {
	rec := &spyRecorder{}
	r := NewRouter(RouterConfig{
		ChatKeywords:      testChatKeywords,
		SearchKeywords:    testSearchKeywords,
		Classifier:        cls,
		ClassifierFailure: failure,
		Timeout:           50 * time.Millisecond,
		Recorder:          rec,
	}, func() bool { return available })
	return r, rec
}

func TestRouteKeywordStages(t *testing.T) {
	tests := []struct {
		query  string
		intent models.Intent
		stage  string
	}{
		{"Merhaba, sen kimsin?", models.IntentGeneralChat, StageChatKeyword},
		{"Nasılsın?", models.IntentGeneralChat, StageChatKeyword},
		{"Dolar kaç TL?", models.IntentWebSearch, StageSearchKeyword},
		{"Bu hafta sonu konser var mı", models.IntentWebSearch, StageSearchKeyword},
		// chat keywords are consulted first
		{"Selam, dolar kaç TL?", models.IntentGeneralChat, StageChatKeyword},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			cls := rankedFirst(labelDocument)
			r, _ := newTestRouter(cls, OnClassifierFailureChat, true)

			d, err := r.Route(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.intent, d.Intent)
			assert.Equal(t, tt.stage, d.Stage)
			assert.Zero(t, cls.calls.Load(), "classifier must not run when a keyword matched")
		})
	}
}

func TestRouteClassifierStage(t *testing.T) {
	tests := []struct {
		label     string
		available bool
		intent    models.Intent
		downgrade bool
	}{
		{labelDocument, true, models.IntentDocumentQA, false},
		{labelDocument, false, models.IntentGeneralChat, true},
		{labelSearch, false, models.IntentWebSearch, false},
		{labelChat, true, models.IntentGeneralChat, false},
	}
	for _, tt := range tests {
		cls := rankedFirst(tt.label)
		r, rec := newTestRouter(cls, OnClassifierFailureChat, tt.available)

		d, err := r.Route(context.Background(), "Sözleşmede depozito şartı var mı?")
		require.NoError(t, err)
		assert.Equal(t, tt.intent, d.Intent, tt.label)
		assert.Equal(t, StageClassifier, d.Stage)
		assert.Equal(t, tt.downgrade, d.Downgraded)
		assert.Equal(t, int32(1), cls.calls.Load())
		assert.Equal(t, []string{tt.intent.String() + "/" + StageClassifier}, rec.routes)
	}
}

func TestRouteNeverDowngradesToSearch(t *testing.T) {
	r, _ := newTestRouter(rankedFirst(labelDocument), OnClassifierFailureChat, false)
	for i := 0; i < 5; i++ {
		d, err := r.Route(context.Background(), "yüklediğim dosyada ne yazıyor")
		require.NoError(t, err)
		assert.NotEqual(t, models.IntentWebSearch, d.Intent)
	}
}

func TestRouteClassifierFailureFallsBackToChat(t *testing.T) {
	cls := &stubClassifier{err: errors.New("503 model loading")}
	r, _ := newTestRouter(cls, OnClassifierFailureChat, true)

	d, err := r.Route(context.Background(), "Sözleşme ne diyor?")
	require.NoError(t, err)
	assert.Equal(t, models.IntentGeneralChat, d.Intent)
	assert.True(t, d.ClassifierFailed)
	assert.Equal(t, StageClassifierError, d.Stage)
}

func TestRouteClassifierFailurePolicyFail(t *testing.T) {
	cls := &stubClassifier{err: errors.New("503 model loading")}
	r, _ := newTestRouter(cls, OnClassifierFailureFail, true)

	_, err := r.Route(context.Background(), "Sözleşme ne diyor?")

	var rerr *RoutingError
	require.ErrorAs(t, err, &rerr)
	var cerr *CollaboratorError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, CollaboratorClassification, cerr.Collaborator)
}

func TestRouteClassifierTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	cls := &stubClassifier{block: block, ranked: []models.LabelScore{{Label: labelDocument, Score: 1}}}
	r, _ := newTestRouter(cls, OnClassifierFailureFail, true)

	start := time.Now()
	_, err := r.Route(context.Background(), "Sözleşme ne diyor?")
	assert.Less(t, time.Since(start), 2*time.Second)

	var cerr *CollaboratorError
	require.ErrorAs(t, err, &cerr)
	assert.True(t, cerr.Timeout)
}

func TestRouteEmptyClassifierResult(t *testing.T) {
	r, _ := newTestRouter(&stubClassifier{}, OnClassifierFailureChat, true)

	d, err := r.Route(context.Background(), "Sözleşme ne diyor?")
	require.NoError(t, err)
	assert.True(t, d.ClassifierFailed)
}

func TestRouteWithoutClassifier(t *testing.T) {
	r, _ := newTestRouter(nil, OnClassifierFailureChat, true)

	d, err := r.Route(context.Background(), "Sözleşme ne diyor?")
	require.NoError(t, err)
	assert.Equal(t, models.IntentGeneralChat, d.Intent)
	assert.True(t, d.ClassifierFailed)
}

func TestRouteAlwaysReturnsValidIntent(t *testing.T) {
	queries := []string{"", "   ", "?", "merhaba", "dolar", "rastgele bir cümle", "ÇĞİÖŞÜ"}
	labels := []string{labelChat, labelSearch, labelDocument, "something unexpected"}
	for _, label := range labels {
		r, _ := newTestRouter(rankedFirst(label), OnClassifierFailureChat, true)
		for _, q := range queries {
			d, err := r.Route(context.Background(), q)
			require.NoError(t, err)
			assert.True(t, d.Intent.Valid(), "%q / %q", label, q)
		}
	}
}

func TestIntentForLabel(t *testing.T) {
	assert.Equal(t, models.IntentWebSearch, intentForLabel(labelSearch))
	assert.Equal(t, models.IntentDocumentQA, intentForLabel(labelDocument))
	assert.Equal(t, models.IntentGeneralChat, intentForLabel(labelChat))
	assert.Equal(t, models.IntentGeneralChat, intentForLabel("other"))
}

func TestNormalizeKeywords(t *testing.T) {
	r, _ := newTestRouter(nil, OnClassifierFailureChat, true)
	assert.Equal(t, []string{"konser", "maç"}, normalizeKeywords([]string{"  KONSER ", "", "Maç"}))
	assert.Equal(t, testChatKeywords, r.chat)
}
