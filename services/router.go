package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/itish2003/assistant/models"
)

// Routing stages, in the order they are consulted.
const (
	StageChatKeyword     = "chat_keyword"
	StageSearchKeyword   = "search_keyword"
	StageClassifier      = "classifier"
	StageClassifierError = "classifier_failed"
)

// ClassifierFailure policies.
const (
	OnClassifierFailureChat = "chat"
	OnClassifierFailureFail = "fail"
)

// Candidate descriptions handed to the zero-shot classifier.
const (
	labelChat     = "general conversation, greeting, self-introduction, or asking about the assistant's identity"
	labelSearch   = "internet search regarding public figures, news, weather, prices, events, concerts, or objective facts"
	labelDocument = "question specific to the uploaded file or document analysis"
)

var classifierLabels = []string{labelChat, labelSearch, labelDocument}

// Classifier ranks candidate labels for a text, best first.
type Classifier interface {
	Classify(ctx context.Context, text string, labels []string) ([]models.LabelScore, error)
}

// Decision is the outcome of routing one query.
type Decision struct {
	Intent models.Intent
	Stage  string
	// Downgraded is set when document_qa was chosen but no index was available.
	Downgraded bool
	// ClassifierFailed is set when the classifier failed and the chat fallback was used.
	ClassifierFailed bool
}

type RouterConfig struct {
	ChatKeywords      []string
	SearchKeywords    []string
	Classifier        Classifier
	ClassifierFailure string
	Timeout           time.Duration
	Recorder          Recorder
}

// Router maps a query to exactly one intent. It never fails with an unknown intent.
type Router struct {
	chat       []string
	search     []string
	classifier Classifier
	failure    string
	timeout    time.Duration
	available  func() bool
	rec        Recorder
}

// NewRouter builds a router. available reports whether document_qa can be served right now.
func NewRouter(cfg RouterConfig, available func() bool) *Router {
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ClassifierFailure == "" {
		cfg.ClassifierFailure = OnClassifierFailureChat
	}
	return &Router{
		chat:       normalizeKeywords(cfg.ChatKeywords),
		search:     normalizeKeywords(cfg.SearchKeywords),
		classifier: cfg.Classifier,
		failure:    cfg.ClassifierFailure,
		timeout:    cfg.Timeout,
		available:  available,
		rec:        cfg.Recorder,
	}
}

// Route runs the rule stages, then the classifier, then the availability override.
func (r *Router) Route(ctx context.Context, text string) (Decision, error) {
	d, err := r.decide(ctx, text)
	if err != nil {
		return Decision{}, err
	}
	if d.Intent == models.IntentDocumentQA && !r.available() {
		d.Intent = models.IntentGeneralChat
		d.Downgraded = true
	}
	r.rec.ObserveRoute(d.Intent.String(), d.Stage)
	log.Debug().Str("component", "router").Str("intent", d.Intent.String()).Str("stage", d.Stage).
		Bool("downgraded", d.Downgraded).Msg("routed query")
	return d, nil
}

func (r *Router) decide(ctx context.Context, text string) (Decision, error) {
	lowered := strings.ToLower(text)
	if containsAny(lowered, r.chat) {
		return Decision{Intent: models.IntentGeneralChat, Stage: StageChatKeyword}, nil
	}
	if containsAny(lowered, r.search) {
		return Decision{Intent: models.IntentWebSearch, Stage: StageSearchKeyword}, nil
	}

	intent, err := r.classify(ctx, text)
	if err == nil {
		return Decision{Intent: intent, Stage: StageClassifier}, nil
	}
	if r.failure == OnClassifierFailureFail {
		return Decision{}, &RoutingError{Err: err}
	}
	log.Warn().Str("component", "router").Err(err).Msg("classifier failed, falling back to general chat")
	return Decision{Intent: models.IntentGeneralChat, Stage: StageClassifierError, ClassifierFailed: true}, nil
}

func (r *Router) classify(ctx context.Context, text string) (models.Intent, error) {
	if r.classifier == nil {
		return "", &CollaboratorError{Collaborator: CollaboratorClassification, Op: "classify", Err: errors.New("no classifier configured")}
	}
	ranked, err := callCollaborator(ctx, r.rec, CollaboratorClassification, "classify", r.timeout,
		func(ctx context.Context) ([]models.LabelScore, error) {
			return r.classifier.Classify(ctx, text, classifierLabels)
		})
	if err != nil {
		return "", err
	}
	if len(ranked) == 0 {
		return "", &CollaboratorError{Collaborator: CollaboratorClassification, Op: "classify", Err: errors.New("classifier returned no labels")}
	}
	log.Debug().Str("component", "router").Str("label", ranked[0].Label).Float64("score", ranked[0].Score).Msg("classifier label")
	return intentForLabel(ranked[0].Label), nil
}

// intentForLabel matches on the distinguishing phrase of each description; anything else is chat.
func intentForLabel(label string) models.Intent {
	switch {
	case strings.Contains(label, "internet search"):
		return models.IntentWebSearch
	case strings.Contains(label, "uploaded file"):
		return models.IntentDocumentQA
	default:
		return models.IntentGeneralChat
	}
}

func normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
