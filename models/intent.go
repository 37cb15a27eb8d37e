package models

// Intent is the routing decision selecting which response strategy handles a query.
type Intent string

const (
	IntentGeneralChat Intent = "general_chat"
	IntentWebSearch   Intent = "web_search_query"
	IntentDocumentQA  Intent = "document_qa"
)

// Intents lists every intent in a fixed order.
var Intents = []Intent{IntentGeneralChat, IntentWebSearch, IntentDocumentQA}

// Valid reports whether i is one of the known intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentGeneralChat, IntentWebSearch, IntentDocumentQA:
		return true
	}
	return false
}

func (i Intent) String() string { return string(i) }

// Provenance labels reported in the "source" field of a chat response.
const (
	SourceChatMemory       = "LLM + Hafıza"
	SourceUploadedDocument = "Yüklenen Döküman (RAG)"
	SourceSearchFailed     = "LLM (Search Başarısız)"
	SourceClassifierFailed = "LLM (Sınıflandırma Başarısız)"
)

// LabelScore is one ranked candidate returned by a zero-shot classifier.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}
