package models

type IngestResponse struct {
	Message    string `json:"message"`
	File       string `json:"file"`
	Chunks     int    `json:"chunks"`
	Pages      int    `json:"pages,omitempty"`
	Generation uint64 `json:"generation"`
}

type ChatResponse struct {
	Response  string           `json:"response"`
	Intent    Intent           `json:"intent"`
	Source    string           `json:"source"`
	SessionID string           `json:"session_id,omitempty"`
	Sources   []SourceDocument `json:"sources,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
