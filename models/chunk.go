package models

// DocumentChunk is a contiguous span of source text used as the unit of indexing and retrieval.
type DocumentChunk struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	// Page is 1-based for paged formats and 0 for plain text.
	Page  int    `json:"page,omitempty"`
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// SourceDocument represents a retrieved chunk and its origin.
type SourceDocument struct {
	Source string  `json:"source"`
	Page   int     `json:"page,omitempty"`
	Index  int     `json:"index"`
	Score  float64 `json:"score"`
}

// ListChunksResponse is the structure for the response of the GET /chunks endpoint.
type ListChunksResponse struct {
	Count  int             `json:"count"`
	Chunks []DocumentChunk `json:"chunks"`
}

// IndexStatusResponse describes the current semantic index.
type IndexStatusResponse struct {
	Available  bool   `json:"available"`
	Generation uint64 `json:"generation,omitempty"`
	Source     string `json:"source,omitempty"`
	Chunks     int    `json:"chunks"`
	Model      string `json:"model,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}
