package models

import "time"

type ChatRequest struct {
	Query     string `json:"query" binding:"required"`
	SessionID string `json:"session_id,omitempty"`
}

// Query is a received utterance; it lives for one orchestration cycle.
type Query struct {
	Text       string
	SessionID  string
	ReceivedAt time.Time
}
