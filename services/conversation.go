package services

import (
	"context"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/memory"
)

// DefaultSessionID keys the conversation of callers that send no session id.
const DefaultSessionID = "default"

// ConversationStore holds the general-chat transcript of each session.
type ConversationStore interface {
	History(ctx context.Context, sessionID string) ([]llms.ChatMessage, error)
	// Append records one exchange. Both turns land together or not at all.
	Append(ctx context.Context, sessionID, userText, aiText string) error
	Clear(ctx context.Context, sessionID string) error
}

// InMemoryConversations keeps one langchaingo ChatMessageHistory per session.
type InMemoryConversations struct {
	mu       sync.Mutex
	sessions map[string]*memory.ChatMessageHistory
}

func NewInMemoryConversations() *InMemoryConversations {
	return &InMemoryConversations{sessions: make(map[string]*memory.ChatMessageHistory)}
}

func (s *InMemoryConversations) History(ctx context.Context, sessionID string) ([]llms.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.sessions[sessionKey(sessionID)]
	if !ok {
		return nil, nil
	}
	msgs, err := h.Messages(ctx)
	if err != nil {
		return nil, err
	}
	return append([]llms.ChatMessage(nil), msgs...), nil
}

func (s *InMemoryConversations) Append(ctx context.Context, sessionID, userText, aiText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sessionKey(sessionID)
	h, ok := s.sessions[key]
	if !ok {
		h = memory.NewChatMessageHistory()
		s.sessions[key] = h
	}
	if err := h.AddUserMessage(ctx, userText); err != nil {
		return err
	}
	return h.AddAIMessage(ctx, aiText)
}

func (s *InMemoryConversations) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionKey(sessionID))
	return nil
}

func sessionKey(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return DefaultSessionID
	}
	return id
}

// transcript renders history the way the chat prompt expects it.
func transcript(msgs []llms.ChatMessage) (string, error) {
	if len(msgs) == 0 {
		return "", nil
	}
	return llms.GetBufferString(msgs, "Kullanıcı", "Asistan")
}
