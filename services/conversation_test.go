package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestInMemoryConversationsAppendPairs(t *testing.T) {
	store := NewInMemoryConversations()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "", "Merhaba", "Merhaba! Nasıl yardımcı olabilirim?"))
	require.NoError(t, store.Append(ctx, "default", "Adın ne?", "Ben bir asistanım."))

	msgs, err := store.History(ctx, "  ")
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, llms.ChatMessageTypeHuman, msgs[0].GetType())
	assert.Equal(t, llms.ChatMessageTypeAI, msgs[1].GetType())
	assert.Equal(t, "Adın ne?", msgs[2].GetContent())

	text, err := transcript(msgs)
	require.NoError(t, err)
	assert.Equal(t, "Kullanıcı: Merhaba\nAsistan: Merhaba! Nasıl yardımcı olabilirim?\nKullanıcı: Adın ne?\nAsistan: Ben bir asistanım.", text)
}

func TestInMemoryConversationsClear(t *testing.T) {
	store := NewInMemoryConversations()
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, "a", "x", "y"))
	require.NoError(t, store.Clear(ctx, "a"))

	msgs, err := store.History(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, msgs)
	require.NoError(t, store.Clear(ctx, "never-existed"))
}

func TestInMemoryConversationsConcurrentPairsStayTogether(t *testing.T) {
	store := NewInMemoryConversations()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Append(ctx, "shared", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)))
		}(i)
	}
	wg.Wait()

	msgs, err := store.History(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, msgs, 100)
	for i := 0; i < len(msgs); i += 2 {
		q, a := msgs[i].GetContent(), msgs[i+1].GetContent()
		assert.Equal(t, "a"+q[1:], a)
	}
}

func TestTranscriptEmpty(t *testing.T) {
	text, err := transcript(nil)
	require.NoError(t, err)
	assert.Empty(t, text)
}
