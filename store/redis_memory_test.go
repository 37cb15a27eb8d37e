package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestMessageCodecKeepsSpeaker(t *testing.T) {
	for _, msg := range []llms.ChatMessage{
		llms.HumanChatMessage{Content: "Merhaba, sen kimsin?"},
		llms.AIChatMessage{Content: "Ben yardımsever bir asistanım."},
	} {
		raw, err := encodeMessage(msg)
		require.NoError(t, err)

		got, err := decodeMessage(raw)
		require.NoError(t, err)
		assert.Equal(t, msg.GetType(), got.GetType())
		assert.Equal(t, msg.GetContent(), got.GetContent())
	}
}

func TestDecodeMessageRejectsGarbage(t *testing.T) {
	_, err := decodeMessage("{not json")
	assert.Error(t, err)
}

func TestRedisKeyDefaultsSession(t *testing.T) {
	r := &RedisConversations{prefix: "assistant:conversation:"}
	assert.Equal(t, "assistant:conversation:default", r.key(""))
	assert.Equal(t, "assistant:conversation:abc", r.key(" abc "))
}
