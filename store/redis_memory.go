package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"
	"github.com/redis/go-redis/v9"
	"github.com/tmc/langchaingo/llms"

	"github.com/itish2003/assistant/services"
)

// RedisConversations keeps each session's transcript in a Redis list so several
// processes share the same conversations.
type RedisConversations struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisConversations connects and pings the server.
func NewRedisConversations(ctx context.Context, addr, password string, db int, prefix string, ttl time.Duration) (*RedisConversations, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	log.Info().Str("component", "store").Str("addr", addr).Int("db", db).Msg("redis conversation store connected")
	return &RedisConversations{client: client, prefix: prefix, ttl: ttl}, nil
}

func (r *RedisConversations) key(sessionID string) string {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = services.DefaultSessionID
	}
	return r.prefix + sessionID
}

func (r *RedisConversations) History(ctx context.Context, sessionID string) ([]llms.ChatMessage, error) {
	raw, err := r.client.LRange(ctx, r.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}
	msgs := make([]llms.ChatMessage, 0, len(raw))
	for _, item := range raw {
		msg, err := decodeMessage(item)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// Append pushes both turns in one MULTI/EXEC and refreshes the TTL.
func (r *RedisConversations) Append(ctx context.Context, sessionID, userText, aiText string) error {
	user, err := encodeMessage(llms.HumanChatMessage{Content: userText})
	if err != nil {
		return err
	}
	ai, err := encodeMessage(llms.AIChatMessage{Content: aiText})
	if err != nil {
		return err
	}

	key := r.key(sessionID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, user, ai)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis append: %w", err)
	}
	return nil
}

func (r *RedisConversations) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *RedisConversations) Close() error {
	return r.client.Close()
}

func encodeMessage(msg llms.ChatMessage) (string, error) {
	raw, err := json.Marshal(llms.ConvertChatMessageToModel(msg))
	if err != nil {
		return "", fmt.Errorf("encode chat message: %w", err)
	}
	return string(raw), nil
}

func decodeMessage(raw string) (llms.ChatMessage, error) {
	var model llms.ChatMessageModel
	if err := json.Unmarshal([]byte(raw), &model); err != nil {
		return nil, fmt.Errorf("decode chat message: %w", err)
	}
	msg := model.ToChatMessage()
	if msg == nil {
		return nil, fmt.Errorf("decode chat message: unknown type %q", model.Type)
	}
	return msg, nil
}
