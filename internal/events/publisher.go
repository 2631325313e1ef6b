package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/povarna/generative-ai-agents/blog-agent/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Publisher announces newly stored records to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, record models.GenerationRecord) error
	Close() error
}

// RedisPublisher appends one stream entry per record with the record JSON
// under the "payload" field.
type RedisPublisher struct {
	client *redis.Client
	stream string
	logger *zerolog.Logger
}

func NewRedisPublisher(client *redis.Client, stream string, logger *zerolog.Logger) *RedisPublisher {
	return &RedisPublisher{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, record models.GenerationRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{"payload": string(data)},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
	}

	p.logger.Debug().
		Str("stream", p.stream).
		Str("entry_id", id).
		Str("record_id", record.ID).
		Msg("Generation event published")

	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// NopPublisher is used when no event stream is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.GenerationRecord) error { return nil }

func (NopPublisher) Close() error { return nil }
