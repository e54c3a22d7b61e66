// Package audit records every tool invocation on a Redis stream.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const DefaultStream = "tool-audit"

type Publisher interface {
	Publish(ctx context.Context, inv models.Invocation)
}

// NewInvocation stamps an audit record with a fresh id and timestamp.
func NewInvocation(tool string, result models.Result, duration time.Duration) models.Invocation {
	return models.Invocation{
		ID:         uuid.NewString(),
		Tool:       tool,
		IsError:    result.IsError,
		Kind:       result.Kind,
		Duration:   duration,
		OccurredAt: time.Now().UTC(),
	}
}

type StreamPublisher struct {
	client *redis.Client
	stream string
	logger *zerolog.Logger
}

func NewStreamPublisher(client *redis.Client, stream string, logger *zerolog.Logger) *StreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamPublisher{client: client, stream: stream, logger: logger}
}

// Publish never fails the caller; errors are only logged.
func (p *StreamPublisher) Publish(ctx context.Context, inv models.Invocation) {
	payload, err := json.Marshal(inv)
	if err != nil {
		p.logger.Error().Err(err).Str("tool", inv.Tool).Msg("Failed to encode audit event")
		return
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{"payload": string(payload)},
	}).Result()
	if err != nil {
		p.logger.Warn().Err(err).Str("tool", inv.Tool).Msg("Failed to publish audit event")
		return
	}

	p.logger.Debug().Str("stream", p.stream).Str("id", id).Str("invocation_id", inv.ID).Msg("Audit event published")
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.Invocation) {}
