package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/povarna/generative-ai-agents/mcp-tools/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Handler receives each decoded audit event.
type Handler func(ctx context.Context, inv models.Invocation)

type Consumer struct {
	client       *redis.Client
	stream       string
	groupID      string
	consumerName string
	block        time.Duration
	handle       Handler
	logger       *zerolog.Logger
}

func NewConsumer(client *redis.Client, stream string, groupID string, consumerName string, handle Handler, logger *zerolog.Logger) *Consumer {
	if stream == "" {
		stream = DefaultStream
	}
	return &Consumer{
		client:       client,
		stream:       stream,
		groupID:      groupID,
		consumerName: consumerName,
		block:        2 * time.Second,
		handle:       handle,
		logger:       logger,
	}
}

// LogHandler writes every event to logger.
func LogHandler(logger *zerolog.Logger) Handler {
	return func(_ context.Context, inv models.Invocation) {
		evt := logger.Info()
		if inv.IsError {
			evt = logger.Warn().Str("kind", string(inv.Kind))
		}
		evt.
			Str("invocation_id", inv.ID).
			Str("tool", inv.Tool).
			Bool("is_error", inv.IsError).
			Dur("duration", inv.Duration).
			Time("occurred_at", inv.OccurredAt).
			Msg("Tool invocation")
	}
}

func (c *Consumer) Setup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.groupID, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("stream", c.stream).
		Str("group", c.groupID).
		Str("consumer", c.consumerName).
		Msg("Audit consumer started")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.groupID,
			Consumer: c.consumerName,
			Streams:  []string{c.stream, ">"},
			Count:    10,
			Block:    c.block,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) {
				// timeout, no message -> loop again
				continue
			}

			if ctx.Err() != nil {
				return ctx.Err()
			}

			c.logger.Error().Err(err).Msg("Failed to read from audit stream")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				c.process(ctx, msg)
			}
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg redis.XMessage) {
	payload, ok := msg.Values["payload"].(string)
	if !ok {
		c.logger.Error().Str("id", msg.ID).Msg("Missing payload field")
		c.ack(ctx, msg.ID)
		return
	}

	var inv models.Invocation
	if err := json.Unmarshal([]byte(payload), &inv); err != nil {
		c.logger.Error().Err(err).Str("id", msg.ID).Msg("Failed to decode audit event")
		c.ack(ctx, msg.ID) // undecodable, ack so it is not redelivered
		return
	}

	c.handle(ctx, inv)
	c.ack(ctx, msg.ID)
}

func (c *Consumer) ack(ctx context.Context, msgID string) {
	if err := c.client.XAck(ctx, c.stream, c.groupID, msgID).Err(); err != nil {
		c.logger.Error().Err(err).Str("id", msgID).Msg("Failed to ACK message")
	}
}
