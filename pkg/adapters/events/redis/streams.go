package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/assetcanon/vulnd/pkg/domain"
	"github.com/assetcanon/vulnd/pkg/ports"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StreamsBus implements EventBus using Redis Streams
type StreamsBus struct {
	client        *redis.Client
	logger        *zap.Logger
	consumerGroup string
	consumerName  string
}

// NewStreamsBus creates a new Redis Streams event bus
func NewStreamsBus(client *redis.Client, consumerGroup, consumerName string, logger *zap.Logger) (*StreamsBus, error) {
	return &StreamsBus{
		client:        client,
		logger:        logger,
		consumerGroup: consumerGroup,
		consumerName:  consumerName,
	}, nil
}

// Publish appends an event to the topic's stream
func (b *StreamsBus) Publish(ctx context.Context, topic string, event domain.Event) error {
	streamKey := getStreamKey(topic)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: streamKey,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}

	if _, err := b.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to add to stream: %w", err)
	}

	b.logger.Debug("event published",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("stream", streamKey))

	return nil
}

// Subscribe starts consuming events on a topic through a consumer group
func (b *StreamsBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	streamKey := getStreamKey(topic)

	err := b.client.XGroupCreateMkStream(ctx, streamKey, b.consumerGroup, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	b.logger.Info("subscribed to event stream",
		zap.String("stream", streamKey),
		zap.String("consumer_group", b.consumerGroup),
		zap.String("consumer", b.consumerName))

	go b.readStream(ctx, streamKey, handler)

	return nil
}

// readStream reads events from a stream until the context is cancelled
func (b *StreamsBus) readStream(ctx context.Context, streamKey string, handler ports.EventHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    b.consumerGroup,
				Consumer: b.consumerName,
				Streams:  []string{streamKey, ">"},
				Count:    10,
				Block:    time.Second,
			}).Result()

			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				b.logger.Error("failed to read from stream",
					zap.String("stream", streamKey),
					zap.Error(err))
				time.Sleep(time.Second)
				continue
			}

			for _, stream := range streams {
				for _, message := range stream.Messages {
					b.processMessage(ctx, streamKey, message, handler)
				}
			}
		}
	}
}

// processMessage handles and acknowledges a single stream message
func (b *StreamsBus) processMessage(ctx context.Context, streamKey string, message redis.XMessage, handler ports.EventHandler) {
	data, ok := message.Values["data"].(string)
	if !ok {
		b.logger.Error("invalid message format",
			zap.String("stream", streamKey),
			zap.String("message_id", message.ID))
		return
	}

	var event domain.Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		b.logger.Error("failed to unmarshal event",
			zap.String("stream", streamKey),
			zap.String("message_id", message.ID),
			zap.Error(err))
		return
	}

	if err := handler(ctx, event); err != nil {
		b.logger.Error("handler error",
			zap.String("stream", streamKey),
			zap.String("message_id", message.ID),
			zap.Error(err))
		return
	}

	if err := b.client.XAck(ctx, streamKey, b.consumerGroup, message.ID).Err(); err != nil {
		b.logger.Error("failed to acknowledge message",
			zap.String("stream", streamKey),
			zap.String("message_id", message.ID),
			zap.Error(err))
	}
}

// Unsubscribe removes subscriptions from a topic. Stream consumers stop
// when their subscribe context is cancelled; no active removal is done.
func (b *StreamsBus) Unsubscribe(ctx context.Context, topic string) error {
	return nil
}

// Close closes the event bus. The Redis client is owned by the caller.
func (b *StreamsBus) Close() error {
	return nil
}

// getStreamKey returns the Redis stream key for a topic
func getStreamKey(topic string) string {
	return fmt.Sprintf("vulnd:events:%s", topic)
}
