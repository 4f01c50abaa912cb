package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"go.uber.org/zap"
)

// Redis key prefixes
const (
	keyPrefixQueue      = "queue:"
	keyPrefixProcessing = "processing:"
	keyPrefixDLQ        = "dlq:"
)

// RedisBus carries events on Redis lists. Consumers move each message to a
// processing list while it is handled so a crash leaves it recoverable.
type RedisBus struct {
	client      *redis.Client
	namespace   string
	maxAttempts int
	blockFor    time.Duration
	logger      *zap.Logger
}

// NewRedisBus connects to the Redis server at url (redis://host:port/db)
func NewRedisBus(ctx context.Context, url, namespace string, maxAttempts int, logger *zap.Logger) (*RedisBus, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisBusWithClient(client, namespace, maxAttempts, logger), nil
}

// NewRedisBusWithClient wraps an existing client
func NewRedisBusWithClient(client *redis.Client, namespace string, maxAttempts int, logger *zap.Logger) *RedisBus {
	if namespace == "" {
		namespace = "cx"
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &RedisBus{
		client:      client,
		namespace:   namespace,
		maxAttempts: maxAttempts,
		blockFor:    5 * time.Second,
		logger:      logger,
	}
}

func (b *RedisBus) key(prefix, topic string) string {
	return b.namespace + ":" + prefix + topic
}

// Publish pushes ev onto the topic list
func (b *RedisBus) Publish(ctx context.Context, topic string, ev core.Event) error {
	if err := validTopic(topic); err != nil {
		return err
	}
	data, err := newEnvelope(topic, ev).encode()
	if err != nil {
		return err
	}
	if err := b.client.LPush(ctx, b.key(keyPrefixQueue, topic), data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Consume handles events on topic until ctx is cancelled. Messages left in
// the processing list by an earlier crash are requeued first.
func (b *RedisBus) Consume(ctx context.Context, topic string, handler ports.EventHandler) error {
	if err := validTopic(topic); err != nil {
		return err
	}
	queueKey := b.key(keyPrefixQueue, topic)
	processingKey := b.key(keyPrefixProcessing, topic)

	if err := b.recover(ctx, processingKey, queueKey); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		raw, err := b.client.BLMove(ctx, queueKey, processingKey, "RIGHT", "LEFT", b.blockFor).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read from %s: %w", topic, err)
		}

		if err := b.handle(ctx, topic, raw, handler); err != nil {
			return err
		}
	}
}

func (b *RedisBus) handle(ctx context.Context, topic, raw string, handler ports.EventHandler) error {
	queueKey := b.key(keyPrefixQueue, topic)
	processingKey := b.key(keyPrefixProcessing, topic)

	env, err := decodeEnvelope([]byte(raw))
	if err != nil {
		b.logger.Error("Dead-lettering undecodable message", zap.String("topic", topic), zap.Error(err))
		return b.move(ctx, processingKey, b.key(keyPrefixDLQ, topic), raw, raw)
	}

	env.Attempts++
	handlerErr := handler(ctx, env.Event)
	if handlerErr == nil {
		return b.client.LRem(ctx, processingKey, 1, raw).Err()
	}

	next, err := env.encode()
	if err != nil {
		return err
	}
	if env.Attempts >= b.maxAttempts {
		b.logger.Error("Dead-lettering event after repeated failures",
			zap.String("topic", topic),
			zap.String("email_id", env.Event.EmailID),
			zap.Int("attempts", env.Attempts),
			zap.Error(handlerErr))
		return b.move(ctx, processingKey, b.key(keyPrefixDLQ, topic), raw, string(next))
	}

	b.logger.Warn("Event handler failed, requeueing",
		zap.String("topic", topic),
		zap.String("email_id", env.Event.EmailID),
		zap.Int("attempts", env.Attempts),
		zap.Error(handlerErr))
	return b.move(ctx, processingKey, queueKey, raw, string(next))
}

// move replaces raw in from with next pushed onto to, atomically
func (b *RedisBus) move(ctx context.Context, from, to, raw, next string) error {
	pipe := b.client.TxPipeline()
	pipe.LRem(ctx, from, 1, raw)
	pipe.LPush(ctx, to, next)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to move message to %s: %w", to, err)
	}
	return nil
}

func (b *RedisBus) recover(ctx context.Context, processingKey, queueKey string) error {
	for {
		_, err := b.client.LMove(ctx, processingKey, queueKey, "RIGHT", "RIGHT").Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to recover in-flight messages: %w", err)
		}
	}
}

// DeadLetters returns the events that exhausted their attempts on topic
func (b *RedisBus) DeadLetters(ctx context.Context, topic string) ([]core.Event, error) {
	items, err := b.client.LRange(ctx, b.key(keyPrefixDLQ, topic), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read dead letters: %w", err)
	}
	events := make([]core.Event, 0, len(items))
	for _, item := range items {
		if env, err := decodeEnvelope([]byte(item)); err == nil {
			events = append(events, env.Event)
		}
	}
	return events, nil
}

// Close closes the Redis client
func (b *RedisBus) Close() error {
	return b.client.Close()
}
