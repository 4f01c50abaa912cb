package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"go.uber.org/zap"
)

// ErrClosed is returned when publishing to a closed bus
var ErrClosed = errors.New("event bus is closed")

// MemoryBus is an in-process event bus backed by buffered channels. A
// failed event is requeued until it has been tried maxAttempts times.
type MemoryBus struct {
	mu          sync.Mutex
	topics      map[string]chan envelope
	buffer      int
	maxAttempts int
	closed      bool
	logger      *zap.Logger
}

// NewMemoryBus creates a new in-memory event bus
func NewMemoryBus(buffer, maxAttempts int, logger *zap.Logger) *MemoryBus {
	if buffer <= 0 {
		buffer = 256
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &MemoryBus{
		topics:      make(map[string]chan envelope),
		buffer:      buffer,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

func (b *MemoryBus) channel(topic string) (chan envelope, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	ch, ok := b.topics[topic]
	if !ok {
		ch = make(chan envelope, b.buffer)
		b.topics[topic] = ch
	}
	return ch, nil
}

// Publish queues ev on topic, blocking while the topic buffer is full
func (b *MemoryBus) Publish(ctx context.Context, topic string, ev core.Event) error {
	if err := validTopic(topic); err != nil {
		return err
	}
	ch, err := b.channel(topic)
	if err != nil {
		return err
	}
	return b.send(ctx, ch, newEnvelope(topic, ev))
}

func (b *MemoryBus) send(ctx context.Context, ch chan envelope, env envelope) error {
	select {
	case ch <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume delivers events on topic to handler until ctx is cancelled
func (b *MemoryBus) Consume(ctx context.Context, topic string, handler ports.EventHandler) error {
	if err := validTopic(topic); err != nil {
		return err
	}
	ch, err := b.channel(topic)
	if err != nil {
		return err
	}

	// Failed events wait here when the topic buffer is full, so the only
	// reader of ch never blocks sending to it.
	var retries []envelope
	for {
		env, err := b.next(ctx, ch, &retries)
		if err != nil {
			return err
		}

		env.Attempts++
		err = handler(ctx, env.Event)
		if err == nil {
			continue
		}
		if env.Attempts >= b.maxAttempts {
			b.logger.Error("Dropping event after repeated failures",
				zap.String("topic", topic),
				zap.String("email_id", env.Event.EmailID),
				zap.Int("attempts", env.Attempts),
				zap.Error(err))
			continue
		}
		b.logger.Warn("Event handler failed, requeueing",
			zap.String("topic", topic),
			zap.String("email_id", env.Event.EmailID),
			zap.Int("attempts", env.Attempts),
			zap.Error(err))
		select {
		case ch <- env:
		default:
			retries = append(retries, env)
		}
	}
}

// next takes the next event from ch, falling back to the oldest held retry
// when ch is empty
func (b *MemoryBus) next(ctx context.Context, ch chan envelope, retries *[]envelope) (envelope, error) {
	if len(*retries) > 0 {
		select {
		case <-ctx.Done():
			return envelope{}, ctx.Err()
		case env := <-ch:
			return env, nil
		default:
			env := (*retries)[0]
			*retries = (*retries)[1:]
			return env, nil
		}
	}
	select {
	case <-ctx.Done():
		return envelope{}, ctx.Err()
	case env := <-ch:
		return env, nil
	}
}

// Pending reports how many events are waiting on topic
func (b *MemoryBus) Pending(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[topic])
}

// Close stops new publishes. Queued events are discarded.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
