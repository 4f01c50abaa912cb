package ports

import (
	"context"

	"github.com/yash2163/ComplaintHandling-POC/internal/core"
)

// EventHandler processes one event. A non-nil error asks the transport to
// redeliver it.
type EventHandler func(ctx context.Context, ev core.Event) error

// EventPublisher publishes case events to a topic
type EventPublisher interface {
	Publish(ctx context.Context, topic string, ev core.Event) error
}

// EventConsumer delivers events from a topic to a handler until the context
// is cancelled
type EventConsumer interface {
	Consume(ctx context.Context, topic string, handler EventHandler) error
}

// EventBus is a transport that can both publish and consume
type EventBus interface {
	EventPublisher
	EventConsumer
	Close() error
}
