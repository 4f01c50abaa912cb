package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// PubSubBus carries events on Google Cloud Pub/Sub. Each topic gets one
// subscription named <subscriptionPrefix>-<topic>, created on first use.
type PubSubBus struct {
	client             *pubsub.Client
	subscriptionPrefix string
	ackDeadline        time.Duration
	logger             *zap.Logger

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// NewPubSubBus creates a Pub/Sub client for projectID. credentialsFile may
// be empty to use application default credentials.
func NewPubSubBus(ctx context.Context, projectID, credentialsFile, subscriptionPrefix string, ackDeadline time.Duration, logger *zap.Logger) (*PubSubBus, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	if subscriptionPrefix == "" {
		subscriptionPrefix = "cx-agent"
	}
	if ackDeadline <= 0 {
		ackDeadline = 60 * time.Second
	}
	return &PubSubBus{
		client:             client,
		subscriptionPrefix: subscriptionPrefix,
		ackDeadline:        ackDeadline,
		logger:             logger,
		topics:             make(map[string]*pubsub.Topic),
	}, nil
}

func (b *PubSubBus) topic(name string) *pubsub.Topic {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.topics[name]
	if !ok {
		t = b.client.Topic(name)
		b.topics[name] = t
	}
	return t
}

// Publish sends ev as a JSON message and waits for the server id
func (b *PubSubBus) Publish(ctx context.Context, topic string, ev core.Event) error {
	if err := validTopic(topic); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	result := b.topic(topic).Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"emailId": ev.EmailID},
	})
	id, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	b.logger.Debug("Published event", zap.String("topic", topic), zap.String("message_id", id))
	return nil
}

// Consume receives from the topic's subscription until ctx is cancelled.
// Handler errors nack the message so Pub/Sub redelivers it.
func (b *PubSubBus) Consume(ctx context.Context, topic string, handler ports.EventHandler) error {
	if err := validTopic(topic); err != nil {
		return err
	}
	sub, err := b.subscription(ctx, topic)
	if err != nil {
		return err
	}

	b.logger.Info("Listening for events",
		zap.String("topic", topic),
		zap.String("subscription", sub.ID()))

	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		var ev core.Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			b.logger.Error("Discarding undecodable message",
				zap.String("topic", topic),
				zap.String("message_id", msg.ID),
				zap.Error(err))
			msg.Ack()
			return
		}
		if err := handler(ctx, ev); err != nil {
			b.logger.Warn("Event handler failed, nacking",
				zap.String("topic", topic),
				zap.String("email_id", ev.EmailID),
				zap.Error(err))
			msg.Nack()
			return
		}
		msg.Ack()
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to receive from %s: %w", topic, err)
	}
	return ctx.Err()
}

func (b *PubSubBus) subscription(ctx context.Context, topic string) (*pubsub.Subscription, error) {
	name := b.subscriptionPrefix + "-" + topic
	sub := b.client.Subscription(name)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check subscription %s: %w", name, err)
	}
	if exists {
		return sub, nil
	}

	t := b.topic(topic)
	topicExists, err := t.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check topic %s: %w", topic, err)
	}
	if !topicExists {
		if t, err = b.client.CreateTopic(ctx, topic); err != nil {
			return nil, fmt.Errorf("failed to create topic %s: %w", topic, err)
		}
		b.mu.Lock()
		b.topics[topic] = t
		b.mu.Unlock()
	}

	sub, err = b.client.CreateSubscription(ctx, name, pubsub.SubscriptionConfig{
		Topic:       t,
		AckDeadline: b.ackDeadline,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription %s: %w", name, err)
	}
	b.logger.Info("Created subscription", zap.String("subscription", name))
	return sub, nil
}

// Close flushes pending publishes and closes the client
func (b *PubSubBus) Close() error {
	b.mu.Lock()
	for _, t := range b.topics {
		t.Stop()
	}
	b.mu.Unlock()
	return b.client.Close()
}
