package factory

import (
	"context"
	"fmt"

	"github.com/yash2163/ComplaintHandling-POC/internal/adapters/queue"
	"github.com/yash2163/ComplaintHandling-POC/internal/config"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"go.uber.org/zap"
)

// QueueFactory creates the event transport
type QueueFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewQueueFactory creates a new queue factory
func NewQueueFactory(cfg *config.Config, logger *zap.Logger) *QueueFactory {
	return &QueueFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateEventBus creates the event bus based on the configuration
func (f *QueueFactory) CreateEventBus(ctx context.Context) (ports.EventBus, error) {
	queueCfg, err := f.cfg.GetQueue()
	if err != nil {
		return nil, err
	}

	switch queueCfg.Type {
	case "memory":
		return queue.NewMemoryBus(queueCfg.Buffer, queueCfg.MaxAttempts, f.logger), nil
	case "redis":
		bus, err := queue.NewRedisBus(ctx, queueCfg.RedisURL, queueCfg.Namespace, queueCfg.MaxAttempts, f.logger)
		if err != nil {
			return nil, err
		}
		return bus, nil
	case "pubsub":
		if queueCfg.PubSubProject == "" {
			return nil, fmt.Errorf("queue.pubsub_project is required")
		}
		bus, err := queue.NewPubSubBus(ctx,
			queueCfg.PubSubProject,
			queueCfg.CredentialsFile,
			queueCfg.SubscriptionPrefix,
			queueCfg.AckDeadline,
			f.logger)
		if err != nil {
			return nil, err
		}
		return bus, nil
	default:
		return nil, fmt.Errorf("unsupported queue type: %s", queueCfg.Type)
	}
}
