package worker

import (
	"context"
	"fmt"

	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ComplaintProcessor handles new-complaint events
type ComplaintProcessor interface {
	Process(ctx context.Context, ev core.Event) (*core.ComplaintOutcome, error)
}

// ResolutionProcessor handles new-resolution events
type ResolutionProcessor interface {
	Process(ctx context.Context, ev core.Event) (*core.ResolutionOutcome, error)
}

// Dispatcher binds topics to handlers and consumes them concurrently
type Dispatcher struct {
	consumer ports.EventConsumer
	handlers map[string]ports.EventHandler
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher for the complaint and resolution topics
func NewDispatcher(consumer ports.EventConsumer, complaints ComplaintProcessor, resolutions ResolutionProcessor, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		consumer: consumer,
		handlers: make(map[string]ports.EventHandler),
		logger:   logger,
	}
	d.Handle(core.TopicComplaint, ComplaintHandler(complaints, logger))
	d.Handle(core.TopicResolution, ResolutionHandler(resolutions, logger))
	return d
}

// Handle registers handler for topic, replacing any earlier one
func (d *Dispatcher) Handle(topic string, handler ports.EventHandler) {
	d.handlers[topic] = handler
}

// Topics lists the registered topics
func (d *Dispatcher) Topics() []string {
	topics := make([]string, 0, len(d.handlers))
	for t := range d.handlers {
		topics = append(topics, t)
	}
	return topics
}

// Run consumes every registered topic until ctx is done or one consumer
// fails. Shutdown is not an error.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for topic, handler := range d.handlers {
		topic, handler := topic, handler
		g.Go(func() error {
			d.logger.Info("Starting consumer", zap.String("topic", topic))
			err := d.consumer.Consume(ctx, topic, handler)
			if err != nil && ctx.Err() == nil {
				return fmt.Errorf("consumer for %s stopped: %w", topic, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// ComplaintHandler adapts a complaint processor to an event handler
func ComplaintHandler(p ComplaintProcessor, logger *zap.Logger) ports.EventHandler {
	return func(ctx context.Context, ev core.Event) error {
		out, err := p.Process(ctx, ev)
		if err != nil {
			return err
		}
		logger.Info("Complaint handled",
			zap.String("email_id", out.EmailID),
			zap.String("case_id", out.CaseID),
			zap.String("state", string(out.State)),
			zap.String("route", string(out.Route.Class)))
		return nil
	}
}

// ResolutionHandler adapts a resolution processor to an event handler
func ResolutionHandler(p ResolutionProcessor, logger *zap.Logger) ports.EventHandler {
	return func(ctx context.Context, ev core.Event) error {
		out, err := p.Process(ctx, ev)
		if err != nil {
			return err
		}
		logger.Info("Resolution handled",
			zap.String("email_id", out.EmailID),
			zap.String("case_id", out.CaseID),
			zap.String("state", string(out.State)),
			zap.Int("score", out.Evaluation.ConfidenceScore))
		return nil
	}
}
