package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"go.uber.org/zap"
)

// Result says what happened to one inbound message
type Result string

const (
	ResultIngested  Result = "ingested"
	ResultDuplicate Result = "duplicate"
	ResultNoCaseID  Result = "no_case_id"
	ResultUntrusted Result = "untrusted_sender"
)

// EmailStore is the part of the case repository ingestion writes to
type EmailStore interface {
	EmailExists(ctx context.Context, id string) (bool, error)
	SaveEmail(ctx context.Context, rec *core.EmailRecord) error
}

// SenderPolicy decides whether a sender may file a resolution
type SenderPolicy interface {
	Allows(from string) bool
}

// Ingester turns inbound messages into NEW email records and events.
// A message whose id is already stored is ignored entirely.
type Ingester struct {
	store     EmailStore
	publisher ports.EventPublisher
	metrics   core.MetricsRecorder
	senders   SenderPolicy
	logger    *zap.Logger
	now       func() time.Time
}

// NewIngester creates a new ingester. metrics may be nil.
func NewIngester(store EmailStore, publisher ports.EventPublisher, metrics core.MetricsRecorder, logger *zap.Logger) *Ingester {
	return &Ingester{
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// RestrictResolutionSenders drops resolutions from senders policy rejects
func (i *Ingester) RestrictResolutionSenders(policy SenderPolicy) {
	i.senders = policy
}

// TopicFor returns the event topic for an email type
func TopicFor(kind core.EmailType) string {
	if kind == core.EmailTypeResolution {
		return core.TopicResolution
	}
	return core.TopicComplaint
}

// Ingest stores msg as a NEW record of the given type and publishes its
// event. Resolutions without a case id are not stored.
func (i *Ingester) Ingest(ctx context.Context, kind core.EmailType, msg ports.InboundMessage) (Result, error) {
	exists, err := i.store.EmailExists(ctx, msg.ID)
	if err != nil {
		return "", err
	}
	if exists {
		i.logger.Debug("Email already ingested", zap.String("email_id", msg.ID))
		i.observe(kind, ResultDuplicate)
		return ResultDuplicate, nil
	}

	if kind == core.EmailTypeResolution && i.senders != nil && !i.senders.Allows(msg.From) {
		i.logger.Warn("Ignoring resolution from untrusted sender",
			zap.String("email_id", msg.ID),
			zap.String("from", msg.From))
		i.observe(kind, ResultUntrusted)
		return ResultUntrusted, nil
	}

	caseID := core.ExtractCaseID(msg.Subject, msg.Body)
	if kind == core.EmailTypeResolution && caseID == "" {
		i.logger.Warn("Skipping resolution email without case id",
			zap.String("email_id", msg.ID),
			zap.String("subject", msg.Subject))
		i.observe(kind, ResultNoCaseID)
		return ResultNoCaseID, nil
	}

	receivedAt := msg.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = i.now()
	}
	rec := &core.EmailRecord{
		ID:         msg.ID,
		Subject:    msg.Subject,
		Body:       msg.Body,
		From:       msg.From,
		ReceivedAt: receivedAt.UTC(),
		Type:       kind,
		Status:     core.StatusNew,
		CxCaseID:   caseID,
	}
	if err := i.store.SaveEmail(ctx, rec); err != nil {
		return "", err
	}

	topic := TopicFor(kind)
	if err := i.publisher.Publish(ctx, topic, core.Event{EmailID: msg.ID, CxCaseID: caseID}); err != nil {
		// The record is stored but no processor will see it until the
		// event is replayed.
		return "", fmt.Errorf("failed to publish %s for %s: %w", topic, msg.ID, err)
	}

	i.logger.Info("Email ingested",
		zap.String("email_id", msg.ID),
		zap.String("type", string(kind)),
		zap.String("case_id", caseID))
	i.observe(kind, ResultIngested)
	return ResultIngested, nil
}

func (i *Ingester) observe(kind core.EmailType, result Result) {
	if i.metrics != nil {
		i.metrics.ObserveOutcome("ingest_"+string(kind), string(result))
	}
}
