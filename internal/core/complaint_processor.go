package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ComplaintOutcome reports what the complaint processor did with an event
type ComplaintOutcome struct {
	EmailID    string
	CaseID     string
	State      State
	SkipReason string
	Grid       InvestigationGrid
	Route      RouteDecision
	DraftID    string
	Degraded   []string
}

// ComplaintProcessor turns an inbound complaint into an investigation request
// for base ops: RECEIVED, EXTRACTED, ENRICHED, ROUTED, DRAFTED, PERSISTED.
type ComplaintProcessor struct {
	store     CaseStore
	extractor Extractor
	mailbox   Mailbox
	resolver  *Resolver
	routing   RoutingTable
	settings  ProcessorSettings
	logger    *zap.Logger
}

// NewComplaintProcessor creates a new complaint processor
func NewComplaintProcessor(
	store CaseStore,
	extractor Extractor,
	mailbox Mailbox,
	routing RoutingTable,
	settings ProcessorSettings,
	logger *zap.Logger,
) *ComplaintProcessor {
	return &ComplaintProcessor{
		store:     store,
		extractor: extractor,
		mailbox:   mailbox,
		resolver:  NewResolver(store, logger),
		routing:   routing,
		settings:  settings.withDefaults(routing),
		logger:    logger,
	}
}

// Process handles one new-complaint event. Collaborator faults degrade the
// result; a returned error means the event should be redelivered.
func (p *ComplaintProcessor) Process(ctx context.Context, ev Event) (*ComplaintOutcome, error) {
	out := &ComplaintOutcome{EmailID: ev.EmailID, State: StateReceived}
	transition(p.logger, ev.EmailID, StateReceived)

	rec, reason, err := loadRecord(ctx, p.store, ev, EmailTypeComplaint, p.logger)
	if err != nil {
		p.settings.Metrics.ObserveOutcome("complaint", "error")
		return nil, err
	}
	if rec == nil {
		p.logger.Warn("Skipping complaint event", zap.String("email_id", ev.EmailID), zap.String("reason", reason))
		out.State = StateSkipped
		out.SkipReason = reason
		p.settings.Metrics.ObserveOutcome("complaint", "skipped")
		return out, nil
	}

	out.CaseID = firstNonEmpty(ev.CxCaseID, rec.CxCaseID, ExtractCaseID(rec.Subject, rec.Body))
	if out.CaseID == "" {
		out.CaseID = p.settings.NewCaseID()
		p.logger.Info("Minted case id for complaint", zap.String("email_id", rec.ID), zap.String("case_id", out.CaseID))
	}

	ext, err := p.extractor.ExtractComplaint(ctx, rec.Subject, rec.Body, rec.ReceivedAt)
	if err != nil || ext == nil {
		p.logger.Error("Complaint extraction failed, using degraded extraction",
			zap.String("email_id", rec.ID),
			zap.Error(err))
		ext = DegradedExtraction()
		out.Degraded = append(out.Degraded, CallExtractComplaint)
		p.settings.Metrics.ObserveDegraded(CallExtractComplaint)
	}
	ext.IssueType = NormalizeIssueType(string(ext.IssueType))
	ext.ConfidenceScore = ClampScore(ext.ConfidenceScore)
	out.State = StateExtracted
	transition(p.logger, rec.ID, StateExtracted)

	enrichment := p.resolver.Enrich(ctx, ext.PNR)
	out.Grid = BuildInvestigationGrid(rec.Subject, ext, enrichment.Passenger, enrichment.Weather)
	out.State = StateEnriched
	transition(p.logger, rec.ID, StateEnriched)

	out.Route = p.routing.Route(enrichment.Passenger)
	p.settings.Metrics.ObserveRoute(out.Route.Class)
	out.State = StateRouted
	transition(p.logger, rec.ID, StateRouted)
	p.logger.Info("Complaint routed",
		zap.String("email_id", rec.ID),
		zap.String("case_id", out.CaseID),
		zap.String("class", string(out.Route.Class)),
		zap.String("mailbox", out.Route.Mailbox))

	subject := InvestigationSubject(rec.Subject, out.Grid.PNR, out.CaseID)
	body, err := ComposeInvestigationDraft(out.CaseID, rec.Body, out.Grid, out.Route, enrichment.Weather)
	if err != nil {
		return nil, err
	}

	draft, err := p.mailbox.CreateDraft(ctx, p.settings.DraftMailbox, subject, body, out.Route.Mailbox)
	if err == nil && draft == nil {
		err = errNoDraft
	}
	if err != nil {
		p.settings.Metrics.ObserveOutcome("complaint", "error")
		return nil, fmt.Errorf("failed to create investigation draft for %s: %w", rec.ID, err)
	}
	out.DraftID = draft.ID
	out.State = StateDrafted
	p.settings.Metrics.ObserveDraft("complaint")
	transition(p.logger, rec.ID, StateDrafted)

	grid := out.Grid
	route := out.Route
	err = p.store.MarkProcessed(ctx, rec.ID, ProcessedUpdate{
		AgentAction: route.Action,
		DraftID:     draft.ID,
		CxCaseID:    out.CaseID,
		ProcessedAt: p.settings.Clock(),
		Metadata: &Metadata{
			Investigation: &grid,
			Route:         &route,
			Degraded:      out.Degraded,
		},
	})
	if err != nil {
		p.settings.Metrics.ObserveOutcome("complaint", "error")
		return nil, fmt.Errorf("failed to persist complaint %s: %w", rec.ID, err)
	}
	out.State = StatePersisted
	transition(p.logger, rec.ID, StatePersisted)
	p.settings.Metrics.ObserveOutcome("complaint", "processed")

	return out, nil
}
