package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// PlaceholderComplaintSummary stands in for the complaint when the original
// record cannot be found
const PlaceholderComplaintSummary = "Passenger Complaint"

// ResolutionOutcome reports what the resolution processor did with an event
type ResolutionOutcome struct {
	EmailID         string
	CaseID          string
	State           State
	SkipReason      string
	OriginalID      string
	OriginalUpdated bool
	Resolution      ResolutionGrid
	Evaluation      Evaluation
	DraftID         string
	Degraded        []string
}

// ResolutionProcessor closes the loop on a case once base ops reply:
// RECEIVED, CORRELATED, PARSED, EVALUATED, DRAFTED, PERSISTED, ORIGINAL_UPDATED.
type ResolutionProcessor struct {
	store      CaseStore
	extractor  Extractor
	mailbox    Mailbox
	correlator *Correlator
	routing    RoutingTable
	settings   ProcessorSettings
	logger     *zap.Logger
}

// NewResolutionProcessor creates a new resolution processor
func NewResolutionProcessor(
	store CaseStore,
	extractor Extractor,
	mailbox Mailbox,
	routing RoutingTable,
	settings ProcessorSettings,
	logger *zap.Logger,
) *ResolutionProcessor {
	return &ResolutionProcessor{
		store:      store,
		extractor:  extractor,
		mailbox:    mailbox,
		correlator: NewCorrelator(store, logger),
		routing:    routing,
		settings:   settings.withDefaults(routing),
		logger:     logger,
	}
}

// Process handles one new-resolution event. A resolution without a case id
// is skipped without a draft or any store mutation.
func (p *ResolutionProcessor) Process(ctx context.Context, ev Event) (*ResolutionOutcome, error) {
	out := &ResolutionOutcome{EmailID: ev.EmailID, State: StateReceived}
	transition(p.logger, ev.EmailID, StateReceived)

	rec, reason, err := loadRecord(ctx, p.store, ev, EmailTypeResolution, p.logger)
	if err != nil {
		p.settings.Metrics.ObserveOutcome("resolution", "error")
		return nil, err
	}
	if rec != nil {
		out.CaseID = firstNonEmpty(ev.CxCaseID, rec.CxCaseID, ExtractCaseID(rec.Subject, rec.Body))
		if out.CaseID == "" {
			reason = "no case id"
		}
	}
	if rec == nil || out.CaseID == "" {
		p.logger.Warn("Skipping resolution event", zap.String("email_id", ev.EmailID), zap.String("reason", reason))
		out.State = StateSkipped
		out.SkipReason = reason
		p.settings.Metrics.ObserveOutcome("resolution", "skipped")
		return out, nil
	}

	original := p.correlator.FindOriginalComplaint(ctx, out.CaseID)
	grid, summary := p.caseContext(original, rec)
	if original != nil {
		out.OriginalID = original.ID
	}
	out.State = StateCorrelated
	transition(p.logger, rec.ID, StateCorrelated)

	res, err := p.extractor.ParseResolution(ctx, rec.Body)
	if err != nil || res == nil {
		p.logger.Error("Resolution parsing failed, continuing without action or outcome",
			zap.String("email_id", rec.ID),
			zap.Error(err))
		res = &ResolutionGrid{}
		out.Degraded = append(out.Degraded, CallParseResolution)
		p.settings.Metrics.ObserveDegraded(CallParseResolution)
	}
	out.Resolution = *res
	out.State = StateParsed
	transition(p.logger, rec.ID, StateParsed)

	eval, err := p.extractor.EvaluateResolution(ctx, summary, out.Resolution)
	if err != nil || eval == nil {
		p.logger.Error("Resolution evaluation failed, flagging for review",
			zap.String("email_id", rec.ID),
			zap.Error(err))
		eval = DegradedEvaluation()
		out.Degraded = append(out.Degraded, CallEvaluateResolution)
		p.settings.Metrics.ObserveDegraded(CallEvaluateResolution)
	}
	if eval.Status != ResolutionResolved {
		eval.Status = ResolutionFlagged
	}
	eval.ConfidenceScore = ClampScore(eval.ConfidenceScore)
	out.Evaluation = *eval
	out.State = StateEvaluated
	transition(p.logger, rec.ID, StateEvaluated)

	subject := FinalSubject(out.CaseID, out.Evaluation.ConfidenceScore)
	body, err := ComposeFinalDraft(out.CaseID, grid, out.Resolution, out.Evaluation)
	if err != nil {
		return nil, err
	}

	draft, err := p.mailbox.CreateDraft(ctx, p.settings.DraftMailbox, subject, body, p.routing.CustomerMailbox())
	if err == nil && draft == nil {
		err = errNoDraft
	}
	if err != nil {
		p.settings.Metrics.ObserveOutcome("resolution", "error")
		return nil, fmt.Errorf("failed to create final draft for %s: %w", rec.ID, err)
	}
	out.DraftID = draft.ID
	out.State = StateDrafted
	p.settings.Metrics.ObserveDraft("resolution")
	transition(p.logger, rec.ID, StateDrafted)

	score := out.Evaluation.ConfidenceScore
	resolution := out.Resolution
	evaluation := out.Evaluation
	err = p.store.MarkProcessed(ctx, rec.ID, ProcessedUpdate{
		AgentAction: string(evaluation.Status),
		DraftID:     draft.ID,
		CxCaseID:    out.CaseID,
		ProcessedAt: p.settings.Clock(),
		Metadata: &Metadata{
			Score:      &score,
			Resolution: &resolution,
			Evaluation: &evaluation,
			Degraded:   out.Degraded,
		},
	})
	if err != nil {
		p.settings.Metrics.ObserveOutcome("resolution", "error")
		return nil, fmt.Errorf("failed to persist resolution %s: %w", rec.ID, err)
	}
	out.State = StatePersisted
	transition(p.logger, rec.ID, StatePersisted)

	if original != nil {
		// The resolution record is already persisted; a failure here leaves
		// the complaint un-linked until someone repairs it.
		if err := p.store.MarkResolved(ctx, original.ID, rec.ID); err != nil {
			p.logger.Error("Failed to mark original complaint resolved",
				zap.String("complaint_id", original.ID),
				zap.String("resolution_id", rec.ID),
				zap.Error(err))
		} else {
			out.OriginalUpdated = true
			out.State = StateOriginalUpdated
			transition(p.logger, rec.ID, StateOriginalUpdated)
		}
	} else {
		p.logger.Warn("Resolution processed without original complaint",
			zap.String("email_id", rec.ID),
			zap.String("case_id", out.CaseID))
	}

	p.settings.Metrics.ObserveOutcome("resolution", string(out.Evaluation.Status))
	return out, nil
}

// caseContext picks the grid to show on the final draft and the complaint
// summary used for evaluation
func (p *ResolutionProcessor) caseContext(original, reply *EmailRecord) (InvestigationGrid, string) {
	if original != nil && original.Metadata != nil && original.Metadata.Investigation != nil {
		grid := original.Metadata.Investigation.Normalized()
		return grid, firstNonEmpty(grid.Complaint, PlaceholderComplaintSummary)
	}

	// Without the stored grid, fall back to the block quoted in the reply.
	// It is only used for display; evaluation still gets the placeholder.
	if grid, ok := ParseGridBlock(reply.Body); ok {
		return grid, PlaceholderComplaintSummary
	}
	return InvestigationGrid{WeatherCondition: WeatherUnknown}, PlaceholderComplaintSummary
}
