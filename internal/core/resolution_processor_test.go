package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newResolutionFixture() (*fakeStore, *fakeExtractor, *fakeMailbox) {
	store := newFakeStore()
	store.emails["c1"] = &EmailRecord{
		ID:         "c1",
		Type:       EmailTypeComplaint,
		Status:     StatusProcessed,
		CxCaseID:   "CMP-2026-0001",
		ReceivedAt: fixedNow.Add(-48 * time.Hour),
		Metadata: &Metadata{Investigation: &InvestigationGrid{
			PNR:              "ABC123",
			CustomerName:     "Asha Rao",
			Complaint:        "Flight delayed five hours",
			WeatherCondition: "Fog (Vis: 1000m)",
		}},
	}
	store.emails["r1"] = &EmailRecord{
		ID:         "r1",
		Subject:    "RE: [ACTION REQUIRED] Investigation Request [Case: CMP-2026-0001]",
		Body:       "Action Taken: rebooked\nOutcome: meal voucher issued",
		Type:       EmailTypeResolution,
		Status:     StatusNew,
		CxCaseID:   "CMP-2026-0001",
		ReceivedAt: fixedNow,
	}

	ext := &fakeExtractor{
		resolution: &ResolutionGrid{ActionTaken: "Rebooked", Outcome: "Meal voucher issued"},
		evaluation: &Evaluation{
			Status:          ResolutionResolved,
			ConfidenceScore: 88,
			AgentSummary:    "Handled well",
			DraftResponse:   "Dear Asha, we are sorry.",
		},
	}
	return store, ext, &fakeMailbox{}
}

func newTestResolutionProcessor(store CaseStore, ext Extractor, mb Mailbox, metrics MetricsRecorder) *ResolutionProcessor {
	return NewResolutionProcessor(store, ext, mb, DefaultRoutingTable(), ProcessorSettings{
		DraftMailbox: "target@minfytech.com",
		Clock:        fixedClock,
		Metrics:      metrics,
	}, zap.NewNop())
}

func TestResolutionProcessorHappyPath(t *testing.T) {
	store, ext, mb := newResolutionFixture()
	p := newTestResolutionProcessor(store, ext, mb, nil)

	out, err := p.Process(context.Background(), Event{EmailID: "r1", CxCaseID: "CMP-2026-0001"})
	require.NoError(t, err)

	assert.Equal(t, StateOriginalUpdated, out.State)
	assert.Equal(t, "Flight delayed five hours", ext.gotSummary)
	require.Len(t, mb.drafts, 1)
	draft := mb.drafts[0]
	assert.Equal(t, DefaultCustomerMailbox, draft.Recipient)
	assert.Equal(t, "[FINAL DRAFT] Response for Case CMP-2026-0001 (Score: 88/100)", draft.Subject)
	assert.Contains(t, draft.Body, "Approve & Send")
	assert.Contains(t, draft.Body, "Asha Rao")
	assert.Contains(t, draft.Body, "#28a745")

	res := store.emails["r1"]
	assert.Equal(t, StatusProcessed, res.Status)
	assert.Equal(t, "RESOLVED", res.AgentAction)
	require.NotNil(t, res.Metadata.Score)
	assert.Equal(t, 88, *res.Metadata.Score)
	assert.Equal(t, "Rebooked", res.Metadata.Resolution.ActionTaken)

	orig := store.emails["c1"]
	assert.Equal(t, StatusResolved, orig.Status)
	assert.Equal(t, "r1", orig.ResolutionEmailID)
	assert.Equal(t, []string{"processed:r1", "resolved:c1"}, store.updates)
}

func TestResolutionProcessorWithoutCaseID(t *testing.T) {
	store, ext, mb := newResolutionFixture()
	store.emails["r1"].CxCaseID = ""
	store.emails["r1"].Subject = "RE: something"
	p := newTestResolutionProcessor(store, ext, mb, nil)

	out, err := p.Process(context.Background(), Event{EmailID: "r1"})
	require.NoError(t, err)

	assert.Equal(t, StateSkipped, out.State)
	assert.Empty(t, mb.drafts)
	assert.Empty(t, store.updates)
	assert.Equal(t, StatusNew, store.emails["r1"].Status)
}

func TestResolutionProcessorOriginalMissing(t *testing.T) {
	store, ext, mb := newResolutionFixture()
	delete(store.emails, "c1")
	p := newTestResolutionProcessor(store, ext, mb, nil)

	out, err := p.Process(context.Background(), Event{EmailID: "r1", CxCaseID: "CMP-2026-0001"})
	require.NoError(t, err)

	assert.Equal(t, StatePersisted, out.State)
	assert.False(t, out.OriginalUpdated)
	assert.Equal(t, PlaceholderComplaintSummary, ext.gotSummary)
	assert.Equal(t, []string{"processed:r1"}, store.updates)
}

func TestResolutionProcessorGridFromReplyWhenOriginalMissing(t *testing.T) {
	store, ext, mb := newResolutionFixture()
	delete(store.emails, "c1")
	quoted := InvestigationGrid{PNR: "QUOTED1", Complaint: "From the reply", WeatherCondition: WeatherUnknown}
	store.emails["r1"].Body = "Outcome: refunded\n\n" + EncodeGridBlock(quoted)
	p := newTestResolutionProcessor(store, ext, mb, nil)

	_, err := p.Process(context.Background(), Event{EmailID: "r1", CxCaseID: "CMP-2026-0001"})
	require.NoError(t, err)

	assert.Contains(t, mb.drafts[0].Body, "QUOTED1")
	assert.Equal(t, PlaceholderComplaintSummary, ext.gotSummary)
}

func TestResolutionProcessorDegradedAI(t *testing.T) {
	store, ext, mb := newResolutionFixture()
	ext.parseErr = errUnavailable
	ext.evalErr = errUnavailable
	metrics := newCountingMetrics()
	p := newTestResolutionProcessor(store, ext, mb, metrics)

	out, err := p.Process(context.Background(), Event{EmailID: "r1"})
	require.NoError(t, err)

	assert.Equal(t, ResolutionGrid{}, out.Resolution)
	assert.Equal(t, ResolutionFlagged, out.Evaluation.Status)
	assert.Equal(t, 0, out.Evaluation.ConfidenceScore)
	assert.Equal(t, "Error generating draft.", out.Evaluation.DraftResponse)
	assert.Equal(t, "[FINAL DRAFT] Response for Case CMP-2026-0001 (Score: 0/100)", mb.drafts[0].Subject)
	assert.Contains(t, mb.drafts[0].Body, "Review Required")
	assert.Contains(t, mb.drafts[0].Body, "#dc3545")
	assert.Equal(t, "FLAGGED", store.emails["r1"].AgentAction)
	assert.Equal(t, []string{CallParseResolution, CallEvaluateResolution}, store.emails["r1"].Metadata.Degraded)
	assert.Equal(t, 1, metrics.degraded[CallEvaluateResolution])
}

func TestResolutionProcessorBackLinkFailureIsLogged(t *testing.T) {
	store, ext, mb := newResolutionFixture()
	store.resolvedErr = errUnavailable
	p := newTestResolutionProcessor(store, ext, mb, nil)

	out, err := p.Process(context.Background(), Event{EmailID: "r1"})
	require.NoError(t, err)

	assert.Equal(t, StatePersisted, out.State)
	assert.False(t, out.OriginalUpdated)
	assert.Equal(t, StatusProcessed, store.emails["r1"].Status)
	assert.Equal(t, StatusProcessed, store.emails["c1"].Status)
}

func TestResolutionProcessorDraftFailure(t *testing.T) {
	store, ext, mb := newResolutionFixture()
	mb.err = errUnavailable
	p := newTestResolutionProcessor(store, ext, mb, nil)

	_, err := p.Process(context.Background(), Event{EmailID: "r1"})
	require.ErrorIs(t, err, errUnavailable)
	assert.Empty(t, store.updates)
}

func TestResolutionProcessorClampsScore(t *testing.T) {
	store, ext, mb := newResolutionFixture()
	ext.evaluation.ConfidenceScore = 140
	ext.evaluation.Status = "MAYBE"
	p := newTestResolutionProcessor(store, ext, mb, nil)

	out, err := p.Process(context.Background(), Event{EmailID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, 100, out.Evaluation.ConfidenceScore)
	assert.Equal(t, ResolutionFlagged, out.Evaluation.Status)
}
