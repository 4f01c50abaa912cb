package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newComplaintFixture() (*fakeStore, *fakeExtractor, *fakeMailbox) {
	store := newFakeStore()
	store.emails["m1"] = &EmailRecord{
		ID:         "m1",
		Subject:    "Delayed flight",
		Body:       "My flight 6E-2341 on PNR ABC123 was delayed by five hours.",
		Type:       EmailTypeComplaint,
		Status:     StatusNew,
		CxCaseID:   "CMP-2026-0001",
		ReceivedAt: fixedNow,
	}
	store.passengers["ABC123"] = &Passenger{
		PNR:          "ABC123",
		CustomerName: "Asha Rao",
		FlightNumber: "6E-2341",
		FlightDate:   "2026-01-10",
		SeatNumber:   "12A",
		Source:       "DEL",
		Destination:  "BOM",
	}
	store.weather["6E-2341_2026-01-10"] = &Weather{FlightNumber: "6E-2341", OriginStation: "DEL", Weather: "Fog", Visibility: "1000m"}

	ext := &fakeExtractor{extraction: &Extraction{
		PNR:              "ABC123",
		ComplaintSummary: "Flight delayed five hours",
		IssueType:        IssueFlightDelay,
		ConfidenceScore:  85,
	}}
	return store, ext, &fakeMailbox{}
}

func newTestComplaintProcessor(store CaseStore, ext Extractor, mb Mailbox, metrics MetricsRecorder) *ComplaintProcessor {
	return NewComplaintProcessor(store, ext, mb, DefaultRoutingTable(), ProcessorSettings{
		DraftMailbox: "target@minfytech.com",
		NewCaseID:    func() string { return "CMP-MINTED" },
		Clock:        fixedClock,
		Metrics:      metrics,
	}, zap.NewNop())
}

func TestComplaintProcessorHappyPath(t *testing.T) {
	store, ext, mb := newComplaintFixture()
	metrics := newCountingMetrics()
	p := newTestComplaintProcessor(store, ext, mb, metrics)

	out, err := p.Process(context.Background(), Event{EmailID: "m1", CxCaseID: "CMP-2026-0001"})
	require.NoError(t, err)

	assert.Equal(t, StatePersisted, out.State)
	assert.Equal(t, RouteStation, out.Route.Class)
	require.Len(t, mb.drafts, 1)
	draft := mb.drafts[0]
	assert.Equal(t, "target@minfytech.com", draft.Mailbox)
	assert.Equal(t, "BASEOPSDELHI@minfytech.com", draft.Recipient)
	assert.Equal(t, "[ACTION REQUIRED] Investigation Request: Delayed flight - PNR: ABC123 [Case: CMP-2026-0001]", draft.Subject)

	rec := store.emails["m1"]
	assert.Equal(t, StatusProcessed, rec.Status)
	assert.Equal(t, ActionRouteToOps, rec.AgentAction)
	assert.Equal(t, "draft-1", rec.DraftID)
	require.NotNil(t, rec.ProcessedAt)
	assert.Equal(t, fixedNow, *rec.ProcessedAt)
	require.NotNil(t, rec.Metadata)
	require.NotNil(t, rec.Metadata.Investigation)
	assert.Equal(t, "Fog (Vis: 1000m)", rec.Metadata.Investigation.WeatherCondition)
	assert.Equal(t, "Asha Rao", rec.Metadata.Investigation.CustomerName)
	assert.Empty(t, rec.Metadata.Degraded)

	assert.Equal(t, 1, metrics.outcomes["complaint/processed"])
	assert.Equal(t, 1, metrics.routes[RouteStation])

	grid, ok := ParseGridBlock(draft.Body)
	require.True(t, ok)
	assert.Equal(t, *rec.Metadata.Investigation, grid)
}

func TestComplaintProcessorExtractionFailure(t *testing.T) {
	store, ext, mb := newComplaintFixture()
	ext.extractErr = errUnavailable
	metrics := newCountingMetrics()
	p := newTestComplaintProcessor(store, ext, mb, metrics)

	out, err := p.Process(context.Background(), Event{EmailID: "m1"})
	require.NoError(t, err)

	assert.Equal(t, RouteUnmatched, out.Route.Class)
	assert.Equal(t, DefaultCaseReviewMailbox, mb.drafts[0].Recipient)
	assert.Equal(t, "Delayed flight", out.Grid.Complaint)
	assert.Equal(t, IssueOther, out.Grid.IssueType)
	assert.Equal(t, 0, out.Grid.ConfidenceScore)
	assert.Empty(t, out.Grid.PNR)
	assert.Contains(t, mb.drafts[0].Subject, "PNR: N/A")
	assert.Equal(t, []string{CallExtractComplaint}, store.emails["m1"].Metadata.Degraded)
	assert.Equal(t, ActionRouteUnmatched, store.emails["m1"].AgentAction)
	assert.Equal(t, 1, metrics.degraded[CallExtractComplaint])
}

func TestComplaintProcessorUnknownStation(t *testing.T) {
	store, ext, mb := newComplaintFixture()
	store.passengers["ABC123"].Source = "MAA"
	p := newTestComplaintProcessor(store, ext, mb, nil)

	out, err := p.Process(context.Background(), Event{EmailID: "m1"})
	require.NoError(t, err)

	assert.Equal(t, RouteUnknownStation, out.Route.Class)
	assert.Equal(t, DefaultCaseReviewMailbox, mb.drafts[0].Recipient)
	assert.Equal(t, WeatherUnknown, out.Grid.WeatherCondition, "weather origin must match the passenger")
}

func TestComplaintProcessorMintsCaseID(t *testing.T) {
	store, ext, mb := newComplaintFixture()
	store.emails["m1"].CxCaseID = ""
	p := newTestComplaintProcessor(store, ext, mb, nil)

	out, err := p.Process(context.Background(), Event{EmailID: "m1"})
	require.NoError(t, err)

	assert.Equal(t, "CMP-MINTED", out.CaseID)
	assert.Equal(t, "CMP-MINTED", store.emails["m1"].CxCaseID)
	assert.Equal(t, "CMP-MINTED", ExtractCaseID(mb.drafts[0].Subject, ""))
}

func TestComplaintProcessorDraftFailureLeavesRecordNew(t *testing.T) {
	store, ext, mb := newComplaintFixture()
	mb.err = errUnavailable
	p := newTestComplaintProcessor(store, ext, mb, nil)

	_, err := p.Process(context.Background(), Event{EmailID: "m1"})
	require.ErrorIs(t, err, errUnavailable)
	assert.Equal(t, StatusNew, store.emails["m1"].Status)
	assert.Empty(t, store.updates)
}

func TestComplaintProcessorStoreFaultsPropagate(t *testing.T) {
	store, ext, mb := newComplaintFixture()
	store.getErr = errUnavailable
	p := newTestComplaintProcessor(store, ext, mb, nil)

	_, err := p.Process(context.Background(), Event{EmailID: "m1"})
	assert.ErrorIs(t, err, errUnavailable)

	store.getErr = nil
	store.updateErr = errUnavailable
	_, err = p.Process(context.Background(), Event{EmailID: "m1"})
	assert.ErrorIs(t, err, errUnavailable)
	assert.Len(t, mb.drafts, 1, "draft is created before the store update")
}

func TestComplaintProcessorSkips(t *testing.T) {
	store, ext, mb := newComplaintFixture()
	store.emails["r1"] = &EmailRecord{ID: "r1", Type: EmailTypeResolution, Status: StatusNew}
	store.emails["m1"].Status = StatusProcessed
	p := newTestComplaintProcessor(store, ext, mb, nil)

	for _, id := range []string{"missing", "r1", "m1", ""} {
		out, err := p.Process(context.Background(), Event{EmailID: id})
		require.NoError(t, err)
		assert.Equal(t, StateSkipped, out.State, id)
	}
	assert.Empty(t, mb.drafts)
	assert.Empty(t, store.updates)
}
