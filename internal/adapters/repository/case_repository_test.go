package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yash2163/ComplaintHandling-POC/internal/adapters/docstore"
	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"go.uber.org/zap"
)

var received = time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

func newTestRepository() (*CaseRepository, *docstore.MemoryStore) {
	store := docstore.NewMemoryStore(zap.NewNop())
	repo := NewCaseRepository(store, zap.NewNop())
	repo.now = func() time.Time { return received.Add(time.Minute) }
	return repo, store
}

func TestEmailLifecycle(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository()

	exists, err := repo.EmailExists(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, exists)

	rec, err := repo.GetEmail(ctx, "m1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, repo.SaveEmail(ctx, &core.EmailRecord{
		ID:         "m1",
		Subject:    "Delayed flight",
		Body:       "PNR ABC123",
		ReceivedAt: received,
		Type:       core.EmailTypeComplaint,
		Status:     core.StatusNew,
		CxCaseID:   "CMP-2026-0001",
	}))

	exists, err = repo.EmailExists(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, exists)

	score := 77
	require.NoError(t, repo.MarkProcessed(ctx, "m1", core.ProcessedUpdate{
		AgentAction: core.ActionRouteToOps,
		DraftID:     "draft-1",
		CxCaseID:    "CMP-2026-0001",
		ProcessedAt: received.Add(time.Hour),
		Metadata: &core.Metadata{
			Investigation: &core.InvestigationGrid{PNR: "ABC123", WeatherCondition: "-", ConfidenceScore: 77},
			Score:         &score,
		},
	}))
	require.NoError(t, repo.MarkResolved(ctx, "m1", "r1"))

	rec, err = repo.GetEmail(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, core.StatusResolved, rec.Status)
	assert.Equal(t, "r1", rec.ResolutionEmailID)
	assert.Equal(t, core.ActionRouteToOps, rec.AgentAction)
	assert.Equal(t, "draft-1", rec.DraftID)
	assert.True(t, rec.ReceivedAt.Equal(received))
	assert.True(t, rec.SavedAt.Equal(received.Add(time.Minute)))
	require.NotNil(t, rec.ProcessedAt)
	assert.True(t, rec.ProcessedAt.Equal(received.Add(time.Hour)))
	require.NotNil(t, rec.Metadata)
	assert.Equal(t, "ABC123", rec.Metadata.Investigation.PNR)
	assert.Equal(t, 77, *rec.Metadata.Score)
}

func TestMarkProcessedMissingRecord(t *testing.T) {
	repo, _ := newTestRepository()

	err := repo.MarkProcessed(context.Background(), "missing", core.ProcessedUpdate{})
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestFindLatestComplaint(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository()

	save := func(id string, typ core.EmailType, caseID string, at time.Time) {
		require.NoError(t, repo.SaveEmail(ctx, &core.EmailRecord{ID: id, Type: typ, Status: core.StatusNew, CxCaseID: caseID, ReceivedAt: at}))
	}
	save("first", core.EmailTypeComplaint, "C1", received)
	save("second", core.EmailTypeComplaint, "C1", received.Add(time.Hour))
	save("reply", core.EmailTypeResolution, "C1", received.Add(2*time.Hour))
	save("other", core.EmailTypeComplaint, "C2", received.Add(3*time.Hour))

	rec, err := repo.FindLatestComplaint(ctx, "C1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "second", rec.ID)

	rec, err = repo.FindLatestComplaint(ctx, "C9")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestPassengerAndWeather(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository()

	require.NoError(t, repo.SavePassenger(ctx, &core.Passenger{PNR: "ABC123", CustomerName: "Asha Rao", Source: "DEL"}))
	require.NoError(t, repo.SaveWeather(ctx, &core.Weather{FlightNumber: "6E-2341", Date: "2026-01-10", Weather: "Fog", Visibility: "1000m"}))
	assert.Error(t, repo.SavePassenger(ctx, &core.Passenger{}))
	assert.Error(t, repo.SaveWeather(ctx, &core.Weather{FlightNumber: "6E-2341"}))

	p, err := repo.GetPassenger(ctx, "ABC123")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Asha Rao", p.CustomerName)

	p, err = repo.GetPassenger(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, p)

	w, err := repo.GetWeather(ctx, "6E-2341", "2026-01-10")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, "Fog (Vis: 1000m)", w.Condition())

	w, err = repo.GetWeather(ctx, "6E-2341", "2026-01-11")
	require.NoError(t, err)
	assert.Nil(t, w)
}
