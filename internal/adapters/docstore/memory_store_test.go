package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"go.uber.org/zap"
)

func TestMemoryStoreGetSetUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zap.NewNop())

	_, err := s.Get(ctx, "emails", "m1")
	assert.ErrorIs(t, err, ports.ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, "emails", "m1", ports.Document{"status": "PROCESSED"}), ports.ErrNotFound)

	require.NoError(t, s.Set(ctx, "emails", "m1", ports.Document{"status": "NEW", "subject": "Delayed"}))
	require.NoError(t, s.Update(ctx, "emails", "m1", ports.Document{"status": "PROCESSED"}))

	doc, err := s.Get(ctx, "emails", "m1")
	require.NoError(t, err)
	assert.Equal(t, ports.Document{"status": "PROCESSED", "subject": "Delayed"}, doc)

	doc["status"] = "mutated"
	again, err := s.Get(ctx, "emails", "m1")
	require.NoError(t, err)
	assert.Equal(t, "PROCESSED", again["status"], "returned documents are copies")
}

func TestMemoryStoreQuery(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zap.NewNop())
	base := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

	require.NoError(t, s.Set(ctx, "emails", "old", ports.Document{"type": "COMPLAINT", "cxCaseId": "C1", "receivedAt": base}))
	require.NoError(t, s.Set(ctx, "emails", "new", ports.Document{"type": "COMPLAINT", "cxCaseId": "C1", "receivedAt": base.Add(time.Hour).Format(time.RFC3339Nano)}))
	require.NoError(t, s.Set(ctx, "emails", "reply", ports.Document{"type": "RESOLUTION", "cxCaseId": "C1", "receivedAt": base.Add(2 * time.Hour)}))
	require.NoError(t, s.Set(ctx, "emails", "other", ports.Document{"type": "COMPLAINT", "cxCaseId": "C2", "receivedAt": base}))

	snaps, err := s.Query(ctx, "emails",
		[]ports.Filter{{Field: "type", Value: "COMPLAINT"}, {Field: "cxCaseId", Value: "C1"}},
		ports.QueryOptions{OrderBy: "receivedAt", Descending: true})
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "new", snaps[0].ID)
	assert.Equal(t, "old", snaps[1].ID)

	snaps, err = s.Query(ctx, "emails",
		[]ports.Filter{{Field: "cxCaseId", Value: "C1"}},
		ports.QueryOptions{OrderBy: "receivedAt", Descending: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "reply", snaps[0].ID)

	_, err = s.Query(ctx, "emails", []ports.Filter{{Field: "bad field'", Value: 1}}, ports.QueryOptions{})
	assert.Error(t, err)
}

func TestSortAndLimitMissingFieldsLast(t *testing.T) {
	snaps := []ports.Snapshot{
		{ID: "none", Data: ports.Document{}},
		{ID: "low", Data: ports.Document{"score": 10}},
		{ID: "high", Data: ports.Document{"score": 90.5}},
	}

	out := sortAndLimit(snaps, ports.QueryOptions{OrderBy: "score", Descending: true})
	assert.Equal(t, "high", out[0].ID)
	assert.Equal(t, "low", out[1].ID)
	assert.Equal(t, "none", out[2].ID)

	out = sortAndLimit(out, ports.QueryOptions{OrderBy: "score"})
	assert.Equal(t, "low", out[0].ID)
	assert.Equal(t, "none", out[2].ID)
}
