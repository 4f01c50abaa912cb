package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"go.uber.org/zap"
)

func TestMemoryBusDelivers(t *testing.T) {
	bus := NewMemoryBus(8, 3, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, bus.Publish(ctx, core.TopicComplaint, core.Event{EmailID: "m1"}))
	require.NoError(t, bus.Publish(ctx, core.TopicResolution, core.Event{EmailID: "r1", CxCaseID: "CMP-1"}))
	assert.Equal(t, 1, bus.Pending(core.TopicComplaint))

	got := make(chan core.Event, 1)
	go bus.Consume(ctx, core.TopicResolution, func(_ context.Context, ev core.Event) error {
		got <- ev
		return nil
	})

	select {
	case ev := <-got:
		assert.Equal(t, core.Event{EmailID: "r1", CxCaseID: "CMP-1"}, ev)
	case <-ctx.Done():
		t.Fatal("event not delivered")
	}
	assert.Equal(t, 1, bus.Pending(core.TopicComplaint), "other topics are untouched")
}

func TestMemoryBusRetriesThenDrops(t *testing.T) {
	bus := NewMemoryBus(8, 3, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	attempts := map[string]int{}
	done := make(chan struct{})
	handler := func(_ context.Context, ev core.Event) error {
		mu.Lock()
		defer mu.Unlock()
		attempts[ev.EmailID]++
		if ev.EmailID == "ok" && attempts["ok"] == 2 {
			close(done)
			return nil
		}
		if ev.EmailID == "ok" {
			return errors.New("transient")
		}
		return errors.New("permanent")
	}

	require.NoError(t, bus.Publish(ctx, "t", core.Event{EmailID: "bad"}))
	require.NoError(t, bus.Publish(ctx, "t", core.Event{EmailID: "ok"}))
	go bus.Consume(ctx, "t", handler)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not retried")
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts["bad"] == 3
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return bus.Pending("t") == 0 }, time.Second, 10*time.Millisecond)
}

func TestMemoryBusRequeueWithFullBuffer(t *testing.T) {
	bus := NewMemoryBus(1, 3, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	firstAttempt := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var handled []string
	handler := func(_ context.Context, ev core.Event) error {
		mu.Lock()
		n := 0
		for _, id := range handled {
			if id == ev.EmailID {
				n++
			}
		}
		handled = append(handled, ev.EmailID)
		mu.Unlock()

		if ev.EmailID == "m1" && n == 0 {
			close(firstAttempt)
			<-release
			return errors.New("transient")
		}
		return nil
	}

	require.NoError(t, bus.Publish(ctx, "t", core.Event{EmailID: "m1"}))
	go bus.Consume(ctx, "t", handler)

	<-firstAttempt
	require.NoError(t, bus.Publish(ctx, "t", core.Event{EmailID: "m2"}))
	close(release)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(handled) == 3
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"m1", "m2", "m1"}, handled)
}

func TestMemoryBusClosed(t *testing.T) {
	bus := NewMemoryBus(1, 1, zap.NewNop())
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(context.Background(), "t", core.Event{EmailID: "m1"}), ErrClosed)
	assert.Error(t, bus.Publish(context.Background(), "", core.Event{}))
}

func TestMemoryBusConsumeStopsOnCancel(t *testing.T) {
	bus := NewMemoryBus(1, 1, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bus.Consume(ctx, "t", func(context.Context, core.Event) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	env := newEnvelope("t", core.Event{EmailID: "m1", CxCaseID: "CMP-1"})
	env.Attempts = 2
	data, err := env.encode()
	require.NoError(t, err)

	decoded, err := decodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, env.ID, decoded.ID)
	assert.Equal(t, env.Event, decoded.Event)
	assert.Equal(t, 2, decoded.Attempts)

	_, err = decodeEnvelope([]byte("{"))
	assert.Error(t, err)
}
