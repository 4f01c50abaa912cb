package worker

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"go.uber.org/zap"
)

type stubComplaints struct {
	mu  sync.Mutex
	got []core.Event
	err error
}

func (s *stubComplaints) Process(_ context.Context, ev core.Event) (*core.ComplaintOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, ev)
	if s.err != nil {
		return nil, s.err
	}
	return &core.ComplaintOutcome{EmailID: ev.EmailID, State: core.StatePersisted}, nil
}

type stubResolutions struct {
	got []core.Event
}

func (s *stubResolutions) Process(_ context.Context, ev core.Event) (*core.ResolutionOutcome, error) {
	s.got = append(s.got, ev)
	return &core.ResolutionOutcome{EmailID: ev.EmailID, State: core.StateOriginalUpdated}, nil
}

// scriptedConsumer feeds a fixed list of events per topic and records the
// handler results
type scriptedConsumer struct {
	mu      sync.Mutex
	events  map[string][]core.Event
	results map[string][]error
	fail    error
}

func (c *scriptedConsumer) Consume(ctx context.Context, topic string, handler ports.EventHandler) error {
	if c.fail != nil {
		return c.fail
	}
	for _, ev := range c.events[topic] {
		err := handler(ctx, ev)
		c.mu.Lock()
		c.results[topic] = append(c.results[topic], err)
		c.mu.Unlock()
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestDispatcherRoutesTopics(t *testing.T) {
	consumer := &scriptedConsumer{
		events: map[string][]core.Event{
			core.TopicComplaint:  {{EmailID: "m1"}},
			core.TopicResolution: {{EmailID: "r1", CxCaseID: "CMP-1"}},
		},
		results: map[string][]error{},
	}
	complaints := &stubComplaints{}
	resolutions := &stubResolutions{}
	d := NewDispatcher(consumer, complaints, resolutions, zap.NewNop())

	topics := d.Topics()
	sort.Strings(topics)
	assert.Equal(t, []string{core.TopicComplaint, core.TopicResolution}, topics)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, d.Run(ctx))

	assert.Equal(t, []core.Event{{EmailID: "m1"}}, complaints.got)
	assert.Equal(t, []core.Event{{EmailID: "r1", CxCaseID: "CMP-1"}}, resolutions.got)
	assert.Equal(t, []error{nil}, consumer.results[core.TopicComplaint])
}

func TestDispatcherReturnsProcessorErrorsToTransport(t *testing.T) {
	boom := errors.New("mailbox down")
	consumer := &scriptedConsumer{
		events:  map[string][]core.Event{core.TopicComplaint: {{EmailID: "m1"}}},
		results: map[string][]error{},
	}
	d := NewDispatcher(consumer, &stubComplaints{err: boom}, &stubResolutions{}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, d.Run(ctx))

	require.Len(t, consumer.results[core.TopicComplaint], 1)
	assert.ErrorIs(t, consumer.results[core.TopicComplaint][0], boom)
}

func TestDispatcherStopsWhenConsumerFails(t *testing.T) {
	consumer := &scriptedConsumer{fail: errors.New("connection reset")}
	d := NewDispatcher(consumer, &stubComplaints{}, &stubResolutions{}, zap.NewNop())

	err := d.Run(context.Background())
	assert.ErrorContains(t, err, "connection reset")
}
