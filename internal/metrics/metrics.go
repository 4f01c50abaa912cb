// Package metrics exposes the agent's Prometheus counters.
package metrics

import (
	"context"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
)

const namespace = "cx_agent"

// Metrics holds all Prometheus metrics for the complaint workflow
type Metrics struct {
	OutcomesTotal    *prometheus.CounterVec
	DegradedTotal    *prometheus.CounterVec
	RoutesTotal      *prometheus.CounterVec
	DraftsTotal      *prometheus.CounterVec
	EventSeconds     *prometheus.HistogramVec
	EventErrorsTotal *prometheus.CounterVec
	LLMSeconds       *prometheus.HistogramVec
	LLMErrorsTotal   *prometheus.CounterVec
}

// New registers the metrics on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		OutcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outcomes_total",
				Help:      "Emails handled, by phase and outcome",
			},
			[]string{"phase", "outcome"},
		),
		DegradedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "degraded_total",
				Help:      "AI calls that failed and fell back to defaults",
			},
			[]string{"call"},
		),
		RoutesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "routes_total",
				Help:      "Complaints routed, by route class",
			},
			[]string{"class"},
		),
		DraftsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "drafts_total",
				Help:      "Drafts created in the review mailbox",
			},
			[]string{"phase"},
		),
		EventSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "event_seconds",
				Help:      "Time spent handling one event",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"topic"},
		),
		EventErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "event_errors_total",
				Help:      "Events whose handler failed and were returned for redelivery",
			},
			[]string{"topic"},
		),
		LLMSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "llm_seconds",
				Help:      "LLM completion latency",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"provider"},
		),
		LLMErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_errors_total",
				Help:      "Failed LLM completions",
			},
			[]string{"provider"},
		),
	}
}

func (m *Metrics) ObserveOutcome(phase, outcome string) {
	m.OutcomesTotal.WithLabelValues(phase, outcome).Inc()
}

func (m *Metrics) ObserveDegraded(call string) {
	m.DegradedTotal.WithLabelValues(call).Inc()
}

func (m *Metrics) ObserveRoute(class core.RouteClass) {
	m.RoutesTotal.WithLabelValues(string(class)).Inc()
}

func (m *Metrics) ObserveDraft(phase string) {
	m.DraftsTotal.WithLabelValues(phase).Inc()
}

// InstrumentHandler times handler and counts its failures under topic
func (m *Metrics) InstrumentHandler(topic string, handler ports.EventHandler) ports.EventHandler {
	return func(ctx context.Context, ev core.Event) error {
		start := time.Now()
		err := handler(ctx, ev)
		m.EventSeconds.WithLabelValues(topic).Observe(time.Since(start).Seconds())
		if err != nil {
			m.EventErrorsTotal.WithLabelValues(topic).Inc()
		}
		return err
	}
}

// InstrumentLLM wraps client so every completion is timed
func (m *Metrics) InstrumentLLM(client ports.LLMClient) ports.LLMClient {
	return &instrumentedLLM{client: client, metrics: m}
}

type instrumentedLLM struct {
	client  ports.LLMClient
	metrics *Metrics
}

func (c *instrumentedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := c.client.Complete(ctx, prompt)
	c.metrics.LLMSeconds.WithLabelValues(c.client.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.LLMErrorsTotal.WithLabelValues(c.client.Name()).Inc()
	}
	return out, err
}

func (c *instrumentedLLM) Name() string {
	return c.client.Name()
}

// Close closes the wrapped client when it holds resources
func (c *instrumentedLLM) Close() error {
	if closer, ok := c.client.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
