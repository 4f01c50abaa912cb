package core

import (
	"context"
	"time"
)

// CaseStore defines the record access the processors need.
// Lookups return nil with no error when the record does not exist.
type CaseStore interface {
	// GetEmail loads an email record by id
	GetEmail(ctx context.Context, id string) (*EmailRecord, error)

	// FindLatestComplaint returns the most recently received complaint for a case
	FindLatestComplaint(ctx context.Context, caseID string) (*EmailRecord, error)

	// GetPassenger loads a booking by PNR
	GetPassenger(ctx context.Context, pnr string) (*Passenger, error)

	// GetWeather loads the weather record for a flight on a date
	GetWeather(ctx context.Context, flightNumber, date string) (*Weather, error)

	// MarkProcessed records a processor's outcome on an email record
	MarkProcessed(ctx context.Context, id string, update ProcessedUpdate) error

	// MarkResolved links a complaint to the resolution that closed it
	MarkResolved(ctx context.Context, complaintID, resolutionID string) error
}

// ProcessedUpdate is the single mutation a processor applies to its record
type ProcessedUpdate struct {
	AgentAction string
	DraftID     string
	CxCaseID    string
	ProcessedAt time.Time
	Metadata    *Metadata
}

// Extractor wraps the AI calls used by the processors
type Extractor interface {
	// ExtractComplaint reads a complaint email into structured fields
	ExtractComplaint(ctx context.Context, subject, body string, receivedAt time.Time) (*Extraction, error)

	// ParseResolution reads the ops reply into a resolution grid
	ParseResolution(ctx context.Context, body string) (*ResolutionGrid, error)

	// EvaluateResolution judges a resolution against the complaint summary
	EvaluateResolution(ctx context.Context, complaintSummary string, resolution ResolutionGrid) (*Evaluation, error)
}

// Mailbox creates drafts for human review
type Mailbox interface {
	CreateDraft(ctx context.Context, mailbox, subject, htmlBody, recipient string) (*Draft, error)
}

// MetricsRecorder receives processing counters
type MetricsRecorder interface {
	ObserveOutcome(phase, outcome string)
	ObserveDegraded(call string)
	ObserveRoute(class RouteClass)
	ObserveDraft(phase string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOutcome(string, string) {}
func (nopRecorder) ObserveDegraded(string)        {}
func (nopRecorder) ObserveRoute(RouteClass)       {}
func (nopRecorder) ObserveDraft(string)           {}

// Clock returns the current time
type Clock func() time.Time
