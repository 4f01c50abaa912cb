package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var errUnavailable = errors.New("backend unavailable")

type fakeStore struct {
	mu          sync.Mutex
	emails      map[string]*EmailRecord
	passengers  map[string]*Passenger
	weather     map[string]*Weather
	getErr      error
	lookupErr   error
	updateErr   error
	resolvedErr error
	updates     []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		emails:     map[string]*EmailRecord{},
		passengers: map[string]*Passenger{},
		weather:    map[string]*Weather{},
	}
}

func (s *fakeStore) GetEmail(_ context.Context, id string) (*EmailRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	rec, ok := s.emails[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *fakeStore) FindLatestComplaint(_ context.Context, caseID string) (*EmailRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	var latest *EmailRecord
	for _, rec := range s.emails {
		if rec.Type != EmailTypeComplaint || rec.CxCaseID != caseID {
			continue
		}
		if latest == nil || rec.ReceivedAt.After(latest.ReceivedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (s *fakeStore) GetPassenger(_ context.Context, pnr string) (*Passenger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	return s.passengers[pnr], nil
}

func (s *fakeStore) GetWeather(_ context.Context, flightNumber, date string) (*Weather, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	return s.weather[WeatherKey(flightNumber, date)], nil
}

func (s *fakeStore) MarkProcessed(_ context.Context, id string, u ProcessedUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	rec, ok := s.emails[id]
	if !ok {
		return fmt.Errorf("email %s not found", id)
	}
	at := u.ProcessedAt
	rec.Status = StatusProcessed
	rec.AgentAction = u.AgentAction
	rec.DraftID = u.DraftID
	rec.CxCaseID = u.CxCaseID
	rec.ProcessedAt = &at
	rec.Metadata = u.Metadata
	s.updates = append(s.updates, "processed:"+id)
	return nil
}

func (s *fakeStore) MarkResolved(_ context.Context, complaintID, resolutionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolvedErr != nil {
		return s.resolvedErr
	}
	rec, ok := s.emails[complaintID]
	if !ok {
		return fmt.Errorf("email %s not found", complaintID)
	}
	rec.Status = StatusResolved
	rec.ResolutionEmailID = resolutionID
	s.updates = append(s.updates, "resolved:"+complaintID)
	return nil
}

type fakeExtractor struct {
	extraction *Extraction
	resolution *ResolutionGrid
	evaluation *Evaluation
	extractErr error
	parseErr   error
	evalErr    error

	gotSummary string
}

func (e *fakeExtractor) ExtractComplaint(context.Context, string, string, time.Time) (*Extraction, error) {
	if e.extractErr != nil {
		return nil, e.extractErr
	}
	cp := *e.extraction
	return &cp, nil
}

func (e *fakeExtractor) ParseResolution(context.Context, string) (*ResolutionGrid, error) {
	if e.parseErr != nil {
		return nil, e.parseErr
	}
	cp := *e.resolution
	return &cp, nil
}

func (e *fakeExtractor) EvaluateResolution(_ context.Context, summary string, _ ResolutionGrid) (*Evaluation, error) {
	e.gotSummary = summary
	if e.evalErr != nil {
		return nil, e.evalErr
	}
	cp := *e.evaluation
	return &cp, nil
}

type sentDraft struct {
	Mailbox   string
	Subject   string
	Body      string
	Recipient string
}

type fakeMailbox struct {
	drafts []sentDraft
	err    error
}

func (m *fakeMailbox) CreateDraft(_ context.Context, mailbox, subject, body, recipient string) (*Draft, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.drafts = append(m.drafts, sentDraft{mailbox, subject, body, recipient})
	return &Draft{ID: fmt.Sprintf("draft-%d", len(m.drafts)), Mailbox: mailbox}, nil
}

type countingMetrics struct {
	outcomes map[string]int
	degraded map[string]int
	routes   map[RouteClass]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{outcomes: map[string]int{}, degraded: map[string]int{}, routes: map[RouteClass]int{}}
}

func (m *countingMetrics) ObserveOutcome(phase, outcome string) { m.outcomes[phase+"/"+outcome]++ }
func (m *countingMetrics) ObserveDegraded(call string)          { m.degraded[call]++ }
func (m *countingMetrics) ObserveRoute(class RouteClass)        { m.routes[class]++ }
func (m *countingMetrics) ObserveDraft(string)                  {}

var fixedNow = time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }
