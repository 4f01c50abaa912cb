package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"go.uber.org/zap"
)

// Collection names in the document store
const (
	EmailsCollection     = "emails"
	PassengersCollection = "passengers"
	WeatherCollection    = "flight_weather"
)

// CaseRepository maps case records onto a DocumentStore
type CaseRepository struct {
	store  ports.DocumentStore
	logger *zap.Logger
	now    func() time.Time
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(store ports.DocumentStore, logger *zap.Logger) *CaseRepository {
	return &CaseRepository{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// GetEmail loads an email record by id
func (r *CaseRepository) GetEmail(ctx context.Context, id string) (*core.EmailRecord, error) {
	var rec core.EmailRecord
	found, err := r.get(ctx, EmailsCollection, id, &rec)
	if err != nil || !found {
		return nil, err
	}
	if rec.ID == "" {
		rec.ID = id
	}
	return &rec, nil
}

// EmailExists reports whether an email with this id was already ingested
func (r *CaseRepository) EmailExists(ctx context.Context, id string) (bool, error) {
	_, err := r.store.Get(ctx, EmailsCollection, id)
	if errors.Is(err, ports.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check email %s: %w", id, err)
	}
	return true, nil
}

// SaveEmail stores a new email record
func (r *CaseRepository) SaveEmail(ctx context.Context, rec *core.EmailRecord) error {
	if rec.SavedAt.IsZero() {
		rec.SavedAt = r.now().UTC()
	}
	doc, err := toDocument(rec)
	if err != nil {
		return err
	}
	// Keep timestamps native so stores that understand them can order by them.
	doc["receivedAt"] = rec.ReceivedAt.UTC()
	doc["savedAt"] = rec.SavedAt

	if err := r.store.Set(ctx, EmailsCollection, rec.ID, doc); err != nil {
		return fmt.Errorf("failed to save email %s: %w", rec.ID, err)
	}
	return nil
}

// FindLatestComplaint returns the most recently received complaint for a case
func (r *CaseRepository) FindLatestComplaint(ctx context.Context, caseID string) (*core.EmailRecord, error) {
	snaps, err := r.store.Query(ctx, EmailsCollection,
		[]ports.Filter{
			{Field: "type", Value: string(core.EmailTypeComplaint)},
			{Field: "cxCaseId", Value: caseID},
		},
		ports.QueryOptions{OrderBy: "receivedAt", Descending: true, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to query complaints for case %s: %w", caseID, err)
	}
	if len(snaps) == 0 {
		return nil, nil
	}

	var rec core.EmailRecord
	if err := fromDocument(snaps[0].Data, &rec); err != nil {
		return nil, err
	}
	if rec.ID == "" {
		rec.ID = snaps[0].ID
	}
	return &rec, nil
}

// GetPassenger loads a booking by PNR
func (r *CaseRepository) GetPassenger(ctx context.Context, pnr string) (*core.Passenger, error) {
	var p core.Passenger
	found, err := r.get(ctx, PassengersCollection, pnr, &p)
	if err != nil || !found {
		return nil, err
	}
	if p.PNR == "" {
		p.PNR = pnr
	}
	return &p, nil
}

// SavePassenger stores a booking keyed by its PNR
func (r *CaseRepository) SavePassenger(ctx context.Context, p *core.Passenger) error {
	if p.PNR == "" {
		return errors.New("passenger has no PNR")
	}
	return r.set(ctx, PassengersCollection, p.PNR, p)
}

// GetWeather loads the weather record for a flight on a date
func (r *CaseRepository) GetWeather(ctx context.Context, flightNumber, date string) (*core.Weather, error) {
	var w core.Weather
	found, err := r.get(ctx, WeatherCollection, core.WeatherKey(flightNumber, date), &w)
	if err != nil || !found {
		return nil, err
	}
	return &w, nil
}

// SaveWeather stores a weather record keyed by flight and date
func (r *CaseRepository) SaveWeather(ctx context.Context, w *core.Weather) error {
	if w.FlightNumber == "" || w.Date == "" {
		return errors.New("weather record needs a flight number and date")
	}
	return r.set(ctx, WeatherCollection, core.WeatherKey(w.FlightNumber, w.Date), w)
}

// MarkProcessed records a processor's outcome on an email record
func (r *CaseRepository) MarkProcessed(ctx context.Context, id string, u core.ProcessedUpdate) error {
	fields := ports.Document{
		"status":      string(core.StatusProcessed),
		"agentAction": u.AgentAction,
		"draftId":     u.DraftID,
		"processedAt": u.ProcessedAt.UTC(),
	}
	if u.CxCaseID != "" {
		fields["cxCaseId"] = u.CxCaseID
	}
	if u.Metadata != nil {
		meta, err := toDocument(u.Metadata)
		if err != nil {
			return err
		}
		fields["metadata"] = map[string]any(meta)
	}

	if err := r.store.Update(ctx, EmailsCollection, id, fields); err != nil {
		return fmt.Errorf("failed to mark email %s processed: %w", id, err)
	}
	r.logger.Debug("Email marked processed",
		zap.String("email_id", id),
		zap.String("agent_action", u.AgentAction))
	return nil
}

// MarkResolved links a complaint to the resolution that closed it
func (r *CaseRepository) MarkResolved(ctx context.Context, complaintID, resolutionID string) error {
	err := r.store.Update(ctx, EmailsCollection, complaintID, ports.Document{
		"status":            string(core.StatusResolved),
		"resolutionEmailId": resolutionID,
	})
	if err != nil {
		return fmt.Errorf("failed to mark complaint %s resolved: %w", complaintID, err)
	}
	return nil
}

func (r *CaseRepository) get(ctx context.Context, collection, id string, out any) (bool, error) {
	if id == "" {
		return false, nil
	}
	doc, err := r.store.Get(ctx, collection, id)
	if errors.Is(err, ports.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s/%s: %w", collection, id, err)
	}
	if err := fromDocument(doc, out); err != nil {
		return false, fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
	}
	return true, nil
}

func (r *CaseRepository) set(ctx context.Context, collection, id string, v any) error {
	doc, err := toDocument(v)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, collection, id, doc); err != nil {
		return fmt.Errorf("failed to save %s/%s: %w", collection, id, err)
	}
	return nil
}

// toDocument flattens a typed value into a document through its JSON tags
func toDocument(v any) (ports.Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	var doc ports.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return doc, nil
}

func fromDocument(doc ports.Document, out any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
