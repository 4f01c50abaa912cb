package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is a step of a processor's state machine
type State string

const (
	StateReceived        State = "RECEIVED"
	StateCorrelated      State = "CORRELATED"
	StateExtracted       State = "EXTRACTED"
	StateEnriched        State = "ENRICHED"
	StateRouted          State = "ROUTED"
	StateParsed          State = "PARSED"
	StateEvaluated       State = "EVALUATED"
	StateDrafted         State = "DRAFTED"
	StatePersisted       State = "PERSISTED"
	StateOriginalUpdated State = "ORIGINAL_UPDATED"
	StateSkipped         State = "SKIPPED"
)

// Degraded collaborator calls recorded in metadata
const (
	CallExtractComplaint   = "extract_complaint"
	CallParseResolution    = "parse_resolution"
	CallEvaluateResolution = "evaluate_resolution"
)

var errNoDraft = errors.New("mailbox returned no draft")

// ProcessorSettings are the optional collaborators shared by both processors
type ProcessorSettings struct {
	// DraftMailbox is the mailbox in which drafts are created. Defaults to
	// the routing table's customer mailbox.
	DraftMailbox string
	// NewCaseID mints a case id for complaints that arrive without one
	NewCaseID func() string
	Clock     Clock
	Metrics   MetricsRecorder
}

func (s ProcessorSettings) withDefaults(routing RoutingTable) ProcessorSettings {
	if s.DraftMailbox == "" {
		s.DraftMailbox = routing.CustomerMailbox()
	}
	if s.Clock == nil {
		s.Clock = time.Now
	}
	if s.NewCaseID == nil {
		clock := s.Clock
		s.NewCaseID = func() string { return NewCaseID(clock()) }
	}
	if s.Metrics == nil {
		s.Metrics = nopRecorder{}
	}
	return s
}

// NewCaseID mints a case id of the form CMP-<year>-<8 hex digits>
func NewCaseID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("CMP-%d-%s", now.Year(), suffix)
}

// loadRecord fetches the email an event refers to. A missing record is not
// an error; a store fault is.
func loadRecord(ctx context.Context, store CaseStore, ev Event, want EmailType, logger *zap.Logger) (*EmailRecord, string, error) {
	if ev.EmailID == "" {
		return nil, "event has no email id", nil
	}

	rec, err := store.GetEmail(ctx, ev.EmailID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load email %s: %w", ev.EmailID, err)
	}
	if rec == nil {
		return nil, "email record not found", nil
	}
	if rec.Type != want {
		return nil, fmt.Sprintf("email is %s, not %s", rec.Type, want), nil
	}
	if rec.Status != StatusNew {
		logger.Info("Email already processed", zap.String("email_id", rec.ID), zap.String("status", string(rec.Status)))
		return nil, "email already processed", nil
	}
	return rec, "", nil
}

func transition(logger *zap.Logger, emailID string, state State) {
	logger.Debug("State transition", zap.String("email_id", emailID), zap.String("state", string(state)))
}
