package core

import (
	"context"
	"regexp"

	"go.uber.org/zap"
)

var (
	subjectCaseIDPattern = regexp.MustCompile(`(?i)\[Case:\s*([A-Za-z0-9-]+)\]`)
	bodyCaseIDPattern    = regexp.MustCompile(`(?i)Case ID:\s*([A-Za-z0-9-]+)`)
)

// ExtractCaseID finds the case id in an email. The subject tag wins over
// the body marker. It returns "" when neither matches.
func ExtractCaseID(subject, body string) string {
	if m := subjectCaseIDPattern.FindStringSubmatch(subject); m != nil {
		return m[1]
	}
	if m := bodyCaseIDPattern.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return ""
}

// Correlator joins a resolution back to the complaint it answers
type Correlator struct {
	store  CaseStore
	logger *zap.Logger
}

// NewCorrelator creates a new correlator
func NewCorrelator(store CaseStore, logger *zap.Logger) *Correlator {
	return &Correlator{store: store, logger: logger}
}

// FindOriginalComplaint returns the most recent complaint carrying caseID, or
// nil when there is none. Store faults are logged and reported as not found.
func (c *Correlator) FindOriginalComplaint(ctx context.Context, caseID string) *EmailRecord {
	if caseID == "" {
		return nil
	}

	rec, err := c.store.FindLatestComplaint(ctx, caseID)
	if err != nil {
		c.logger.Error("Failed to look up original complaint",
			zap.String("case_id", caseID),
			zap.Error(err))
		return nil
	}
	if rec == nil {
		c.logger.Warn("Original complaint not found", zap.String("case_id", caseID))
	}
	return rec
}
