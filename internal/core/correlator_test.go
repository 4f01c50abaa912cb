package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestExtractCaseID(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		want    string
	}{
		{"subject tag", "RE: Investigation [Case: CMP-2026-0001]", "", "CMP-2026-0001"},
		{"subject tag is case insensitive", "re: [case:abc-9]", "", "abc-9"},
		{"body marker", "Resolution", "Hello,\nCase ID: XYZ-42\nThanks", "XYZ-42"},
		{"body marker lower case", "Resolution", "case id: q1", "q1"},
		{"subject wins over body", "[Case: SUBJ-1]", "Case ID: BODY-2", "SUBJ-1"},
		{"stops at invalid characters", "[Case: AB_12]", "", ""},
		{"none", "Hello", "No reference here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCaseID(tt.subject, tt.body))
		})
	}
}

func TestFindOriginalComplaintPicksMostRecent(t *testing.T) {
	store := newFakeStore()
	store.emails["old"] = &EmailRecord{ID: "old", Type: EmailTypeComplaint, CxCaseID: "C-1", ReceivedAt: fixedNow.Add(-time.Hour)}
	store.emails["new"] = &EmailRecord{ID: "new", Type: EmailTypeComplaint, CxCaseID: "C-1", ReceivedAt: fixedNow}
	store.emails["res"] = &EmailRecord{ID: "res", Type: EmailTypeResolution, CxCaseID: "C-1", ReceivedAt: fixedNow.Add(time.Hour)}

	c := NewCorrelator(store, zap.NewNop())

	rec := c.FindOriginalComplaint(context.Background(), "C-1")
	if assert.NotNil(t, rec) {
		assert.Equal(t, "new", rec.ID)
	}
	assert.Nil(t, c.FindOriginalComplaint(context.Background(), "C-2"))
	assert.Nil(t, c.FindOriginalComplaint(context.Background(), ""))
}

func TestFindOriginalComplaintStoreFault(t *testing.T) {
	store := newFakeStore()
	store.lookupErr = errUnavailable

	c := NewCorrelator(store, zap.NewNop())
	assert.Nil(t, c.FindOriginalComplaint(context.Background(), "C-1"))
}
