package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interntrack/backend/pkg/apperrors"
)

func draftReport() *Report {
	return &Report{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		InternID:       uuid.New(),
		Type:           ReportDaily,
		Summary:        "worked on onboarding docs",
		Status:         StatusDraft,
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to ReportStatus
		want     bool
	}{
		{StatusDraft, StatusSubmitted, true},
		{StatusDraft, StatusUnderReview, false},
		{StatusDraft, StatusGraded, false},
		{StatusSubmitted, StatusDraft, true},
		{StatusSubmitted, StatusUnderReview, true},
		{StatusSubmitted, StatusGraded, true},
		{StatusUnderReview, StatusGraded, true},
		{StatusUnderReview, StatusDraft, false},
		{StatusUnderReview, StatusSubmitted, false},
		{StatusGraded, StatusGraded, true},
		{StatusGraded, StatusDraft, false},
		{StatusGraded, StatusSubmitted, false},
		{StatusGraded, StatusUnderReview, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestSubmit(t *testing.T) {
	t.Run("draft submits and stamps time", func(t *testing.T) {
		r := draftReport()
		now := time.Now()
		require.NoError(t, r.Submit(now))
		assert.Equal(t, StatusSubmitted, r.Status)
		require.NotNil(t, r.SubmittedAt)
		assert.Equal(t, now, *r.SubmittedAt)
	})

	t.Run("double submit conflicts", func(t *testing.T) {
		r := draftReport()
		require.NoError(t, r.Submit(time.Now()))
		err := r.Submit(time.Now())
		var conflict *apperrors.StateConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "submitted", conflict.CurrentStatus)
	})
}

func TestUndo(t *testing.T) {
	t.Run("recalls a submission to draft", func(t *testing.T) {
		r := draftReport()
		require.NoError(t, r.Submit(time.Now()))
		require.NoError(t, r.Undo())
		assert.Equal(t, StatusDraft, r.Status)
		assert.Nil(t, r.SubmittedAt)
	})

	t.Run("closed once review begins", func(t *testing.T) {
		r := draftReport()
		require.NoError(t, r.Submit(time.Now()))
		require.NoError(t, r.BeginReview(uuid.New()))

		err := r.Undo()
		var conflict *apperrors.StateConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "under_review", conflict.CurrentStatus)
		assert.Equal(t, StatusUnderReview, r.Status)
	})

	t.Run("closed after grading", func(t *testing.T) {
		r := draftReport()
		require.NoError(t, r.Submit(time.Now()))
		require.NoError(t, r.Grade(4, 80, "", uuid.New(), time.Now()))
		assert.Error(t, r.Undo())
	})

	t.Run("draft has nothing to recall", func(t *testing.T) {
		r := draftReport()
		assert.Error(t, r.Undo())
	})
}

func TestBeginReview(t *testing.T) {
	t.Run("records reviewer", func(t *testing.T) {
		r := draftReport()
		reviewer := uuid.New()
		require.NoError(t, r.Submit(time.Now()))
		require.NoError(t, r.BeginReview(reviewer))
		assert.Equal(t, StatusUnderReview, r.Status)
		require.NotNil(t, r.ReviewedBy)
		assert.Equal(t, reviewer, *r.ReviewedBy)
	})

	t.Run("rejects draft", func(t *testing.T) {
		r := draftReport()
		err := r.BeginReview(uuid.New())
		var conflict *apperrors.StateConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "draft", conflict.CurrentStatus)
	})

	t.Run("rejects already under review", func(t *testing.T) {
		r := draftReport()
		require.NoError(t, r.Submit(time.Now()))
		require.NoError(t, r.BeginReview(uuid.New()))
		assert.Error(t, r.BeginReview(uuid.New()))
	})
}

func TestGrade(t *testing.T) {
	reviewer := uuid.New()
	now := time.Now()

	t.Run("grades from submitted", func(t *testing.T) {
		r := draftReport()
		require.NoError(t, r.Submit(now))
		require.NoError(t, r.Grade(5, 92, "solid week", reviewer, now))
		assert.Equal(t, StatusGraded, r.Status)
		assert.Equal(t, 5, *r.Rating)
		assert.Equal(t, 92, *r.Marks)
		assert.Equal(t, "solid week", r.AdminFeedback)
		assert.Equal(t, reviewer, *r.ReviewedBy)
		require.NotNil(t, r.ReviewedAt)
	})

	t.Run("grades from under_review", func(t *testing.T) {
		r := draftReport()
		require.NoError(t, r.Submit(now))
		require.NoError(t, r.BeginReview(reviewer))
		require.NoError(t, r.Grade(3, 55, "", reviewer, now))
		assert.Equal(t, StatusGraded, r.Status)
	})

	t.Run("re-grade overwrites", func(t *testing.T) {
		r := draftReport()
		require.NoError(t, r.Submit(now))
		require.NoError(t, r.Grade(2, 40, "needs work", reviewer, now))

		other := uuid.New()
		require.NoError(t, r.Grade(4, 75, "much improved", other, now))
		assert.Equal(t, 4, *r.Rating)
		assert.Equal(t, 75, *r.Marks)
		assert.Equal(t, "much improved", r.AdminFeedback)
		assert.Equal(t, other, *r.ReviewedBy)
	})

	t.Run("rejects draft", func(t *testing.T) {
		r := draftReport()
		err := r.Grade(4, 80, "", reviewer, now)
		var conflict *apperrors.StateConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "draft", conflict.CurrentStatus)
	})

	t.Run("out-of-range values leave the report untouched", func(t *testing.T) {
		tests := []struct {
			name   string
			rating int
			marks  int
		}{
			{"rating too low", 0, 50},
			{"rating too high", 6, 50},
			{"marks negative", 3, -1},
			{"marks too high", 3, 101},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				r := draftReport()
				require.NoError(t, r.Submit(now))
				err := r.Grade(tt.rating, tt.marks, "", reviewer, now)
				var validation *apperrors.ValidationError
				require.ErrorAs(t, err, &validation)
				assert.Equal(t, StatusSubmitted, r.Status)
				assert.Nil(t, r.Rating)
				assert.Nil(t, r.Marks)
			})
		}
	})

	t.Run("rejects oversized feedback", func(t *testing.T) {
		r := draftReport()
		require.NoError(t, r.Submit(now))
		err := r.Grade(3, 50, strings.Repeat("x", MaxFeedbackLen+1), reviewer, now)
		var validation *apperrors.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, StatusSubmitted, r.Status)
	})

	t.Run("boundary values accepted", func(t *testing.T) {
		r := draftReport()
		require.NoError(t, r.Submit(now))
		require.NoError(t, r.Grade(1, 0, "", reviewer, now))
		r2 := draftReport()
		require.NoError(t, r2.Submit(now))
		require.NoError(t, r2.Grade(5, 100, "", reviewer, now))
	})
}

func TestHasAttachment(t *testing.T) {
	r := draftReport()
	assert.False(t, r.HasAttachment())
	r.Attachment = Attachment{FileKey: "org/123-report.pdf", FileName: "report.pdf"}
	assert.True(t, r.HasAttachment())
}

func TestReportTypeValid(t *testing.T) {
	assert.True(t, ReportDaily.Valid())
	assert.True(t, ReportWeekly.Valid())
	assert.False(t, ReportType("monthly").Valid())
	assert.False(t, ReportType("").Valid())
}
