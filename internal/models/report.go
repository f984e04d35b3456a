package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/interntrack/backend/pkg/apperrors"
)

// ReportType is the reporting cadence.
type ReportType string

const (
	ReportDaily  ReportType = "daily"
	ReportWeekly ReportType = "weekly"
)

// Valid reports whether the type is daily or weekly.
func (t ReportType) Valid() bool {
	return t == ReportDaily || t == ReportWeekly
}

// ReportStatus is a report's lifecycle state: draft -> submitted -> under_review -> graded.
type ReportStatus string

const (
	StatusDraft       ReportStatus = "draft"
	StatusSubmitted   ReportStatus = "submitted"
	StatusUnderReview ReportStatus = "under_review"
	StatusGraded      ReportStatus = "graded"
)

const (
	// MaxSummaryLen bounds the report summary.
	MaxSummaryLen = 5000
	// MaxFeedbackLen bounds admin feedback.
	MaxFeedbackLen = 2000
)

// transitions is the single source of truth for legal status changes.
// graded -> graded permits re-grading; no transition leaves graded backwards.
var transitions = map[ReportStatus][]ReportStatus{
	StatusDraft:       {StatusSubmitted},
	StatusSubmitted:   {StatusDraft, StatusUnderReview, StatusGraded},
	StatusUnderReview: {StatusGraded},
	StatusGraded:      {StatusGraded},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to ReportStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Attachment is a report's single optional file.
type Attachment struct {
	FileKey    string  `json:"file_key,omitempty"`
	FileName   string  `json:"file_name,omitempty"`
	FileType   string  `json:"file_type,omitempty"`
	FileSizeMB float64 `json:"file_size_mb,omitempty"`
}

// Report is one daily/weekly submission by an intern, carrying at most one attachment.
type Report struct {
	ID             uuid.UUID    `json:"id"`
	OrganizationID uuid.UUID    `json:"organization_id"`
	InternID       uuid.UUID    `json:"intern_id"`
	Type           ReportType   `json:"type"`
	Summary        string       `json:"summary"`
	Attachment     Attachment   `json:"attachment"`
	Status         ReportStatus `json:"status"`
	Rating         *int         `json:"rating,omitempty"`
	Marks          *int         `json:"marks,omitempty"`
	AdminFeedback  string       `json:"admin_feedback,omitempty"`
	ReviewedBy     *uuid.UUID   `json:"reviewed_by,omitempty"`
	SubmittedAt    *time.Time   `json:"submitted_at,omitempty"`
	ReviewedAt     *time.Time   `json:"reviewed_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`

	// Joined fields, populated by list queries.
	InternName   string `json:"intern_name,omitempty"`
	ReviewerName string `json:"reviewer_name,omitempty"`
}

// HasAttachment reports whether a file is attached.
func (r *Report) HasAttachment() bool {
	return r.Attachment.FileKey != ""
}

// CanUndo reports whether the intern may still recall the submission.
func (r *Report) CanUndo() bool {
	return r.Status == StatusSubmitted
}

// Submit moves a draft to submitted and stamps SubmittedAt.
func (r *Report) Submit(now time.Time) error {
	if r.Status != StatusDraft {
		return apperrors.NewStateConflict("submit", string(r.Status))
	}
	r.Status = StatusSubmitted
	r.SubmittedAt = &now
	return nil
}

// Undo recalls a submission back to draft. Legal only while status is exactly
// submitted; once a reviewer begins review the intern has irrevocably lost undo.
func (r *Report) Undo() error {
	if r.Status != StatusSubmitted {
		return apperrors.NewStateConflict("undo", string(r.Status))
	}
	r.Status = StatusDraft
	r.SubmittedAt = nil
	return nil
}

// BeginReview moves a submitted report to under_review and records the reviewer.
func (r *Report) BeginReview(reviewer uuid.UUID) error {
	if r.Status != StatusSubmitted {
		return apperrors.NewStateConflict("begin review", string(r.Status))
	}
	r.Status = StatusUnderReview
	r.ReviewedBy = &reviewer
	return nil
}

// Grade grades (or re-grades) a report. Range validation happens before any
// mutation so an out-of-range value leaves the report untouched.
func (r *Report) Grade(rating, marks int, feedback string, reviewer uuid.UUID, now time.Time) error {
	if !CanTransition(r.Status, StatusGraded) {
		return apperrors.NewStateConflict("grade", string(r.Status))
	}
	if rating < 1 || rating > 5 {
		return apperrors.NewValidation("rating", "must be between 1 and 5")
	}
	if marks < 0 || marks > 100 {
		return apperrors.NewValidation("marks", "must be between 0 and 100")
	}
	if len(feedback) > MaxFeedbackLen {
		return apperrors.NewValidation("admin_feedback", "cannot exceed 2000 characters")
	}
	r.Status = StatusGraded
	r.Rating = &rating
	r.Marks = &marks
	r.AdminFeedback = feedback
	r.ReviewedBy = &reviewer
	r.ReviewedAt = &now
	return nil
}
