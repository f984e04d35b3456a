package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/interntrack/backend/internal/models"
)

const reportColumns = `r.id, r.organization_id, r.intern_id, r.type, r.summary,
	r.file_key, r.file_name, r.file_type, r.file_size_mb,
	r.status, r.rating, r.marks, r.admin_feedback, r.reviewed_by,
	r.submitted_at, r.reviewed_at, r.created_at, r.updated_at`

// Repository handles report persistence. Status-changing updates are
// conditional on the expected current status so concurrent transitions
// resolve first-wins instead of last-write-wins.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a reports repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanReport(row pgx.Row, withNames bool) (*models.Report, error) {
	var r models.Report
	dest := []interface{}{
		&r.ID, &r.OrganizationID, &r.InternID, &r.Type, &r.Summary,
		&r.Attachment.FileKey, &r.Attachment.FileName, &r.Attachment.FileType, &r.Attachment.FileSizeMB,
		&r.Status, &r.Rating, &r.Marks, &r.AdminFeedback, &r.ReviewedBy,
		&r.SubmittedAt, &r.ReviewedAt, &r.CreatedAt, &r.UpdatedAt,
	}
	if withNames {
		dest = append(dest, &r.InternName, &r.ReviewerName)
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// Create inserts a report.
func (repo *Repository) Create(ctx context.Context, r *models.Report) error {
	const q = `INSERT INTO reports
		(id, organization_id, intern_id, type, summary,
		 file_key, file_name, file_type, file_size_mb,
		 status, submitted_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`
	return repo.pool.QueryRow(ctx, q,
		r.OrganizationID, r.InternID, r.Type, r.Summary,
		r.Attachment.FileKey, r.Attachment.FileName, r.Attachment.FileType, r.Attachment.FileSizeMB,
		r.Status, r.SubmittedAt,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
}

// GetInOrg returns a report by ID within one organization, with intern and
// reviewer names joined, or nil if absent.
func (repo *Repository) GetInOrg(ctx context.Context, orgID, id uuid.UUID) (*models.Report, error) {
	const q = `SELECT ` + reportColumns + `,
		COALESCE(u.name, ''), COALESCE(rv.name, '')
		FROM reports r
		JOIN users u ON u.id = r.intern_id
		LEFT JOIN users rv ON rv.id = r.reviewed_by
		WHERE r.organization_id = $1 AND r.id = $2`
	return scanReport(repo.pool.QueryRow(ctx, q, orgID, id), true)
}

// UpdateDraftContent updates a draft's editable fields. Conditional on draft
// status so a concurrent submit cannot be overwritten.
func (repo *Repository) UpdateDraftContent(ctx context.Context, orgID, id uuid.UUID, reportType models.ReportType, summary string) (bool, error) {
	const q = `UPDATE reports SET type = $3, summary = $4, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2 AND status = 'draft'`
	tag, err := repo.pool.Exec(ctx, q, orgID, id, reportType, summary)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateAttachment persists a report's attachment fields.
func (repo *Repository) UpdateAttachment(ctx context.Context, orgID, id uuid.UUID, att models.Attachment) error {
	const q = `UPDATE reports SET
		file_key = $3, file_name = $4, file_type = $5, file_size_mb = $6,
		updated_at = NOW()
		WHERE organization_id = $1 AND id = $2`
	tag, err := repo.pool.Exec(ctx, q, orgID, id, att.FileKey, att.FileName, att.FileType, att.FileSizeMB)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("report %s not found", id)
	}
	return nil
}

// Submit moves draft -> submitted. Returns false when the report was not in
// draft at write time.
func (repo *Repository) Submit(ctx context.Context, orgID, id uuid.UUID, now time.Time) (bool, error) {
	const q = `UPDATE reports SET status = 'submitted', submitted_at = $3, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2 AND status = 'draft'`
	tag, err := repo.pool.Exec(ctx, q, orgID, id, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Undo moves submitted -> draft. Returns false when the report was not in
// submitted at write time: whoever lands first between an intern's undo and a
// reviewer's begin-review wins, and the loser sees false.
func (repo *Repository) Undo(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	const q = `UPDATE reports SET status = 'draft', submitted_at = NULL, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2 AND status = 'submitted'`
	tag, err := repo.pool.Exec(ctx, q, orgID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// BeginReview moves submitted -> under_review and records the reviewer.
func (repo *Repository) BeginReview(ctx context.Context, orgID, id, reviewer uuid.UUID) (bool, error) {
	const q = `UPDATE reports SET status = 'under_review', reviewed_by = $3, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2 AND status = 'submitted'`
	tag, err := repo.pool.Exec(ctx, q, orgID, id, reviewer)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Grade sets grading fields and moves the report to graded. Legal from
// submitted, under_review, or graded (re-grade overwrites in place).
func (repo *Repository) Grade(ctx context.Context, orgID, id uuid.UUID, rating, marks int, feedback string, reviewer uuid.UUID, now time.Time) (bool, error) {
	const q = `UPDATE reports SET
		status = 'graded', rating = $3, marks = $4, admin_feedback = $5,
		reviewed_by = $6, reviewed_at = $7, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2
		AND status IN ('submitted', 'under_review', 'graded')`
	tag, err := repo.pool.Exec(ctx, q, orgID, id, rating, marks, feedback, reviewer, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a report row. Returns false when it was already gone.
func (repo *Repository) Delete(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	tag, err := repo.pool.Exec(ctx,
		`DELETE FROM reports WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListByIntern returns an intern's own reports, newest first.
func (repo *Repository) ListByIntern(ctx context.Context, orgID, internID uuid.UUID) ([]*models.Report, error) {
	const q = `SELECT ` + reportColumns + `,
		COALESCE(u.name, ''), COALESCE(rv.name, '')
		FROM reports r
		JOIN users u ON u.id = r.intern_id
		LEFT JOIN users rv ON rv.id = r.reviewed_by
		WHERE r.organization_id = $1 AND r.intern_id = $2
		ORDER BY r.created_at DESC`
	return repo.list(ctx, q, orgID, internID)
}

// ListForReview returns an organization's non-draft reports for the admin
// view, optionally filtered by status and sorted by date, status, or intern.
func (repo *Repository) ListForReview(ctx context.Context, orgID uuid.UUID, status models.ReportStatus, sortBy string) ([]*models.Report, error) {
	q := `SELECT ` + reportColumns + `,
		COALESCE(u.name, ''), COALESCE(rv.name, '')
		FROM reports r
		JOIN users u ON u.id = r.intern_id
		LEFT JOIN users rv ON rv.id = r.reviewed_by
		WHERE r.organization_id = $1 AND r.status <> 'draft'`
	args := []interface{}{orgID}
	if status != "" {
		q += ` AND r.status = $2`
		args = append(args, status)
	}
	switch sortBy {
	case "status":
		q += ` ORDER BY r.status, r.submitted_at DESC`
	case "intern":
		q += ` ORDER BY u.name, r.submitted_at DESC`
	default:
		q += ` ORDER BY r.submitted_at DESC`
	}
	return repo.list(ctx, q, args...)
}

func (repo *Repository) list(ctx context.Context, q string, args ...interface{}) ([]*models.Report, error) {
	rows, err := repo.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Report
	for rows.Next() {
		r, err := scanReport(rows, true)
		if err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

// Stats holds per-status report counts for the admin dashboard.
type Stats struct {
	Total       int `json:"total"`
	Submitted   int `json:"submitted"`
	UnderReview int `json:"under_review"`
	Graded      int `json:"graded"`
}

// GetStats returns non-draft report counts per status.
func (repo *Repository) GetStats(ctx context.Context, orgID uuid.UUID) (*Stats, error) {
	const q = `SELECT
		COUNT(*) FILTER (WHERE status = 'submitted'),
		COUNT(*) FILTER (WHERE status = 'under_review'),
		COUNT(*) FILTER (WHERE status = 'graded')
		FROM reports WHERE organization_id = $1 AND status <> 'draft'`
	var s Stats
	if err := repo.pool.QueryRow(ctx, q, orgID).Scan(&s.Submitted, &s.UnderReview, &s.Graded); err != nil {
		return nil, err
	}
	s.Total = s.Submitted + s.UnderReview + s.Graded
	return &s, nil
}
