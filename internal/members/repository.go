package members

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/interntrack/backend/internal/models"
)

// Repository handles membership queries and seat-lifecycle mutations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a members repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Member is a team listing row.
type Member struct {
	ID              uuid.UUID   `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Role            models.Role `json:"role"`
	Department      string      `json:"department,omitempty"`
	IsActive        bool        `json:"is_active"`
	IsEmailVerified bool        `json:"is_email_verified"`
	CreatedAt       time.Time   `json:"created_at"`
}

// ReportStats are per-status report counts for an intern.
type ReportStats struct {
	Draft       int `json:"draft"`
	Submitted   int `json:"submitted"`
	UnderReview int `json:"under_review"`
	Graded      int `json:"graded"`
}

// InternSummary is an intern listing row with report counts.
type InternSummary struct {
	Member
	ReportStats   ReportStats `json:"report_stats"`
	TotalReports  int         `json:"total_reports"`
	PendingReview int         `json:"pending_review"`
}

// GetInOrg returns a user by ID within one organization, or nil if absent.
// Scoping the lookup by organization keeps cross-tenant IDs indistinguishable
// from missing ones.
func (r *Repository) GetInOrg(ctx context.Context, orgID, id uuid.UUID) (*models.User, error) {
	const q = `SELECT id, organization_id, name, email, role, department,
		is_active, is_email_verified, created_at, updated_at
		FROM users WHERE organization_id = $1 AND id = $2`
	var u models.User
	err := r.pool.QueryRow(ctx, q, orgID, id).Scan(
		&u.ID, &u.OrganizationID, &u.Name, &u.Email, &u.Role, &u.Department,
		&u.IsActive, &u.IsEmailVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// ListTeam returns all members of an organization, admins first.
func (r *Repository) ListTeam(ctx context.Context, orgID uuid.UUID) ([]Member, error) {
	const q = `SELECT id, name, email, role, department, is_active, is_email_verified, created_at
		FROM users WHERE organization_id = $1
		ORDER BY role, name`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Role, &m.Department, &m.IsActive, &m.IsEmailVerified, &m.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// ListInternsWithStats returns active interns with per-status report counts.
func (r *Repository) ListInternsWithStats(ctx context.Context, orgID uuid.UUID) ([]InternSummary, error) {
	const q = `SELECT u.id, u.name, u.email, u.role, u.department, u.is_active, u.is_email_verified, u.created_at,
		COUNT(r.id) FILTER (WHERE r.status = 'draft'),
		COUNT(r.id) FILTER (WHERE r.status = 'submitted'),
		COUNT(r.id) FILTER (WHERE r.status = 'under_review'),
		COUNT(r.id) FILTER (WHERE r.status = 'graded')
		FROM users u
		LEFT JOIN reports r ON r.intern_id = u.id AND r.organization_id = u.organization_id
		WHERE u.organization_id = $1 AND u.role = 'intern' AND u.is_active
		GROUP BY u.id, u.name, u.email, u.role, u.department, u.is_active, u.is_email_verified, u.created_at
		ORDER BY u.name`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []InternSummary
	for rows.Next() {
		var s InternSummary
		if err := rows.Scan(
			&s.ID, &s.Name, &s.Email, &s.Role, &s.Department, &s.IsActive, &s.IsEmailVerified, &s.CreatedAt,
			&s.ReportStats.Draft, &s.ReportStats.Submitted, &s.ReportStats.UnderReview, &s.ReportStats.Graded,
		); err != nil {
			return nil, err
		}
		s.TotalReports = s.ReportStats.Draft + s.ReportStats.Submitted + s.ReportStats.UnderReview + s.ReportStats.Graded
		s.PendingReview = s.ReportStats.Submitted + s.ReportStats.UnderReview
		list = append(list, s)
	}
	return list, rows.Err()
}

// SetActive flips a user's soft-delete flag. Returns true when the flag actually
// changed, so callers apply the seat delta exactly once.
func (r *Repository) SetActive(ctx context.Context, orgID, id uuid.UUID, active bool) (bool, error) {
	const q = `UPDATE users SET is_active = $3, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2 AND is_active <> $3`
	tag, err := r.pool.Exec(ctx, q, orgID, id, active)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SetRole changes a user's role.
func (r *Repository) SetRole(ctx context.Context, orgID, id uuid.UUID, role models.Role) error {
	const q = `UPDATE users SET role = $3, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2`
	_, err := r.pool.Exec(ctx, q, orgID, id, role)
	return err
}

// UpdateProfile updates a user's own editable fields.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, name, department string) error {
	const q = `UPDATE users SET
		name = COALESCE(NULLIF($2, ''), name),
		department = COALESCE(NULLIF($3, ''), department),
		updated_at = NOW()
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, name, department)
	return err
}
