package organizations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/interntrack/backend/internal/models"
)

const orgColumns = `id, name, slug, plan,
	max_interns, max_admins, max_storage_mb,
	current_interns, current_admins, storage_used_mb,
	is_active, created_at, updated_at`

// Repository handles organization persistence, including the usage side of the
// quota ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an organizations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanOrg(row pgx.Row) (*models.Organization, error) {
	var o models.Organization
	err := row.Scan(
		&o.ID, &o.Name, &o.Slug, &o.Plan,
		&o.Limits.MaxInterns, &o.Limits.MaxAdmins, &o.Limits.MaxStorageMB,
		&o.Usage.CurrentInterns, &o.Usage.CurrentAdmins, &o.Usage.StorageUsedMB,
		&o.IsActive, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// CreateWithOwner creates an organization and its owner account in one
// transaction. Limits derive from the plan and the owner seat is counted from
// creation (current_admins starts at 1). If either insert fails, neither row
// is committed, so a failed signup never leaves an ownerless organization
// holding the slug.
func (r *Repository) CreateWithOwner(ctx context.Context, org *models.Organization, owner *models.User) error {
	limits := models.LimitsForPlan(org.Plan)
	org.Limits = limits
	org.Usage = models.Usage{CurrentAdmins: 1}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("create organization: %w", err)
	}
	defer tx.Rollback(ctx)

	const orgQ = `INSERT INTO organizations
		(id, name, slug, plan, max_interns, max_admins, max_storage_mb, current_admins)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, 1)
		RETURNING id, is_active, created_at, updated_at`
	err = tx.QueryRow(ctx, orgQ, org.Name, org.Slug, org.Plan,
		limits.MaxInterns, limits.MaxAdmins, limits.MaxStorageMB).
		Scan(&org.ID, &org.IsActive, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return err
	}

	owner.OrganizationID = org.ID
	const ownerQ = `INSERT INTO users
		(id, organization_id, name, email, password, role, is_active,
		 email_verification_token, email_verification_expires)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, TRUE, $6, $7)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRow(ctx, ownerQ, owner.OrganizationID, owner.Name, owner.Email,
		owner.Password, owner.Role, owner.EmailVerificationToken, owner.EmailVerificationExpire).
		Scan(&owner.ID, &owner.CreatedAt, &owner.UpdatedAt)
	if err != nil {
		return err
	}
	owner.IsActive = true

	return tx.Commit(ctx)
}

// GetByID returns an organization by ID, or nil if absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	return scanOrg(r.pool.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id))
}

// GetBySlug returns an organization by slug, or nil if absent.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	return scanOrg(r.pool.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE slug = $1`, slug))
}

// ApplyUsageDelta adjusts the three usage counters in one atomic UPDATE.
// Decrements are clamped at zero: going below zero signals a bookkeeping bug
// upstream, but must not corrupt the counters further.
func (r *Repository) ApplyUsageDelta(ctx context.Context, orgID uuid.UUID, delta models.UsageDelta) error {
	const q = `UPDATE organizations SET
		current_interns = GREATEST(0, current_interns + $2),
		current_admins  = GREATEST(0, current_admins + $3),
		storage_used_mb = GREATEST(0, storage_used_mb + $4),
		updated_at = NOW()
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, orgID, delta.Interns, delta.Admins, delta.StorageMB)
	if err != nil {
		return fmt.Errorf("apply usage delta: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("apply usage delta: organization %s not found", orgID)
	}
	return nil
}
