package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/interntrack/backend/internal/models"
)

const userColumns = `id, organization_id, name, email, password, role, department,
	is_active, is_email_verified, invited_by,
	invite_token, invite_token_expires,
	email_verification_token, email_verification_expires,
	created_at, updated_at`

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a user repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.OrganizationID, &u.Name, &u.Email, &u.Password, &u.Role, &u.Department,
		&u.IsActive, &u.IsEmailVerified, &u.InvitedBy,
		&u.InviteToken, &u.InviteTokenExpires,
		&u.EmailVerificationToken, &u.EmailVerificationExpire,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a user.
func (r *Repository) Create(ctx context.Context, u *models.User) error {
	const q = `INSERT INTO users
		(id, organization_id, name, email, password, role, department,
		 is_active, is_email_verified, invited_by,
		 invite_token, invite_token_expires,
		 email_verification_token, email_verification_expires)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q,
		u.OrganizationID, u.Name, u.Email, u.Password, u.Role, u.Department,
		u.IsActive, u.IsEmailVerified, u.InvitedBy,
		u.InviteToken, u.InviteTokenExpires,
		u.EmailVerificationToken, u.EmailVerificationExpire,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

// GetByID returns a user by ID, or nil if absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns all users with the given email across organizations.
// Email is unique per organization, not globally.
func (r *Repository) GetByEmail(ctx context.Context, email string) ([]*models.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// GetByEmailInOrg returns the user with the given email within one organization.
func (r *Repository) GetByEmailInOrg(ctx context.Context, orgID uuid.UUID, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE organization_id = $1 AND email = $2`, orgID, email))
}

// GetByInviteToken returns the user holding an unexpired invite token digest.
func (r *Repository) GetByInviteToken(ctx context.Context, hashedToken string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE invite_token = $1 AND invite_token_expires > NOW()`, hashedToken))
}

// GetByVerificationToken returns the user holding an unexpired verification token digest.
func (r *Repository) GetByVerificationToken(ctx context.Context, hashedToken string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE email_verification_token = $1 AND email_verification_expires > NOW()`, hashedToken))
}

// ActivateInvited completes an invitation: sets name and password, activates
// the account, marks the email verified, and clears the invite token.
func (r *Repository) ActivateInvited(ctx context.Context, id uuid.UUID, name, passwordHash string) error {
	const q = `UPDATE users SET
		name = COALESCE(NULLIF($2, ''), name),
		password = $3,
		is_active = TRUE,
		is_email_verified = TRUE,
		invite_token = '',
		invite_token_expires = NULL,
		updated_at = NOW()
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, name, passwordHash)
	return err
}

// MarkEmailVerified marks the user's email verified and clears the token.
func (r *Repository) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE users SET
		is_email_verified = TRUE,
		email_verification_token = '',
		email_verification_expires = NULL,
		updated_at = NOW()
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// SetVerificationToken stores a new verification token digest and expiry.
func (r *Repository) SetVerificationToken(ctx context.Context, id uuid.UUID, hashedToken string, expires time.Time) error {
	const q = `UPDATE users SET
		email_verification_token = $2,
		email_verification_expires = $3,
		updated_at = NOW()
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, hashedToken, expires)
	return err
}
