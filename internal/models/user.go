package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's role within their organization.
type Role string

const (
	RoleIntern Role = "intern"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

// IsAdmin reports whether the role satisfies admin-level checks. Owner implicitly does.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleOwner
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleIntern || r == RoleAdmin || r == RoleOwner
}

// User represents a member of an organization. Email is unique per organization,
// not globally. Deactivation is a soft delete (IsActive=false).
type User struct {
	ID              uuid.UUID  `json:"id"`
	OrganizationID  uuid.UUID  `json:"organization_id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Password        string     `json:"-"`
	Role            Role       `json:"role"`
	Department      string     `json:"department,omitempty"`
	IsActive        bool       `json:"is_active"`
	IsEmailVerified bool       `json:"is_email_verified"`
	InvitedBy       *uuid.UUID `json:"invited_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Token fields are sha256 digests, never exposed.
	InviteToken             string     `json:"-"`
	InviteTokenExpires      *time.Time `json:"-"`
	EmailVerificationToken  string     `json:"-"`
	EmailVerificationExpire *time.Time `json:"-"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID              uuid.UUID `json:"id"`
	OrganizationID  uuid.UUID `json:"organization_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            Role      `json:"role"`
	Department      string    `json:"department,omitempty"`
	IsActive        bool      `json:"is_active"`
	IsEmailVerified bool      `json:"is_email_verified"`
	CreatedAt       time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:              u.ID,
		OrganizationID:  u.OrganizationID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		Department:      u.Department,
		IsActive:        u.IsActive,
		IsEmailVerified: u.IsEmailVerified,
		CreatedAt:       u.CreatedAt,
	}
}
