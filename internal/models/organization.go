package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan is an organization's subscription tier.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Unlimited marks a plan limit with no cap.
const Unlimited = -1

// PlanLimits are the per-plan seat and storage caps.
type PlanLimits struct {
	MaxInterns   int     `json:"max_interns"`
	MaxAdmins    int     `json:"max_admins"`
	MaxStorageMB float64 `json:"max_storage_mb"`
}

// Usage tracks an organization's consumed seats and storage.
type Usage struct {
	CurrentInterns int     `json:"current_interns"`
	CurrentAdmins  int     `json:"current_admins"`
	StorageUsedMB  float64 `json:"storage_used_mb"`
}

// UsageDelta is a signed adjustment applied atomically to an organization's usage counters.
type UsageDelta struct {
	Interns   int
	Admins    int
	StorageMB float64
}

// Organization represents a tenant. All users and reports belong to exactly one.
type Organization struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	Plan      Plan       `json:"plan"`
	Limits    PlanLimits `json:"limits"`
	Usage     Usage      `json:"usage"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// LimitsForPlan returns the seat and storage caps for a plan.
// Unknown plans fall back to the free tier.
func LimitsForPlan(p Plan) PlanLimits {
	switch p {
	case PlanPro:
		return PlanLimits{MaxInterns: 50, MaxAdmins: 10, MaxStorageMB: 1000}
	case PlanEnterprise:
		return PlanLimits{MaxInterns: Unlimited, MaxAdmins: Unlimited, MaxStorageMB: 10000}
	default:
		return PlanLimits{MaxInterns: 5, MaxAdmins: 2, MaxStorageMB: 100}
	}
}

// CanAddIntern reports whether one more intern seat fits within the plan limit.
func (o *Organization) CanAddIntern() bool {
	if o.Limits.MaxInterns == Unlimited {
		return true
	}
	return o.Usage.CurrentInterns < o.Limits.MaxInterns
}

// CanAddAdmin reports whether one more admin seat fits within the plan limit.
// The owner occupies an admin seat from creation.
func (o *Organization) CanAddAdmin() bool {
	if o.Limits.MaxAdmins == Unlimited {
		return true
	}
	return o.Usage.CurrentAdmins < o.Limits.MaxAdmins
}

// HasStorageSpace reports whether deltaMB more storage fits within the plan limit.
// The check is advisory: concurrent uploads can race past it between check and write.
func (o *Organization) HasStorageSpace(deltaMB float64) bool {
	if o.Limits.MaxStorageMB == Unlimited {
		return true
	}
	return o.Usage.StorageUsedMB+deltaMB <= o.Limits.MaxStorageMB
}
