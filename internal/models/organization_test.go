package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func orgOnPlan(p Plan) *Organization {
	return &Organization{
		Name:   "Acme Internships",
		Slug:   "acme-internships",
		Plan:   p,
		Limits: LimitsForPlan(p),
	}
}

func TestLimitsForPlan(t *testing.T) {
	assert.Equal(t, PlanLimits{MaxInterns: 5, MaxAdmins: 2, MaxStorageMB: 100}, LimitsForPlan(PlanFree))
	assert.Equal(t, PlanLimits{MaxInterns: 50, MaxAdmins: 10, MaxStorageMB: 1000}, LimitsForPlan(PlanPro))
	assert.Equal(t, PlanLimits{MaxInterns: Unlimited, MaxAdmins: Unlimited, MaxStorageMB: 10000}, LimitsForPlan(PlanEnterprise))

	t.Run("unknown plan falls back to free", func(t *testing.T) {
		assert.Equal(t, LimitsForPlan(PlanFree), LimitsForPlan(Plan("trial")))
	})
}

func TestCanAddIntern(t *testing.T) {
	t.Run("below limit", func(t *testing.T) {
		org := orgOnPlan(PlanFree)
		org.Usage.CurrentInterns = 4
		assert.True(t, org.CanAddIntern())
	})

	t.Run("at limit", func(t *testing.T) {
		org := orgOnPlan(PlanFree)
		org.Usage.CurrentInterns = 5
		assert.False(t, org.CanAddIntern())
	})

	t.Run("unlimited plan never blocks", func(t *testing.T) {
		org := orgOnPlan(PlanEnterprise)
		org.Usage.CurrentInterns = 100000
		assert.True(t, org.CanAddIntern())
	})
}

func TestCanAddAdmin(t *testing.T) {
	t.Run("owner seat counts", func(t *testing.T) {
		org := orgOnPlan(PlanFree)
		org.Usage.CurrentAdmins = 1
		assert.True(t, org.CanAddAdmin())
		org.Usage.CurrentAdmins = 2
		assert.False(t, org.CanAddAdmin())
	})

	t.Run("unlimited plan never blocks", func(t *testing.T) {
		org := orgOnPlan(PlanEnterprise)
		org.Usage.CurrentAdmins = 500
		assert.True(t, org.CanAddAdmin())
	})
}

func TestHasStorageSpace(t *testing.T) {
	t.Run("fits exactly", func(t *testing.T) {
		org := orgOnPlan(PlanFree)
		org.Usage.StorageUsedMB = 95
		assert.True(t, org.HasStorageSpace(5))
	})

	t.Run("overflows", func(t *testing.T) {
		org := orgOnPlan(PlanFree)
		org.Usage.StorageUsedMB = 95
		assert.False(t, org.HasStorageSpace(5.1))
	})

	t.Run("negative delta always fits", func(t *testing.T) {
		org := orgOnPlan(PlanFree)
		org.Usage.StorageUsedMB = 100
		assert.True(t, org.HasStorageSpace(-2))
	})

	t.Run("unlimited plan never blocks", func(t *testing.T) {
		org := orgOnPlan(PlanEnterprise)
		org.Limits.MaxStorageMB = Unlimited
		org.Usage.StorageUsedMB = 1e9
		assert.True(t, org.HasStorageSpace(10))
	})
}
