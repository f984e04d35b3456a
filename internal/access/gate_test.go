package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interntrack/backend/internal/models"
	"github.com/interntrack/backend/pkg/apperrors"
)

func member(orgID uuid.UUID, role models.Role) *models.User {
	return &models.User{ID: uuid.New(), OrganizationID: orgID, Role: role}
}

func reportBy(author *models.User, status models.ReportStatus) *models.Report {
	return &models.Report{
		ID:             uuid.New(),
		OrganizationID: author.OrganizationID,
		InternID:       author.ID,
		Status:         status,
	}
}

func assertNotFound(t *testing.T, err error) {
	t.Helper()
	var notFound *apperrors.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestCanViewReport(t *testing.T) {
	orgID := uuid.New()
	author := member(orgID, models.RoleIntern)
	report := reportBy(author, models.StatusSubmitted)

	t.Run("author can view", func(t *testing.T) {
		assert.NoError(t, CanViewReport(author, report))
	})

	t.Run("admin in same org can view", func(t *testing.T) {
		assert.NoError(t, CanViewReport(member(orgID, models.RoleAdmin), report))
	})

	t.Run("other intern cannot", func(t *testing.T) {
		err := CanViewReport(member(orgID, models.RoleIntern), report)
		var authz *apperrors.AuthorizationError
		require.ErrorAs(t, err, &authz)
	})

	t.Run("cross-tenant admin sees not-found", func(t *testing.T) {
		assertNotFound(t, CanViewReport(member(uuid.New(), models.RoleAdmin), report))
	})
}

func TestCanMutateReport(t *testing.T) {
	orgID := uuid.New()
	author := member(orgID, models.RoleIntern)
	report := reportBy(author, models.StatusDraft)

	t.Run("author can mutate", func(t *testing.T) {
		assert.NoError(t, CanMutateReport(author, report))
	})

	t.Run("admin cannot mutate another intern's report", func(t *testing.T) {
		assert.Error(t, CanMutateReport(member(orgID, models.RoleAdmin), report))
	})

	t.Run("cross-tenant sees not-found", func(t *testing.T) {
		assertNotFound(t, CanMutateReport(member(uuid.New(), models.RoleIntern), report))
	})
}

func TestCanReview(t *testing.T) {
	orgID := uuid.New()
	author := member(orgID, models.RoleIntern)
	report := reportBy(author, models.StatusSubmitted)

	assert.NoError(t, CanReview(member(orgID, models.RoleAdmin), report))
	assert.NoError(t, CanReview(member(orgID, models.RoleOwner), report))
	assert.Error(t, CanReview(author, report))
	assertNotFound(t, CanReview(member(uuid.New(), models.RoleAdmin), report))
}

func TestCanDeleteReport(t *testing.T) {
	orgID := uuid.New()
	author := member(orgID, models.RoleIntern)

	t.Run("author deletes own draft", func(t *testing.T) {
		assert.NoError(t, CanDeleteReport(author, reportBy(author, models.StatusDraft)))
	})

	t.Run("author cannot delete after submitting", func(t *testing.T) {
		err := CanDeleteReport(author, reportBy(author, models.StatusSubmitted))
		var conflict *apperrors.StateConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "submitted", conflict.CurrentStatus)
	})

	t.Run("admin deletes any status", func(t *testing.T) {
		admin := member(orgID, models.RoleAdmin)
		assert.NoError(t, CanDeleteReport(admin, reportBy(author, models.StatusGraded)))
	})

	t.Run("other intern cannot delete", func(t *testing.T) {
		assert.Error(t, CanDeleteReport(member(orgID, models.RoleIntern), reportBy(author, models.StatusDraft)))
	})
}

func TestCanInvite(t *testing.T) {
	orgID := uuid.New()
	owner := member(orgID, models.RoleOwner)
	admin := member(orgID, models.RoleAdmin)
	intern := member(orgID, models.RoleIntern)

	assert.NoError(t, CanInvite(owner, models.RoleIntern))
	assert.NoError(t, CanInvite(admin, models.RoleIntern))
	assert.Error(t, CanInvite(intern, models.RoleIntern))

	t.Run("only owner invites admins", func(t *testing.T) {
		assert.NoError(t, CanInvite(owner, models.RoleAdmin))
		assert.Error(t, CanInvite(admin, models.RoleAdmin))
	})

	t.Run("never a second owner", func(t *testing.T) {
		assert.Error(t, CanInvite(owner, models.RoleOwner))
	})
}

func TestCanPromote(t *testing.T) {
	orgID := uuid.New()
	owner := member(orgID, models.RoleOwner)
	admin := member(orgID, models.RoleAdmin)
	intern := member(orgID, models.RoleIntern)

	assert.NoError(t, CanPromote(owner, intern))
	assert.Error(t, CanPromote(admin, intern))

	t.Run("admins and owners are not promotable", func(t *testing.T) {
		assert.Error(t, CanPromote(owner, admin))
		assert.Error(t, CanPromote(owner, owner))
	})

	t.Run("cross-tenant sees not-found", func(t *testing.T) {
		assertNotFound(t, CanPromote(owner, member(uuid.New(), models.RoleIntern)))
	})
}

func TestCanDeactivate(t *testing.T) {
	orgID := uuid.New()
	owner := member(orgID, models.RoleOwner)
	admin := member(orgID, models.RoleAdmin)
	intern := member(orgID, models.RoleIntern)

	assert.NoError(t, CanDeactivate(owner, intern))
	assert.NoError(t, CanDeactivate(owner, admin))
	assert.Error(t, CanDeactivate(admin, intern))

	t.Run("owner is protected", func(t *testing.T) {
		assert.Error(t, CanDeactivate(owner, owner))
	})
}

func TestCanReactivate(t *testing.T) {
	orgID := uuid.New()
	owner := member(orgID, models.RoleOwner)
	intern := member(orgID, models.RoleIntern)

	assert.NoError(t, CanReactivate(owner, intern))
	assert.Error(t, CanReactivate(member(orgID, models.RoleAdmin), intern))
	assertNotFound(t, CanReactivate(owner, member(uuid.New(), models.RoleIntern)))
}
