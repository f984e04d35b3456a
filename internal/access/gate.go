// Package access centralizes role, ownership and tenant checks layered in
// front of the report state machine and membership operations.
package access

import (
	"github.com/interntrack/backend/internal/models"
	"github.com/interntrack/backend/pkg/apperrors"
)

// Cross-tenant access is rejected as not-found throughout so resource
// existence never leaks across organizations.

// CanViewReport checks whether the actor may read a report. Admins and owners
// may view any report in their organization; an intern only their own.
func CanViewReport(actor *models.User, r *models.Report) error {
	if actor.OrganizationID != r.OrganizationID {
		return apperrors.NewNotFound("report")
	}
	if actor.Role.IsAdmin() || actor.ID == r.InternID {
		return nil
	}
	return apperrors.NewAuthorization("not authorized to view this report")
}

// CanMutateReport checks whether the actor may change a report's content or
// move it through intern-side transitions (update draft, submit, undo).
func CanMutateReport(actor *models.User, r *models.Report) error {
	if actor.OrganizationID != r.OrganizationID {
		return apperrors.NewNotFound("report")
	}
	if actor.ID != r.InternID {
		return apperrors.NewAuthorization("only the authoring intern can modify this report")
	}
	return nil
}

// CanReview checks whether the actor may begin review or grade a report.
func CanReview(actor *models.User, r *models.Report) error {
	if actor.OrganizationID != r.OrganizationID {
		return apperrors.NewNotFound("report")
	}
	if !actor.Role.IsAdmin() {
		return apperrors.NewAuthorization("admin access required")
	}
	return nil
}

// CanDeleteReport checks delete rights: admins/owners always (within their
// organization), the authoring intern only while the report is a draft.
func CanDeleteReport(actor *models.User, r *models.Report) error {
	if actor.OrganizationID != r.OrganizationID {
		return apperrors.NewNotFound("report")
	}
	if actor.Role.IsAdmin() {
		return nil
	}
	if actor.ID != r.InternID {
		return apperrors.NewAuthorization("only the authoring intern can delete this report")
	}
	if r.Status != models.StatusDraft {
		return apperrors.NewStateConflict("delete", string(r.Status))
	}
	return nil
}

// CanInvite checks elevation control: admins and owners invite interns, only
// the owner invites admins. Inviting a second owner is never legal.
func CanInvite(actor *models.User, target models.Role) error {
	if !actor.Role.IsAdmin() {
		return apperrors.NewAuthorization("you do not have permission to invite users")
	}
	switch target {
	case models.RoleIntern:
		return nil
	case models.RoleAdmin:
		if actor.Role != models.RoleOwner {
			return apperrors.NewAuthorization("only the organization owner can invite admins")
		}
		return nil
	default:
		return apperrors.NewValidation("role", "must be intern or admin")
	}
}

// CanPromote checks whether the actor may promote target to admin. Owner only;
// the promotion path never creates a second owner.
func CanPromote(actor, target *models.User) error {
	if actor.OrganizationID != target.OrganizationID {
		return apperrors.NewNotFound("user")
	}
	if actor.Role != models.RoleOwner {
		return apperrors.NewAuthorization("only the organization owner can promote members")
	}
	if target.Role != models.RoleIntern {
		return apperrors.NewValidation("role", "only interns can be promoted to admin")
	}
	return nil
}

// CanDeactivate checks whether the actor may deactivate target. Self-protection:
// nobody deactivates themselves or the organization's owner.
func CanDeactivate(actor, target *models.User) error {
	if actor.OrganizationID != target.OrganizationID {
		return apperrors.NewNotFound("user")
	}
	if actor.Role != models.RoleOwner {
		return apperrors.NewAuthorization("owner access required")
	}
	if target.Role == models.RoleOwner {
		return apperrors.NewAuthorization("cannot deactivate the organization owner")
	}
	if actor.ID == target.ID {
		return apperrors.NewAuthorization("cannot deactivate yourself")
	}
	return nil
}

// CanReactivate checks whether the actor may reactivate target.
func CanReactivate(actor, target *models.User) error {
	if actor.OrganizationID != target.OrganizationID {
		return apperrors.NewNotFound("user")
	}
	if actor.Role != models.RoleOwner {
		return apperrors.NewAuthorization("owner access required")
	}
	return nil
}

// CanViewUser checks whether the actor may read target's profile.
// Members of the same organization may view each other.
func CanViewUser(actor, target *models.User) error {
	if actor.OrganizationID != target.OrganizationID {
		return apperrors.NewNotFound("user")
	}
	return nil
}
