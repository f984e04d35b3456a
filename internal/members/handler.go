package members

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/interntrack/backend/internal/access"
	"github.com/interntrack/backend/internal/middleware"
	"github.com/interntrack/backend/internal/models"
	"github.com/interntrack/backend/internal/organizations"
	"github.com/interntrack/backend/pkg/response"
)

// Handler handles team membership HTTP endpoints.
type Handler struct {
	repo    *Repository
	orgRepo *organizations.Repository
	logger  *zap.Logger
}

// NewHandler creates a members handler.
func NewHandler(repo *Repository, orgRepo *organizations.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, orgRepo: orgRepo, logger: logger}
}

// GetTeam handles GET /users/team (admin/owner).
func (h *Handler) GetTeam(c *gin.Context) {
	org := middleware.CurrentOrg(c)
	team, err := h.repo.ListTeam(c.Request.Context(), org.ID)
	if err != nil {
		response.Internal(c, "failed to load team")
		return
	}
	response.OK(c, gin.H{"count": len(team), "users": team})
}

// GetInterns handles GET /users/interns (admin/owner). Includes per-status
// report counts for each active intern.
func (h *Handler) GetInterns(c *gin.Context) {
	org := middleware.CurrentOrg(c)
	interns, err := h.repo.ListInternsWithStats(c.Request.Context(), org.ID)
	if err != nil {
		response.Internal(c, "failed to load interns")
		return
	}
	response.OK(c, gin.H{"count": len(interns), "interns": interns})
}

// GetUser handles GET /users/:id (org-scoped).
func (h *Handler) GetUser(c *gin.Context) {
	org := middleware.CurrentOrg(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	user, err := h.repo.GetInOrg(c.Request.Context(), org.ID, id)
	if err != nil {
		response.Internal(c, "failed to load user")
		return
	}
	if user == nil {
		response.NotFound(c, "user not found")
		return
	}
	response.OK(c, user.ToPublic())
}

// UpdateProfileRequest is the body for PUT /users/profile.
type UpdateProfileRequest struct {
	Name       string `json:"name"`
	Department string `json:"department"`
}

// UpdateProfile handles PUT /users/profile (own profile only).
func (h *Handler) UpdateProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var body UpdateProfileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	name := strings.TrimSpace(body.Name)
	if len(name) > 50 {
		response.BadRequest(c, "name cannot exceed 50 characters")
		return
	}
	if err := h.repo.UpdateProfile(c.Request.Context(), user.ID, name, strings.TrimSpace(body.Department)); err != nil {
		response.Internal(c, "failed to update profile")
		return
	}
	updated, err := h.repo.GetInOrg(c.Request.Context(), user.OrganizationID, user.ID)
	if err != nil || updated == nil {
		response.Internal(c, "failed to load profile")
		return
	}
	response.OK(c, updated.ToPublic())
}

// Deactivate handles PUT /users/:id/deactivate (owner only). Releases the
// member's seat back to the quota ledger exactly once.
func (h *Handler) Deactivate(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	org := middleware.CurrentOrg(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	ctx := c.Request.Context()
	target, err := h.repo.GetInOrg(ctx, org.ID, id)
	if err != nil {
		response.Internal(c, "failed to load user")
		return
	}
	if target == nil {
		response.NotFound(c, "user not found")
		return
	}
	if err := access.CanDeactivate(actor, target); err != nil {
		response.Error(c, err)
		return
	}

	changed, err := h.repo.SetActive(ctx, org.ID, target.ID, false)
	if err != nil {
		response.Internal(c, "failed to deactivate user")
		return
	}
	if changed {
		if err := h.orgRepo.ApplyUsageDelta(ctx, org.ID, seatDelta(target.Role, -1)); err != nil {
			h.logger.Error("seat release after deactivation failed",
				zap.Error(err), zap.String("user_id", target.ID.String()))
		}
	}
	response.OKMessage(c, fmt.Sprintf("%s has been deactivated", target.Name), nil)
}

// Reactivate handles PUT /users/:id/reactivate (owner only). Re-checks the
// seat quota before the member is activated and counted again.
func (h *Handler) Reactivate(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	org := middleware.CurrentOrg(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	ctx := c.Request.Context()
	target, err := h.repo.GetInOrg(ctx, org.ID, id)
	if err != nil {
		response.Internal(c, "failed to load user")
		return
	}
	if target == nil {
		response.NotFound(c, "user not found")
		return
	}
	if err := access.CanReactivate(actor, target); err != nil {
		response.Error(c, err)
		return
	}

	if target.Role == models.RoleIntern && !org.CanAddIntern() {
		response.QuotaExceeded(c, fmt.Sprintf("intern limit reached (%d), upgrade to reactivate", org.Limits.MaxInterns))
		return
	}
	if target.Role == models.RoleAdmin && !org.CanAddAdmin() {
		response.QuotaExceeded(c, fmt.Sprintf("admin limit reached (%d), upgrade to reactivate", org.Limits.MaxAdmins))
		return
	}

	changed, err := h.repo.SetActive(ctx, org.ID, target.ID, true)
	if err != nil {
		response.Internal(c, "failed to reactivate user")
		return
	}
	if changed {
		if err := h.orgRepo.ApplyUsageDelta(ctx, org.ID, seatDelta(target.Role, 1)); err != nil {
			h.logger.Error("seat count after reactivation failed",
				zap.Error(err), zap.String("user_id", target.ID.String()))
		}
	}
	response.OKMessage(c, fmt.Sprintf("%s has been reactivated", target.Name), nil)
}

// Promote handles PUT /users/:id/promote (owner only). Moves an intern into an
// admin seat, shifting both counters in one delta.
func (h *Handler) Promote(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	org := middleware.CurrentOrg(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	ctx := c.Request.Context()
	target, err := h.repo.GetInOrg(ctx, org.ID, id)
	if err != nil {
		response.Internal(c, "failed to load user")
		return
	}
	if target == nil {
		response.NotFound(c, "user not found")
		return
	}
	if err := access.CanPromote(actor, target); err != nil {
		response.Error(c, err)
		return
	}
	if !org.CanAddAdmin() {
		response.QuotaExceeded(c, fmt.Sprintf("admin limit reached (%d), please upgrade your plan", org.Limits.MaxAdmins))
		return
	}

	if err := h.repo.SetRole(ctx, org.ID, target.ID, models.RoleAdmin); err != nil {
		response.Internal(c, "failed to promote user")
		return
	}
	if target.IsActive {
		if err := h.orgRepo.ApplyUsageDelta(ctx, org.ID, models.UsageDelta{Interns: -1, Admins: 1}); err != nil {
			h.logger.Error("seat move after promotion failed",
				zap.Error(err), zap.String("user_id", target.ID.String()))
		}
	}
	response.OKMessage(c, fmt.Sprintf("%s is now an admin", target.Name), nil)
}

func seatDelta(role models.Role, n int) models.UsageDelta {
	if role == models.RoleIntern {
		return models.UsageDelta{Interns: n}
	}
	return models.UsageDelta{Admins: n}
}
