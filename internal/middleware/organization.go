package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/interntrack/backend/internal/models"
	"github.com/interntrack/backend/pkg/response"
)

// UserSource loads a user by ID.
type UserSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// OrgSource loads an organization by ID.
type OrgSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

// OrgContext loads the authenticated user and their organization into the gin
// context. It rejects deactivated users and deactivated organizations, and
// refreshes the role from the store rather than trusting the token's copy.
func OrgContext(users UserSource, orgs OrgSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.MustGet(ContextUserID).(uuid.UUID)

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil || user == nil {
			response.Unauthorized(c, "user not found")
			c.Abort()
			return
		}
		if !user.IsActive {
			response.Unauthorized(c, "account has been deactivated")
			c.Abort()
			return
		}

		org, err := orgs.GetByID(c.Request.Context(), user.OrganizationID)
		if err != nil || org == nil {
			response.Forbidden(c, "user does not belong to an organization")
			c.Abort()
			return
		}
		if !org.IsActive {
			response.Forbidden(c, "organization has been deactivated")
			c.Abort()
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextUserRole, user.Role)
		c.Set(ContextOrg, org)
		c.Next()
	}
}

// CurrentUser returns the user loaded by OrgContext.
func CurrentUser(c *gin.Context) *models.User {
	return c.MustGet(ContextUser).(*models.User)
}

// CurrentOrg returns the organization loaded by OrgContext.
func CurrentOrg(c *gin.Context) *models.Organization {
	return c.MustGet(ContextOrg).(*models.Organization)
}
