package organizations

import (
	"github.com/gin-gonic/gin"

	"github.com/interntrack/backend/internal/middleware"
	"github.com/interntrack/backend/pkg/response"
)

// Handler handles organization HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates an organizations handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// GetMine handles GET /organizations/me. Returns the caller's organization
// with plan limits and current usage for dashboards.
func (h *Handler) GetMine(c *gin.Context) {
	response.OK(c, middleware.CurrentOrg(c))
}
