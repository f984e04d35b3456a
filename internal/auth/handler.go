package auth

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/interntrack/backend/config"
	"github.com/interntrack/backend/internal/access"
	"github.com/interntrack/backend/internal/middleware"
	"github.com/interntrack/backend/internal/models"
	"github.com/interntrack/backend/internal/token"
	"github.com/interntrack/backend/pkg/queue"
	"github.com/interntrack/backend/pkg/response"
	"github.com/interntrack/backend/pkg/utils"
)

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-safe slug from an organization name.
func Slugify(name string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

// UserStore is the user persistence surface the handlers need.
// Satisfied by *Repository.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) ([]*models.User, error)
	GetByEmailInOrg(ctx context.Context, orgID uuid.UUID, email string) (*models.User, error)
	GetByInviteToken(ctx context.Context, hashedToken string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, hashedToken string) (*models.User, error)
	ActivateInvited(ctx context.Context, id uuid.UUID, name, passwordHash string) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
}

// OrgStore is the organization persistence surface the handlers need.
// Satisfied by *organizations.Repository.
type OrgStore interface {
	CreateWithOwner(ctx context.Context, org *models.Organization, owner *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	GetBySlug(ctx context.Context, slug string) (*models.Organization, error)
	ApplyUsageDelta(ctx context.Context, orgID uuid.UUID, delta models.UsageDelta) error
}

// EmailQueue enqueues outbound email jobs. Satisfied by *queue.Queue.
type EmailQueue interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) error
}

// Handler handles authentication and membership-entry HTTP endpoints.
type Handler struct {
	repo    UserStore
	orgRepo OrgStore
	tokens  *token.Service
	queue   EmailQueue
	cfg     *config.Config
	logger  *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo UserStore, orgRepo OrgStore, tokens *token.Service, q EmailQueue, cfg *config.Config, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, orgRepo: orgRepo, tokens: tokens, queue: q, cfg: cfg, logger: logger}
}

// RegisterRequest is the body for POST /auth/register (organization signup).
type RegisterRequest struct {
	Name             string `json:"name" binding:"required"`
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required"`
	OrganizationName string `json:"organization_name" binding:"required"`
}

// Register handles POST /auth/register. Creates the organization and its owner
// in one step; the owner occupies the first admin seat.
func (h *Handler) Register(c *gin.Context) {
	var body RegisterRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "name, email, password and organization_name required")
		return
	}
	if len(body.Password) < 6 {
		response.BadRequest(c, "password must be at least 6 characters")
		return
	}
	body.Name = strings.TrimSpace(body.Name)
	body.OrganizationName = strings.TrimSpace(body.OrganizationName)
	if len(body.OrganizationName) < 1 || len(body.OrganizationName) > 100 {
		response.BadRequest(c, "organization name must be 1-100 characters")
		return
	}
	slug := Slugify(body.OrganizationName)
	if slug == "" {
		response.BadRequest(c, "organization name must contain letters or numbers")
		return
	}

	ctx := c.Request.Context()
	existing, err := h.orgRepo.GetBySlug(ctx, slug)
	if err != nil {
		response.Internal(c, "failed to check organization name")
		return
	}
	if existing != nil {
		response.Conflict(c, "organization name already taken, please choose another")
		return
	}

	hash, err := utils.HashPassword(body.Password)
	if err != nil {
		response.Internal(c, "failed to create account")
		return
	}
	rawToken, hashedToken := utils.GenerateToken()
	expires := time.Now().Add(24 * time.Hour)

	org := &models.Organization{Name: body.OrganizationName, Slug: slug, Plan: models.PlanFree}
	user := &models.User{
		Name:                    body.Name,
		Email:                   strings.ToLower(body.Email),
		Password:                hash,
		Role:                    models.RoleOwner,
		IsActive:                true,
		EmailVerificationToken:  hashedToken,
		EmailVerificationExpire: &expires,
	}
	// Org and owner commit together; a lost race on the slug surfaces as a
	// duplicate key from the insert.
	if err := h.orgRepo.CreateWithOwner(ctx, org, user); err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			response.Conflict(c, "organization name already taken, please choose another")
			return
		}
		response.Internal(c, "failed to create account")
		return
	}

	h.enqueueVerificationEmail(c, user, rawToken)

	token, err := h.tokens.Generate(user)
	if err != nil {
		response.Internal(c, "failed to issue token")
		return
	}
	response.Created(c, gin.H{
		"token":        token,
		"user":         user.ToPublic(),
		"organization": org,
	})
}

// LoginRequest is the body for POST /auth/login. Email is unique per
// organization; the slug disambiguates when the same email exists in several.
type LoginRequest struct {
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required"`
	OrganizationSlug string `json:"organization_slug"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var body LoginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "email and password required")
		return
	}
	ctx := c.Request.Context()
	email := strings.ToLower(body.Email)

	var user *models.User
	if body.OrganizationSlug != "" {
		org, err := h.orgRepo.GetBySlug(ctx, body.OrganizationSlug)
		if err != nil || org == nil {
			response.Unauthorized(c, "invalid credentials")
			return
		}
		u, err := h.repo.GetByEmailInOrg(ctx, org.ID, email)
		if err != nil {
			response.Internal(c, "login failed")
			return
		}
		user = u
	} else {
		matches, err := h.repo.GetByEmail(ctx, email)
		if err != nil {
			response.Internal(c, "login failed")
			return
		}
		if len(matches) > 1 {
			response.BadRequest(c, "email belongs to multiple organizations, provide organization_slug")
			return
		}
		if len(matches) == 1 {
			user = matches[0]
		}
	}

	if user == nil || !utils.CheckPassword(body.Password, user.Password) {
		response.Unauthorized(c, "invalid credentials")
		return
	}
	if !user.IsActive {
		response.Unauthorized(c, "your account has been deactivated")
		return
	}

	org, err := h.orgRepo.GetByID(ctx, user.OrganizationID)
	if err != nil || org == nil {
		response.Internal(c, "login failed")
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		response.Internal(c, "failed to issue token")
		return
	}
	response.OK(c, gin.H{
		"token":        token,
		"user":         user.ToPublic(),
		"organization": org,
	})
}

// Me handles GET /auth/me. Returns the caller and a snapshot of their
// organization including limits and usage.
func (h *Handler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	org := middleware.CurrentOrg(c)
	response.OK(c, gin.H{
		"user":         user.ToPublic(),
		"organization": org,
	})
}

// VerifyEmail handles GET /auth/verify-email/:token.
func (h *Handler) VerifyEmail(c *gin.Context) {
	hashed := utils.HashToken(c.Param("token"))
	user, err := h.repo.GetByVerificationToken(c.Request.Context(), hashed)
	if err != nil {
		response.Internal(c, "verification failed")
		return
	}
	if user == nil {
		response.BadRequest(c, "invalid or expired verification token")
		return
	}
	if err := h.repo.MarkEmailVerified(c.Request.Context(), user.ID); err != nil {
		response.Internal(c, "verification failed")
		return
	}
	response.OKMessage(c, "email verified successfully", nil)
}

// InviteRequest is the body for POST /auth/invite.
type InviteRequest struct {
	Email string      `json:"email" binding:"required,email"`
	Name  string      `json:"name"`
	Role  models.Role `json:"role" binding:"required"`
}

// Invite handles POST /auth/invite (admin/owner; admin seats owner-only).
// Seat quota is checked before the pending user is created, so a refused
// invite leaves nothing behind.
func (h *Handler) Invite(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	org := middleware.CurrentOrg(c)

	var body InviteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "email and role required")
		return
	}
	if err := access.CanInvite(actor, body.Role); err != nil {
		response.Error(c, err)
		return
	}
	switch body.Role {
	case models.RoleIntern:
		if !org.CanAddIntern() {
			response.QuotaExceeded(c, fmt.Sprintf("intern limit reached (%d), please upgrade your plan", org.Limits.MaxInterns))
			return
		}
	case models.RoleAdmin:
		if !org.CanAddAdmin() {
			response.QuotaExceeded(c, fmt.Sprintf("admin limit reached (%d), please upgrade your plan", org.Limits.MaxAdmins))
			return
		}
	}

	ctx := c.Request.Context()
	email := strings.ToLower(body.Email)
	existing, err := h.repo.GetByEmailInOrg(ctx, org.ID, email)
	if err != nil {
		response.Internal(c, "failed to check existing members")
		return
	}
	if existing != nil {
		response.Conflict(c, "user already exists in this organization")
		return
	}

	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	// Placeholder credential until the invite is accepted; the account stays
	// inactive so it cannot log in and consumes no seat.
	tempPass, _ := utils.GenerateToken()
	hash, err := utils.HashPassword(tempPass[:16])
	if err != nil {
		response.Internal(c, "failed to create invitation")
		return
	}
	rawToken, hashedToken := utils.GenerateToken()
	expires := time.Now().Add(time.Duration(h.cfg.Invite.TokenExpireHours) * time.Hour)
	user := &models.User{
		OrganizationID:     org.ID,
		Name:               name,
		Email:              email,
		Password:           hash,
		Role:               body.Role,
		IsActive:           false,
		InvitedBy:          &actor.ID,
		InviteToken:        hashedToken,
		InviteTokenExpires: &expires,
	}
	if err := h.repo.Create(ctx, user); err != nil {
		response.Internal(c, "failed to create invitation")
		return
	}

	h.enqueueInviteEmail(c, user, org, actor, rawToken)

	response.Created(c, gin.H{
		"id":    user.ID,
		"email": user.Email,
		"role":  user.Role,
	})
}

// AcceptInviteRequest is the body for POST /auth/accept-invite/:token.
type AcceptInviteRequest struct {
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

// AcceptInvite handles POST /auth/accept-invite/:token. Activates the account
// and applies the seat delta to the organization's usage exactly once.
func (h *Handler) AcceptInvite(c *gin.Context) {
	var body AcceptInviteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "password required")
		return
	}
	if len(body.Password) < 6 {
		response.BadRequest(c, "password must be at least 6 characters")
		return
	}

	ctx := c.Request.Context()
	hashed := utils.HashToken(c.Param("token"))
	user, err := h.repo.GetByInviteToken(ctx, hashed)
	if err != nil {
		response.Internal(c, "failed to accept invitation")
		return
	}
	if user == nil {
		response.BadRequest(c, "invalid or expired invitation")
		return
	}

	hash, err := utils.HashPassword(body.Password)
	if err != nil {
		response.Internal(c, "failed to accept invitation")
		return
	}
	if err := h.repo.ActivateInvited(ctx, user.ID, strings.TrimSpace(body.Name), hash); err != nil {
		response.Internal(c, "failed to accept invitation")
		return
	}

	delta := models.UsageDelta{}
	if user.Role == models.RoleIntern {
		delta.Interns = 1
	} else {
		delta.Admins = 1
	}
	if err := h.orgRepo.ApplyUsageDelta(ctx, user.OrganizationID, delta); err != nil {
		h.logger.Error("seat delta after invite accept failed",
			zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	user.IsActive = true
	token, err := h.tokens.Generate(user)
	if err != nil {
		response.Internal(c, "failed to issue token")
		return
	}
	response.OK(c, gin.H{
		"token": token,
		"user":  user.ToPublic(),
	})
}

func (h *Handler) enqueueVerificationEmail(c *gin.Context, user *models.User, rawToken string) {
	if h.queue == nil {
		return
	}
	link := fmt.Sprintf("%s/verify-email/%s", h.cfg.Email.ClientURL, rawToken)
	err := h.queue.EnqueueEmail(c.Request.Context(), queue.EmailPayload{
		EmailType:      queue.EmailTypeVerification,
		RecipientEmail: user.Email,
		RecipientName:  user.Name,
		Subject:        "Verify your email",
		Body:           "Welcome! Verify your email: " + link,
	})
	if err != nil {
		h.logger.Warn("enqueue verification email failed", zap.Error(err), zap.String("email", user.Email))
	}
}

func (h *Handler) enqueueInviteEmail(c *gin.Context, user *models.User, org *models.Organization, inviter *models.User, rawToken string) {
	if h.queue == nil {
		return
	}
	link := fmt.Sprintf("%s/accept-invite/%s", h.cfg.Email.ClientURL, rawToken)
	err := h.queue.EnqueueEmail(c.Request.Context(), queue.EmailPayload{
		EmailType:      queue.EmailTypeInvite,
		RecipientEmail: user.Email,
		RecipientName:  user.Name,
		Subject:        fmt.Sprintf("You're invited to join %s", org.Name),
		Body:           fmt.Sprintf("%s invited you to join %s as %s. Accept here: %s", inviter.Name, org.Name, user.Role, link),
	})
	if err != nil {
		h.logger.Warn("enqueue invite email failed", zap.Error(err), zap.String("email", user.Email))
	}
}
