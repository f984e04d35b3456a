package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interntrack/backend/config"
	"github.com/interntrack/backend/internal/middleware"
	"github.com/interntrack/backend/internal/models"
	"github.com/interntrack/backend/internal/token"
	"github.com/interntrack/backend/pkg/queue"
)

type fakeUserStore struct {
	created   []*models.User
	byEmail   *models.User
	createErr error
}

func (f *fakeUserStore) Create(_ context.Context, u *models.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	u.ID = uuid.New()
	f.created = append(f.created, u)
	return nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, _ string) ([]*models.User, error) {
	if f.byEmail == nil {
		return nil, nil
	}
	return []*models.User{f.byEmail}, nil
}

func (f *fakeUserStore) GetByEmailInOrg(_ context.Context, _ uuid.UUID, _ string) (*models.User, error) {
	return f.byEmail, nil
}

func (f *fakeUserStore) GetByInviteToken(_ context.Context, _ string) (*models.User, error) {
	return nil, nil
}

func (f *fakeUserStore) GetByVerificationToken(_ context.Context, _ string) (*models.User, error) {
	return nil, nil
}

func (f *fakeUserStore) ActivateInvited(_ context.Context, _ uuid.UUID, _, _ string) error {
	return nil
}

func (f *fakeUserStore) MarkEmailVerified(_ context.Context, _ uuid.UUID) error { return nil }

type fakeOrgStore struct {
	bySlug       *models.Organization
	createdPairs int
	deltas       []models.UsageDelta
}

func (f *fakeOrgStore) CreateWithOwner(_ context.Context, org *models.Organization, owner *models.User) error {
	org.ID = uuid.New()
	org.IsActive = true
	org.Limits = models.LimitsForPlan(org.Plan)
	org.Usage = models.Usage{CurrentAdmins: 1}
	owner.ID = uuid.New()
	owner.OrganizationID = org.ID
	f.createdPairs++
	return nil
}

func (f *fakeOrgStore) GetByID(_ context.Context, _ uuid.UUID) (*models.Organization, error) {
	return f.bySlug, nil
}

func (f *fakeOrgStore) GetBySlug(_ context.Context, _ string) (*models.Organization, error) {
	return f.bySlug, nil
}

func (f *fakeOrgStore) ApplyUsageDelta(_ context.Context, _ uuid.UUID, delta models.UsageDelta) error {
	f.deltas = append(f.deltas, delta)
	return nil
}

type fakeEmailQueue struct {
	sent []queue.EmailPayload
}

func (f *fakeEmailQueue) EnqueueEmail(_ context.Context, p queue.EmailPayload) error {
	f.sent = append(f.sent, p)
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Invite.TokenExpireHours = 168
	cfg.Email.ClientURL = "http://localhost:3000"
	return cfg
}

func newHandlerFixture(users *fakeUserStore, orgs *fakeOrgStore) (*Handler, *fakeEmailQueue) {
	mail := &fakeEmailQueue{}
	h := NewHandler(users, orgs, token.NewService("test-secret", 1), mail, testConfig(), nil)
	return h, mail
}

func postJSON(t *testing.T, path, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	return got
}

func orgAtCapacity() *models.Organization {
	org := &models.Organization{
		ID:       uuid.New(),
		Name:     "Acme",
		Slug:     "acme",
		Plan:     models.PlanFree,
		IsActive: true,
	}
	org.Limits = models.LimitsForPlan(models.PlanFree)
	org.Usage = models.Usage{
		CurrentInterns: org.Limits.MaxInterns,
		CurrentAdmins:  org.Limits.MaxAdmins,
	}
	return org
}

func ownerOf(org *models.Organization) *models.User {
	return &models.User{
		ID:             uuid.New(),
		OrganizationID: org.ID,
		Name:           "Olive Owner",
		Email:          "owner@acme.dev",
		Role:           models.RoleOwner,
		IsActive:       true,
	}
}

func TestInviteSeatLimits(t *testing.T) {
	t.Run("intern limit reached refuses and creates nothing", func(t *testing.T) {
		org := orgAtCapacity()
		users := &fakeUserStore{}
		h, mail := newHandlerFixture(users, &fakeOrgStore{})

		c, w := postJSON(t, "/auth/invite", `{"email":"new@acme.dev","role":"intern"}`)
		c.Set(middleware.ContextUser, ownerOf(org))
		c.Set(middleware.ContextOrg, org)
		h.Invite(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
		got := decodeBody(t, w)
		assert.Equal(t, true, got["upgrade_required"])
		assert.Contains(t, got["error"], "limit reached")
		assert.Empty(t, users.created)
		assert.Empty(t, mail.sent)
	})

	t.Run("admin limit reached refuses and creates nothing", func(t *testing.T) {
		org := orgAtCapacity()
		users := &fakeUserStore{}
		h, mail := newHandlerFixture(users, &fakeOrgStore{})

		c, w := postJSON(t, "/auth/invite", `{"email":"new@acme.dev","role":"admin"}`)
		c.Set(middleware.ContextUser, ownerOf(org))
		c.Set(middleware.ContextOrg, org)
		h.Invite(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
		got := decodeBody(t, w)
		assert.Equal(t, true, got["upgrade_required"])
		assert.Contains(t, got["error"], "limit reached")
		assert.Empty(t, users.created)
		assert.Empty(t, mail.sent)
	})

	t.Run("open seat creates pending inactive user", func(t *testing.T) {
		org := orgAtCapacity()
		org.Usage.CurrentInterns = org.Limits.MaxInterns - 1
		users := &fakeUserStore{}
		h, mail := newHandlerFixture(users, &fakeOrgStore{})

		c, w := postJSON(t, "/auth/invite", `{"email":"New@acme.dev","role":"intern"}`)
		c.Set(middleware.ContextUser, ownerOf(org))
		c.Set(middleware.ContextOrg, org)
		h.Invite(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		require.Len(t, users.created, 1)
		invited := users.created[0]
		assert.Equal(t, "new@acme.dev", invited.Email)
		assert.Equal(t, models.RoleIntern, invited.Role)
		assert.False(t, invited.IsActive)
		require.Len(t, mail.sent, 1)
		assert.Equal(t, queue.EmailTypeInvite, mail.sent[0].EmailType)
	})

	t.Run("admin invite is owner-only", func(t *testing.T) {
		org := orgAtCapacity()
		org.Usage.CurrentAdmins = 0
		users := &fakeUserStore{}
		h, _ := newHandlerFixture(users, &fakeOrgStore{})

		admin := ownerOf(org)
		admin.Role = models.RoleAdmin
		c, w := postJSON(t, "/auth/invite", `{"email":"new@acme.dev","role":"admin"}`)
		c.Set(middleware.ContextUser, admin)
		c.Set(middleware.ContextOrg, org)
		h.Invite(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, users.created)
	})
}

func TestRegister(t *testing.T) {
	t.Run("creates organization and owner together", func(t *testing.T) {
		users := &fakeUserStore{}
		orgs := &fakeOrgStore{}
		h, mail := newHandlerFixture(users, orgs)

		c, w := postJSON(t, "/auth/register",
			`{"name":"Olive","email":"olive@acme.dev","password":"hunter22","organization_name":"Acme Internships"}`)
		h.Register(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 1, orgs.createdPairs)
		// The owner rides the organization transaction, never a separate insert.
		assert.Empty(t, users.created)
		require.Len(t, mail.sent, 1)
		assert.Equal(t, queue.EmailTypeVerification, mail.sent[0].EmailType)

		got := decodeBody(t, w)
		data, ok := got["data"].(map[string]interface{})
		require.True(t, ok)
		assert.NotEmpty(t, data["token"])
	})

	t.Run("taken slug conflicts", func(t *testing.T) {
		orgs := &fakeOrgStore{bySlug: orgAtCapacity()}
		h, _ := newHandlerFixture(&fakeUserStore{}, orgs)

		c, w := postJSON(t, "/auth/register",
			`{"name":"Olive","email":"olive@acme.dev","password":"hunter22","organization_name":"Acme"}`)
		h.Register(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, 0, orgs.createdPairs)
	})

	t.Run("short password rejected", func(t *testing.T) {
		orgs := &fakeOrgStore{}
		h, _ := newHandlerFixture(&fakeUserStore{}, orgs)

		c, w := postJSON(t, "/auth/register",
			`{"name":"Olive","email":"olive@acme.dev","password":"abc","organization_name":"Acme"}`)
		h.Register(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 0, orgs.createdPairs)
	})
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Acme Internships", "acme-internships"},
		{"  Dev & Ops  ", "dev-ops"},
		{"ALLCAPS", "allcaps"},
		{"multi   space", "multi-space"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}
