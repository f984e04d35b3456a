package token

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interntrack/backend/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("test-secret", 1)
	user := &models.User{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		Email:          "intern@acme.dev",
		Role:           models.RoleIntern,
	}

	token, err := svc.Generate(user)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.OrganizationID, claims.OrganizationID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, models.RoleIntern, claims.Role)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewService("secret-a", 1).Generate(&models.User{ID: uuid.New()})
	require.NoError(t, err)

	_, err = NewService("secret-b", 1).Validate(token)
	assert.Error(t, err)
}

func TestTokenRejectsGarbage(t *testing.T) {
	_, err := NewService("secret", 1).Validate("not.a.token")
	assert.Error(t, err)
}
