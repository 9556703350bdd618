package services

import (
	"context"
	"testing"

	"github.com/sahilchouksey/learnhub/database"
	"github.com/sahilchouksey/learnhub/domain"
	"github.com/sahilchouksey/learnhub/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserService(t *testing.T) *UserService {
	t.Helper()
	// Minimum bcrypt cost keeps the suite fast
	return NewUserService(newTestDB(t, database.UserModels), newTestJWTManager(), 4)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "Ada@Example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, model.RoleStudent, user.Role)
	assert.NotEqual(t, "password123", user.PasswordHash)

	result, err := svc.Login(ctx, "ada@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, user.ID, result.User.ID)

	claims, err := newTestJWTManager().ValidateToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, string(model.RoleStudent), claims.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "dup@example.com", Password: "password123", Role: model.RoleAdmin})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Email: "DUP@example.com", Password: "password456"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "not-an-email", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "short"})
	assert.ErrorIs(t, err, domain.ErrPasswordTooWeak)

	_, err = svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "password123", Role: "OWNER"})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestLoginFailures(t *testing.T) {
	svc := newTestUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "bob@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "bob@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetProfile(t *testing.T) {
	svc := newTestUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "carol@example.com", Password: "password123"})
	require.NoError(t, err)

	got, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", got.Email)

	_, err = svc.GetProfile(ctx, 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
