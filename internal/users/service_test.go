package users

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"dorm-listing-portal/internal/database"
	"dorm-listing-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(database.NewMemoryDB(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAssignRoleOverwrites(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	_, err := svc.Register(ctx, "u1", "student@example.edu")
	require.NoError(t, err)

	require.NoError(t, svc.AssignRole(ctx, "u1", models.RoleOwner))
	u, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, u.Role)
	assert.Equal(t, models.RoleOwner, *u.Role)
	assert.True(t, u.RoleInitialized)

	require.NoError(t, svc.AssignRole(ctx, "u1", models.RoleStudent))
	u, err = svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, *u.Role)
	assert.True(t, u.RoleInitialized)
}

func TestAssignRoleSameRoleTwice(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	_, err := svc.Register(ctx, "u1", "owner@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.AssignRole(ctx, "u1", models.RoleOwner))
	require.NoError(t, svc.AssignRole(ctx, "u1", models.RoleOwner))

	u, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, u.HasRole(models.RoleOwner))
}

func TestAssignRoleUnknownUser(t *testing.T) {
	err := newTestService(t).AssignRole(context.Background(), "ghost", models.RoleOwner)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAssignRoleInvalidRole(t *testing.T) {
	err := newTestService(t).AssignRole(context.Background(), "u1", models.UserRole("Admin"))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "role", vErr.Field)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	u, err := svc.Register(ctx, "u1", "  new@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)
	assert.Nil(t, u.Role)
	assert.False(t, u.RoleInitialized)

	_, err = svc.Register(ctx, "u2", "new@example.com")
	assert.Error(t, err, "duplicate email")

	_, err = svc.Register(ctx, "u3", "not-an-email")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "email", vErr.Field)
}

func TestGetUnknownUser(t *testing.T) {
	_, err := newTestService(t).Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
