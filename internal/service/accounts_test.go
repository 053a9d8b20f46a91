package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/carparking/internal/config"
	"github.com/iliyamo/carparking/internal/model"
	"github.com/iliyamo/carparking/internal/repository/memory"
	"github.com/iliyamo/carparking/internal/utils"
)

func testAccounts() *Accounts {
	store := memory.New()
	cfg := config.Config{
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4,
		AdminEmails:    []string{"boss@example.com"},
	}
	return NewAccounts(cfg, store, store)
}

func TestRegisterAssignsRoles(t *testing.T) {
	ctx := context.Background()
	acc := testAccounts()

	s, err := acc.Register(ctx, RegisterInput{FullName: "Sam", Email: " Sam@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", s.User.Email)
	assert.Equal(t, model.RoleCustomer, s.User.Role)
	assert.NotEqual(t, "secret1", s.User.PasswordHash)

	claims, err := utils.ParseAccessToken("test-secret", s.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, claims.UserID)
	assert.Equal(t, model.RoleCustomer, claims.Role)

	admin, err := acc.Register(ctx, RegisterInput{FullName: "Boss", Email: "BOSS@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.User.Role)

	_, err = acc.Register(ctx, RegisterInput{FullName: "Sam again", Email: "sam@example.com", Password: "secret2"})
	assert.ErrorIs(t, err, ErrDuplicate)

	n, err := acc.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestRegisterValidation(t *testing.T) {
	acc := testAccounts()
	ctx := context.Background()

	_, err := acc.Register(ctx, RegisterInput{Email: "a@b.co", Password: "secret1"})
	assert.ErrorIs(t, err, ErrMissingParameter)
	_, err = acc.Register(ctx, RegisterInput{FullName: "A", Email: "nope", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = acc.Register(ctx, RegisterInput{FullName: "A", Email: "a@b.co", Password: "123"})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestLoginRefreshLogout(t *testing.T) {
	ctx := context.Background()
	acc := testAccounts()
	_, err := acc.Register(ctx, RegisterInput{FullName: "Sam", Email: "sam@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = acc.Login(ctx, "sam@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = acc.Login(ctx, "ghost@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = acc.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrMissingParameter)

	s, err := acc.Login(ctx, "SAM@example.com", "secret1")
	require.NoError(t, err)

	// refresh rotates: the old token stops working
	next, err := acc.Refresh(ctx, s.Refresh.Raw)
	require.NoError(t, err)
	assert.NotEqual(t, s.Refresh.Raw, next.Refresh.Raw)
	_, err = acc.Refresh(ctx, s.Refresh.Raw)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, acc.Logout(ctx, next.Refresh.Raw))
	_, err = acc.Refresh(ctx, next.Refresh.Raw)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, acc.Logout(ctx, next.Refresh.Raw), ErrInvalidCredentials)
}

func TestLogoutAll(t *testing.T) {
	ctx := context.Background()
	acc := testAccounts()
	s1, err := acc.Register(ctx, RegisterInput{FullName: "Sam", Email: "sam@example.com", Password: "secret1"})
	require.NoError(t, err)
	s2, err := acc.Login(ctx, "sam@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, acc.LogoutAll(ctx, s1.User.ID))
	_, err = acc.Refresh(ctx, s1.Refresh.Raw)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = acc.Refresh(ctx, s2.Refresh.Raw)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserAdminViews(t *testing.T) {
	ctx := context.Background()
	acc := testAccounts()
	s, err := acc.Register(ctx, RegisterInput{FullName: "Sam", Email: "sam@example.com", Password: "secret1"})
	require.NoError(t, err)

	users, err := acc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	u, err := acc.GetUser(ctx, s.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sam", u.FullName)

	require.NoError(t, acc.DeleteUser(ctx, s.User.ID))
	_, err = acc.GetUser(ctx, s.User.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, acc.DeleteUser(ctx, s.User.ID), ErrNotFound)
}
