package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/carparking/internal/config"
	"github.com/iliyamo/carparking/internal/model"
	"github.com/iliyamo/carparking/internal/repository"
	"github.com/iliyamo/carparking/internal/utils"
)

// Accounts handles registration, login and refresh-token rotation, plus the
// operator views of the user table.
type Accounts struct {
	cfg    config.Config
	users  repository.UserStore
	tokens repository.TokenStore
}

func NewAccounts(cfg config.Config, users repository.UserStore, tokens repository.TokenStore) *Accounts {
	if users == nil || tokens == nil {
		panic("nil store passed to NewAccounts")
	}
	return &Accounts{cfg: cfg, users: users, tokens: tokens}
}

// Session is what a successful register, login or refresh hands back.
type Session struct {
	User    model.User
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

type RegisterInput struct {
	FullName string `json:"full_name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// Register creates the account and signs it in.  Emails listed in
// ADMIN_EMAILS get the ADMIN role, everybody else is a CUSTOMER.
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := checkStruct(in); err != nil {
		return Session{}, err
	}
	hash, err := utils.HashPassword(in.Password, a.cfg.BcryptCost)
	if err != nil {
		return Session{}, err
	}
	role := model.RoleCustomer
	if a.cfg.IsAdminEmail(in.Email) {
		role = model.RoleAdmin
	}
	u, err := a.users.CreateUser(ctx, model.User{
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return Session{}, fail(ErrDuplicate, "email already exists")
		}
		return Session{}, err
	}
	return a.issue(ctx, u)
}

// Login verifies the password.  Unknown email, wrong password and disabled
// accounts are indistinguishable to the caller.
func (a *Accounts) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, fail(ErrMissingParameter, "email/password required")
	}
	u, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, fail(ErrInvalidCredentials, "invalid credentials")
		}
		return Session{}, err
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, fail(ErrInvalidCredentials, "invalid credentials")
	}
	return a.issue(ctx, u)
}

// Refresh validates by hash, revokes the old token and issues a new pair.
func (a *Accounts) Refresh(ctx context.Context, raw string) (Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Session{}, fail(ErrMissingParameter, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(raw)
	userID, err := a.tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, fail(ErrInvalidCredentials, "invalid refresh token")
		}
		return Session{}, err
	}
	if err := a.tokens.RevokeByHash(ctx, hash); err != nil {
		return Session{}, err
	}
	u, err := a.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, fail(ErrInvalidCredentials, "invalid refresh token")
		}
		return Session{}, err
	}
	return a.issue(ctx, u)
}

// Logout revokes one refresh token.
func (a *Accounts) Logout(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fail(ErrMissingParameter, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(raw)
	if _, err := a.tokens.ValidateRefresh(ctx, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(ErrInvalidCredentials, "invalid refresh token")
		}
		return err
	}
	return a.tokens.RevokeByHash(ctx, hash)
}

// LogoutAll revokes every session of the user.
func (a *Accounts) LogoutAll(ctx context.Context, userID uint64) error {
	return a.tokens.RevokeAllForUser(ctx, userID)
}

func (a *Accounts) issue(ctx context.Context, u model.User) (Session, error) {
	access, err := utils.NewAccessToken(a.cfg.JWTSecret, u.ID, u.Role, a.cfg.AccessTTLMin)
	if err != nil {
		return Session{}, err
	}
	refresh, err := utils.NewRefreshToken(a.cfg.RefreshTTLDays)
	if err != nil {
		return Session{}, err
	}
	if err := a.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return Session{}, err
	}
	return Session{User: u, Access: access, Refresh: refresh}, nil
}

func (a *Accounts) GetUser(ctx context.Context, id uint64) (model.User, error) {
	u, err := a.users.GetUserByID(ctx, id)
	return u, fromStore(err, "user")
}

func (a *Accounts) ListUsers(ctx context.Context) ([]model.User, error) {
	return a.users.ListUsers(ctx)
}

func (a *Accounts) DeleteUser(ctx context.Context, id uint64) error {
	return fromStore(a.users.DeleteUser(ctx, id), "user")
}

func (a *Accounts) CountUsers(ctx context.Context) (int64, error) {
	return a.users.CountUsers(ctx)
}
