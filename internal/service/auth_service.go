package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/yakoovad/teamroom/internal/auth"
	"github.com/yakoovad/teamroom/internal/db"
	"github.com/yakoovad/teamroom/internal/model"
	"github.com/yakoovad/teamroom/internal/repository"
	"github.com/yakoovad/teamroom/pkg/logger"
	"go.uber.org/zap"
)

type RegisterInput struct {
	Email          string
	FirstName      string
	LastName       string
	PatronymicName string
	Password       string
}

type AuthService struct {
	tx db.Transactor

	users    repository.UserRepository
	sessions repository.SessionRepository

	tokens *auth.TokenManager
	hasher *auth.PasswordHasher
}

func NewAuthService(tx db.Transactor, tokens *auth.TokenManager, hasher *auth.PasswordHasher) *AuthService {
	return &AuthService{
		tx:     tx,
		tokens: tokens,
		hasher: hasher,
	}
}

// Register creates a user with a hashed password. An email occupied by any
// existing account, soft-deleted ones included, is a conflict.
func (a *AuthService) Register(ctx context.Context, input *RegisterInput) (string, *Error) {
	l := logger.FromContext(ctx)

	hash, err := a.hasher.Hash(input.Password)
	if err != nil {
		l.Error("failed to hash password", zap.Error(err))
		return "", NewError(ErrorCodeUnspecified, "failed to register user")
	}

	_, err = a.users.Create(ctx, &repository.User{
		Email:          input.Email,
		PasswordHash:   hash,
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		PatronymicName: input.PatronymicName,
	})
	if errors.Is(err, repository.ErrAlreadyExists) {
		l.Warn("email already registered", zap.String("email", input.Email))
		return "", NewError(ErrorCodeConflict, "email already registered")
	}
	if err != nil {
		l.Error("failed to create user", zap.Error(err))
		return "", NewError(ErrorCodeUnspecified, "failed to register user")
	}

	l.Info("user registered", zap.String("email", input.Email))

	return input.Email, nil
}

// Login verifies credentials and issues an access/refresh token pair. All
// failure modes share one message so callers cannot probe which occurred.
func (a *AuthService) Login(ctx context.Context, email, password string) (*model.TokenPair, *Error) {
	l := logger.FromContext(ctx)

	unauthorized := NewError(ErrorCodeUnauthorized, "invalid email or password")

	user, err := a.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, unauthorized
	}
	if err != nil {
		l.Error("failed to get user", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to log in")
	}

	if user.IsDeleted || !a.hasher.Verify(password, user.PasswordHash) {
		return nil, unauthorized
	}

	accessToken, err := a.tokens.GenerateAccessToken(user.ID)
	if err != nil {
		l.Error("failed to generate access token", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to log in")
	}

	refreshToken, err := a.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		l.Error("failed to generate refresh token", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to log in")
	}

	if err = a.sessions.Save(ctx, refreshToken, user.ID, a.tokens.RefreshTTL()); err != nil {
		l.Error("failed to save refresh token", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to log in")
	}

	l.Info("user logged in", zap.String("user_id", user.ID))

	return &model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, nil
}

// Refresh issues a new access token for the user bound to a live refresh
// token. The refresh token itself is not rotated.
func (a *AuthService) Refresh(ctx context.Context, refreshToken string) (string, *Error) {
	l := logger.FromContext(ctx)

	userID, err := a.sessions.Resolve(ctx, refreshToken)
	if errors.Is(err, repository.ErrNotFound) {
		return "", NewError(ErrorCodeUnauthorized, "refresh token is invalid or revoked")
	}
	if err != nil {
		l.Error("failed to resolve refresh token", zap.Error(err))
		return "", NewError(ErrorCodeUnspecified, "failed to refresh token")
	}

	accessToken, err := a.tokens.GenerateAccessToken(userID)
	if err != nil {
		l.Error("failed to generate access token", zap.Error(err))
		return "", NewError(ErrorCodeUnspecified, "failed to refresh token")
	}

	return accessToken, nil
}

// Logout revokes a refresh token, preventing further refresh.
func (a *AuthService) Logout(ctx context.Context, refreshToken string) *Error {
	l := logger.FromContext(ctx)

	if refreshToken == "" {
		return NewError(ErrorCodeInvalidBody, "refresh token is required")
	}

	err := a.sessions.Delete(ctx, refreshToken)
	if errors.Is(err, repository.ErrNotFound) {
		return NewError(ErrorCodeInvalidBody, "refresh token is not active")
	}
	if err != nil {
		l.Error("failed to delete refresh token", zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to log out")
	}

	return nil
}

// Deactivate soft-deletes the account. The email stays occupied and the
// user can no longer log in.
func (a *AuthService) Deactivate(ctx context.Context, userID string) *Error {
	l := logger.FromContext(ctx)

	err := a.users.SoftDelete(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return NewError(ErrorCodeNotFound, "user not found")
	}
	if err != nil {
		l.Error("failed to deactivate user", zap.String("user_id", userID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to deactivate user")
	}

	l.Info("user deactivated", zap.String("user_id", userID))

	return nil
}

// ResolveUser maps a bearer access token to the user id in its subject.
func (a *AuthService) ResolveUser(ctx context.Context, accessToken string) (string, *Error) {
	userID, err := a.tokens.VerifyToken(accessToken)
	if err != nil {
		return "", NewError(ErrorCodeUnauthorized, "invalid or expired token")
	}
	return userID, nil
}

func (a *AuthService) UserInfo(ctx context.Context, userID string) (*model.User, *Error) {
	l := logger.FromContext(ctx)

	user, err := a.users.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "user not found")
	}
	if err != nil {
		l.Error("failed to get user", zap.String("user_id", userID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get user info")
	}
	if user.IsDeleted {
		return nil, NewError(ErrorCodeNotFound, "user not found")
	}

	return &model.User{
		ID:             user.ID,
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		PatronymicName: user.PatronymicName,
		IsActive:       user.IsActive,
	}, nil
}

func (a *AuthService) WithUserRepo(r repository.UserRepository) *AuthService {
	a.users = r
	return a
}

func (a *AuthService) WithSessionRepo(r repository.SessionRepository) *AuthService {
	a.sessions = r
	return a
}
