package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/latte-hq/latte-api/internal/auth"
	"github.com/latte-hq/latte-api/internal/domain"
	"github.com/latte-hq/latte-api/internal/repository"
	apperrors "github.com/latte-hq/latte-api/pkg/util/errorutil"
)

// AuthService handles registration, login and token refresh.
type AuthService struct {
	users      repository.UserRepository
	roles      repository.RoleRepository
	tokens     *auth.TokenManager
	bcryptCost int
}

// NewAuthService constructs the service.
func NewAuthService(users repository.UserRepository, roles repository.RoleRepository, tokens *auth.TokenManager, bcryptCost int) *AuthService {
	return &AuthService{users: users, roles: roles, tokens: tokens, bcryptCost: bcryptCost}
}

// RegisterInput describes a signup payload.
type RegisterInput struct {
	Firstname string
	Email     string
	Password  string
	Role      string
}

// TokenPair carries the issued access and refresh tokens.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Register creates a new user account. Email and firstname must both be
// unused, and the role is resolved by name.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	taken, err := s.users.ExistsByEmailOrFirstname(ctx, input.Email, input.Firstname)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if taken {
		return nil, apperrors.NewValidationError("email or firstname already in use", map[string]any{
			"email":     input.Email,
			"firstname": input.Firstname,
		})
	}

	role, err := s.roles.GetByName(ctx, input.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("role", map[string]any{"role": input.Role})
		}
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Firstname:    input.Firstname,
		Email:        input.Email,
		PasswordHash: hash,
		RoleID:       role.ID,
		Role:         role,
		Editable:     true,
		Deletable:    true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Login verifies credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a fresh token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.User, *TokenPair, error) {
	claims, err := s.tokens.ParseToken(refreshToken, auth.TokenKindRefresh)
	if err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid refresh token")
	}

	user, err := s.users.GetByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("user not found")
		}
		return nil, nil, apperrors.MapError(err)
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *AuthService) issueTokens(user *domain.User) (*TokenPair, error) {
	roleName := ""
	if user.Role != nil {
		roleName = user.Role.Name
	}
	access, accessExp, err := s.tokens.GenerateAccessToken(user.Email, roleName)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	refresh, refreshExp, err := s.tokens.GenerateRefreshToken(user.Email, roleName)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}
