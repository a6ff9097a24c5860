package service

import (
	"context"

	"github.com/latte-hq/latte-api/internal/auth"
	"github.com/latte-hq/latte-api/internal/domain"
	"github.com/latte-hq/latte-api/internal/repository"
	apperrors "github.com/latte-hq/latte-api/pkg/util/errorutil"
)

// PasswordService changes account passwords with a double-entry check.
type PasswordService struct {
	users      repository.UserRepository
	userLookup *UserService
	bcryptCost int
}

// NewPasswordService constructs the service.
func NewPasswordService(users repository.UserRepository, userService *UserService, bcryptCost int) *PasswordService {
	return &PasswordService{users: users, userLookup: userService, bcryptCost: bcryptCost}
}

// ResetOwnPassword changes the actor's password.
func (s *PasswordService) ResetOwnPassword(ctx context.Context, actor *domain.User, input ResetPasswordInput) (*domain.User, error) {
	return s.reset(ctx, actor, input)
}

// ResetPassword changes another user's password; callers gate this on the
// reset authority.
func (s *PasswordService) ResetPassword(ctx context.Context, email string, input ResetPasswordInput) (*domain.User, error) {
	user, err := s.userLookup.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.reset(ctx, user, input)
}

func (s *PasswordService) reset(ctx context.Context, user *domain.User, input ResetPasswordInput) (*domain.User, error) {
	if !user.Editable {
		return nil, apperrors.NewForbidden("user cannot be edited")
	}
	if input.UpdatePassword != input.ConfirmPassword {
		return nil, apperrors.NewValidationError("update password and confirm password do not match", nil)
	}
	hash, err := auth.HashPassword(input.ConfirmPassword, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}
