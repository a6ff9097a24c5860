package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/latte-hq/latte-api/internal/domain"
	"github.com/latte-hq/latte-api/internal/repository"
	apperrors "github.com/latte-hq/latte-api/pkg/util/errorutil"
)

// UserService manages accounts. Deleting a user never cascades: created
// tickets and authored activities are reassigned to the bootstrap admin so
// the audit history survives.
type UserService struct {
	tx         repository.TxRunner
	users      repository.UserRepository
	roles      repository.RoleRepository
	tickets    repository.TicketRepository
	activities repository.ActivityRepository
}

// UserDependencies bundles repositories for the user service.
type UserDependencies struct {
	TxRunner     repository.TxRunner
	UserRepo     repository.UserRepository
	RoleRepo     repository.RoleRepository
	TicketRepo   repository.TicketRepository
	ActivityRepo repository.ActivityRepository
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		tx:         deps.TxRunner,
		users:      deps.UserRepo,
		roles:      deps.RoleRepo,
		tickets:    deps.TicketRepo,
		activities: deps.ActivityRepo,
	}
}

// UserUpdateInput carries profile fields an update may change. Role is the
// role name; empty keeps the current role.
type UserUpdateInput struct {
	Firstname string
	Email     string
	Role      string
}

// ListUsers returns users ordered by creation time, newest first.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, int64, error) {
	users, total, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return users, total, nil
}

// ListFirstnames returns just the display names, for assignee pickers.
func (s *UserService) ListFirstnames(ctx context.Context, limit, offset int) ([]string, int64, error) {
	names, total, err := s.users.ListFirstnames(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return names, total, nil
}

// CountUsers returns the total number of accounts.
func (s *UserService) CountUsers(ctx context.Context) (int64, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

// GetByEmail fetches a user by login identity.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UpdateSelf lets the actor change their own profile, never their role.
func (s *UserService) UpdateSelf(ctx context.Context, actor *domain.User, input UserUpdateInput) (*domain.User, error) {
	if !actor.Editable {
		return nil, apperrors.NewForbidden("user cannot be edited")
	}
	actor.Firstname = input.Firstname
	actor.Email = input.Email
	if err := s.users.Update(ctx, actor); err != nil {
		return nil, apperrors.MapError(err)
	}
	return actor, nil
}

// UpdateUser updates another account, including its role.
func (s *UserService) UpdateUser(ctx context.Context, email string, input UserUpdateInput) (*domain.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !user.Editable {
		return nil, apperrors.NewForbidden("user cannot be edited")
	}
	user.Firstname = input.Firstname
	user.Email = input.Email
	if input.Role != "" && (user.Role == nil || input.Role != user.Role.Name) {
		role, err := s.roles.GetByName(ctx, input.Role)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("role", map[string]any{"role": input.Role})
			}
			return nil, apperrors.MapError(err)
		}
		user.RoleID = role.ID
		user.Role = role
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// DeleteUser removes an account after moving its footprint to the fallback
// admin: created tickets and authored activities change owner, assigned
// tickets are unassigned. All of it commits in one transaction.
func (s *UserService) DeleteUser(ctx context.Context, email string) error {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !user.Deletable {
		return apperrors.NewForbidden("user cannot be deleted")
	}
	fallback, err := s.users.GetFallback(ctx)
	if err != nil {
		return apperrors.MapError(err)
	}

	err = s.tx.InTx(ctx, func(tx pgx.Tx) error {
		tickets := s.tickets.WithTx(tx)
		if err := tickets.ReassignCreatedBy(ctx, user.ID, fallback.ID); err != nil {
			return err
		}
		if err := s.activities.WithTx(tx).ReassignAuthor(ctx, user.ID, fallback.ID); err != nil {
			return err
		}
		if err := tickets.ClearAssignee(ctx, user.ID); err != nil {
			return err
		}
		return s.users.WithTx(tx).Delete(ctx, user.ID)
	})
	return apperrors.MapError(err)
}

// ResetPasswordInput carries the double-entry password pair.
type ResetPasswordInput struct {
	UpdatePassword  string
	ConfirmPassword string
}
