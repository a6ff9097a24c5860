package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/latte-hq/latte-api/internal/domain"
	"github.com/latte-hq/latte-api/internal/repository"
	apperrors "github.com/latte-hq/latte-api/pkg/util/errorutil"
)

// RoleService manages roles and their authority grants. Seeded roles are
// protected by their editable/deletable flags.
type RoleService struct {
	tx          repository.TxRunner
	roles       repository.RoleRepository
	authorities repository.AuthorityRepository
	users       repository.UserRepository
}

// RoleDependencies bundles repositories for the role service.
type RoleDependencies struct {
	TxRunner      repository.TxRunner
	RoleRepo      repository.RoleRepository
	AuthorityRepo repository.AuthorityRepository
	UserRepo      repository.UserRepository
}

// NewRoleService constructs the service.
func NewRoleService(deps RoleDependencies) *RoleService {
	return &RoleService{
		tx:          deps.TxRunner,
		roles:       deps.RoleRepo,
		authorities: deps.AuthorityRepo,
		users:       deps.UserRepo,
	}
}

// RoleInput describes a role create/update payload. Authorities are tokens
// in the order they should be granted.
type RoleInput struct {
	Name        string
	Authorities []string
}

// ListRoles returns all roles with their authority tokens.
func (s *RoleService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return roles, nil
}

// ListAuthorities returns the fixed authority catalogue.
func (s *RoleService) ListAuthorities(ctx context.Context) ([]domain.Authority, error) {
	authorities, err := s.authorities.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return authorities, nil
}

// CreateRole creates a custom role. The name must be unique and every
// authority token must exist in the catalogue.
func (s *RoleService) CreateRole(ctx context.Context, input RoleInput) (*domain.Role, error) {
	if _, err := s.roles.GetByName(ctx, input.Name); err == nil {
		return nil, apperrors.NewValidationError("role already exists", map[string]any{"role": input.Name})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	authorityIDs, err := s.resolveAuthorities(ctx, input.Authorities)
	if err != nil {
		return nil, err
	}

	role := &domain.Role{
		Name:        input.Name,
		Authorities: input.Authorities,
		Editable:    true,
		Deletable:   true,
	}
	err = s.tx.InTx(ctx, func(tx pgx.Tx) error {
		return s.roles.WithTx(tx).Create(ctx, role, authorityIDs)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return role, nil
}

// UpdateRole renames a role and replaces its authority grants.
func (s *RoleService) UpdateRole(ctx context.Context, roleID int64, input RoleInput) (*domain.Role, error) {
	role, err := s.getRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if !role.Editable {
		return nil, apperrors.NewForbidden("role cannot be edited")
	}
	if input.Name != role.Name {
		if _, err := s.roles.GetByName(ctx, input.Name); err == nil {
			return nil, apperrors.NewValidationError("role already exists", map[string]any{"role": input.Name})
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
	}

	authorityIDs, err := s.resolveAuthorities(ctx, input.Authorities)
	if err != nil {
		return nil, err
	}

	role.Name = input.Name
	role.Authorities = input.Authorities
	err = s.tx.InTx(ctx, func(tx pgx.Tx) error {
		return s.roles.WithTx(tx).Update(ctx, role, authorityIDs)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return role, nil
}

// DeleteRole removes a role after atomically moving every user holding it
// to the replacement role. A role cannot replace itself.
func (s *RoleService) DeleteRole(ctx context.Context, roleID, replacementID int64) error {
	if roleID == replacementID {
		return apperrors.NewValidationError("replacement role must differ from the deleted role", nil)
	}
	role, err := s.getRole(ctx, roleID)
	if err != nil {
		return err
	}
	if !role.Deletable {
		return apperrors.NewForbidden("role cannot be deleted")
	}
	replacement, err := s.getRole(ctx, replacementID)
	if err != nil {
		return err
	}

	err = s.tx.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.users.WithTx(tx).ReassignRole(ctx, role.ID, replacement.ID); err != nil {
			return err
		}
		return s.roles.WithTx(tx).Delete(ctx, role.ID)
	})
	return apperrors.MapError(err)
}

func (s *RoleService) getRole(ctx context.Context, roleID int64) (*domain.Role, error) {
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("role", map[string]any{"role_id": roleID})
		}
		return nil, apperrors.MapError(err)
	}
	return role, nil
}

func (s *RoleService) resolveAuthorities(ctx context.Context, tokens []string) ([]int64, error) {
	ids := make([]int64, 0, len(tokens))
	for _, token := range tokens {
		authority, err := s.authorities.GetByToken(ctx, token)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("authority", map[string]any{"token": token})
			}
			return nil, apperrors.MapError(err)
		}
		ids = append(ids, authority.ID)
	}
	return ids, nil
}
