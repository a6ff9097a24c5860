package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/latte-hq/latte-api/internal/auth"
	"github.com/latte-hq/latte-api/internal/domain"
	"github.com/latte-hq/latte-api/internal/repository"
	apperrors "github.com/latte-hq/latte-api/pkg/util/errorutil"
)

// BootstrapConfig controls first-run admin provisioning.
type BootstrapConfig struct {
	AdminEmail    string
	AdminPassword string // generated when empty
	AdminRole     string
	CredentialDir string
	BcryptCost    int
}

// EnsureBootstrapAdmin creates the initial admin account on an empty user
// table. The admin is not deletable so the system always keeps a fallback
// owner for reassigned records. When no password is configured a random one
// is generated and written to a credential file readable only by the
// process owner.
func EnsureBootstrapAdmin(ctx context.Context, users repository.UserRepository, roles repository.RoleRepository, cfg BootstrapConfig, logger *zap.Logger) error {
	count, err := users.Count(ctx)
	if err != nil {
		return apperrors.MapError(err)
	}
	if count > 0 {
		return nil
	}

	role, err := roles.GetByName(ctx, cfg.AdminRole)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("role", map[string]any{"role": cfg.AdminRole})
		}
		return apperrors.MapError(err)
	}

	password := cfg.AdminPassword
	generated := password == ""
	if generated {
		password = uuid.NewString()
	}

	hash, err := auth.HashPassword(password, cfg.BcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}

	admin := &domain.User{
		Firstname:    "Admin",
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		RoleID:       role.ID,
		Role:         role,
		Editable:     true,
		Deletable:    false,
	}
	if err := users.Create(ctx, admin); err != nil {
		return apperrors.MapError(err)
	}

	if generated {
		if err := writeCredentialFile(cfg.CredentialDir, cfg.AdminEmail, password); err != nil {
			logger.Warn("could not persist generated admin credentials", zap.Error(err))
		}
	}
	logger.Info("bootstrap admin created", zap.String("email", cfg.AdminEmail))
	return nil
}

func writeCredentialFile(dir, email, password string) error {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	path := filepath.Join(dir, ".cred")
	content := fmt.Sprintf("email: %s\npassword: %s\n", email, password)
	return os.WriteFile(path, []byte(content), 0o600)
}
