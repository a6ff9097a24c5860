package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/latte-hq/latte-api/internal/domain"
)

// UserRepository defines persistence access for users. Lookups return the
// user with its role and authority tokens resolved, so authorization checks
// run against a freshly loaded set.
type UserRepository interface {
	WithTx(tx pgx.Tx) UserRepository
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByFirstname(ctx context.Context, firstname string) (*domain.User, error)
	ExistsByEmailOrFirstname(ctx context.Context, email, firstname string) (bool, error)
	GetFallback(ctx context.Context) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, int64, error)
	ListFirstnames(ctx context.Context, limit, offset int) ([]string, int64, error)
	Count(ctx context.Context) (int64, error)
	ReassignRole(ctx context.Context, fromRoleID, toRoleID int64) error
}

type userRepository struct {
	db Querier
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{db: pool}
}

func (r *userRepository) WithTx(tx pgx.Tx) UserRepository {
	return &userRepository{db: tx}
}

const userSelect = `
        SELECT u.id, u.firstname, u.email, u.password_hash, u.role_id, u.editable, u.deletable,
               u.created_at, u.updated_at,
               r.name, r.editable, r.deletable, r.created_at, r.updated_at,
               COALESCE(array_agg(a.token ORDER BY ra.position) FILTER (WHERE a.token IS NOT NULL), '{}')
        FROM users u
        JOIN roles r ON r.id = u.role_id
        LEFT JOIN role_authorities ra ON ra.role_id = r.id
        LEFT JOIN authorities a ON a.id = ra.authority_id`

const userGroup = ` GROUP BY u.id, r.id`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (firstname, email, password_hash, role_id, editable, deletable)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		user.Firstname,
		user.Email,
		user.PasswordHash,
		user.RoleID,
		user.Editable,
		user.Deletable,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET firstname=$1, email=$2, password_hash=$3, role_id=$4, editable=$5, deletable=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.db.Exec(ctx, query,
		user.Firstname,
		user.Email,
		user.PasswordHash,
		user.RoleID,
		user.Editable,
		user.Deletable,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.fetchSingle(ctx, userSelect+` WHERE u.id=$1`+userGroup, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, userSelect+` WHERE u.email=$1`+userGroup, email)
}

func (r *userRepository) GetByFirstname(ctx context.Context, firstname string) (*domain.User, error) {
	return r.fetchSingle(ctx, userSelect+` WHERE u.firstname=$1`+userGroup, firstname)
}

// GetFallback returns the bootstrap admin, the single non-deletable account
// orphaned records are reassigned to.
func (r *userRepository) GetFallback(ctx context.Context) (*domain.User, error) {
	return r.fetchSingle(ctx, userSelect+` WHERE u.deletable=false`+userGroup+` ORDER BY u.id LIMIT 1`)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var user domain.User
	var role domain.Role
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&user.ID,
		&user.Firstname,
		&user.Email,
		&user.PasswordHash,
		&user.RoleID,
		&user.Editable,
		&user.Deletable,
		&user.CreatedAt,
		&user.UpdatedAt,
		&role.Name,
		&role.Editable,
		&role.Deletable,
		&role.CreatedAt,
		&role.UpdatedAt,
		&role.Authorities,
	); err != nil {
		return nil, err
	}
	role.ID = user.RoleID
	user.Role = &role
	return &user, nil
}

func (r *userRepository) ExistsByEmailOrFirstname(ctx context.Context, email, firstname string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE email=$1 OR firstname=$2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, email, firstname).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]domain.User, int64, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	limit, offset = normalizePage(limit, offset)
	query := userSelect + userGroup + ` ORDER BY u.created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		var role domain.Role
		if err := rows.Scan(
			&user.ID,
			&user.Firstname,
			&user.Email,
			&user.PasswordHash,
			&user.RoleID,
			&user.Editable,
			&user.Deletable,
			&user.CreatedAt,
			&user.UpdatedAt,
			&role.Name,
			&role.Editable,
			&role.Deletable,
			&role.CreatedAt,
			&role.UpdatedAt,
			&role.Authorities,
		); err != nil {
			return nil, 0, err
		}
		role.ID = user.RoleID
		user.Role = &role
		result = append(result, user)
	}
	return result, total, rows.Err()
}

func (r *userRepository) ListFirstnames(ctx context.Context, limit, offset int) ([]string, int64, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	limit, offset = normalizePage(limit, offset)
	rows, err := r.db.Query(ctx, `SELECT firstname FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, 0, err
		}
		names = append(names, name)
	}
	return names, total, rows.Err()
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *userRepository) ReassignRole(ctx context.Context, fromRoleID, toRoleID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET role_id=$1, updated_at=NOW() WHERE role_id=$2`, toRoleID, fromRoleID)
	return err
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
