package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/latte-hq/latte-api/internal/domain"
)

// RoleRepository persists roles and their ordered authority grants.
type RoleRepository interface {
	WithTx(tx pgx.Tx) RoleRepository
	Create(ctx context.Context, role *domain.Role, authorityIDs []int64) error
	Update(ctx context.Context, role *domain.Role, authorityIDs []int64) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Role, error)
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
}

type roleRepository struct {
	db Querier
}

// NewRoleRepository instantiates repository.
func NewRoleRepository(pool *pgxpool.Pool) RoleRepository {
	return &roleRepository{db: pool}
}

func (r *roleRepository) WithTx(tx pgx.Tx) RoleRepository {
	return &roleRepository{db: tx}
}

const roleSelect = `
        SELECT r.id, r.name, r.editable, r.deletable, r.created_at, r.updated_at,
               COALESCE(array_agg(a.token ORDER BY ra.position) FILTER (WHERE a.token IS NOT NULL), '{}')
        FROM roles r
        LEFT JOIN role_authorities ra ON ra.role_id = r.id
        LEFT JOIN authorities a ON a.id = ra.authority_id`

const roleGroup = ` GROUP BY r.id`

func (r *roleRepository) Create(ctx context.Context, role *domain.Role, authorityIDs []int64) error {
	const query = `
        INSERT INTO roles (name, editable, deletable)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	if err := r.db.QueryRow(ctx, query, role.Name, role.Editable, role.Deletable).
		Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return err
	}
	return r.replaceGrants(ctx, role.ID, authorityIDs)
}

func (r *roleRepository) Update(ctx context.Context, role *domain.Role, authorityIDs []int64) error {
	const query = `UPDATE roles SET name=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.db.Exec(ctx, query, role.Name, role.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM role_authorities WHERE role_id=$1`, role.ID); err != nil {
		return err
	}
	return r.replaceGrants(ctx, role.ID, authorityIDs)
}

func (r *roleRepository) replaceGrants(ctx context.Context, roleID int64, authorityIDs []int64) error {
	for position, authorityID := range authorityIDs {
		const grant = `INSERT INTO role_authorities (role_id, authority_id, position) VALUES ($1,$2,$3)`
		if _, err := r.db.Exec(ctx, grant, roleID, authorityID, position); err != nil {
			return err
		}
	}
	return nil
}

func (r *roleRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM role_authorities WHERE role_id=$1`, id); err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM roles WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *roleRepository) GetByID(ctx context.Context, id int64) (*domain.Role, error) {
	return r.fetchSingle(ctx, roleSelect+` WHERE r.id=$1`+roleGroup, id)
}

func (r *roleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	return r.fetchSingle(ctx, roleSelect+` WHERE r.name=$1`+roleGroup, name)
}

func (r *roleRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Role, error) {
	var role domain.Role
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&role.ID,
		&role.Name,
		&role.Editable,
		&role.Deletable,
		&role.CreatedAt,
		&role.UpdatedAt,
		&role.Authorities,
	); err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) List(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.db.Query(ctx, roleSelect+roleGroup+` ORDER BY r.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(
			&role.ID,
			&role.Name,
			&role.Editable,
			&role.Deletable,
			&role.CreatedAt,
			&role.UpdatedAt,
			&role.Authorities,
		); err != nil {
			return nil, err
		}
		result = append(result, role)
	}
	return result, rows.Err()
}
