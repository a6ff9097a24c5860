package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/latte-hq/latte-api/internal/domain"
)

// AuthorityRepository reads the seeded authority tokens. The set is fixed;
// there are no writes outside migrations.
type AuthorityRepository interface {
	GetByToken(ctx context.Context, token string) (*domain.Authority, error)
	List(ctx context.Context) ([]domain.Authority, error)
}

type authorityRepository struct {
	db Querier
}

// NewAuthorityRepository instantiates repository.
func NewAuthorityRepository(pool *pgxpool.Pool) AuthorityRepository {
	return &authorityRepository{db: pool}
}

func (r *authorityRepository) GetByToken(ctx context.Context, token string) (*domain.Authority, error) {
	var authority domain.Authority
	if err := r.db.QueryRow(ctx, `SELECT id, token FROM authorities WHERE token=$1`, token).
		Scan(&authority.ID, &authority.Token); err != nil {
		return nil, err
	}
	return &authority, nil
}

func (r *authorityRepository) List(ctx context.Context) ([]domain.Authority, error) {
	rows, err := r.db.Query(ctx, `SELECT id, token FROM authorities ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Authority
	for rows.Next() {
		var authority domain.Authority
		if err := rows.Scan(&authority.ID, &authority.Token); err != nil {
			return nil, err
		}
		result = append(result, authority)
	}
	return result, rows.Err()
}
